package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartapp "github.com/wyfcoding/storefront/internal/cart/application"
	cartdomain "github.com/wyfcoding/storefront/internal/cart/domain"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	catalog "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/catalog/infrastructure/export"
	"github.com/wyfcoding/storefront/internal/memstore"
	"github.com/wyfcoding/storefront/internal/storefront/application"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/mq"
)

const cookieName = "storefront_session"

type noImages struct{}

func (noImages) Upload(ctx context.Context, content []byte, fileName, folder string) (string, error) {
	return "", fmt.Errorf("not configured")
}

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	publisher := mq.NewLogPublisher()
	catalogSvc := catalogapp.NewCatalogApplicationService(
		catalogapp.NewCatalogCommandService(store.Products(), noImages{}, publisher, nil),
		catalogapp.NewCatalogQueryService(store.Products(), export.NewXLSXExporter(), nil),
	)
	cartSvc := cartapp.NewCartApplicationService(
		cartapp.NewCartCommandService(store.Carts(), store.Sessions(), store.Products(), publisher, nil),
		cartapp.NewCartQueryService(store.Carts()),
	)

	router := gin.New()
	router.Use(middleware.SessionMiddleware(middleware.SessionOptions{CookieName: cookieName, MaxAge: time.Hour}))
	NewStorefrontHandler(application.NewStorefrontService(catalogSvc, cartSvc)).RegisterRoutes(router.Group("/api/v1"))

	return &testServer{router: router, store: store}
}

func (s *testServer) product(t *testing.T, name, desc, price string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{Name: name, Description: desc, Price: decimal.RequireFromString(price)}
	require.NoError(t, s.store.Products().Save(context.Background(), p))
	return p
}

// client 保存会话 Cookie，模拟同一个浏览器
type client struct {
	t      *testing.T
	server *testServer
	cookie *http.Cookie
}

func (s *testServer) client(t *testing.T) *client {
	return &client{t: t, server: s}
}

func (c *client) do(method, path, contentType, body string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.server.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == cookieName {
			c.cookie = ck
		}
	}

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (c *client) json(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	return c.do(method, path, "application/json", body)
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 13; i++ {
		s.product(t, fmt.Sprintf("Item %d", i), "", "1.00")
	}
	c := s.client(t)

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"default page", "/api/v1/products", http.StatusOK, 12},
		{"second page", "/api/v1/products?page=2", http.StatusOK, 1},
		{"past the end", "/api/v1/products?page=5", http.StatusOK, 0},
		{"largest page index", "/api/v1/products?page=9223372036854775807", http.StatusOK, 0},
		{"zero page", "/api/v1/products?page=0", http.StatusBadRequest, 0},
		{"not a number", "/api/v1/products?page=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := c.json(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, false, body["success"])
				return
			}
			assert.Len(t, body["products"], tt.count)
			pagination := body["pagination"].(map[string]any)
			assert.EqualValues(t, 13, pagination["total"])
		})
	}
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Widget", "", "9.99")
	c := s.client(t)

	w, body := c.json(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	product := body["product"].(map[string]any)
	assert.Equal(t, "Widget", product["name"])
	assert.Equal(t, "9.99", product["price"])
	assert.Empty(t, body["images"])

	w, _ = c.json(http.MethodGet, "/api/v1/products/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = c.json(http.MethodGet, "/api/v1/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	s.product(t, "widget-9000", "", "1.00")
	s.product(t, "Sprocket", "", "1.00")
	c := s.client(t)

	w, body := c.json(http.MethodGet, "/api/v1/search?query=WIDGET", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WIDGET", body["query"])
	require.Len(t, body["products"], 1)

	w, body = c.json(http.MethodGet, "/api/v1/search", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["products"])
	assert.Empty(t, body["products"])
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Widget", "", "9.99")
	c := s.client(t)
	addPath := fmt.Sprintf("/api/v1/cart/add/%d", p.ID)

	w, body := c.json(http.MethodPost, addPath, `{"quantity": 2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["item_count"])
	assert.Equal(t, "19.98", body["total_price"])
	itemID := body["item"].(map[string]any)["id"].(float64)

	w, body = c.do(http.MethodPost, addPath, "application/x-www-form-urlencoded", "quantity=3")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 5, body["item_count"])
	assert.Equal(t, "49.95", body["total_price"])
	assert.EqualValues(t, itemID, body["item"].(map[string]any)["id"])

	w, body = c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/update/%d", int(itemID)), `{"quantity": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["item_count"])
	assert.Equal(t, "9.99", body["total_price"])

	w, body = c.json(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 1)

	w, body = c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/remove/%d", int(itemID)), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = c.json(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])
	assert.Equal(t, "0", body["total_price"])
	assert.EqualValues(t, 0, body["item_count"])
}

func TestAddToCartDefaultsAndErrors(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Widget", "", "2.50")
	c := s.client(t)

	w, body := c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/add/%d", p.ID), "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, body["item_count"])

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"zero quantity", fmt.Sprintf("/api/v1/cart/add/%d", p.ID), `{"quantity": 0}`, http.StatusBadRequest},
		{"malformed body", fmt.Sprintf("/api/v1/cart/add/%d", p.ID), `{"quantity": "many"}`, http.StatusBadRequest},
		{"unknown product", "/api/v1/cart/add/999", `{"quantity": 1}`, http.StatusNotFound},
		{"bad product id", "/api/v1/cart/add/x", `{"quantity": 1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := c.json(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAddUnknownProductCreatesNoCart(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	w, body := c.json(http.MethodPost, "/api/v1/cart/add/999", `{"quantity": 1}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	_, err := s.store.Carts().GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NotNil(t, c.cookie)
	_, bound, err := s.store.Sessions().Lookup(context.Background(), c.cookie.Value)
	require.NoError(t, err)
	assert.False(t, bound)
}

func TestAddToCartQuantityLimit(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Widget", "", "1.00")
	c := s.client(t)
	path := fmt.Sprintf("/api/v1/cart/add/%d", p.ID)

	w, _ := c.json(http.MethodPost, path, `{"quantity": 9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = c.json(http.MethodPost, path, fmt.Sprintf(`{"quantity": %d}`, cartdomain.MaxItemQuantity))
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := c.json(http.MethodPost, path, `{"quantity": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = c.json(http.MethodGet, "/api/v1/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, cartdomain.MaxItemQuantity, body["item_count"])
}

func TestUpdateToZeroRemovesItem(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Widget", "", "9.99")
	c := s.client(t)

	_, body := c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/add/%d", p.ID), `{"quantity": 3}`)
	itemID := int(body["item"].(map[string]any)["id"].(float64))

	w, body := c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/update/%d", itemID), `{"quantity": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["removed"])
	assert.EqualValues(t, 0, body["item_count"])
}

func TestOtherSessionsCannotTouchItems(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Widget", "", "9.99")
	owner := s.client(t)
	other := s.client(t)

	_, body := owner.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/add/%d", p.ID), `{"quantity": 2}`)
	itemID := int(body["item"].(map[string]any)["id"].(float64))

	w, body := other.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/update/%d", itemID), `{"quantity": 7}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = other.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/remove/%d", itemID), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = other.json(http.MethodPost, "/api/v1/cart/remove/4242", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, body = owner.json(http.MethodGet, "/api/v1/cart", "")
	assert.EqualValues(t, 2, body["item_count"])
}

func TestClearCart(t *testing.T) {
	s := newTestServer(t)
	a := s.product(t, "A", "", "1.00")
	b := s.product(t, "B", "", "2.00")
	c := s.client(t)

	c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/add/%d", a.ID), "")
	c.json(http.MethodPost, fmt.Sprintf("/api/v1/cart/add/%d", b.ID), "")

	w, body := c.json(http.MethodPost, "/api/v1/cart/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	_, body = c.json(http.MethodGet, "/api/v1/cart", "")
	assert.Empty(t, body["items"])
}
