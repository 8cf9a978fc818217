package application

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/internal/catalog/infrastructure/export"
	"github.com/wyfcoding/storefront/internal/memstore"
	"github.com/wyfcoding/storefront/pkg/apperrors"
)

type fakeImageStore struct {
	mu      sync.Mutex
	err     error
	folders []string
	names   []string
}

func (f *fakeImageStore) Upload(ctx context.Context, content []byte, fileName, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.folders = append(f.folders, folder)
	f.names = append(f.names, fileName)
	return "https://ik.example.com" + folder + fileName, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, topic, key string, event any) error { return nil }

func newService(t *testing.T) (*CatalogApplicationService, *fakeImageStore) {
	t.Helper()
	store := memstore.New()
	images := &fakeImageStore{}
	cmd := NewCatalogCommandService(store.Products(), images, nopPublisher{}, nil)
	query := NewCatalogQueryService(store.Products(), export.NewXLSXExporter(), nil)
	return NewCatalogApplicationService(cmd, query), images
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	// 左半透明，右半红色
	for x := w / 2; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func createProduct(t *testing.T, svc *CatalogApplicationService, name, desc, price string) *domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), CreateProductCommand{
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

// resizedHeaderPNG 只改写 IHDR 中声明的宽高，像素数据保持 1x1
func resizedHeaderPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestPrepareImage(t *testing.T) {
	t.Run("png becomes white-backed jpeg", func(t *testing.T) {
		prepared, err := PrepareImage(ImageUpload{FileName: "photos/logo.png", Content: pngBytes(t, 16, 16)})
		require.NoError(t, err)
		assert.Equal(t, "logo.jpg", prepared.FileName)

		img, err := jpeg.Decode(bytes.NewReader(prepared.Content))
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())

		r, g, b, _ := img.At(2, 2).RGBA()
		assert.Greater(t, r>>8, uint32(230))
		assert.Greater(t, g>>8, uint32(230))
		assert.Greater(t, b>>8, uint32(230))

		r, g, _, _ = img.At(13, 13).RGBA()
		assert.Greater(t, r>>8, uint32(150))
		assert.Less(t, g>>8, uint32(80))
	})

	tests := []struct {
		name    string
		upload  ImageUpload
		wantErr error
	}{
		{"empty", ImageUpload{FileName: "a.png"}, apperrors.ErrInvalidInput},
		{"text file", ImageUpload{FileName: "notes.txt", Content: []byte("hello, this is plain text")}, apperrors.ErrInvalidInput},
		{"too large", ImageUpload{FileName: "big.png", Content: make([]byte, MaxImageSize+1)}, apperrors.ErrInvalidInput},
		{"too wide", ImageUpload{FileName: "wide.png", Content: resizedHeaderPNG(t, 30000, 10)}, apperrors.ErrInvalidInput},
		{"too many pixels", ImageUpload{FileName: "huge.png", Content: resizedHeaderPNG(t, 9000, 9000)}, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareImage(tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJPEGFileName(t *testing.T) {
	tests := map[string]string{
		"photo.png":        "photo.jpg",
		"dir/photo.gif":    "photo.jpg",
		`C:\tmp\shot.jpeg`: "shot.jpg",
		"archive.tar.png":  "archive.tar.jpg",
		"":                 "image.jpg",
		"noext":            "noext.jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, jpegFileName(in), in)
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("with primary image", func(t *testing.T) {
		svc, images := newService(t)
		p, err := svc.CreateProduct(ctx, CreateProductCommand{
			Name:         "Widget",
			Price:        decimal.RequireFromString("9.99"),
			PrimaryImage: &ImageUpload{FileName: "widget.png", Content: pngBytes(t, 2, 2)},
		})
		require.NoError(t, err)
		require.NotNil(t, p.PrimaryImageURL)
		assert.Equal(t, "https://ik.example.com/products/primary/widget.jpg", *p.PrimaryImageURL)
		assert.Equal(t, []string{domain.PrimaryImageFolder}, images.folders)
	})

	t.Run("upload failure stores nothing", func(t *testing.T) {
		svc, images := newService(t)
		images.err = errors.New("connection reset")
		_, err := svc.CreateProduct(ctx, CreateProductCommand{
			Name:         "Widget",
			Price:        decimal.RequireFromString("9.99"),
			PrimaryImage: &ImageUpload{FileName: "widget.png", Content: pngBytes(t, 2, 2)},
		})
		assert.ErrorIs(t, err, apperrors.ErrUpload)

		products, page, err := svc.ListProducts(ctx, 1, DefaultPageSize)
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.Zero(t, page.Total)
	})

	t.Run("invalid fields", func(t *testing.T) {
		svc, _ := newService(t)
		tests := []struct {
			name  string
			pname string
			price string
		}{
			{"blank name", "   ", "1.00"},
			{"negative price", "Widget", "-1"},
			{"three decimals", "Widget", "1.005"},
			{"name too long", strings.Repeat("x", 201), "1.00"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateProduct(ctx, CreateProductCommand{Name: tt.pname, Price: decimal.RequireFromString(tt.price)})
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			})
		}
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, err := svc.CreateProduct(ctx, CreateProductCommand{
		Name:         "Widget",
		Price:        decimal.RequireFromString("9.99"),
		PrimaryImage: &ImageUpload{FileName: "w.png", Content: pngBytes(t, 2, 2)},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, UpdateProductCommand{
		ID:          p.ID,
		Name:        "Widget Pro",
		Description: "better",
		Price:       decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget Pro", updated.Name)
	require.NotNil(t, updated.PrimaryImageURL)
	assert.Equal(t, *p.PrimaryImageURL, *updated.PrimaryImageURL)

	_, err = svc.UpdateProduct(ctx, UpdateProductCommand{ID: 999, Name: "x", Price: decimal.Zero})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	for i := 0; i < 13; i++ {
		createProduct(t, svc, "Item", "", "1.00")
	}

	first, page, err := svc.ListProducts(ctx, 1, DefaultPageSize)
	require.NoError(t, err)
	assert.Len(t, first, 12)
	assert.EqualValues(t, 13, page.Total)
	assert.EqualValues(t, 2, page.Pages)
	assert.True(t, page.HasNext)
	assert.Greater(t, first[0].ID, first[11].ID)

	second, page, err := svc.ListProducts(ctx, 2, DefaultPageSize)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.EqualValues(t, 1, second[0].ID)

	beyond, _, err := svc.ListProducts(ctx, 9, DefaultPageSize)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	farthest, page, err := svc.ListProducts(ctx, math.MaxInt, DefaultPageSize)
	require.NoError(t, err)
	assert.Empty(t, farthest)
	assert.EqualValues(t, 13, page.Total)
	assert.False(t, page.HasNext)

	_, _, err = svc.ListProducts(ctx, 0, DefaultPageSize)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	widget := createProduct(t, svc, "widget-9000", "", "1.00")
	gadget := createProduct(t, svc, "Gadget", "Works with any WIDGET", "2.00")
	createProduct(t, svc, "Sprocket", "metal", "3.00")
	reducer := createProduct(t, svc, "reducer", "", "4.00")
	shirt := createProduct(t, svc, "Red shirt", "", "5.00")

	tests := []struct {
		name  string
		query string
		want  []uint
	}{
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"case insensitive name and description", "WIDGET", []uint{gadget.ID, widget.ID}},
		{"substring", "9000", []uint{widget.ID}},
		{"no match", "zzz", nil},
		{"wildcard characters are literal", "%", nil},
		{"surrounding whitespace is kept", "red ", []uint{shirt.ID}},
		{"prefix", "red", []uint{shirt.ID, reducer.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query)
			require.NoError(t, err)
			require.NotNil(t, got)
			ids := make([]uint, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestProductImages(t *testing.T) {
	ctx := context.Background()
	svc, images := newService(t)
	p := createProduct(t, svc, "Widget", "", "1.00")

	second, err := svc.AddProductImage(ctx, AddProductImageCommand{
		ProductID: p.ID,
		Order:     2,
		Image:     ImageUpload{FileName: "b.png", Content: pngBytes(t, 2, 2)},
	})
	require.NoError(t, err)
	first, err := svc.AddProductImage(ctx, AddProductImageCommand{
		ProductID: p.ID,
		Order:     1,
		Image:     ImageUpload{FileName: "a.png", Content: pngBytes(t, 2, 2)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AdditionalImageFolder, domain.AdditionalImageFolder}, images.folders)

	_, err = svc.AddProductImage(ctx, AddProductImageCommand{
		ProductID: p.ID,
		Order:     1,
		Image:     ImageUpload{FileName: "c.png", Content: pngBytes(t, 2, 2)},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Len(t, images.names, 2)

	detail, err := svc.GetProductDetail(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Images, 2)
	assert.Equal(t, first.ID, detail.Images[0].ID)
	assert.Equal(t, second.ID, detail.Images[1].ID)

	updated, err := svc.SetPrimaryImage(ctx, p.ID, ImageUpload{FileName: "main.gif", Content: pngBytes(t, 2, 2)})
	require.NoError(t, err)
	assert.Equal(t, "https://ik.example.com/products/primary/main.jpg", *updated.PrimaryImageURL)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProductDetail(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestExportProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	createProduct(t, svc, "Widget", "", "9.99")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportProducts(ctx, &buf))
	assert.NotZero(t, buf.Len())

	contentType, ext := svc.ExportFormat()
	assert.Equal(t, "xlsx", ext)
	assert.Contains(t, contentType, "spreadsheetml")
}
