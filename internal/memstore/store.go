// Package memstore 进程内存储，供 database.driver = "memory" 的本地运行与单元测试使用
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	cart "github.com/wyfcoding/storefront/internal/cart/domain"
	catalog "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
)

// Store 商品、购物车与会话共享一把锁，删除语义与外键级联一致
type Store struct {
	mu sync.RWMutex

	products map[uint]*catalog.Product
	images   map[uint]*catalog.ProductImage
	carts    map[uint]*cart.Cart
	items    map[uint]*cart.CartItem
	sessions map[string]uint

	nextProduct, nextImage, nextCart, nextItem uint

	// last 上一次分配的时间戳，保证创建时间严格递增
	last time.Time
}

// New 创建空存储
func New() *Store {
	return &Store{
		products: make(map[uint]*catalog.Product),
		images:   make(map[uint]*catalog.ProductImage),
		carts:    make(map[uint]*cart.Cart),
		items:    make(map[uint]*cart.CartItem),
		sessions: make(map[string]uint),
	}
}

func (s *Store) now() time.Time {
	t := time.Now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Products 商品仓储视图
func (s *Store) Products() catalog.ProductRepository { return productRepo{s} }

// Carts 购物车仓储视图
func (s *Store) Carts() cart.CartRepository { return cartRepo{s} }

// Sessions 会话存储视图
func (s *Store) Sessions() cart.SessionStore { return sessionStore{s} }

type productRepo struct{ s *Store }

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	c.Images = nil
	if p.PrimaryImageURL != nil {
		url := *p.PrimaryImageURL
		c.PrimaryImageURL = &url
	}
	return &c
}

func (r productRepo) Save(ctx context.Context, product *catalog.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if product.ID == 0 {
		s.nextProduct++
		product.ID = s.nextProduct
		product.CreatedAt = now
	} else if existing, ok := s.products[product.ID]; ok {
		product.CreatedAt = existing.CreatedAt
	} else {
		if product.CreatedAt.IsZero() {
			product.CreatedAt = now
		}
		if product.ID > s.nextProduct {
			s.nextProduct = product.ID
		}
	}
	product.UpdatedAt = now
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r productRepo) GetByID(ctx context.Context, id uint) (*catalog.Product, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product %d not found", id)
	}
	return cloneProduct(p), nil
}

func (r productRepo) Delete(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return apperrors.NotFound("product %d not found", id)
	}
	delete(s.products, id)
	for imgID, img := range s.images {
		if img.ProductID == id {
			delete(s.images, imgID)
		}
	}
	for itemID, item := range s.items {
		if item.ProductID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

// newestFirst 调用方持有读锁
func (s *Store) newestFirst(match func(*catalog.Product) bool) []*catalog.Product {
	out := make([]*catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if match == nil || match(p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r productRepo) List(ctx context.Context, offset, limit int) ([]*catalog.Product, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.newestFirst(nil)
	total := int64(len(all))
	if offset >= len(all) {
		return []*catalog.Product{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r productRepo) ListAll(ctx context.Context) ([]*catalog.Product, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(nil), nil
}

func (r productRepo) Search(ctx context.Context, query string) ([]*catalog.Product, error) {
	q := strings.ToLower(query)
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.newestFirst(func(p *catalog.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	}), nil
}

func (r productRepo) ListImages(ctx context.Context, productID uint) ([]*catalog.ProductImage, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.ProductImage, 0)
	for _, img := range s.images {
		if img.ProductID == productID {
			c := *img
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r productRepo) AddImage(ctx context.Context, image *catalog.ProductImage) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[image.ProductID]; !ok {
		return apperrors.NotFound("product %d not found", image.ProductID)
	}
	for _, img := range s.images {
		if img.ProductID == image.ProductID && img.Order == image.Order {
			return apperrors.InvalidInput("product %d already has an image at order %d", image.ProductID, image.Order)
		}
	}
	s.nextImage++
	image.ID = s.nextImage
	image.CreatedAt = s.now()
	c := *image
	s.images[image.ID] = &c
	return nil
}

type cartRepo struct{ s *Store }

func (r cartRepo) Create(ctx context.Context) (*cart.Cart, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCart++
	now := s.now()
	c := &cart.Cart{ID: s.nextCart, CreatedAt: now, UpdatedAt: now}
	s.carts[c.ID] = c
	return &cart.Cart{ID: c.ID, Items: []cart.CartItem{}, CreatedAt: now, UpdatedAt: now}, nil
}

func (r cartRepo) GetByID(ctx context.Context, id uint) (*cart.Cart, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, apperrors.NotFound("cart %d not found", id)
	}

	out := &cart.Cart{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, Items: []cart.CartItem{}}
	for _, item := range s.items {
		if item.CartID != id {
			continue
		}
		line := *item
		if p, ok := s.products[item.ProductID]; ok {
			line.Product = cloneProduct(p)
		}
		out.Items = append(out.Items, line)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })
	return out, nil
}

func (r cartRepo) Delete(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[id]; !ok {
		return apperrors.NotFound("cart %d not found", id)
	}
	delete(s.carts, id)
	for itemID, item := range s.items {
		if item.CartID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (r cartRepo) AddItemQuantity(ctx context.Context, cartID, productID uint, quantity int) (*cart.CartItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[cartID]; !ok {
		return nil, apperrors.NotFound("cart %d or product %d not found", cartID, productID)
	}
	if _, ok := s.products[productID]; !ok {
		return nil, apperrors.NotFound("cart %d or product %d not found", cartID, productID)
	}

	now := s.now()
	for _, item := range s.items {
		if item.CartID == cartID && item.ProductID == productID {
			if err := cart.ValidateQuantity(item.Quantity + quantity); err != nil {
				return nil, err
			}
			item.Quantity += quantity
			item.UpdatedAt = now
			c := *item
			return &c, nil
		}
	}

	if err := cart.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	s.nextItem++
	item := &cart.CartItem{
		ID:        s.nextItem,
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items[item.ID] = item
	c := *item
	return &c, nil
}

func (r cartRepo) GetItem(ctx context.Context, itemID uint) (*cart.CartItem, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, apperrors.NotFound("cart item %d not found", itemID)
	}
	c := *item
	return &c, nil
}

func (r cartRepo) SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cart.ValidateQuantity(quantity); err != nil {
		return err
	}
	if item, ok := s.items[itemID]; ok && item.CartID == cartID {
		item.Quantity = quantity
		item.UpdatedAt = s.now()
	}
	return nil
}

func (r cartRepo) DeleteItem(ctx context.Context, cartID, itemID uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.CartID != cartID {
		return apperrors.NotFound("cart item %d not found", itemID)
	}
	delete(s.items, itemID)
	return nil
}

func (r cartRepo) ClearItems(ctx context.Context, cartID uint) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for itemID, item := range s.items {
		if item.CartID == cartID {
			delete(s.items, itemID)
			n++
		}
	}
	return n, nil
}

type sessionStore struct{ s *Store }

func (st sessionStore) Lookup(ctx context.Context, token string) (uint, bool, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	id, ok := st.s.sessions[token]
	return id, ok, nil
}

func (st sessionStore) Bind(ctx context.Context, token string, cartID uint) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.s.sessions[token] = cartID
	return nil
}
