// Package application 店铺前台用例，每个对外动作对应一个方法
package application

import (
	"context"

	"github.com/shopspring/decimal"
	cartapp "github.com/wyfcoding/storefront/internal/cart/application"
	cart "github.com/wyfcoding/storefront/internal/cart/domain"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	catalog "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/utils"
)

// ProductPage 商品列表页
type ProductPage struct {
	Products   []*catalog.Product `json:"products"`
	Pagination *utils.Pagination  `json:"pagination"`
}

// SearchResult 搜索结果
type SearchResult struct {
	Query    string             `json:"query"`
	Products []*catalog.Product `json:"products"`
}

// AddToCartResult 加入购物车结果
type AddToCartResult struct {
	Success    bool            `json:"success"`
	Item       *cart.CartItem  `json:"item"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// UpdateCartItemResult 更新数量结果，Removed 表示数量非正导致条目被删除
type UpdateCartItemResult struct {
	Success    bool            `json:"success"`
	Removed    bool            `json:"removed"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

// CartView 购物车页
type CartView struct {
	CartID     uint            `json:"cart_id"`
	Items      []cart.CartItem `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

// StorefrontService 前台服务，组合商品目录与购物车
type StorefrontService struct {
	catalog *catalogapp.CatalogApplicationService
	carts   *cartapp.CartApplicationService
}

// NewStorefrontService 创建前台服务
func NewStorefrontService(catalog *catalogapp.CatalogApplicationService, carts *cartapp.CartApplicationService) *StorefrontService {
	return &StorefrontService{catalog: catalog, carts: carts}
}

// Browse 按页浏览商品，每页 12 条
func (s *StorefrontService) Browse(ctx context.Context, page int) (*ProductPage, error) {
	products, pagination, err := s.catalog.ListProducts(ctx, page, catalogapp.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: products, Pagination: pagination}, nil
}

// ProductDetail 商品详情
func (s *StorefrontService) ProductDetail(ctx context.Context, productID uint) (*catalogapp.ProductDetail, error) {
	return s.catalog.GetProductDetail(ctx, productID)
}

// AddToCart 将商品加入会话购物车，商品不存在或数量非法时不创建购物车
func (s *StorefrontService) AddToCart(ctx context.Context, sessionToken string, productID uint, quantity int) (*AddToCartResult, error) {
	if err := cart.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.carts.ResolveCart(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	item, err := s.carts.AddItem(ctx, cartapp.AddItemCommand{CartID: c.ID, ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}

	summary, err := s.carts.Summary(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &AddToCartResult{
		Success:    true,
		Item:       item,
		ItemCount:  summary.ItemCount,
		TotalPrice: summary.TotalPrice,
	}, nil
}

// RemoveFromCart 移除条目
func (s *StorefrontService) RemoveFromCart(ctx context.Context, sessionToken string, itemID uint) error {
	c, err := s.carts.ResolveCart(ctx, sessionToken)
	if err != nil {
		return err
	}
	return s.carts.RemoveItem(ctx, cartapp.RemoveItemCommand{CartID: c.ID, ItemID: itemID})
}

// UpdateCartItem 替换条目数量并返回最新合计
func (s *StorefrontService) UpdateCartItem(ctx context.Context, sessionToken string, itemID uint, quantity int) (*UpdateCartItemResult, error) {
	c, err := s.carts.ResolveCart(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	res, err := s.carts.SetItemQuantity(ctx, cartapp.SetItemQuantityCommand{CartID: c.ID, ItemID: itemID, Quantity: quantity})
	if err != nil {
		return nil, err
	}

	summary, err := s.carts.Summary(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &UpdateCartItemResult{
		Success:    true,
		Removed:    res.Removed,
		TotalPrice: summary.TotalPrice,
		ItemCount:  summary.ItemCount,
	}, nil
}

// ClearCart 清空会话购物车
func (s *StorefrontService) ClearCart(ctx context.Context, sessionToken string) error {
	c, err := s.carts.ResolveCart(ctx, sessionToken)
	if err != nil {
		return err
	}
	return s.carts.ClearCart(ctx, c.ID)
}

// Search 搜索商品
func (s *StorefrontService) Search(ctx context.Context, query string) (*SearchResult, error) {
	products, err := s.catalog.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Query: query, Products: products}, nil
}

// ViewCart 购物车内容与合计
func (s *StorefrontService) ViewCart(ctx context.Context, sessionToken string) (*CartView, error) {
	c, err := s.carts.ResolveCart(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	// ResolveCart 已加载最新条目与商品
	return &CartView{
		CartID:     c.ID,
		Items:      c.Items,
		TotalPrice: c.TotalPrice(),
		ItemCount:  c.ItemCount(),
	}, nil
}
