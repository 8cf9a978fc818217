package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/cart/domain"
)

// CartSummary 购物车合计
type CartSummary struct {
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

// CartQueryService 购物车查询服务，每次调用都重新加载条目与商品
type CartQueryService struct {
	repo domain.CartRepository
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(repo domain.CartRepository) *CartQueryService {
	return &CartQueryService{repo: repo}
}

// GetCart 获取购物车及其条目
func (s *CartQueryService) GetCart(ctx context.Context, cartID uint) (*domain.Cart, error) {
	return s.repo.GetByID(ctx, cartID)
}

// GetCartTotal 获取购物车总价
func (s *CartQueryService) GetCartTotal(ctx context.Context, cartID uint) (decimal.Decimal, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.TotalPrice(), nil
}

// GetCartItemCount 获取购物车商品件数
func (s *CartQueryService) GetCartItemCount(ctx context.Context, cartID uint) (int, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return 0, err
	}
	return cart.ItemCount(), nil
}

// GetSummary 一次加载同时计算总价与件数
func (s *CartQueryService) GetSummary(ctx context.Context, cartID uint) (*CartSummary, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return &CartSummary{TotalPrice: cart.TotalPrice(), ItemCount: cart.ItemCount()}, nil
}
