package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/cart/domain"
)

// CartApplicationService 购物车门面，组合命令与查询服务
type CartApplicationService struct {
	command *CartCommandService
	query   *CartQueryService
}

// NewCartApplicationService 创建购物车门面
func NewCartApplicationService(command *CartCommandService, query *CartQueryService) *CartApplicationService {
	return &CartApplicationService{command: command, query: query}
}

// ResolveCart 解析会话对应的购物车
func (s *CartApplicationService) ResolveCart(ctx context.Context, sessionToken string) (*domain.Cart, error) {
	return s.command.ResolveCart(ctx, sessionToken)
}

// AddItem 添加商品
func (s *CartApplicationService) AddItem(ctx context.Context, cmd AddItemCommand) (*domain.CartItem, error) {
	return s.command.AddItem(ctx, cmd)
}

// SetItemQuantity 设置条目数量
func (s *CartApplicationService) SetItemQuantity(ctx context.Context, cmd SetItemQuantityCommand) (*SetItemQuantityResult, error) {
	return s.command.SetItemQuantity(ctx, cmd)
}

// RemoveItem 移除条目
func (s *CartApplicationService) RemoveItem(ctx context.Context, cmd RemoveItemCommand) error {
	return s.command.RemoveItem(ctx, cmd)
}

// ClearCart 清空购物车
func (s *CartApplicationService) ClearCart(ctx context.Context, cartID uint) error {
	return s.command.ClearCart(ctx, cartID)
}

// GetCart 获取购物车
func (s *CartApplicationService) GetCart(ctx context.Context, cartID uint) (*domain.Cart, error) {
	return s.query.GetCart(ctx, cartID)
}

// TotalPrice 获取总价
func (s *CartApplicationService) TotalPrice(ctx context.Context, cartID uint) (decimal.Decimal, error) {
	return s.query.GetCartTotal(ctx, cartID)
}

// ItemCount 获取件数
func (s *CartApplicationService) ItemCount(ctx context.Context, cartID uint) (int, error) {
	return s.query.GetCartItemCount(ctx, cartID)
}

// Summary 获取合计
func (s *CartApplicationService) Summary(ctx context.Context, cartID uint) (*CartSummary, error) {
	return s.query.GetSummary(ctx, cartID)
}
