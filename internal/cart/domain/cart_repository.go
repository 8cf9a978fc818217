package domain

import (
	"context"

	catalog "github.com/wyfcoding/storefront/internal/catalog/domain"
)

// CartRepository 购物车仓储
type CartRepository interface {
	// Create 新建空购物车
	Create(ctx context.Context) (*Cart, error)
	// GetByID 加载购物车及其条目和商品，不存在时返回 apperrors.ErrNotFound
	GetByID(ctx context.Context, id uint) (*Cart, error)
	// Delete 删除购物车及其条目
	Delete(ctx context.Context, id uint) error
	// AddItemQuantity 原子地插入条目或在已有数量上累加，返回累加后的条目
	AddItemQuantity(ctx context.Context, cartID, productID uint, quantity int) (*CartItem, error)
	// GetItem 按条目 ID 查询，不存在时返回 apperrors.ErrNotFound
	GetItem(ctx context.Context, itemID uint) (*CartItem, error)
	// SetItemQuantity 仅更新属于 cartID 的条目
	SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) error
	// DeleteItem 仅删除属于 cartID 的条目，未删除任何行时返回 apperrors.ErrNotFound
	DeleteItem(ctx context.Context, cartID, itemID uint) error
	// ClearItems 删除全部条目，返回删除数量
	ClearItems(ctx context.Context, cartID uint) (int64, error)
}

// SessionStore 会话令牌到购物车 ID 的绑定，一个令牌至多绑定一个购物车
type SessionStore interface {
	// Lookup 未绑定时 found 为 false
	Lookup(ctx context.Context, token string) (cartID uint, found bool, err error)
	// Bind 绑定或覆盖
	Bind(ctx context.Context, token string, cartID uint) error
}

// ProductReader 只读商品查询，由商品目录仓储实现
type ProductReader interface {
	GetByID(ctx context.Context, id uint) (*catalog.Product, error)
}
