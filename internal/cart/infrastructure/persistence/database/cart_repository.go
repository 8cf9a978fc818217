// Package database 基于 GORM 的购物车与会话仓储，兼容 MySQL 与 PostgreSQL
package database

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/storefront/internal/cart/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context) (*domain.Cart, error) {
	cart := &domain.Cart{}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	cart.Items = []domain.CartItem{}
	return cart, nil
}

func (r *cartRepository) GetByID(ctx context.Context, id uint) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		First(&cart, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (r *cartRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Cart{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("cart %d not found", id)
		}
		return nil
	})
}

// AddItemQuantity 单条 INSERT ... ON CONFLICT / ON DUPLICATE KEY UPDATE 完成累加，并发请求不会丢失数量
func (r *cartRepository) AddItemQuantity(ctx context.Context, cartID, productID uint, quantity int) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := domain.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + ?", quantity),
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, apperrors.NotFound("cart %d or product %d not found", cartID, productID)
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return nil, apperrors.InvalidInput("quantity must be between 1 and %d", domain.MaxItemQuantity)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) GetItem(ctx context.Context, itemID uint) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.WithContext(ctx).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart item %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetItemQuantity 条件更新，WHERE 同时限定 cart_id
func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) error {
	err := r.db.WithContext(ctx).
		Model(&domain.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now()}).Error
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return apperrors.InvalidInput("quantity must be between 1 and %d", domain.MaxItemQuantity)
	}
	return err
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&domain.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("cart item %d not found", itemID)
	}
	return nil
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&domain.CartItem{})
	return res.RowsAffected, res.Error
}
