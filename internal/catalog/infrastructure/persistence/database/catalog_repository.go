// Package database 基于 GORM 的商品仓储，兼容 MySQL 与 PostgreSQL
package database

import (
	"context"
	"errors"
	"strings"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"gorm.io/gorm"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Omit("Images").Save(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete 依赖外键 ON DELETE CASCADE 清理图片与购物车条目
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product %d not found", id)
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, offset, limit int) ([]*domain.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*domain.Product
	if int64(offset) >= total {
		return products, total, nil
	}
	err := r.newestFirst(ctx).Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

func (r *productRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.newestFirst(ctx).Find(&products).Error
	return products, err
}

func (r *productRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var products []*domain.Product
	err := r.newestFirst(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Find(&products).Error
	return products, err
}

func (r *productRepository) ListImages(ctx context.Context, productID uint) ([]*domain.ProductImage, error) {
	var images []*domain.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sort_order ASC").
		Find(&images).Error
	return images, err
}

func (r *productRepository) AddImage(ctx context.Context, image *domain.ProductImage) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.ProductImage{}).
			Where("product_id = ? AND sort_order = ?", image.ProductID, image.Order).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.InvalidInput("product %d already has an image at order %d", image.ProductID, image.Order)
		}
		return tx.Create(image).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.InvalidInput("product %d already has an image at order %d", image.ProductID, image.Order)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.NotFound("product %d not found", image.ProductID)
	}
	return err
}

func (r *productRepository) newestFirst(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，MySQL 与 PostgreSQL 默认转义符均为反斜杠
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
