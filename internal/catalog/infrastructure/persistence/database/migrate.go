package database

import (
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"gorm.io/gorm"
)

// AutoMigrate 创建商品与商品图片表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Product{}, &domain.ProductImage{})
}
