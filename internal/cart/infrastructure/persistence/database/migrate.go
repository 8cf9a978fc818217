package database

import (
	"github.com/wyfcoding/storefront/internal/cart/domain"
	"gorm.io/gorm"
)

// AutoMigrate 创建购物车相关表，需在商品表之后执行
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Cart{}, &domain.CartItem{}, &CartSession{})
}
