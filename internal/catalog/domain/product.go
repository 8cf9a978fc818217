package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/pkg/apperrors"
)

// 商品字段约束，与 decimal(10,2) 列定义保持一致
const (
	MaxNameLength = 255
	PriceScale    = 2
)

var maxPrice = decimal.New(1, 8) // 10^8，decimal(10,2) 的整数部分最多 8 位

// Product 商品
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"column:description;type:text" json:"description"`
	Price           decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	PrimaryImageURL *string         `gorm:"column:primary_image_url;type:varchar(500)" json:"primary_image_url"`
	Images          []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time       `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Validate 校验名称与价格
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperrors.InvalidInput("product name is required")
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return apperrors.InvalidInput("product name must be at most %d characters", MaxNameLength)
	}
	return ValidatePrice(p.Price)
}

// ValidatePrice 价格非负，最多两位小数
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return apperrors.InvalidInput("price must have at most %d decimal places", PriceScale)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return apperrors.InvalidInput("price must be less than %s", maxPrice.String())
	}
	return nil
}

// ProductImage 商品附加图片，同一商品内 Order 唯一
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_product_images_product_order,priority:1" json:"product_id"`
	ImageURL  string    `gorm:"column:image_url;type:varchar(500);not null" json:"image_url"`
	Order     int       `gorm:"column:sort_order;not null;default:0;uniqueIndex:idx_product_images_product_order,priority:2" json:"order"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ProductImage) TableName() string { return "product_images" }
