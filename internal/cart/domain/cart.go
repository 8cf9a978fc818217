package domain

import (
	"time"

	"github.com/shopspring/decimal"
	catalog "github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
)

// MaxItemQuantity 单个条目的数量上限，累加后同样受限
const MaxItemQuantity = 9999

// Cart 匿名购物车，通过会话令牌定位，不关联用户
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车条目，(CartID, ProductID) 唯一，Quantity 始终为正
type CartItem struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CartID    uint             `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_cart_product,priority:1" json:"cart_id"`
	ProductID uint             `gorm:"column:product_id;not null;uniqueIndex:idx_cart_items_cart_product,priority:2;index" json:"product_id"`
	Product   *catalog.Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int              `gorm:"column:quantity;not null;check:chk_cart_items_quantity,quantity > 0 AND quantity <= 9999" json:"quantity"`
	CreatedAt time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

// Subtotal 当前商品价格乘以数量，商品未加载时为零
func (i *CartItem) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPrice 各条目小计之和，每次调用都基于当前加载的商品价格重新计算
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// ItemCount 各条目数量之和
func (c *Cart) ItemCount() int {
	count := 0
	for i := range c.Items {
		count += c.Items[i].Quantity
	}
	return count
}

// ValidateQuantity 校验写入条目的数量落在 [1, MaxItemQuantity]
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > MaxItemQuantity {
		return apperrors.InvalidInput("quantity must be at most %d", MaxItemQuantity)
	}
	return nil
}

// FindProductItem 按商品 ID 查找
func (c *Cart) FindProductItem(productID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItem 按条目 ID 查找
func (c *Cart) FindItem(itemID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// IsEmpty 是否没有条目
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
