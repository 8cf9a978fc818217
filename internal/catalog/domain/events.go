package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 事件主题
const (
	TopicProductCreated    = "product.created"
	TopicProductUpdated    = "product.updated"
	TopicProductDeleted    = "product.deleted"
	TopicProductImageAdded = "product.image.added"
)

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// ProductCreatedEvent 商品创建事件
type ProductCreatedEvent struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductUpdatedEvent 商品更新事件，价格变化会立即反映到购物车合计
type ProductUpdatedEvent struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	ImageURL  string          `json:"primary_image_url,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductDeletedEvent 商品删除事件
type ProductDeletedEvent struct {
	ProductID uint      `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductImageAddedEvent 附加图片事件
type ProductImageAddedEvent struct {
	ProductID uint      `json:"product_id"`
	ImageID   uint      `json:"image_id"`
	ImageURL  string    `json:"image_url"`
	Order     int       `json:"order"`
	Timestamp time.Time `json:"timestamp"`
}
