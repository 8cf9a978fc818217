package domain

import (
	"context"
	"time"
)

// 事件主题
const (
	TopicCartCreated     = "cart.created"
	TopicCartItemAdded   = "cart.item.added"
	TopicCartItemUpdated = "cart.item.updated"
	TopicCartItemRemoved = "cart.item.removed"
	TopicCartCleared     = "cart.cleared"
)

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// CartCreatedEvent 购物车创建事件，ReplacedCartID 非零表示替换了失效的绑定
type CartCreatedEvent struct {
	CartID         uint      `json:"cart_id"`
	ReplacedCartID uint      `json:"replaced_cart_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	CartID    uint      `json:"cart_id"`
	ItemID    uint      `json:"item_id"`
	ProductID uint      `json:"product_id"`
	Added     int       `json:"added"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemUpdatedEvent 购物车条目数量变更事件
type CartItemUpdatedEvent struct {
	CartID    uint      `json:"cart_id"`
	ItemID    uint      `json:"item_id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemRemovedEvent 购物车移除商品事件
type CartItemRemovedEvent struct {
	CartID    uint      `json:"cart_id"`
	ItemID    uint      `json:"item_id"`
	ProductID uint      `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID       uint      `json:"cart_id"`
	RemovedItems int64     `json:"removed_items"`
	Timestamp    time.Time `json:"timestamp"`
}
