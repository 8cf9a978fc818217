package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/wyfcoding/storefront/internal/cart/domain"
	"github.com/wyfcoding/storefront/pkg/apperrors"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
)

// AddItemCommand 添加商品到购物车命令
type AddItemCommand struct {
	CartID    uint
	ProductID uint
	Quantity  int
}

// SetItemQuantityCommand 设置条目数量命令，Quantity <= 0 表示删除
type SetItemQuantityCommand struct {
	CartID   uint
	ItemID   uint
	Quantity int
}

// RemoveItemCommand 从购物车移除条目命令
type RemoveItemCommand struct {
	CartID uint
	ItemID uint
}

// SetItemQuantityResult 设置数量的结果，Removed 为 true 时 Item 为删除前的条目
type SetItemQuantityResult struct {
	Item    *domain.CartItem
	Removed bool
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	repo      domain.CartRepository
	sessions  domain.SessionStore
	products  domain.ProductReader
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	repo domain.CartRepository,
	sessions domain.SessionStore,
	products domain.ProductReader,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		sessions:  sessions,
		products:  products,
		publisher: publisher,
		metrics:   m,
	}
}

// ResolveCart 返回会话绑定的购物车，未绑定或绑定的购物车已不存在时新建并重新绑定
func (s *CartCommandService) ResolveCart(ctx context.Context, sessionToken string) (*domain.Cart, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, apperrors.InvalidInput("session token is required")
	}

	cartID, found, err := s.sessions.Lookup(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	var stale uint
	if found {
		cart, err := s.repo.GetByID(ctx, cartID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		stale = cartID
		logger.Warn(ctx, "session bound to missing cart, creating a new one", "cart_id", cartID)
	}

	cart, err := s.repo.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Bind(ctx, sessionToken, cart.ID); err != nil {
		return nil, err
	}

	s.metrics.RecordCartCreated()
	s.publish(ctx, domain.TopicCartCreated, cart.ID, domain.CartCreatedEvent{
		CartID:         cart.ID,
		ReplacedCartID: stale,
		Timestamp:      time.Now(),
	})

	return cart, nil
}

// AddItem 处理添加商品到购物车，已存在的条目累加数量
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) (*domain.CartItem, error) {
	if err := domain.ValidateQuantity(cmd.Quantity); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, cmd.ProductID); err != nil {
		return nil, err
	}

	// 仓储层在同一条语句内再次校验上限，这里提前给出明确错误
	cart, err := s.repo.GetByID(ctx, cmd.CartID)
	if err != nil {
		return nil, err
	}
	if existing := cart.FindProductItem(cmd.ProductID); existing != nil {
		if err := domain.ValidateQuantity(existing.Quantity + cmd.Quantity); err != nil {
			return nil, err
		}
	}

	item, err := s.repo.AddItemQuantity(ctx, cmd.CartID, cmd.ProductID, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCartItemAdded(cmd.Quantity)
	s.publish(ctx, domain.TopicCartItemAdded, cmd.CartID, domain.CartItemAddedEvent{
		CartID:    cmd.CartID,
		ItemID:    item.ID,
		ProductID: cmd.ProductID,
		Added:     cmd.Quantity,
		Quantity:  item.Quantity,
		Timestamp: time.Now(),
	})

	return item, nil
}

// SetItemQuantity 将条目数量替换为给定值，非正数时删除条目
func (s *CartCommandService) SetItemQuantity(ctx context.Context, cmd SetItemQuantityCommand) (*SetItemQuantityResult, error) {
	item, err := s.ownedItem(ctx, cmd.CartID, cmd.ItemID)
	if err != nil {
		return nil, err
	}

	if cmd.Quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, cmd.CartID, cmd.ItemID); err != nil {
			return nil, err
		}
		s.publishRemoved(ctx, item)
		return &SetItemQuantityResult{Item: item, Removed: true}, nil
	}

	if err := domain.ValidateQuantity(cmd.Quantity); err != nil {
		return nil, err
	}
	if err := s.repo.SetItemQuantity(ctx, cmd.CartID, cmd.ItemID, cmd.Quantity); err != nil {
		return nil, err
	}
	item.Quantity = cmd.Quantity

	s.publish(ctx, domain.TopicCartItemUpdated, cmd.CartID, domain.CartItemUpdatedEvent{
		CartID:    cmd.CartID,
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Timestamp: time.Now(),
	})
	return &SetItemQuantityResult{Item: item}, nil
}

// RemoveItem 处理从购物车移除条目
func (s *CartCommandService) RemoveItem(ctx context.Context, cmd RemoveItemCommand) error {
	item, err := s.ownedItem(ctx, cmd.CartID, cmd.ItemID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, cmd.CartID, cmd.ItemID); err != nil {
		return err
	}
	s.publishRemoved(ctx, item)
	return nil
}

// ClearCart 删除全部条目，购物车本身保留
func (s *CartCommandService) ClearCart(ctx context.Context, cartID uint) error {
	removed, err := s.repo.ClearItems(ctx, cartID)
	if err != nil {
		return err
	}

	s.publish(ctx, domain.TopicCartCleared, cartID, domain.CartClearedEvent{
		CartID:       cartID,
		RemovedItems: removed,
		Timestamp:    time.Now(),
	})
	return nil
}

// ownedItem 条目不存在返回 NotFound，属于其他购物车返回 Forbidden
func (s *CartCommandService) ownedItem(ctx context.Context, cartID, itemID uint) (*domain.CartItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cartID {
		logger.Warn(ctx, "cart item accessed from another cart", "cart_id", cartID, "item_id", itemID)
		return nil, apperrors.Forbidden("cart item %d does not belong to this cart", itemID)
	}
	return item, nil
}

func (s *CartCommandService) publishRemoved(ctx context.Context, item *domain.CartItem) {
	s.publish(ctx, domain.TopicCartItemRemoved, item.CartID, domain.CartItemRemovedEvent{
		CartID:    item.CartID,
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Timestamp: time.Now(),
	})
}

func (s *CartCommandService) publish(ctx context.Context, topic string, cartID uint, event any) {
	if err := s.publisher.Publish(ctx, topic, strconv.FormatUint(uint64(cartID), 10), event); err != nil {
		logger.Warn(ctx, "failed to publish event", "topic", topic, "cart_id", cartID, "error", err)
	}
}
