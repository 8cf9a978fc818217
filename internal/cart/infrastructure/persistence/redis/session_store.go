// Package redis 基于 Redis 的会话到购物车绑定
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wyfcoding/storefront/internal/cart/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
)

const keyPrefix = "storefront:session:"

// SessionStore 键为 storefront:session:<token>:cart，读取时顺延过期时间
type SessionStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore 创建 Redis 会话存储
func NewSessionStore(c *cache.RedisCache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func key(token string) string {
	return keyPrefix + token + ":cart"
}

// Lookup 查询绑定，值无法解析时视为未绑定
func (s *SessionStore) Lookup(ctx context.Context, token string) (uint, bool, error) {
	val, found, err := s.cache.Get(ctx, key(token))
	if err != nil || !found {
		return 0, false, err
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil || id == 0 {
		return 0, false, nil
	}

	if err := s.cache.Expire(ctx, key(token), s.ttl); err != nil {
		return 0, false, fmt.Errorf("refresh session ttl: %w", err)
	}
	return uint(id), true, nil
}

// Bind 写入或覆盖绑定
func (s *SessionStore) Bind(ctx context.Context, token string, cartID uint) error {
	return s.cache.Set(ctx, key(token), strconv.FormatUint(uint64(cartID), 10), s.ttl)
}
