package database

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/storefront/internal/cart/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSession 会话令牌与购物车的绑定，未配置 Redis 时使用
type CartSession struct {
	Token     string    `gorm:"primaryKey;type:varchar(64)"`
	CartID    uint      `gorm:"column:cart_id;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CartSession) TableName() string { return "cart_sessions" }

// SessionStore 基于数据表的会话存储，读取时顺延过期时间
type SessionStore struct {
	db  *gorm.DB
	ttl time.Duration
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore 创建会话存储
func NewSessionStore(db *gorm.DB, ttl time.Duration) *SessionStore {
	return &SessionStore{db: db, ttl: ttl}
}

// Lookup 查询未过期的绑定
func (s *SessionStore) Lookup(ctx context.Context, token string) (uint, bool, error) {
	var sess CartSession
	now := time.Now()
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	if err := s.db.WithContext(ctx).Model(&CartSession{}).
		Where("token = ?", token).
		Updates(map[string]any{"expires_at": now.Add(s.ttl), "updated_at": now}).Error; err != nil {
		return 0, false, err
	}
	return sess.CartID, true, nil
}

// Bind 插入或覆盖绑定
func (s *SessionStore) Bind(ctx context.Context, token string, cartID uint) error {
	now := time.Now()
	sess := CartSession{
		Token:     token,
		CartID:    cartID,
		ExpiresAt: now.Add(s.ttl),
		UpdatedAt: now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"cart_id", "expires_at", "updated_at"}),
	}).Create(&sess).Error
}

// DeleteExpired 清理过期绑定，购物车本身保留
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&CartSession{})
	return res.RowsAffected, res.Error
}
