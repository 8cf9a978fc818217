package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// SessionTokenKey gin context 中的会话令牌
const SessionTokenKey = "session_token"

// SessionOptions 会话 Cookie 选项
type SessionOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// SessionMiddleware 读取或签发会话令牌，每次请求都会续期 Cookie
func SessionMiddleware(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(opts.CookieName)
		if err != nil || uuid.Validate(token) != nil {
			token = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opts.CookieName, token, int(opts.MaxAge/time.Second), "/", "", opts.Secure, true)
		c.Set(SessionTokenKey, token)

		ctx := logger.ContextWithSession(c.Request.Context(), token[:8])
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SessionToken 返回当前请求的会话令牌，未经过 SessionMiddleware 时为空
func SessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}
