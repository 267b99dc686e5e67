package middleware

import (
	"net/http"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionCookie 是客户端持有会话令牌的 Cookie 名。
const SessionCookie = "secrets_session"

// currentUserKey 是已认证用户在 Gin 上下文里的键。
const currentUserKey = "current_user"

// Session 返回一个 Gin 中间件，在每个请求上把会话 Cookie 还原为已认证用户。
// 该中间件从不拒绝请求：没有 Cookie、签名无效、会话过期、用户已不存在，
// 都只是让请求以未认证状态继续；是否放行由 RequireLogin 决定。
func Session(sessions *service.SessionManager) gin.HandlerFunc {
	if sessions == nil {
		panic("SessionManager cannot be nil for Session middleware")
	}

	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		user, err := sessions.Resolve(c.Request.Context(), cookie)
		if err != nil {
			// 基础设施错误：记日志，按未认证继续
			logrus.WithError(err).Error("Session middleware: failed to resolve session")
			c.Next()
			return
		}
		if user != nil {
			c.Set(currentUserKey, user)
			logrus.WithField("user_id", user.ID.Hex()).Debug("Session middleware: user authenticated")
		}
		c.Next()
	}
}

// CurrentUser 从 Gin 上下文取出已认证用户；未认证时返回 nil, false。
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// SetCurrentUser 把用户写入 Gin 上下文，仅供测试构造已认证请求使用。
func SetCurrentUser(c *gin.Context, user *domain.User) {
	c.Set(currentUserKey, user)
}

// RequireLogin 返回一个 Gin 中间件，保护需要认证的路由。
// 每个请求都重新判定，不缓存任何授权结果；
// 未认证一律 302 重定向到登录页，而不是错误页。
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
