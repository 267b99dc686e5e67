package http

import (
	"errors"
	"net/http"

	"github.com/tawityagi/secrets/internal/domain"
	"github.com/tawityagi/secrets/internal/middleware"
	"github.com/tawityagi/secrets/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler 封装了本地凭证认证相关的 HTTP 处理逻辑
type AuthHandler struct {
	authService *service.AuthService
	sessions    *service.SessionManager
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService, sessions *service.SessionManager) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

// RegisterForm 渲染注册表单
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"message": ""})
}

// LoginForm 渲染登录表单
func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Register 处理注册提交
// 用户名冲突时带提示重新渲染表单；成功时建立会话并重定向到 /secrets。
func (h *AuthHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.authService.Register(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.HTML(http.StatusOK, "register.html", gin.H{"message": "Already a member!"})
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.HTML(http.StatusOK, "register.html", gin.H{"message": "Username and password are required."})
			return
		}
		logrus.WithError(err).Error("Handler.Register: registration failed")
		FailurePage(c)
		return
	}

	h.establishSession(c, user)
}

// Login 处理登录提交
// 凭证无效时重定向回 /login；成功时建立会话并重定向到 /secrets。
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.authService.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		logrus.WithError(err).Error("Handler.Login: login failed")
		FailurePage(c)
		return
	}

	h.establishSession(c, user)
}

// Logout 销毁当前会话并重定向到首页
// 之后携带旧令牌的请求在受保护路由上一律按未认证处理。
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie != "" {
		if err := h.sessions.Revoke(c.Request.Context(), cookie); err != nil {
			logrus.WithError(err).Error("Handler.Logout: failed to revoke session")
		}
	}
	clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/")
}

// establishSession 为用户签发会话 Cookie 并重定向到 /secrets
func (h *AuthHandler) establishSession(c *gin.Context, user *domain.User) {
	cookie, err := h.sessions.Issue(c.Request.Context(), user)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID.Hex()).Error("Failed to establish session")
		FailurePage(c)
		return
	}
	setSessionCookie(c, cookie, int(h.sessions.TTL().Seconds()))
	c.Redirect(http.StatusFound, "/secrets")
}

// --- Cookie 辅助函数 ---

func setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
}
