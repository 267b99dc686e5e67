package http

import (
	"encoding/json"
	"net/http"

	"github.com/tawityagi/secrets/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// userInfoURL 是提供方返回用户档案的端点；只消费其中的 subject 标识。
const userInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// stateCookie 保存授权流程的 CSRF state 参数，仅在跳转往返之间存活。
const stateCookie = "secrets_oauth_state"

// OAuthHandler 封装了第三方身份登录的 HTTP 处理逻辑
type OAuthHandler struct {
	oauth      *oauth2.Config
	federation *service.FederationService
	auth       *AuthHandler
}

// NewOAuthHandler 创建 OAuthHandler 实例
// 会话的建立复用 AuthHandler 的逻辑，保证三种登录入口行为一致。
func NewOAuthHandler(oauth *oauth2.Config, federation *service.FederationService, auth *AuthHandler) *OAuthHandler {
	if oauth == nil {
		panic("oauth config cannot be nil for OAuthHandler")
	}
	return &OAuthHandler{oauth: oauth, federation: federation, auth: auth}
}

// Authorize 处理 GET /auth/google：带 state 重定向到提供方的授权端点
func (h *OAuthHandler) Authorize(c *gin.Context) {
	state := uuid.NewString()
	// state 在回调时校验一次即弃，5 分钟足够完成一次授权往返
	c.SetCookie(stateCookie, state, 300, "/", "", false, true)
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state))
}

// Callback 处理 GET /auth/google/secrets：提供方回调
// 任何一步失败都重定向到 /login；成功则 find-or-create 用户、
// 建立会话并重定向到 /secrets。
func (h *OAuthHandler) Callback(c *gin.Context) {
	// 1. 校验 state
	expected, err := c.Cookie(stateCookie)
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	if err != nil || expected == "" || c.Query("state") != expected {
		logrus.Warn("OAuth callback: state mismatch")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	// 2. 用授权码换取访问令牌
	code := c.Query("code")
	if code == "" {
		logrus.Warn("OAuth callback: missing authorization code")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	token, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		logrus.WithError(err).Warn("OAuth callback: code exchange failed")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	// 3. 取用户档案，只提取 subject 标识
	subject, err := h.fetchSubject(c, token)
	if err != nil {
		logrus.WithError(err).Warn("OAuth callback: failed to fetch user profile")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	// 4. 兑换为本地用户并建立会话
	user, err := h.federation.FindOrCreate(c.Request.Context(), subject)
	if err != nil {
		logrus.WithError(err).Error("OAuth callback: find-or-create failed")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	h.auth.establishSession(c, user)
}

// fetchSubject 调用 userinfo 端点并解出 sub 声明
func (h *OAuthHandler) fetchSubject(c *gin.Context, token *oauth2.Token) (string, error) {
	client := h.oauth.Client(c.Request.Context(), token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var profile struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", err
	}
	return profile.Sub, nil
}
