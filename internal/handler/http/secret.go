package http

import (
	"net/http"

	"github.com/tawityagi/secrets/internal/middleware"
	"github.com/tawityagi/secrets/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SecretHandler 封装了秘密提交与浏览的 HTTP 处理逻辑
// 这些路由都在 RequireLogin 之后，进到这里的请求一定已认证。
type SecretHandler struct {
	secretService *service.SecretService
}

// NewSecretHandler 创建 SecretHandler 实例
func NewSecretHandler(secretService *service.SecretService) *SecretHandler {
	return &SecretHandler{secretService: secretService}
}

// Home 渲染落地页
func (h *SecretHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{})
}

// SubmitForm 渲染秘密提交表单
func (h *SecretHandler) SubmitForm(c *gin.Context) {
	c.HTML(http.StatusOK, "submit.html", gin.H{})
}

// Submit 处理秘密提交
// 分类为空时默认 "General"；成功后重定向到浏览视图。
func (h *SecretHandler) Submit(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	content := c.PostForm("content")
	category := c.PostForm("category")

	if err := h.secretService.Submit(c.Request.Context(), user.ID, content, category); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID.Hex()).Error("Handler.Submit: failed to store secret")
		FailurePage(c)
		return
	}
	c.Redirect(http.StatusFound, "/secrets")
}

// Secrets 渲染所有用户的秘密 (未过滤视图)
// 只包含秘密序列非空的用户。
func (h *SecretHandler) Secrets(c *gin.Context) {
	users, err := h.secretService.ListWithSecrets(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Handler.Secrets: failed to list secrets")
		FailurePage(c)
		return
	}
	c.HTML(http.StatusOK, "secrets.html", gin.H{"usersWithSecrets": users})
}

// CategoryForm 渲染分类浏览表单
func (h *SecretHandler) CategoryForm(c *gin.Context) {
	c.HTML(http.StatusOK, "category.html", gin.H{"usersWithSecrets": nil})
}

// Category 渲染按分类过滤的浏览视图
// 过滤选出 "至少有一条匹配分类秘密的用户"，返回的用户记录保留
// 完整的秘密序列，模板负责只展示匹配分类的那些条目。
func (h *SecretHandler) Category(c *gin.Context) {
	category := service.NormalizeCategory(c.PostForm("category"))

	users, err := h.secretService.ListByCategory(c.Request.Context(), category)
	if err != nil {
		logrus.WithError(err).WithField("category", category).Error("Handler.Category: failed to list secrets")
		FailurePage(c)
		return
	}
	c.HTML(http.StatusOK, "category.html", gin.H{
		"usersWithSecrets": users,
		"reqCategory":      category,
	})
}
