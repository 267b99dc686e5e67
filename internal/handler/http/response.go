package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FailurePage 渲染通用失败页。
// 持久化失败只记日志，对终端用户统一呈现这一页，不暴露细节。
func FailurePage(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{})
}
