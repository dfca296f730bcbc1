// Package scan 提供扫码跳转与二维码相关的 HTTP Handler
package scan

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/handler"
	"github.com/tapifyhq/tapify-backend/internal/common/qrcode"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	scanService "github.com/tapifyhq/tapify-backend/internal/service/scan"
)

// Handler 扫码处理器
type Handler struct {
	scanService *scanService.Service
	qrGenerator *qrcode.Generator
	baseURL     string
}

// NewHandler 创建扫码处理器
func NewHandler(scanSvc *scanService.Service, qrGenerator *qrcode.Generator, baseURL string) *Handler {
	return &Handler{
		scanService: scanSvc,
		qrGenerator: qrGenerator,
		baseURL:     baseURL,
	}
}

// Redirect 扫码跳转
// @Summary 扫码跳转
// @Description 未认领或未配置带货链接时跳认领页，否则跳带货链接
// @Tags 扫码
// @Param u query string true "展示架标识码"
// @Success 302
// @Router /t [get]
func (h *Handler) Redirect(c *gin.Context) {
	visit := &scanService.Visit{
		UID:       c.Query("u"),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	}

	result, err := h.scanService.Resolve(c.Request.Context(), visit)
	if handler.HandleError(c, err) {
		return
	}
	c.Redirect(http.StatusFound, result.Location)
}

// QRCode 展示架二维码
// @Summary 展示架二维码
// @Description 返回指向扫码短链的 PNG 二维码，供贴码印刷
// @Tags 扫码
// @Produce png
// @Param uid path string true "展示架标识码"
// @Success 200 {file} png
// @Router /api/v1/displays/{uid}/qrcode [get]
func (h *Handler) QRCode(c *gin.Context) {
	uid := c.Param("uid")
	if uid == "" {
		response.BadRequest(c, "标识码不能为空")
		return
	}

	png, err := h.qrGenerator.GeneratePNG(qrcode.ShortLink(h.baseURL, uid))
	if err != nil {
		response.InternalError(c, "二维码生成失败")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// RegisterRedirectRoute 注册扫码短链路由，带扫码限流中间件
func (h *Handler) RegisterRedirectRoute(r *gin.Engine, mws ...gin.HandlerFunc) {
	handlers := append(mws, h.Redirect)
	r.GET("/t", handlers...)
}

// RegisterRoutes 注册二维码路由
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/displays/:uid/qrcode", h.QRCode)
}
