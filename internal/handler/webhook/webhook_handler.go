// Package webhook 提供外部回调入口的 HTTP Handler
package webhook

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/logger"
	"github.com/tapifyhq/tapify-backend/internal/common/metrics"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	webhookService "github.com/tapifyhq/tapify-backend/internal/service/webhook"
	"github.com/tapifyhq/tapify-backend/pkg/shopify"

	"go.uber.org/zap"
)

// 触发器回调的共享密钥请求头
const TriggerSecretHeader = "X-Trigger-Secret"

// Handler 回调处理器
type Handler struct {
	shopifyService *webhookService.ShopifyService
	dwollaService  *webhookService.DwollaService
	triggerService *webhookService.TriggerService
}

// NewHandler 创建回调处理器
func NewHandler(
	shopifySvc *webhookService.ShopifyService,
	dwollaSvc *webhookService.DwollaService,
	triggerSvc *webhookService.TriggerService,
) *Handler {
	return &Handler{
		shopifyService: shopifySvc,
		dwollaService:  dwollaSvc,
		triggerService: triggerSvc,
	}
}

// Shopify 订单回调
// @Summary 订单回调
// @Description 签名不通过返回 401；签名通过后无论处理结果如何都回 200，避免平台反复重投
// @Tags 回调
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response "签名校验失败"
// @Router /webhooks/shopify [post]
func (h *Handler) Shopify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "读取请求体失败")
		return
	}

	signature := c.GetHeader(shopify.HeaderHMAC)
	if err := h.shopifyService.VerifySignature(body, signature); err != nil {
		metrics.Get().RecordWebhook("shopify", c.GetHeader(shopify.HeaderTopic), "rejected")
		response.Unauthorized(c, "签名校验失败")
		return
	}

	shopDomain := c.GetHeader(shopify.HeaderShopDomain)
	if err := h.shopifyService.ProcessOrder(c.Request.Context(), shopDomain, body); err != nil {
		// 已验签的投递不让平台重试，错误记录后照常确认
		logger.Error("订单回调处理失败",
			zap.String("shop_domain", shopDomain),
			zap.Error(err))
		metrics.Get().RecordWebhook("shopify", c.GetHeader(shopify.HeaderTopic), "error")
		c.JSON(200, gin.H{"received": true, "error": err.Error()})
		return
	}

	metrics.Get().RecordWebhook("shopify", c.GetHeader(shopify.HeaderTopic), "ok")
	c.JSON(200, gin.H{"received": true})
}

// Dwolla 支付通道回调
// @Summary 支付通道回调
// @Tags 回调
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/dwolla [post]
func (h *Handler) Dwolla(c *gin.Context) {
	var event webhookService.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.dwollaService.HandleEvent(c.Request.Context(), &event); err != nil {
		logger.Error("支付通道回调处理失败",
			zap.String("topic", event.Topic),
			zap.String("resource_id", event.ResourceID),
			zap.Error(err))
		metrics.Get().RecordWebhook("dwolla", event.Topic, "error")
		c.JSON(200, gin.H{"received": true, "error": err.Error()})
		return
	}

	metrics.Get().RecordWebhook("dwolla", event.Topic, "ok")
	c.JSON(200, gin.H{"received": true})
}

// Trigger 数据库触发器回调
// @Summary 数据库触发器回调
// @Description 共享密钥不匹配返回 401
// @Tags 回调
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response "签名校验失败"
// @Router /webhooks/db-trigger [post]
func (h *Handler) Trigger(c *gin.Context) {
	if err := h.triggerService.VerifySecret(c.GetHeader(TriggerSecretHeader)); err != nil {
		metrics.Get().RecordWebhook("trigger", "", "rejected")
		response.Unauthorized(c, "签名校验失败")
		return
	}

	var event webhookService.TriggerEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.triggerService.HandleEvent(c.Request.Context(), &event); err != nil {
		logger.Error("触发器回调处理失败",
			zap.String("table", event.Table),
			zap.String("type", event.Type),
			zap.Error(err))
		metrics.Get().RecordWebhook("trigger", event.Table, "error")
		c.JSON(200, gin.H{"received": true, "error": err.Error()})
		return
	}

	metrics.Get().RecordWebhook("trigger", event.Table, "ok")
	c.JSON(200, gin.H{"received": true})
}

// RegisterRoutes 注册回调路由，回调端点只接受 POST
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	webhooks := r.Group("/webhooks")
	webhooks.POST("/shopify", h.Shopify)
	webhooks.POST("/dwolla", h.Dwolla)
	webhooks.POST("/db-trigger", h.Trigger)
}
