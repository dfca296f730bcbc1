// Package payout 提供分账打款相关的 HTTP Handler
package payout

import (
	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/handler"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	payoutService "github.com/tapifyhq/tapify-backend/internal/service/payout"
)

// Handler 分账处理器
type Handler struct {
	payoutService *payoutService.Service
}

// NewHandler 创建分账处理器
func NewHandler(payoutSvc *payoutService.Service) *Handler {
	return &Handler{payoutService: payoutSvc}
}

// ProcessRequest 打款请求
type ProcessRequest struct {
	PayoutJobID int64 `json:"payout_job_id" binding:"required"`
}

// Process 执行分账打款
// @Summary 执行分账打款
// @Description 仅 pending 任务可执行，重复执行返回状态错误
// @Tags 分账
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ProcessRequest true "请求参数"
// @Success 200 {object} response.Response{data=payoutService.ProcessResult}
// @Failure 404 {object} response.Response "任务不存在"
// @Failure 400 {object} response.Response "任务不在待处理状态"
// @Router /api/v1/payouts/process [post]
func (h *Handler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.payoutService.Process(c.Request.Context(), req.PayoutJobID)
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册分账路由，挂管理员认证的路由组
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payouts/process", h.Process)
}
