// Package claim 提供展示架认领相关的 HTTP Handler
package claim

import (
	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/handler"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	claimService "github.com/tapifyhq/tapify-backend/internal/service/claim"
)

// Handler 认领处理器
type Handler struct {
	claimService *claimService.Service
}

// NewHandler 创建认领处理器
func NewHandler(claimSvc *claimService.Service) *Handler {
	return &Handler{claimService: claimSvc}
}

// Claim 认领展示架
// @Summary 认领展示架
// @Description 认领不要求登录，已登录时记录操作人并写审计
// @Tags 认领
// @Accept json
// @Produce json
// @Param request body claimService.Request true "请求参数"
// @Success 200 {object} response.Response{data=claimService.Result}
// @Failure 404 {object} response.Response "UID不存在"
// @Failure 409 {object} response.Response "UID已被认领"
// @Router /api/v1/claims [post]
func (h *Handler) Claim(c *gin.Context) {
	var req claimService.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if userID := handler.GetOptionalUserID(c); userID != 0 {
		req.ActorUserID = &userID
	}
	req.ActorIP = c.ClientIP()

	result, err := h.claimService.Claim(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册认领路由，挂可选认证的路由组
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/claims", h.Claim)
}
