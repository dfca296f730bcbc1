// Package retailer 提供零售商账户相关的 HTTP Handler
package retailer

import (
	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/handler"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	retailerService "github.com/tapifyhq/tapify-backend/internal/service/retailer"
)

// Handler 零售商处理器
type Handler struct {
	retailerService *retailerService.Service
}

// NewHandler 创建零售商处理器
func NewHandler(retailerSvc *retailerService.Service) *Handler {
	return &Handler{retailerService: retailerSvc}
}

// Register 零售商注册
// @Summary 零售商注册
// @Description 注册同时排一台标准队列展示架
// @Tags 零售商
// @Accept json
// @Produce json
// @Param request body retailerService.RegisterRequest true "请求参数"
// @Success 200 {object} response.Response{data=retailerService.RegisterResult}
// @Failure 409 {object} response.Response "邮箱已被注册"
// @Router /api/v1/retailers/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req retailerService.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.retailerService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Login 零售商登录
// @Summary 零售商登录
// @Tags 零售商
// @Accept json
// @Produce json
// @Param request body retailerService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=retailerService.LoginResult}
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req retailerService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.retailerService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Profile 查询当前零售商档案
// @Summary 查询当前零售商档案
// @Tags 零售商
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.Retailer}
// @Router /api/v1/retailers/me [get]
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	result, err := h.retailerService.GetProfile(c.Request.Context(), userID)
	handler.MustSucceed(c, err, result)
}

// CreateLinkToken 签发银行授权令牌
// @Summary 签发银行授权令牌
// @Tags 零售商
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/plaid/link-token [post]
func (h *Handler) CreateLinkToken(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	token, err := h.retailerService.CreateLinkToken(c.Request.Context(), userID)
	handler.MustSucceed(c, err, gin.H{"link_token": token})
}

// LinkFunding 绑定收款账户
// @Summary 绑定收款账户
// @Description 用银行授权结果开立收款客户并挂资金源
// @Tags 零售商
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body retailerService.LinkFundingRequest true "请求参数"
// @Success 200 {object} response.Response{data=retailerService.LinkFundingResult}
// @Router /api/v1/plaid/exchange [post]
func (h *Handler) LinkFunding(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req retailerService.LinkFundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	req.ActorIP = c.ClientIP()

	result, err := h.retailerService.LinkFunding(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册公开路由（注册、登录）
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/retailers/register", h.Register)
	rg.POST("/auth/login", h.Login)
}

// RegisterProtectedRoutes 注册需要零售商登录的路由
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/retailers/me", h.Profile)
	rg.POST("/plaid/link-token", h.CreateLinkToken)
	rg.POST("/plaid/exchange", h.LinkFunding)
}
