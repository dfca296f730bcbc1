// Package admin 提供运营后台相关的 HTTP Handler
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/handler"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	adminService "github.com/tapifyhq/tapify-backend/internal/service/admin"
)

// Handler 运营后台处理器
type Handler struct {
	adminService *adminService.Service
}

// NewHandler 创建运营后台处理器
func NewHandler(adminSvc *adminService.Service) *Handler {
	return &Handler{adminService: adminSvc}
}

// Login 管理员登录
// @Summary 管理员登录
// @Tags 后台
// @Accept json
// @Produce json
// @Param request body adminService.LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=adminService.LoginResult}
// @Router /api/v1/admin/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req adminService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.adminService.Login(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// ProvisionUIDs 批量开码
// @Summary 批量开码
// @Description 批量生成未认领的展示架标识码
// @Tags 后台
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.ProvisionUIDsRequest true "请求参数"
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v1/admin/uids [post]
func (h *Handler) ProvisionUIDs(c *gin.Context) {
	var req adminService.ProvisionUIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	codes, err := h.adminService.ProvisionUIDs(c.Request.Context(), &req)
	handler.MustSucceed(c, err, codes)
}

// ListUIDs 标识码列表
// @Summary 标识码列表
// @Tags 后台
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param claimed query bool false "按认领状态过滤"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/uids [get]
func (h *Handler) ListUIDs(c *gin.Context) {
	page := handler.BindPagination(c)

	var claimed *bool
	if v := c.Query("claimed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "claimed 参数非法")
			return
		}
		claimed = &b
	}

	uids, total, err := h.adminService.ListUIDs(c.Request.Context(), &page, claimed)
	handler.MustSucceedPage(c, err, uids, total, page.Page, page.PageSize)
}

// ListRetailers 零售商列表
// @Summary 零售商列表
// @Tags 后台
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/retailers [get]
func (h *Handler) ListRetailers(c *gin.Context) {
	page := handler.BindPagination(c)
	retailers, total, err := h.adminService.ListRetailers(c.Request.Context(), &page)
	handler.MustSucceedPage(c, err, retailers, total, page.Page, page.PageSize)
}

// ListBusinesses 商户列表
// @Summary 商户列表
// @Tags 后台
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/businesses [get]
func (h *Handler) ListBusinesses(c *gin.Context) {
	page := handler.BindPagination(c)
	businesses, total, err := h.adminService.ListBusinesses(c.Request.Context(), &page)
	handler.MustSucceedPage(c, err, businesses, total, page.Page, page.PageSize)
}

// ListOrders 订单列表
// @Summary 订单列表
// @Tags 后台
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param retailer_id query int false "按零售商过滤"
// @Param business_id query int false "按商户过滤"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	page := handler.BindPagination(c)
	retailerID := parseOptionalID(c, "retailer_id")
	businessID := parseOptionalID(c, "business_id")

	orders, total, err := h.adminService.ListOrders(c.Request.Context(), &page, retailerID, businessID)
	handler.MustSucceedPage(c, err, orders, total, page.Page, page.PageSize)
}

// ListPayoutJobs 分账任务列表
// @Summary 分账任务列表
// @Tags 后台
// @Produce json
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "按状态过滤"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/admin/payout-jobs [get]
func (h *Handler) ListPayoutJobs(c *gin.Context) {
	page := handler.BindPagination(c)
	jobs, total, err := h.adminService.ListPayoutJobs(c.Request.Context(), &page, c.Query("status"))
	handler.MustSucceedPage(c, err, jobs, total, page.Page, page.PageSize)
}

// Leaderboard 零售商排行榜
// @Summary 零售商排行榜
// @Tags 后台
// @Produce json
// @Security Bearer
// @Param period query string false "榜单周期，格式 2006-01，缺省为当月"
// @Param limit query int false "返回条数"
// @Success 200 {object} response.Response{data=[]models.LeaderboardEntry}
// @Router /api/v1/admin/leaderboard [get]
func (h *Handler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := h.adminService.Leaderboard(c.Request.Context(), c.Query("period"), limit)
	handler.MustSucceed(c, err, entries)
}

// RegisterRoutes 注册后台路由，登录公开，其余挂管理员认证的路由组
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/admin/login", h.Login)

	protected.POST("/admin/uids", h.ProvisionUIDs)
	protected.GET("/admin/uids", h.ListUIDs)
	protected.GET("/admin/retailers", h.ListRetailers)
	protected.GET("/admin/businesses", h.ListBusinesses)
	protected.GET("/admin/orders", h.ListOrders)
	protected.GET("/admin/payout-jobs", h.ListPayoutJobs)
	protected.GET("/admin/leaderboard", h.Leaderboard)
}

// parseOptionalID 解析可选的数值过滤参数，缺失或非法返回 nil
func parseOptionalID(c *gin.Context, name string) *int64 {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}
