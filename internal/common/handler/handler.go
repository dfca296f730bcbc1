// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、认证检查、参数解析等操作
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tapifyhq/tapify-backend/internal/common/errors"
	"github.com/tapifyhq/tapify-backend/internal/common/response"
	"github.com/tapifyhq/tapify-backend/internal/common/utils"
	"github.com/tapifyhq/tapify-backend/internal/middleware"
)

// statusByCode 业务错误码到 HTTP 状态码的映射
// 认领/分成端点对外承诺具体的状态码，见各 Handler 注释
var statusByCode = map[int]func(*gin.Context, string){
	errors.ErrInvalidParams.Code:       response.BadRequest,
	errors.ErrUnauthorized.Code:        response.Unauthorized,
	errors.ErrTokenExpired.Code:        response.Unauthorized,
	errors.ErrTokenInvalid.Code:        response.Unauthorized,
	errors.ErrSignatureInvalid.Code:    response.Unauthorized,
	errors.ErrPermissionDenied.Code:    response.Forbidden,
	errors.ErrNotFound.Code:            response.NotFound,
	errors.ErrUIDNotFound.Code:         response.NotFound,
	errors.ErrRetailerNotFound.Code:    response.NotFound,
	errors.ErrBusinessNotFound.Code:    response.NotFound,
	errors.ErrOrderNotFound.Code:       response.NotFound,
	errors.ErrPayoutJobNotFound.Code:   response.NotFound,
	errors.ErrDisplayNotFound.Code:     response.NotFound,
	errors.ErrUIDClaimed.Code:          response.Conflict,
	errors.ErrPayoutJobExists.Code:     response.Conflict,
	errors.ErrEmailExists.Code:         response.Conflict,
	errors.ErrRetailerUnresolved.Code:  response.BadRequest,
	errors.ErrPayoutJobNotPending.Code: response.BadRequest,
	errors.ErrVendorFundingAbsent.Code: response.BadRequest,
	errors.ErrOrderAmountError.Code:    response.BadRequest,
	errors.ErrAddressInvalid.Code:      response.BadRequest,
}

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（表示已处理错误，调用方应该 return）
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		if send, found := statusByCode[appErr.Code]; found {
			send(c, appErr.Message)
			return true
		}
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, "内部错误")
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 便捷封装：分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireUserID 获取当前用户ID，如果未登录则返回401响应
// 返回 (userID, true) 表示已登录
// 返回 (0, false) 表示未登录（已发送响应，调用方应该 return）
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// GetOptionalUserID 获取当前用户ID（可选）
// 未登录返回0，不发送错误响应；认领流程允许匿名操作
func GetOptionalUserID(c *gin.Context) int64 {
	return middleware.GetUserID(c)
}

// ParseID 解析路径参数 "id" 为 int64
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, pageSize=10, 最大 pageSize=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
