// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
	ErrAccountDisabled  = New(2004, "账号已禁用")
	ErrPasswordError    = New(2005, "密码错误")
	ErrSignatureInvalid = New(2006, "签名校验失败")
)

// 零售商/商户错误码 (3000-3999)
var (
	ErrRetailerNotFound   = New(3000, "零售商不存在")
	ErrRetailerExists     = New(3001, "零售商已存在")
	ErrBusinessNotFound   = New(3002, "商户不存在")
	ErrSourcerNotFound    = New(3003, "推荐人不存在")
	ErrEmailExists        = New(3004, "邮箱已被注册")
	ErrRetailerUnresolved = New(3005, "无法确定归属零售商")
	ErrFundingNotLinked   = New(3006, "未绑定收款账户")
	ErrAddressInvalid     = New(3007, "地址校验失败")
)

// UID/陈列架错误码 (4000-4999)
var (
	ErrUIDNotFound       = New(4000, "UID不存在")
	ErrUIDClaimed        = New(4001, "UID已被认领")
	ErrUIDNotClaimed     = New(4002, "UID尚未认领")
	ErrDisplayNotFound   = New(4003, "陈列架不存在")
	ErrAffiliateURLEmpty = New(4004, "跳转链接未配置")
)

// 订单错误码 (5000-5999)
var (
	ErrOrderNotFound    = New(5000, "订单不存在")
	ErrOrderExists      = New(5001, "订单已存在")
	ErrOrderAmountError = New(5002, "订单金额无效")
	ErrOrderUnattributed = New(5003, "订单无法归因")
)

// 分成/转账错误码 (6000-6999)
var (
	ErrPayoutJobNotFound   = New(6000, "分成任务不存在")
	ErrPayoutJobExists     = New(6001, "该订单已存在分成任务")
	ErrPayoutJobNotPending = New(6002, "分成任务不在待处理状态")
	ErrVendorFundingAbsent = New(6003, "供应商收款账户缺失")
	ErrTransferFailed      = New(6004, "转账请求失败")
	ErrRailTokenFailed     = New(6005, "获取支付通道令牌失败")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
