package service

import "errors"

// 通用错误
var (
	ErrNotFound         = errors.New("record not found")
	ErrQueueUnavailable = errors.New("queue unavailable")
)

// 认证与用户错误
var (
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrWeakPassword        = errors.New("password too weak")
	ErrUserDisabled        = errors.New("user disabled")
	ErrProfileEmpty        = errors.New("profile update is empty")
	ErrReferralCodeInvalid = errors.New("referral code invalid")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
	ErrCaptchaVerifyFailed  = errors.New("captcha verify failed")
)

// 套餐与订单错误
var (
	ErrPlanNotAvailable      = errors.New("plan not available")
	ErrPlanExists            = errors.New("plan already exists")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderStatusInvalid    = errors.New("order status invalid")
	ErrOrderCancelNotAllowed = errors.New("order cancel not allowed")
	ErrRenewTargetInvalid    = errors.New("renew target invalid")
)

// 服务器实例错误
var (
	ErrServerNotFound      = errors.New("server not found")
	ErrServerStatusInvalid = errors.New("server status invalid")
)

// 工单错误
var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket closed")
)

// 推荐提现错误
var (
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrPayoutStatusInvalid  = errors.New("payout status invalid")
	ErrPayoutInflightExists = errors.New("payout already in progress")
)

// 仪表盘错误
var (
	ErrDashboardRangeInvalid = errors.New("dashboard range invalid")
)
