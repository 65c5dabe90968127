package constants

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusProvisioning   = "provisioning"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 订单类型常量
const (
	OrderTypeNew     = "new"
	OrderTypeRenewal = "renewal"
)

// 账单状态常量
const (
	InvoiceStatusUnpaid   = "unpaid"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusCanceled = "canceled"
)

// 服务器状态常量
const (
	ServerStatusProvisioning = "provisioning"
	ServerStatusActive       = "active"
	ServerStatusStopped      = "stopped"
	ServerStatusSuspended    = "suspended"
	ServerStatusError        = "error"
)

// 工单状态常量
const (
	TicketStatusOpen          = "open"
	TicketStatusAnswered      = "answered"
	TicketStatusCustomerReply = "customer_reply"
	TicketStatusClosed        = "closed"
)

// 工单优先级常量
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
)

// 推荐收益状态常量
const (
	ReferralEarningStatusPendingConfirm = "pending_confirm"
	ReferralEarningStatusAvailable      = "available"
	ReferralEarningStatusLocked         = "locked"
	ReferralEarningStatusWithdrawn      = "withdrawn"
	ReferralEarningStatusRejected       = "rejected"
)

// 推荐提现状态常量
const (
	ReferralPayoutStatusRequested   = "requested"
	ReferralPayoutStatusUnderReview = "under_review"
	ReferralPayoutStatusApproved    = "approved"
	ReferralPayoutStatusRejected    = "rejected"
	ReferralPayoutStatusPaid        = "paid"
)

// 推荐提现审核动作常量
const (
	ReferralPayoutActionReview  = "review"
	ReferralPayoutActionApprove = "approve"
	ReferralPayoutActionReject  = "reject"
	ReferralPayoutActionPay     = "pay"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 登录日志状态常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"
)

// 登录日志失败原因常量
const (
	LoginLogFailReasonBadRequest            = "bad_request"
	LoginLogFailReasonCaptchaRequired       = "captcha_required"
	LoginLogFailReasonCaptchaInvalid        = "captcha_invalid"
	LoginLogFailReasonCaptchaConfigInvalid  = "captcha_config_invalid"
	LoginLogFailReasonCaptchaVerifyFailed   = "captcha_verify_failed"
	LoginLogFailReasonInvalidEmail          = "invalid_email"
	LoginLogFailReasonInvalidCredentials    = "invalid_credentials"
	LoginLogFailReasonUserDisabled          = "user_disabled"
	LoginLogFailReasonInternalError         = "internal_error"
)

// 登录来源常量
const (
	LoginLogSourceWeb = "web"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 设置键常量
const (
	SettingKeySiteConfig             = "site_config"
	SettingKeyOrderConfig            = "order_config"
	SettingKeyCaptchaConfig          = "captcha_config"
	SettingKeyDashboardConfig        = "dashboard_config"
	SettingKeyReferralConfig         = "referral_config"
	SettingFieldSiteCurrency         = "currency"
	SettingFieldPaymentExpireMinutes = "payment_expire_minutes"
)

// 队列常量
const (
	QueueDefault            = "default"
	TaskOrderTimeoutCancel  = "order:timeout_cancel"
	TaskServerProvision     = "server:provision"
	TaskReferralCommission  = "referral:commission_accrue"
	TaskServerRenewalNotice = "server:renewal_notice"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "hostara"
)

// 币种常量
const (
	SiteCurrencyDefault = "INR"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleHiIN = "hi-IN"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleHiIN}
