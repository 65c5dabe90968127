package repository

import "time"

// PlanListFilter 查询套餐列表的过滤条件
type PlanListFilter struct {
	Page       int
	PageSize   int
	Family     string
	Search     string
	OnlyActive bool
}

// ServerListFilter 查询服务器实例列表的过滤条件
type ServerListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	PlanID      uint
	Status      string
	Search      string
	ExpiresFrom *time.Time
	ExpiresTo   *time.Time
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	PlanID      uint
	Status      string
	OrderType   string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InvoiceListFilter 查询账单列表的过滤条件
type InvoiceListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	InvoiceNo   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TicketListFilter 查询工单列表的过滤条件
type TicketListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	ServerID uint
	Status   string
	Priority string
	Search   string
}

// ReferralEarningListFilter 查询推荐收益列表的过滤条件
type ReferralEarningListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Level       int
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReferralPayoutListFilter 查询提现申请列表的过滤条件
type ReferralPayoutListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	Method      string
	PayoutNo    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}

// UserLoginLogListFilter 查询用户登录日志列表的过滤条件
type UserLoginLogListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Email       string
	Status      string
	FailReason  string
	ClientIP    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuthzAuditLogListFilter 查询权限审计日志列表的过滤条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	Object          string
	Method          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
