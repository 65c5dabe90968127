package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 说明：规格与价格字段为下单时定价引擎输出的快照，续费订单通过 ParentID 关联首购订单。
type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                            // 主键
	OrderNo          string         `gorm:"uniqueIndex;not null" json:"order_no"`                            // 订单编号
	ParentID         *uint          `gorm:"index" json:"parent_id,omitempty"`                                // 父订单ID（续费链）
	UserID           uint           `gorm:"index;not null" json:"user_id"`                                   // 用户ID
	PlanID           uint           `gorm:"index;not null" json:"plan_id"`                                   // 套餐ID
	ServerID         *uint          `gorm:"index" json:"server_id,omitempty"`                                // 续费目标实例ID
	OrderType        string         `gorm:"type:varchar(20);not null;index" json:"order_type"`               // 订单类型（new/renewal）
	Status           string         `gorm:"index;not null" json:"status"`                                    // 订单状态
	Currency         string         `gorm:"not null" json:"currency"`                                        // 币种
	Family           string         `gorm:"type:varchar(32);not null" json:"family"`                         // 套餐族快照
	RAMGB            int            `gorm:"not null" json:"ram_gb"`                                          // 内存快照（GB）
	VCPU             int            `gorm:"not null" json:"vcpu"`                                            // 核数快照
	StorageGB        int            `gorm:"not null" json:"storage_gb"`                                      // 磁盘快照（GB）
	ExtraStorageGB   int            `gorm:"not null;default:0" json:"extra_storage_gb"`                      // 附加磁盘（GB）
	ExtraBandwidthTB int            `gorm:"not null;default:0" json:"extra_bandwidth_tb"`                    // 附加带宽（TB）
	BillingCycle     string         `gorm:"type:varchar(20);not null" json:"billing_cycle"`                  // 计费周期
	Months           int            `gorm:"not null" json:"months"`                                          // 周期月数
	BaseMonthly      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_monthly"`       // 月付基准价
	AddonAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"addon_amount"`       // 附加资源月费
	Subtotal         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`           // 折前小计
	DiscountPercent  Money          `gorm:"type:decimal(10,2);not null;default:0" json:"discount_percent"`   // 周期折扣（百分比）
	DiscountAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`    // 折扣金额
	TotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // 实付金额
	EffectiveMonthly Money          `gorm:"type:decimal(20,2);not null;default:0" json:"effective_monthly"`  // 折后等效月价
	ClientIP         string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                     // 下单客户端IP
	ExpiresAt        *time.Time     `gorm:"index" json:"expires_at"`                                         // 支付过期时间
	PaidAt           *time.Time     `gorm:"index" json:"paid_at"`                                            // 支付时间
	CanceledAt       *time.Time     `gorm:"index" json:"canceled_at"`                                        // 取消时间
	CompletedAt      *time.Time     `gorm:"index" json:"completed_at"`                                       // 完成时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Plan     HostingPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`       // 套餐信息
	Invoice  *Invoice    `gorm:"foreignKey:OrderID" json:"invoice,omitempty"`   // 关联账单
	Children []Order     `gorm:"foreignKey:ParentID" json:"children,omitempty"` // 续费子订单
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
