package models

import (
	"time"

	"gorm.io/gorm"
)

// Server 客户服务器实例表
// 说明：规格字段为开通时的套餐快照，套餐调价不影响已开通实例。
type Server struct {
	ID               uint           `gorm:"primarykey" json:"id"`                          // 主键
	UserID           uint           `gorm:"index;not null" json:"user_id"`                 // 所属用户
	PlanID           uint           `gorm:"index;not null" json:"plan_id"`                 // 套餐ID
	OrderID          uint           `gorm:"index;not null" json:"order_id"`                // 开通订单ID
	Name             string         `gorm:"type:varchar(100);not null" json:"name"`        // 实例名称
	Hostname         string         `gorm:"type:varchar(255)" json:"hostname"`             // 主机名
	IPAddress        string         `gorm:"type:varchar(64)" json:"ip_address"`            // 公网IP
	Status           string         `gorm:"type:varchar(32);not null;index" json:"status"` // 实例状态
	Family           string         `gorm:"type:varchar(32);not null" json:"family"`       // 套餐族快照
	RAMGB            int            `gorm:"not null" json:"ram_gb"`                        // 内存快照（GB）
	VCPU             int            `gorm:"not null" json:"vcpu"`                          // 核数快照
	StorageGB        int            `gorm:"not null" json:"storage_gb"`                    // 磁盘快照（GB）
	ExtraStorageGB   int            `gorm:"not null;default:0" json:"extra_storage_gb"`    // 附加磁盘（GB）
	ExtraBandwidthTB int            `gorm:"not null;default:0" json:"extra_bandwidth_tb"`  // 附加带宽（TB）
	BillingCycle     string         `gorm:"type:varchar(20);not null" json:"billing_cycle"` // 计费周期
	ExpiresAt        *time.Time     `gorm:"index" json:"expires_at"`                       // 到期时间
	SuspendedAt      *time.Time     `json:"suspended_at,omitempty"`                        // 停用时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Plan HostingPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"` // 套餐信息
}

// TableName 指定表名
func (Server) TableName() string {
	return "servers"
}
