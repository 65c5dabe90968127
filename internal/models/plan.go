package models

import (
	"time"

	"gorm.io/gorm"
)

// HostingPlan 主机套餐表
// 说明：套餐目录由定价档位表播种，价格字段为月付基准价。
type HostingPlan struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Family       string         `gorm:"type:varchar(32);not null;index" json:"family"`              // 套餐族
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`                     // 套餐名称
	RAMGB        int            `gorm:"not null" json:"ram_gb"`                                     // 内存（GB）
	VCPU         int            `gorm:"not null" json:"vcpu"`                                       // 虚拟核数
	StorageGB    int            `gorm:"not null" json:"storage_gb"`                                 // 磁盘（GB）
	MonthlyPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"monthly_price"` // 月付基准价
	Features     string         `gorm:"type:text" json:"features"`                                  // 卖点描述（JSON 数组文本）
	IsActive     bool           `gorm:"not null;index" json:"is_active"`                            // 是否上架
	IsFeatured   bool           `gorm:"not null;default:false;index" json:"is_featured"`            // 是否推荐位
	SortOrder    int            `gorm:"not null;default:0;index" json:"sort_order"`                 // 排序权重
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (HostingPlan) TableName() string {
	return "hosting_plans"
}
