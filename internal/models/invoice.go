package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice 账单表
type Invoice struct {
	ID        uint           `gorm:"primarykey" json:"id"`                              // 主键
	InvoiceNo string         `gorm:"uniqueIndex;not null" json:"invoice_no"`            // 账单编号
	OrderID   uint           `gorm:"uniqueIndex;not null" json:"order_id"`              // 关联订单
	UserID    uint           `gorm:"index;not null" json:"user_id"`                     // 用户ID
	Status    string         `gorm:"type:varchar(20);not null;index" json:"status"`     // 账单状态
	Currency  string         `gorm:"not null" json:"currency"`                          // 币种
	Amount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 应付金额
	DueAt     *time.Time     `gorm:"index" json:"due_at"`                               // 到期时间
	PaidAt    *time.Time     `gorm:"index" json:"paid_at"`                              // 支付时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (Invoice) TableName() string {
	return "invoices"
}
