package models

import (
	"time"

	"gorm.io/gorm"
)

// Ticket 工单表
type Ticket struct {
	ID          uint           `gorm:"primarykey" json:"id"`                            // 主键
	TicketNo    string         `gorm:"uniqueIndex;not null" json:"ticket_no"`           // 工单编号
	UserID      uint           `gorm:"index;not null" json:"user_id"`                   // 用户ID
	ServerID    *uint          `gorm:"index" json:"server_id,omitempty"`                // 关联实例（可空）
	Subject     string         `gorm:"type:varchar(200);not null" json:"subject"`       // 标题
	Priority    string         `gorm:"type:varchar(20);not null;index" json:"priority"` // 优先级
	Status      string         `gorm:"type:varchar(32);not null;index" json:"status"`   // 工单状态
	LastReplyAt *time.Time     `gorm:"index" json:"last_reply_at"`                      // 最后回复时间
	ClosedAt    *time.Time     `json:"closed_at,omitempty"`                             // 关闭时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	Messages []TicketMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"` // 会话记录
}

// TableName 指定表名
func (Ticket) TableName() string {
	return "tickets"
}
