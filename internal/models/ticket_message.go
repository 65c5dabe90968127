package models

import "time"

// 工单回复方类型。
const (
	TicketAuthorUser  = "user"
	TicketAuthorAdmin = "admin"
)

// TicketMessage 工单回复记录
type TicketMessage struct {
	ID         uint      `gorm:"primarykey" json:"id"`                             // 主键
	TicketID   uint      `gorm:"index;not null" json:"ticket_id"`                  // 工单ID
	AuthorType string    `gorm:"type:varchar(20);not null" json:"author_type"`     // 回复方（user/admin）
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`                   // 用户回复时的用户ID
	AdminID    *uint     `gorm:"index" json:"admin_id,omitempty"`                  // 客服回复时的管理员ID
	Body       string    `gorm:"type:text;not null" json:"body"`                   // 回复正文
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                          // 回复时间
}

// TableName 指定表名
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
