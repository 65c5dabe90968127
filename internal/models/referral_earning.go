package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralEarning 推荐分佣记录
// 说明：每笔已支付订单沿推荐链逐级生成一条记录，(user_id, order_id, level) 唯一保证不重复入账。
type ReferralEarning struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                                                     // 主键
	UserID        uint           `gorm:"not null;index;index:idx_referral_earning_unique,unique" json:"user_id"`                   // 收益归属用户
	SourceUserID  uint           `gorm:"not null;index" json:"source_user_id"`                                                     // 下单用户
	OrderID       uint           `gorm:"not null;index;index:idx_referral_earning_unique,unique" json:"order_id"`                  // 关联订单
	Level         int            `gorm:"not null;index:idx_referral_earning_unique,unique" json:"level"`                           // 推荐层级（1-3）
	CycleKind     string         `gorm:"type:varchar(20);not null" json:"cycle_kind"`                                              // 费率表类型
	RatePercent   Money          `gorm:"type:decimal(10,2);not null;default:0" json:"rate_percent"`                                // 分佣比例（百分比）
	BaseAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_amount"`                                 // 分佣基数金额
	Amount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                      // 分佣金额
	Status        string         `gorm:"type:varchar(32);not null;index" json:"status"`                                            // 收益状态
	AvailableAt   *time.Time     `gorm:"index" json:"available_at,omitempty"`                                                      // 转可提现时间
	PayoutID      *uint          `gorm:"index" json:"payout_id,omitempty"`                                                         // 关联提现申请
	InvalidReason string         `gorm:"type:varchar(255)" json:"invalid_reason"`                                                  // 失效原因
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                                                  // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                                                  // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                                           // 软删除时间

	User   User            `gorm:"foreignKey:UserID" json:"user,omitempty"`       // 收益归属用户
	Order  Order           `gorm:"foreignKey:OrderID" json:"order,omitempty"`     // 关联订单
	Payout *ReferralPayout `gorm:"foreignKey:PayoutID" json:"payout,omitempty"`   // 提现申请
}

// TableName 指定表名
func (ReferralEarning) TableName() string {
	return "referral_earnings"
}
