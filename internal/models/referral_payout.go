package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralPayout 推荐收益提现申请
// 说明：金额拆分在申请时快照，审核流转 requested → under_review → approved/rejected，approved → paid。
type ReferralPayout struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                          // 主键
	PayoutNo         string         `gorm:"uniqueIndex;not null" json:"payout_no"`                         // 提现编号
	UserID           uint           `gorm:"index;not null" json:"user_id"`                                 // 申请用户
	Method           string         `gorm:"type:varchar(32);not null" json:"method"`                       // 提现方式
	AccountHolder    string         `gorm:"type:varchar(100)" json:"account_holder,omitempty"`             // 开户姓名
	AccountNumber    string         `gorm:"type:varchar(64)" json:"account_number,omitempty"`              // 银行账号
	IFSCCode         string         `gorm:"type:varchar(20)" json:"ifsc_code,omitempty"`                   // IFSC 编码
	BankName         string         `gorm:"type:varchar(100)" json:"bank_name,omitempty"`                  // 银行名称
	UPIID            string         `gorm:"type:varchar(100)" json:"upi_id,omitempty"`                     // UPI ID
	PayPalEmail      string         `gorm:"type:varchar(255)" json:"paypal_email,omitempty"`               // PayPal 邮箱
	GrossAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"gross_amount"`     // 提现毛额
	TDSAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tds_amount"`       // TDS 代扣
	GSTAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"gst_amount"`       // GST 代扣
	NetAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"net_amount"`       // 到手净额
	Status           string         `gorm:"type:varchar(32);not null;index" json:"status"`                 // 审核状态
	ReviewNote       string         `gorm:"type:varchar(255)" json:"review_note,omitempty"`                // 审核备注
	RejectReason     string         `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`              // 驳回原因
	PaymentReference string         `gorm:"type:varchar(128)" json:"payment_reference,omitempty"`          // 打款凭证号
	ReviewedAt       *time.Time     `gorm:"index" json:"reviewed_at,omitempty"`                            // 进入审核时间
	DecidedAt        *time.Time     `gorm:"index" json:"decided_at,omitempty"`                             // 审批时间
	PaidAt           *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                // 打款时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                       // 申请时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 申请用户
}

// TableName 指定表名
func (ReferralPayout) TableName() string {
	return "referral_payouts"
}
