package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                              // 主键
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`                 // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                                 // 密码哈希（不返回给前端）
	DisplayName        string         `gorm:"default:''" json:"display_name"`                    // 昵称
	Locale             string         `gorm:"default:'en-US'" json:"locale"`                     // 语言偏好
	Status             string         `gorm:"default:'active'" json:"status"`                    // 账号状态
	ReferralCode       string         `gorm:"type:varchar(32);uniqueIndex" json:"referral_code"` // 推荐码
	ReferredByL1       *uint          `gorm:"index" json:"referred_by_l1,omitempty"`             // 一级推荐人（注册时固化）
	ReferredByL2       *uint          `gorm:"index" json:"referred_by_l2,omitempty"`             // 二级推荐人
	ReferredByL3       *uint          `gorm:"index" json:"referred_by_l3,omitempty"`             // 三级推荐人
	TotalReferrals     uint           `gorm:"not null;default:0" json:"total_referrals"`         // 直接推荐人数（冗余计数）
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                       // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                    // 该时间点前签发的 Token 失效
	EmailVerifiedAt    *time.Time     `json:"email_verified_at"`                                 // 邮箱验证时间
	LastLoginAt        *time.Time     `json:"last_login_at"`                                     // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
