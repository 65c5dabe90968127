package repository

import (
	"errors"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐分佣数据访问接口
type ReferralRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository

	GetEarningByOrderUserLevel(orderID, userID uint, level int) (*models.ReferralEarning, error)
	CreateEarning(earning *models.ReferralEarning) error
	ListEarnings(filter ReferralEarningListFilter) ([]models.ReferralEarning, int64, error)
	ListEarningsByOrderForUpdate(orderID uint, statuses []string) ([]models.ReferralEarning, error)
	ListEarningsByPayoutIDForUpdate(payoutID uint) ([]models.ReferralEarning, error)
	ListAvailableEarningsForUpdate(userID uint) ([]models.ReferralEarning, error)
	MarkPendingEarningsAvailable(before, now time.Time) (int64, error)
	SumEarningsByUser(userID uint, statuses []string, unboundOnly bool) (decimal.Decimal, error)
	BatchUpdateEarnings(ids []uint, updates map[string]interface{}) error

	CreatePayout(payout *models.ReferralPayout) error
	UpdatePayout(payout *models.ReferralPayout) error
	GetPayoutByID(id uint) (*models.ReferralPayout, error)
	GetPayoutByIDForUpdate(id uint) (*models.ReferralPayout, error)
	GetPayoutByIDAndUser(id uint, userID uint) (*models.ReferralPayout, error)
	ListPayouts(filter ReferralPayoutListFilter) ([]models.ReferralPayout, int64, error)
	HasInflightPayout(userID uint) (bool, error)
}

// GormReferralRepository GORM 推荐分佣仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐分佣仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetEarningByOrderUserLevel 按订单、用户与层级获取收益记录（防重复入账）
func (r *GormReferralRepository) GetEarningByOrderUserLevel(orderID, userID uint, level int) (*models.ReferralEarning, error) {
	if orderID == 0 || userID == 0 {
		return nil, nil
	}
	var earning models.ReferralEarning
	if err := r.db.Where("order_id = ? AND user_id = ? AND level = ?", orderID, userID, level).
		First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// CreateEarning 创建收益记录
func (r *GormReferralRepository) CreateEarning(earning *models.ReferralEarning) error {
	return r.db.Create(earning).Error
}

// ListEarnings 收益列表
func (r *GormReferralRepository) ListEarnings(filter ReferralEarningListFilter) ([]models.ReferralEarning, int64, error) {
	query := r.db.Model(&models.ReferralEarning{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Level != 0 {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var earnings []models.ReferralEarning
	if err := query.Order("id DESC").Find(&earnings).Error; err != nil {
		return nil, 0, err
	}
	return earnings, total, nil
}

// ListEarningsByOrderForUpdate 按订单查询收益并加锁（订单取消时失效用）
func (r *GormReferralRepository) ListEarningsByOrderForUpdate(orderID uint, statuses []string) ([]models.ReferralEarning, error) {
	if orderID == 0 {
		return []models.ReferralEarning{}, nil
	}
	query := r.db.Model(&models.ReferralEarning{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.ReferralEarning
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEarningsByPayoutIDForUpdate 按提现单查询并锁定收益记录
func (r *GormReferralRepository) ListEarningsByPayoutIDForUpdate(payoutID uint) ([]models.ReferralEarning, error) {
	if payoutID == 0 {
		return []models.ReferralEarning{}, nil
	}
	var rows []models.ReferralEarning
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payout_id = ?", payoutID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAvailableEarningsForUpdate 查询并锁定用户可提现收益
func (r *GormReferralRepository) ListAvailableEarningsForUpdate(userID uint) ([]models.ReferralEarning, error) {
	if userID == 0 {
		return []models.ReferralEarning{}, nil
	}
	var rows []models.ReferralEarning
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ? AND payout_id IS NULL",
			userID, constants.ReferralEarningStatusAvailable).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPendingEarningsAvailable 批量将待确认收益转可提现
func (r *GormReferralRepository) MarkPendingEarningsAvailable(before, now time.Time) (int64, error) {
	result := r.db.Model(&models.ReferralEarning{}).
		Where("status = ? AND available_at IS NOT NULL AND available_at <= ? AND payout_id IS NULL",
			constants.ReferralEarningStatusPendingConfirm, before).
		Updates(map[string]interface{}{
			"status":       constants.ReferralEarningStatusAvailable,
			"available_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumEarningsByUser 汇总指定状态收益金额
func (r *GormReferralRepository) SumEarningsByUser(userID uint, statuses []string, unboundOnly bool) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	query := r.db.Model(&models.ReferralEarning{}).
		Where("user_id = ? AND status IN ?", userID, statuses)
	if unboundOnly {
		query = query.Where("payout_id IS NULL")
	}

	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// BatchUpdateEarnings 批量更新收益记录
func (r *GormReferralRepository) BatchUpdateEarnings(ids []uint, updates map[string]interface{}) error {
	if len(ids) == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.ReferralEarning{}).
		Where("id IN ?", ids).
		Updates(updates).Error
}

// CreatePayout 创建提现申请
func (r *GormReferralRepository) CreatePayout(payout *models.ReferralPayout) error {
	return r.db.Create(payout).Error
}

// UpdatePayout 更新提现申请
func (r *GormReferralRepository) UpdatePayout(payout *models.ReferralPayout) error {
	return r.db.Save(payout).Error
}

// GetPayoutByID 按 ID 获取提现申请
func (r *GormReferralRepository) GetPayoutByID(id uint) (*models.ReferralPayout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.ReferralPayout
	if err := r.db.Preload("User").First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetPayoutByIDForUpdate 按 ID 获取并锁定提现申请
func (r *GormReferralRepository) GetPayoutByIDForUpdate(id uint) (*models.ReferralPayout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.ReferralPayout
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetPayoutByIDAndUser 获取用户提现申请
func (r *GormReferralRepository) GetPayoutByIDAndUser(id uint, userID uint) (*models.ReferralPayout, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var payout models.ReferralPayout
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// ListPayouts 提现申请列表
func (r *GormReferralRepository) ListPayouts(filter ReferralPayoutListFilter) ([]models.ReferralPayout, int64, error) {
	query := r.db.Model(&models.ReferralPayout{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.PayoutNo != "" {
		query = query.Where("payout_no LIKE ?", "%"+filter.PayoutNo+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var payouts []models.ReferralPayout
	if err := query.Preload("User").Order("id DESC").Find(&payouts).Error; err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

// HasInflightPayout 判断用户是否存在未完结的提现申请
func (r *GormReferralRepository) HasInflightPayout(userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var total int64
	if err := r.db.Model(&models.ReferralPayout{}).
		Where("user_id = ? AND status IN ?", userID, []string{
			constants.ReferralPayoutStatusRequested,
			constants.ReferralPayoutStatusUnderReview,
			constants.ReferralPayoutStatusApproved,
		}).
		Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}
