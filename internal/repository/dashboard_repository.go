package repository

import (
	"fmt"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetServerStats() (DashboardServerStatsRow, error)
	GetReferralStats(startAt, endAt time.Time) (DashboardReferralStatsRow, error)
	GetTopPlans(startAt, endAt time.Time, limit int) ([]DashboardPlanRankingRow, error)
	GetTopReferrers(startAt, endAt time.Time, limit int) ([]DashboardReferrerRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal          int64
	PaidOrders           int64
	PendingPaymentOrders int64
	CanceledOrders       int64
	RevenuePaid          float64
	NewUsers             int64
	OpenTickets          int64
	Currency             string
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day         string
	OrdersTotal int64
	OrdersPaid  int64
}

// DashboardServerStatsRow 实例状态统计
type DashboardServerStatsRow struct {
	TotalServers     int64
	ActiveServers    int64
	SuspendedServers int64
	ErrorServers     int64
	ExpiringIn7Days  int64
}

// DashboardReferralStatsRow 推荐分佣统计
type DashboardReferralStatsRow struct {
	EarningsAccrued float64
	EarningsPending float64
	PayoutsPending  int64
	PayoutsPaidNet  float64
}

// DashboardPlanRankingRow 套餐销量排行原始行
type DashboardPlanRankingRow struct {
	PlanID     uint
	Name       string
	Family     string
	PaidOrders int64
	PaidAmount float64
}

// DashboardReferrerRankingRow 推荐人收益排行原始行
type DashboardReferrerRankingRow struct {
	UserID        uint
	Email         string
	EarningsCount int64
	EarningsTotal float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func paidOrderStatuses() []string {
	return []string{
		constants.OrderStatusPaid,
		constants.OrderStatusProvisioning,
		constants.OrderStatusCompleted,
	}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{Currency: constants.SiteCurrencyDefault}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status IN ?", paidOrderStatuses()).
		Count(&result.PaidOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusPendingPayment).
		Count(&result.PendingPaymentOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusCanceled).
		Count(&result.CanceledOrders).Error; err != nil {
		return result, err
	}

	var revenueRow struct {
		Total float64
	}
	if err := orderBase().Where("status IN ?", paidOrderStatuses()).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&revenueRow).Error; err != nil {
		return result, err
	}
	result.RevenuePaid = revenueRow.Total

	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Ticket{}).
		Where("status IN ?", []string{constants.TicketStatusOpen, constants.TicketStatusCustomerReply}).
		Count(&result.OpenTickets).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetOrderTrends 获取订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type paidRow struct {
		Day  string
		Paid int64
	}

	var totals []totalRow
	dayExpr := "CAST(date(created_at) AS TEXT)"
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var paids []paidRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as paid", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, paidOrderStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]int64, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item.Paid
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		result = append(result, DashboardOrderTrendRow{
			Day:         item.Day,
			OrdersTotal: item.Total,
			OrdersPaid:  paidMap[item.Day],
		})
	}
	return result, nil
}

// GetServerStats 获取实例状态统计
func (r *GormDashboardRepository) GetServerStats() (DashboardServerStatsRow, error) {
	result := DashboardServerStatsRow{}

	if err := r.db.Model(&models.Server{}).Count(&result.TotalServers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Server{}).
		Where("status = ?", constants.ServerStatusActive).
		Count(&result.ActiveServers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Server{}).
		Where("status = ?", constants.ServerStatusSuspended).
		Count(&result.SuspendedServers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Server{}).
		Where("status = ?", constants.ServerStatusError).
		Count(&result.ErrorServers).Error; err != nil {
		return result, err
	}

	now := time.Now()
	if err := r.db.Model(&models.Server{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at >= ? AND expires_at < ?",
			constants.ServerStatusActive, now, now.AddDate(0, 0, 7)).
		Count(&result.ExpiringIn7Days).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetReferralStats 获取推荐分佣统计
func (r *GormDashboardRepository) GetReferralStats(startAt, endAt time.Time) (DashboardReferralStatsRow, error) {
	result := DashboardReferralStatsRow{}

	var accruedRow struct {
		Total float64
	}
	if err := r.db.Model(&models.ReferralEarning{}).
		Where("created_at >= ? AND created_at < ? AND status <> ?",
			startAt, endAt, constants.ReferralEarningStatusRejected).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&accruedRow).Error; err != nil {
		return result, err
	}
	result.EarningsAccrued = accruedRow.Total

	var pendingRow struct {
		Total float64
	}
	if err := r.db.Model(&models.ReferralEarning{}).
		Where("status = ?", constants.ReferralEarningStatusPendingConfirm).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&pendingRow).Error; err != nil {
		return result, err
	}
	result.EarningsPending = pendingRow.Total

	if err := r.db.Model(&models.ReferralPayout{}).
		Where("status IN ?", []string{
			constants.ReferralPayoutStatusRequested,
			constants.ReferralPayoutStatusUnderReview,
			constants.ReferralPayoutStatusApproved,
		}).
		Count(&result.PayoutsPending).Error; err != nil {
		return result, err
	}

	var paidRow struct {
		Total float64
	}
	if err := r.db.Model(&models.ReferralPayout{}).
		Where("status = ? AND paid_at >= ? AND paid_at < ?",
			constants.ReferralPayoutStatusPaid, startAt, endAt).
		Select("COALESCE(SUM(net_amount), 0) AS total").
		Scan(&paidRow).Error; err != nil {
		return result, err
	}
	result.PayoutsPaidNet = paidRow.Total

	return result, nil
}

// GetTopPlans 获取套餐销量排行
func (r *GormDashboardRepository) GetTopPlans(startAt, endAt time.Time, limit int) ([]DashboardPlanRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []DashboardPlanRankingRow
	if err := r.db.Model(&models.Order{}).
		Select("orders.plan_id AS plan_id, hosting_plans.name AS name, hosting_plans.family AS family, " +
			"COUNT(*) AS paid_orders, COALESCE(SUM(orders.total_amount), 0) AS paid_amount").
		Joins("JOIN hosting_plans ON hosting_plans.id = orders.plan_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ?",
			startAt, endAt, paidOrderStatuses()).
		Group("orders.plan_id, hosting_plans.name, hosting_plans.family").
		Order("paid_orders DESC, paid_amount DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopReferrers 获取推荐人收益排行
func (r *GormDashboardRepository) GetTopReferrers(startAt, endAt time.Time, limit int) ([]DashboardReferrerRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []DashboardReferrerRankingRow
	if err := r.db.Model(&models.ReferralEarning{}).
		Select("referral_earnings.user_id AS user_id, users.email AS email, "+
			"COUNT(*) AS earnings_count, COALESCE(SUM(referral_earnings.amount), 0) AS earnings_total").
		Joins("JOIN users ON users.id = referral_earnings.user_id").
		Where("referral_earnings.created_at >= ? AND referral_earnings.created_at < ? AND referral_earnings.status <> ?",
			startAt, endAt, constants.ReferralEarningStatusRejected).
		Group("referral_earnings.user_id, users.email").
		Order("earnings_total DESC, earnings_count DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
