package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hostara-cloud/internal/cache"
	"github.com/hostara-cloud/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页核心经营数据。
type DashboardService struct {
	repo           repository.DashboardRepository
	settingService *SettingService
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, settingService *SettingService) *DashboardService {
	return &DashboardService{repo: repo, settingService: settingService}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string                 `json:"range"`
	From     string                 `json:"from"`
	To       string                 `json:"to"`
	Timezone string                 `json:"timezone"`
	Currency string                 `json:"currency,omitempty"`
	KPI      DashboardKPI           `json:"kpi"`
	Servers  DashboardServerStats   `json:"servers"`
	Referral DashboardReferralStats `json:"referral"`
	Alerts   []DashboardAlertItem   `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	OrdersTotal          int64  `json:"orders_total"`
	PaidOrders           int64  `json:"paid_orders"`
	PendingPaymentOrders int64  `json:"pending_payment_orders"`
	CanceledOrders       int64  `json:"canceled_orders"`
	PaidOrderRate        string `json:"paid_order_rate"`
	RevenuePaid          string `json:"revenue_paid"`
	NewUsers             int64  `json:"new_users"`
	OpenTickets          int64  `json:"open_tickets"`
}

// DashboardServerStats 实例状态统计
type DashboardServerStats struct {
	TotalServers     int64 `json:"total_servers"`
	ActiveServers    int64 `json:"active_servers"`
	SuspendedServers int64 `json:"suspended_servers"`
	ErrorServers     int64 `json:"error_servers"`
	ExpiringIn7Days  int64 `json:"expiring_in_7_days"`
}

// DashboardReferralStats 推荐分佣统计
type DashboardReferralStats struct {
	EarningsAccrued string `json:"earnings_accrued"`
	EarningsPending string `json:"earnings_pending"`
	PayoutsPending  int64  `json:"payouts_pending"`
	PayoutsPaidNet  string `json:"payouts_paid_net"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date        string `json:"date"`
	OrdersTotal int64  `json:"orders_total"`
	OrdersPaid  int64  `json:"orders_paid"`
}

// DashboardRankingsResponse 仪表盘排行榜响应
type DashboardRankingsResponse struct {
	Range        string                     `json:"range"`
	From         string                     `json:"from"`
	To           string                     `json:"to"`
	Timezone     string                     `json:"timezone"`
	TopPlans     []DashboardPlanRanking     `json:"top_plans"`
	TopReferrers []DashboardReferrerRanking `json:"top_referrers"`
}

// DashboardPlanRanking 套餐销量排行项
type DashboardPlanRanking struct {
	PlanID     uint   `json:"plan_id"`
	Name       string `json:"name"`
	Family     string `json:"family"`
	PaidOrders int64  `json:"paid_orders"`
	PaidAmount string `json:"paid_amount"`
}

// DashboardReferrerRanking 推荐人收益排行项
type DashboardReferrerRanking struct {
	UserID        uint   `json:"user_id"`
	Email         string `json:"email"`
	EarningsCount int64  `json:"earnings_count"`
	EarningsTotal string `json:"earnings_total"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	setting := s.loadDashboardSetting()

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d:%s:%d:%d:%d:%d",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		setting.Alert.ExpiringServersThreshold,
		setting.Alert.PendingPaymentOrdersThreshold,
		setting.Alert.OpenTicketsThreshold,
		setting.Alert.PendingPayoutsThreshold,
	)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	serverStats, err := s.repo.GetServerStats()
	if err != nil {
		return nil, err
	}
	referralStats, err := s.repo.GetReferralStats(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}

	paidOrderRate := 0.0
	if overview.OrdersTotal > 0 {
		paidOrderRate = float64(overview.PaidOrders) / float64(overview.OrdersTotal) * 100
	}

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Currency: strings.ToUpper(strings.TrimSpace(overview.Currency)),
		KPI: DashboardKPI{
			OrdersTotal:          overview.OrdersTotal,
			PaidOrders:           overview.PaidOrders,
			PendingPaymentOrders: overview.PendingPaymentOrders,
			CanceledOrders:       overview.CanceledOrders,
			PaidOrderRate:        formatPercentValue(paidOrderRate),
			RevenuePaid:          formatMoneyValue(overview.RevenuePaid),
			NewUsers:             overview.NewUsers,
			OpenTickets:          overview.OpenTickets,
		},
		Servers: DashboardServerStats{
			TotalServers:     serverStats.TotalServers,
			ActiveServers:    serverStats.ActiveServers,
			SuspendedServers: serverStats.SuspendedServers,
			ErrorServers:     serverStats.ErrorServers,
			ExpiringIn7Days:  serverStats.ExpiringIn7Days,
		},
		Referral: DashboardReferralStats{
			EarningsAccrued: formatMoneyValue(referralStats.EarningsAccrued),
			EarningsPending: formatMoneyValue(referralStats.EarningsPending),
			PayoutsPending:  referralStats.PayoutsPending,
			PayoutsPaidNet:  formatMoneyValue(referralStats.PayoutsPaidNet),
		},
		Alerts: buildDashboardAlerts(overview, serverStats, referralStats, setting.Alert),
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取仪表盘趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	orderRows, err := s.repo.GetOrderTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}

	orderMap := make(map[string]repository.DashboardOrderTrendRow, len(orderRows))
	for _, item := range orderRows {
		orderMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		orderItem := orderMap[day]
		points = append(points, DashboardTrendPoint{
			Date:        day,
			OrdersTotal: orderItem.OrdersTotal,
			OrdersPaid:  orderItem.OrdersPaid,
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetRankings 获取仪表盘排行榜
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardRankingsResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	setting := s.loadDashboardSetting()

	cacheKey := fmt.Sprintf("dashboard:rankings:%s:%d:%d:%s:%d:%d",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		setting.Ranking.TopPlansLimit,
		setting.Ranking.TopReferrersLimit,
	)
	if !input.ForceRefresh {
		var cached DashboardRankingsResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	planRows, err := s.repo.GetTopPlans(window.startAt, window.endAt, setting.Ranking.TopPlansLimit)
	if err != nil {
		return nil, err
	}
	referrerRows, err := s.repo.GetTopReferrers(window.startAt, window.endAt, setting.Ranking.TopReferrersLimit)
	if err != nil {
		return nil, err
	}

	plans := make([]DashboardPlanRanking, 0, len(planRows))
	for _, item := range planRows {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = "-"
		}
		plans = append(plans, DashboardPlanRanking{
			PlanID:     item.PlanID,
			Name:       name,
			Family:     strings.TrimSpace(item.Family),
			PaidOrders: item.PaidOrders,
			PaidAmount: formatMoneyValue(item.PaidAmount),
		})
	}

	referrers := make([]DashboardReferrerRanking, 0, len(referrerRows))
	for _, item := range referrerRows {
		referrers = append(referrers, DashboardReferrerRanking{
			UserID:        item.UserID,
			Email:         strings.TrimSpace(item.Email),
			EarningsCount: item.EarningsCount,
			EarningsTotal: formatMoneyValue(item.EarningsTotal),
		})
	}

	response := &DashboardRankingsResponse{
		Range:        window.rangeKey,
		From:         window.startAt.Format(time.RFC3339),
		To:           window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:     window.timezone,
		TopPlans:     plans,
		TopReferrers: referrers,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func (s *DashboardService) loadDashboardSetting() DashboardSetting {
	fallback := DashboardDefaultSetting()
	if s == nil || s.settingService == nil {
		return fallback
	}
	setting, err := s.settingService.GetDashboardSetting()
	if err != nil {
		return fallback
	}
	return NormalizeDashboardSetting(setting)
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow, serverStats repository.DashboardServerStatsRow, referralStats repository.DashboardReferralStatsRow, alertSetting DashboardAlertSetting) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 4)
	if serverStats.ExpiringIn7Days >= alertSetting.ExpiringServersThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "expiring_servers", Level: "warning", Value: serverStats.ExpiringIn7Days})
	}
	if serverStats.ErrorServers > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "error_servers", Level: "error", Value: serverStats.ErrorServers})
	}
	if overview.PendingPaymentOrders >= alertSetting.PendingPaymentOrdersThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_payment_orders", Level: "warning", Value: overview.PendingPaymentOrders})
	}
	if overview.OpenTickets >= alertSetting.OpenTicketsThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "open_tickets", Level: "warning", Value: overview.OpenTickets})
	}
	if referralStats.PayoutsPending >= alertSetting.PendingPayoutsThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_payouts", Level: "warning", Value: referralStats.PayoutsPending})
	}
	return alerts
}
