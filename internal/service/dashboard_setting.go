package service

import (
	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
)

// DashboardAlertSetting 仪表盘告警规则配置
type DashboardAlertSetting struct {
	ExpiringServersThreshold      int64 `json:"expiring_servers_threshold"`
	PendingPaymentOrdersThreshold int64 `json:"pending_payment_orders_threshold"`
	OpenTicketsThreshold          int64 `json:"open_tickets_threshold"`
	PendingPayoutsThreshold       int64 `json:"pending_payouts_threshold"`
}

// DashboardRankingSetting 仪表盘排行规则配置
type DashboardRankingSetting struct {
	TopPlansLimit     int `json:"top_plans_limit"`
	TopReferrersLimit int `json:"top_referrers_limit"`
}

// DashboardSetting 仪表盘配置
type DashboardSetting struct {
	Alert   DashboardAlertSetting   `json:"alert"`
	Ranking DashboardRankingSetting `json:"ranking"`
}

// DashboardDefaultSetting 默认仪表盘配置
func DashboardDefaultSetting() DashboardSetting {
	return NormalizeDashboardSetting(DashboardSetting{
		Alert: DashboardAlertSetting{
			ExpiringServersThreshold:      10,
			PendingPaymentOrdersThreshold: 20,
			OpenTicketsThreshold:          10,
			PendingPayoutsThreshold:       5,
		},
		Ranking: DashboardRankingSetting{
			TopPlansLimit:     5,
			TopReferrersLimit: 5,
		},
	})
}

// NormalizeDashboardSetting 归一化仪表盘配置
func NormalizeDashboardSetting(setting DashboardSetting) DashboardSetting {
	if setting.Alert.ExpiringServersThreshold < 1 || setting.Alert.ExpiringServersThreshold > 10000 {
		setting.Alert.ExpiringServersThreshold = 10
	}
	if setting.Alert.PendingPaymentOrdersThreshold < 1 || setting.Alert.PendingPaymentOrdersThreshold > 100000 {
		setting.Alert.PendingPaymentOrdersThreshold = 20
	}
	if setting.Alert.OpenTicketsThreshold < 1 || setting.Alert.OpenTicketsThreshold > 100000 {
		setting.Alert.OpenTicketsThreshold = 10
	}
	if setting.Alert.PendingPayoutsThreshold < 1 || setting.Alert.PendingPayoutsThreshold > 100000 {
		setting.Alert.PendingPayoutsThreshold = 5
	}

	if setting.Ranking.TopPlansLimit < 1 || setting.Ranking.TopPlansLimit > 20 {
		setting.Ranking.TopPlansLimit = 5
	}
	if setting.Ranking.TopReferrersLimit < 1 || setting.Ranking.TopReferrersLimit > 20 {
		setting.Ranking.TopReferrersLimit = 5
	}

	return setting
}

// DashboardSettingToMap 将仪表盘配置转换为设置存储结构
func DashboardSettingToMap(setting DashboardSetting) map[string]interface{} {
	normalized := NormalizeDashboardSetting(setting)
	return map[string]interface{}{
		"alert": map[string]interface{}{
			"expiring_servers_threshold":       normalized.Alert.ExpiringServersThreshold,
			"pending_payment_orders_threshold": normalized.Alert.PendingPaymentOrdersThreshold,
			"open_tickets_threshold":           normalized.Alert.OpenTicketsThreshold,
			"pending_payouts_threshold":        normalized.Alert.PendingPayoutsThreshold,
		},
		"ranking": map[string]interface{}{
			"top_plans_limit":     normalized.Ranking.TopPlansLimit,
			"top_referrers_limit": normalized.Ranking.TopReferrersLimit,
		},
	}
}

func dashboardSettingFromJSON(raw models.JSON, fallback DashboardSetting) DashboardSetting {
	result := fallback

	alertRaw, ok := raw["alert"].(map[string]interface{})
	if ok {
		if value, exists := alertRaw["expiring_servers_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.ExpiringServersThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["pending_payment_orders_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.PendingPaymentOrdersThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["open_tickets_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.OpenTicketsThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["pending_payouts_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.PendingPayoutsThreshold = int64(parsed)
			}
		}
	}

	rankingRaw, ok := raw["ranking"].(map[string]interface{})
	if ok {
		if value, exists := rankingRaw["top_plans_limit"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Ranking.TopPlansLimit = parsed
			}
		}
		if value, exists := rankingRaw["top_referrers_limit"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Ranking.TopReferrersLimit = parsed
			}
		}
	}

	return NormalizeDashboardSetting(result)
}

// GetDashboardSetting 获取仪表盘设置（优先 settings，空时回退默认）
func (s *SettingService) GetDashboardSetting() (DashboardSetting, error) {
	fallback := DashboardDefaultSetting()
	if s == nil {
		return fallback, nil
	}
	value, err := s.GetByKey(constants.SettingKeyDashboardConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return dashboardSettingFromJSON(value, fallback), nil
}
