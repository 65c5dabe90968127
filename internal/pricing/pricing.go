package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidSelection 套餐族、容量档位、计费周期或附加资源参数非法
var ErrInvalidSelection = errors.New("pricing: invalid selection")

// Input 报价输入
type Input struct {
	Family           string
	CapacityGB       int
	Cycle            string
	ExtraStorageGB   int
	ExtraBandwidthTB int
}

// Quote 报价结果
// 中间金额不做舍入，仅在序列化时按两位小数展示，避免六个周期并列展示时的舍入误差累积。
type Quote struct {
	Family             string          `json:"family"`
	CapacityGB         int             `json:"capacity_gb"`
	Cycle              string          `json:"cycle"`
	Months             int             `json:"months"`
	DiscountPercent    int64           `json:"discount_percent"`
	BaseMonthly        decimal.Decimal `json:"base_monthly"`
	StorageAddon       decimal.Decimal `json:"storage_addon"`
	BandwidthAddon     decimal.Decimal `json:"bandwidth_addon"`
	MonthlyTotal       decimal.Decimal `json:"monthly_total"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TotalAfterDiscount decimal.Decimal `json:"total_after_discount"`
	EffectiveMonthly   decimal.Decimal `json:"effective_monthly"`
}

var hundred = decimal.NewFromInt(100)

// Compute 计算指定配置的报价
// 纯函数：仅依赖静态配置表，可在任意输入变化时重复调用。
func Compute(input Input) (Quote, error) {
	tier, ok := LookupTier(input.Family, input.CapacityGB)
	if !ok {
		return Quote{}, ErrInvalidSelection
	}
	cycle, ok := LookupCycle(input.Cycle)
	if !ok {
		return Quote{}, ErrInvalidSelection
	}
	if input.ExtraStorageGB < 0 || input.ExtraBandwidthTB < 0 {
		return Quote{}, ErrInvalidSelection
	}

	baseMonthly := decimal.NewFromInt(tier.BasePriceINR)
	storageAddon := decimal.NewFromInt(int64(input.ExtraStorageGB) * StoragePricePerGB)
	bandwidthAddon := decimal.NewFromInt(int64(input.ExtraBandwidthTB) * BandwidthPricePerTB)
	monthlyTotal := baseMonthly.Add(storageAddon).Add(bandwidthAddon)

	months := decimal.NewFromInt(int64(cycle.Months))
	subtotal := monthlyTotal.Mul(months)
	discountAmount := subtotal.Mul(decimal.NewFromInt(cycle.DiscountPercent)).Div(hundred)
	totalAfterDiscount := subtotal.Sub(discountAmount)
	effectiveMonthly := totalAfterDiscount.Div(months)

	return Quote{
		Family:             input.Family,
		CapacityGB:         input.CapacityGB,
		Cycle:              cycle.Name,
		Months:             cycle.Months,
		DiscountPercent:    cycle.DiscountPercent,
		BaseMonthly:        baseMonthly,
		StorageAddon:       storageAddon,
		BandwidthAddon:     bandwidthAddon,
		MonthlyTotal:       monthlyTotal,
		Subtotal:           subtotal,
		DiscountAmount:     discountAmount,
		TotalAfterDiscount: totalAfterDiscount,
		EffectiveMonthly:   effectiveMonthly,
	}, nil
}

// CompareCycles 返回同一配置在全部计费周期下的报价（按月数升序）
func CompareCycles(input Input) ([]Quote, error) {
	quotes := make([]Quote, 0, len(cycleOrder))
	for _, name := range cycleOrder {
		cycleInput := input
		cycleInput.Cycle = name
		quote, err := Compute(cycleInput)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// ValidStorageAddon 判断额外存储规格是否在可选集合内
func ValidStorageAddon(gb int) bool {
	for _, option := range StorageAddonOptions {
		if option == gb {
			return true
		}
	}
	return false
}

// ValidBandwidthAddon 判断额外带宽规格是否在可选集合内
func ValidBandwidthAddon(tb int) bool {
	for _, option := range BandwidthAddonOptions {
		if option == tb {
			return true
		}
	}
	return false
}
