package referral

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MaxLevels 推荐链最大层级数。
const MaxLevels = 3

// 计费周期类型，决定分佣费率表。
const (
	KindRecurring = "recurring"
	KindLongTerm  = "long_term"
)

// ErrUnsupportedCycle 订单计费周期无对应费率表
var ErrUnsupportedCycle = errors.New("referral: unsupported billing cycle")

// 各周期类型的逐级分佣费率（百分比），下标即层级减一。
var rateTables = map[string][MaxLevels]int64{
	KindRecurring: {5, 1, 1},
	KindLongTerm:  {15, 3, 2},
}

// CommissionLine 单条分佣记录，Level 从 1 开始。
type CommissionLine struct {
	Level       int             `json:"level"`
	RatePercent decimal.Decimal `json:"rate_percent"`
	Amount      decimal.Decimal `json:"amount"`
}

// KindForMonths 按订单周期月数选择费率表类型。
// 月付、季付、半年付走短周期表，年付及以上走长周期表。
func KindForMonths(months int) (string, error) {
	switch {
	case months >= 1 && months <= 6:
		return KindRecurring, nil
	case months >= 12:
		return KindLongTerm, nil
	default:
		return "", ErrUnsupportedCycle
	}
}

// Rates 返回指定周期类型的逐级费率，类型未知时返回 ErrUnsupportedCycle。
func Rates(kind string) ([MaxLevels]int64, error) {
	rates, ok := rateTables[kind]
	if !ok {
		return [MaxLevels]int64{}, ErrUnsupportedCycle
	}
	return rates, nil
}

// ComputeCommissions 按订单金额与周期月数计算前 levels 级的分佣明细。
// levels 为推荐链上实际存在的上级数量，超出 MaxLevels 的部分被忽略。
// 金额按 amount × rate / 100 计算并保留两位小数。
func ComputeCommissions(amount decimal.Decimal, months int, levels int) ([]CommissionLine, error) {
	kind, err := KindForMonths(months)
	if err != nil {
		return nil, err
	}
	rates := rateTables[kind]

	if levels > MaxLevels {
		levels = MaxLevels
	}
	if levels <= 0 || amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	hundred := decimal.NewFromInt(100)
	lines := make([]CommissionLine, 0, levels)
	for i := 0; i < levels; i++ {
		rate := decimal.NewFromInt(rates[i])
		lines = append(lines, CommissionLine{
			Level:       i + 1,
			RatePercent: rate,
			Amount:      amount.Mul(rate).Div(hundred).Round(2),
		})
	}
	return lines, nil
}
