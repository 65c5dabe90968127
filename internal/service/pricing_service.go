package service

import (
	"strings"

	"github.com/hostara-cloud/internal/pricing"
)

// PricingService 定价报价服务
// 对定价引擎做薄封装，供报价接口与下单流程复用。
type PricingService struct{}

// NewPricingService 创建定价服务
func NewPricingService() *PricingService {
	return &PricingService{}
}

// QuoteInput 报价请求输入
type QuoteInput struct {
	Family           string
	CapacityGB       int
	Cycle            string
	ExtraStorageGB   int
	ExtraBandwidthTB int
}

// CatalogFamily 目录中的套餐族
type CatalogFamily struct {
	Family string         `json:"family"`
	Tiers  []pricing.Tier `json:"tiers"`
}

// Catalog 定价目录
type Catalog struct {
	Families         []CatalogFamily `json:"families"`
	Cycles           []pricing.Cycle `json:"cycles"`
	StorageAddonGB   []int           `json:"storage_addon_gb"`
	BandwidthAddonTB []int           `json:"bandwidth_addon_tb"`
}

// GetCatalog 获取完整定价目录
func (s *PricingService) GetCatalog() Catalog {
	families := pricing.Families()
	result := Catalog{
		Families:         make([]CatalogFamily, 0, len(families)),
		Cycles:           pricing.Cycles(),
		StorageAddonGB:   append([]int(nil), pricing.StorageAddonOptions...),
		BandwidthAddonTB: append([]int(nil), pricing.BandwidthAddonOptions...),
	}
	for _, family := range families {
		result.Families = append(result.Families, CatalogFamily{
			Family: family,
			Tiers:  pricing.FamilyTiers(family),
		})
	}
	return result
}

// Quote 计算单个周期报价
func (s *PricingService) Quote(input QuoteInput) (pricing.Quote, error) {
	return pricing.Compute(pricing.Input{
		Family:           strings.ToLower(strings.TrimSpace(input.Family)),
		CapacityGB:       input.CapacityGB,
		Cycle:            strings.ToLower(strings.TrimSpace(input.Cycle)),
		ExtraStorageGB:   input.ExtraStorageGB,
		ExtraBandwidthTB: input.ExtraBandwidthTB,
	})
}

// CompareCycles 同配置下六个周期的报价对比
func (s *PricingService) CompareCycles(input QuoteInput) ([]pricing.Quote, error) {
	return pricing.CompareCycles(pricing.Input{
		Family:           strings.ToLower(strings.TrimSpace(input.Family)),
		CapacityGB:       input.CapacityGB,
		ExtraStorageGB:   input.ExtraStorageGB,
		ExtraBandwidthTB: input.ExtraBandwidthTB,
	})
}
