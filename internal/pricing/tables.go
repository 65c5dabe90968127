package pricing

import "sort"

// 套餐族常量
const (
	FamilyGeneralPurpose  = "general_purpose"
	FamilyCPUOptimized    = "cpu_optimized"
	FamilyMemoryOptimized = "memory_optimized"
)

// 计费周期常量
const (
	CycleMonthly      = "monthly"
	CycleQuarterly    = "quarterly"
	CycleSemiannually = "semiannually"
	CycleAnnually     = "annually"
	CycleBiennially   = "biennially"
	CycleTriennially  = "triennially"
)

// 附加资源单价（INR/月）
const (
	StoragePricePerGB   = 2
	BandwidthPricePerTB = 100
)

// Tier 容量档位（按套餐族与内存规格静态配置）
type Tier struct {
	RAMGB        int
	VCPU         int
	StorageGB    int
	BasePriceINR int64
}

// Cycle 计费周期（月数与折扣百分比静态配置）
type Cycle struct {
	Name            string
	Months          int
	DiscountPercent int64
}

// tierTables 各套餐族的容量档位表，键为内存规格（GB）。
var tierTables = map[string]map[int]Tier{
	FamilyGeneralPurpose: {
		4:   {RAMGB: 4, VCPU: 2, StorageGB: 80, BasePriceINR: 1120},
		8:   {RAMGB: 8, VCPU: 4, StorageGB: 160, BasePriceINR: 2240},
		16:  {RAMGB: 16, VCPU: 6, StorageGB: 320, BasePriceINR: 4080},
		32:  {RAMGB: 32, VCPU: 8, StorageGB: 480, BasePriceINR: 6720},
		48:  {RAMGB: 48, VCPU: 10, StorageGB: 512, BasePriceINR: 8848},
		64:  {RAMGB: 64, VCPU: 12, StorageGB: 640, BasePriceINR: 11360},
		96:  {RAMGB: 96, VCPU: 16, StorageGB: 740, BasePriceINR: 15760},
		128: {RAMGB: 128, VCPU: 16, StorageGB: 840, BasePriceINR: 19360},
		256: {RAMGB: 256, VCPU: 24, StorageGB: 1280, BasePriceINR: 35520},
	},
	FamilyCPUOptimized: {
		4:   {RAMGB: 4, VCPU: 2, StorageGB: 80, BasePriceINR: 1520},
		8:   {RAMGB: 8, VCPU: 4, StorageGB: 160, BasePriceINR: 3040},
		16:  {RAMGB: 16, VCPU: 6, StorageGB: 320, BasePriceINR: 5280},
		32:  {RAMGB: 32, VCPU: 8, StorageGB: 480, BasePriceINR: 8320},
		48:  {RAMGB: 48, VCPU: 10, StorageGB: 512, BasePriceINR: 10848},
		64:  {RAMGB: 64, VCPU: 12, StorageGB: 640, BasePriceINR: 13760},
		96:  {RAMGB: 96, VCPU: 16, StorageGB: 740, BasePriceINR: 18960},
		128: {RAMGB: 128, VCPU: 16, StorageGB: 840, BasePriceINR: 22560},
		256: {RAMGB: 256, VCPU: 24, StorageGB: 1280, BasePriceINR: 40320},
	},
	FamilyMemoryOptimized: {
		8:   {RAMGB: 8, VCPU: 1, StorageGB: 80, BasePriceINR: 1320},
		16:  {RAMGB: 16, VCPU: 2, StorageGB: 160, BasePriceINR: 2640},
		32:  {RAMGB: 32, VCPU: 4, StorageGB: 320, BasePriceINR: 5280},
		64:  {RAMGB: 64, VCPU: 6, StorageGB: 480, BasePriceINR: 9520},
		96:  {RAMGB: 96, VCPU: 8, StorageGB: 512, BasePriceINR: 13248},
		128: {RAMGB: 128, VCPU: 10, StorageGB: 640, BasePriceINR: 17360},
		192: {RAMGB: 192, VCPU: 12, StorageGB: 740, BasePriceINR: 24560},
		256: {RAMGB: 256, VCPU: 16, StorageGB: 840, BasePriceINR: 32160},
		384: {RAMGB: 384, VCPU: 24, StorageGB: 1280, BasePriceINR: 48320},
	},
}

// cycleTable 计费周期表，折扣百分比随周期单调递增。
var cycleTable = map[string]Cycle{
	CycleMonthly:      {Name: CycleMonthly, Months: 1, DiscountPercent: 0},
	CycleQuarterly:    {Name: CycleQuarterly, Months: 3, DiscountPercent: 10},
	CycleSemiannually: {Name: CycleSemiannually, Months: 6, DiscountPercent: 15},
	CycleAnnually:     {Name: CycleAnnually, Months: 12, DiscountPercent: 20},
	CycleBiennially:   {Name: CycleBiennially, Months: 24, DiscountPercent: 25},
	CycleTriennially:  {Name: CycleTriennially, Months: 36, DiscountPercent: 35},
}

// cycleOrder 周期展示顺序（按承诺时长从短到长）
var cycleOrder = []string{
	CycleMonthly,
	CycleQuarterly,
	CycleSemiannually,
	CycleAnnually,
	CycleBiennially,
	CycleTriennially,
}

// StorageAddonOptions 额外存储可选规格（GB）
var StorageAddonOptions = []int{0, 50, 100, 200, 300, 500}

// BandwidthAddonOptions 额外带宽可选规格（TB）
var BandwidthAddonOptions = []int{0, 1, 2, 3, 5, 10}

// Families 返回全部套餐族标识
func Families() []string {
	return []string{FamilyGeneralPurpose, FamilyCPUOptimized, FamilyMemoryOptimized}
}

// LookupTier 查询套餐族下的容量档位
func LookupTier(family string, capacityGB int) (Tier, bool) {
	table, ok := tierTables[family]
	if !ok {
		return Tier{}, false
	}
	tier, ok := table[capacityGB]
	return tier, ok
}

// FamilyTiers 返回套餐族的全部档位（按内存规格升序）
func FamilyTiers(family string) []Tier {
	table, ok := tierTables[family]
	if !ok {
		return nil
	}
	keys := make([]int, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	tiers := make([]Tier, 0, len(keys))
	for _, k := range keys {
		tiers = append(tiers, table[k])
	}
	return tiers
}

// LookupCycle 查询计费周期
func LookupCycle(name string) (Cycle, bool) {
	cycle, ok := cycleTable[name]
	return cycle, ok
}

// Cycles 返回全部计费周期（按月数升序）
func Cycles() []Cycle {
	cycles := make([]Cycle, 0, len(cycleOrder))
	for _, name := range cycleOrder {
		cycles = append(cycles, cycleTable[name])
	}
	return cycles
}
