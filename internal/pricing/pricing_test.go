package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeAnnualGeneralPurpose8GB(t *testing.T) {
	quote, err := Compute(Input{
		Family:     FamilyGeneralPurpose,
		CapacityGB: 8,
		Cycle:      CycleAnnually,
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	expect := map[string]int64{
		"base_monthly":         2240,
		"subtotal":             26880,
		"discount_amount":      5376,
		"total_after_discount": 21504,
		"effective_monthly":    1792,
	}
	got := map[string]decimal.Decimal{
		"base_monthly":         quote.BaseMonthly,
		"subtotal":             quote.Subtotal,
		"discount_amount":      quote.DiscountAmount,
		"total_after_discount": quote.TotalAfterDiscount,
		"effective_monthly":    quote.EffectiveMonthly,
	}
	for field, want := range expect {
		if !got[field].Equal(decimal.NewFromInt(want)) {
			t.Fatalf("%s: expected %d, got %s", field, want, got[field])
		}
	}
}

func TestComputeWithAddons(t *testing.T) {
	quote, err := Compute(Input{
		Family:           FamilyCPUOptimized,
		CapacityGB:       16,
		Cycle:            CycleMonthly,
		ExtraStorageGB:   100,
		ExtraBandwidthTB: 2,
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !quote.StorageAddon.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected storage addon 200, got %s", quote.StorageAddon)
	}
	if !quote.BandwidthAddon.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected bandwidth addon 200, got %s", quote.BandwidthAddon)
	}
	if !quote.MonthlyTotal.Equal(decimal.NewFromInt(5280 + 200 + 200)) {
		t.Fatalf("expected monthly total 5680, got %s", quote.MonthlyTotal)
	}
	if !quote.Subtotal.Equal(quote.MonthlyTotal) {
		t.Fatalf("monthly cycle subtotal should equal monthly total, got %s", quote.Subtotal)
	}
	if !quote.DiscountAmount.IsZero() {
		t.Fatalf("monthly cycle should carry no discount, got %s", quote.DiscountAmount)
	}
}

func TestComputeEffectiveMonthlyIdentityAcrossCycles(t *testing.T) {
	base := decimal.NewFromInt(4080)
	for _, cycle := range Cycles() {
		quote, err := Compute(Input{
			Family:     FamilyGeneralPurpose,
			CapacityGB: 16,
			Cycle:      cycle.Name,
		})
		if err != nil {
			t.Fatalf("compute %s failed: %v", cycle.Name, err)
		}
		want := base.Mul(decimal.NewFromInt(100 - cycle.DiscountPercent)).Div(decimal.NewFromInt(100))
		diff := quote.EffectiveMonthly.Sub(want).Abs()
		if diff.GreaterThan(decimal.NewFromInt(1)) {
			t.Fatalf("%s: effective monthly %s deviates from %s", cycle.Name, quote.EffectiveMonthly, want)
		}
	}
}

func TestComputeEffectiveMonthlyMonotonicAcrossCycles(t *testing.T) {
	quotes, err := CompareCycles(Input{
		Family:           FamilyMemoryOptimized,
		CapacityGB:       64,
		Cycle:            CycleMonthly,
		ExtraStorageGB:   50,
		ExtraBandwidthTB: 1,
	})
	if err != nil {
		t.Fatalf("compare cycles failed: %v", err)
	}
	if len(quotes) != 6 {
		t.Fatalf("expected 6 cycle quotes, got %d", len(quotes))
	}
	for i := 1; i < len(quotes); i++ {
		if quotes[i].EffectiveMonthly.GreaterThan(quotes[i-1].EffectiveMonthly) {
			t.Fatalf("effective monthly not non-increasing: %s (%s) > %s (%s)",
				quotes[i].EffectiveMonthly, quotes[i].Cycle,
				quotes[i-1].EffectiveMonthly, quotes[i-1].Cycle)
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	input := Input{
		Family:           FamilyGeneralPurpose,
		CapacityGB:       32,
		Cycle:            CycleBiennially,
		ExtraStorageGB:   200,
		ExtraBandwidthTB: 3,
	}
	first, err := Compute(input)
	if err != nil {
		t.Fatalf("first compute failed: %v", err)
	}
	second, err := Compute(input)
	if err != nil {
		t.Fatalf("second compute failed: %v", err)
	}
	if !first.TotalAfterDiscount.Equal(second.TotalAfterDiscount) ||
		!first.EffectiveMonthly.Equal(second.EffectiveMonthly) {
		t.Fatalf("expected identical results, got %s/%s and %s/%s",
			first.TotalAfterDiscount, first.EffectiveMonthly,
			second.TotalAfterDiscount, second.EffectiveMonthly)
	}
}

func TestComputeInvalidSelection(t *testing.T) {
	cases := []Input{
		{Family: "storage_optimized", CapacityGB: 8, Cycle: CycleMonthly},
		{Family: FamilyGeneralPurpose, CapacityGB: 12, Cycle: CycleMonthly},
		{Family: FamilyMemoryOptimized, CapacityGB: 4, Cycle: CycleMonthly},
		{Family: FamilyGeneralPurpose, CapacityGB: 8, Cycle: "weekly"},
		{Family: FamilyGeneralPurpose, CapacityGB: 8, Cycle: CycleMonthly, ExtraStorageGB: -50},
		{Family: FamilyGeneralPurpose, CapacityGB: 8, Cycle: CycleMonthly, ExtraBandwidthTB: -1},
	}
	for _, input := range cases {
		if _, err := Compute(input); err != ErrInvalidSelection {
			t.Fatalf("input %+v: expected ErrInvalidSelection, got %v", input, err)
		}
	}
}

func TestFamilyTiersSorted(t *testing.T) {
	for _, family := range Families() {
		tiers := FamilyTiers(family)
		if len(tiers) != 9 {
			t.Fatalf("family %s: expected 9 tiers, got %d", family, len(tiers))
		}
		for i := 1; i < len(tiers); i++ {
			if tiers[i].RAMGB <= tiers[i-1].RAMGB {
				t.Fatalf("family %s: tiers not ascending at index %d", family, i)
			}
			if tiers[i].BasePriceINR <= tiers[i-1].BasePriceINR {
				t.Fatalf("family %s: base price not ascending at index %d", family, i)
			}
		}
	}
}

func TestAddonOptionSets(t *testing.T) {
	if !ValidStorageAddon(0) || !ValidStorageAddon(500) || ValidStorageAddon(75) {
		t.Fatalf("storage addon option set mismatch")
	}
	if !ValidBandwidthAddon(0) || !ValidBandwidthAddon(10) || ValidBandwidthAddon(4) {
		t.Fatalf("bandwidth addon option set mismatch")
	}
}
