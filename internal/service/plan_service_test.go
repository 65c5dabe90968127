package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newPlanTestService(t *testing.T) (*PlanService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:plan_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.HostingPlan{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewPlanService(repository.NewPlanRepository(db)), db
}

func TestCreatePlanPersistsInactiveFlag(t *testing.T) {
	svc, db := newPlanTestService(t)

	inactive := false
	plan, err := svc.CreatePlan(PlanUpsertInput{
		Family:   pricing.FamilyGeneralPurpose,
		Name:     "GP-4",
		RAMGB:    4,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	var stored models.HostingPlan
	if err := db.First(&stored, plan.ID).Error; err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("inactive plan was stored active")
	}

	active, err := svc.ListActivePlans()
	if err != nil {
		t.Fatalf("list active plans failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("inactive plan leaked into catalog: %+v", active)
	}
}

func TestCreatePlanDefaultsAndTierSnapshot(t *testing.T) {
	svc, db := newPlanTestService(t)

	plan, err := svc.CreatePlan(PlanUpsertInput{
		Family: "Memory_Optimized",
		RAMGB:  8,
	})
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	if plan.Name != "Memory Optimized 8GB" {
		t.Fatalf("unexpected default name %q", plan.Name)
	}

	tier, ok := pricing.LookupTier(pricing.FamilyMemoryOptimized, 8)
	if !ok {
		t.Fatalf("tier lookup failed")
	}
	if plan.VCPU != tier.VCPU || plan.StorageGB != tier.StorageGB {
		t.Fatalf("tier snapshot mismatch: %+v", plan)
	}

	var stored models.HostingPlan
	if err := db.First(&stored, plan.ID).Error; err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	if !stored.IsActive {
		t.Fatalf("created plan should default to active")
	}
}

func TestCreatePlanValidation(t *testing.T) {
	svc, _ := newPlanTestService(t)

	if _, err := svc.CreatePlan(PlanUpsertInput{Family: "general_purpose", RAMGB: 6}); !errors.Is(err, pricing.ErrInvalidSelection) {
		t.Fatalf("unknown capacity: expected ErrInvalidSelection, got %v", err)
	}
	if _, err := svc.CreatePlan(PlanUpsertInput{Family: "burstable", RAMGB: 4}); !errors.Is(err, pricing.ErrInvalidSelection) {
		t.Fatalf("unknown family: expected ErrInvalidSelection, got %v", err)
	}

	if _, err := svc.CreatePlan(PlanUpsertInput{Family: "general_purpose", RAMGB: 4}); err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	if _, err := svc.CreatePlan(PlanUpsertInput{Family: "general_purpose", RAMGB: 4}); !errors.Is(err, ErrPlanExists) {
		t.Fatalf("duplicate spec: expected ErrPlanExists, got %v", err)
	}
}

func TestUpdatePlanTogglesActive(t *testing.T) {
	svc, db := newPlanTestService(t)

	plan, err := svc.CreatePlan(PlanUpsertInput{Family: "cpu_optimized", RAMGB: 4})
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	off := false
	if _, err := svc.UpdatePlan(plan.ID, PlanUpsertInput{IsActive: &off}); err != nil {
		t.Fatalf("update plan failed: %v", err)
	}
	var stored models.HostingPlan
	if err := db.First(&stored, plan.ID).Error; err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	if stored.IsActive {
		t.Fatalf("plan should be inactive after toggle")
	}

	on := true
	if _, err := svc.UpdatePlan(plan.ID, PlanUpsertInput{IsActive: &on}); err != nil {
		t.Fatalf("update plan failed: %v", err)
	}
	var again models.HostingPlan
	if err := db.First(&again, plan.ID).Error; err != nil {
		t.Fatalf("load plan failed: %v", err)
	}
	if !again.IsActive {
		t.Fatalf("plan should be active after toggle back")
	}
}

func TestSyncPlansFromTiersIsIdempotent(t *testing.T) {
	svc, _ := newPlanTestService(t)

	total := 0
	for _, family := range pricing.Families() {
		total += len(pricing.FamilyTiers(family))
	}

	created, err := svc.SyncPlansFromTiers()
	if err != nil {
		t.Fatalf("sync plans failed: %v", err)
	}
	if created != total {
		t.Fatalf("expected %d created plans, got %d", total, created)
	}

	created, err = svc.SyncPlansFromTiers()
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("second sync should create nothing, got %d", created)
	}
}
