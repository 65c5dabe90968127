//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.ReferralEarning{},
		&models.ReferralPayout{},
		&models.Server{},
		&models.Invoice{},
		&models.Order{},
		&models.HostingPlan{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.HostingPlan{},
		&models.Order{},
		&models.Invoice{},
		&models.Server{},
		&models.ReferralEarning{},
		&models.ReferralPayout{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresDashboardQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDashboardRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	plan := &models.HostingPlan{
		Family:       "general_purpose",
		Name:         "General 8GB",
		RAMGB:        8,
		VCPU:         4,
		StorageGB:    160,
		MonthlyPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(2240)),
		IsActive:     true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	order := &models.Order{
		OrderNo:      "PG-ORDER-001",
		UserID:       1,
		PlanID:       plan.ID,
		OrderType:    constants.OrderTypeNew,
		Status:       constants.OrderStatusPaid,
		Currency:     constants.SiteCurrencyDefault,
		Family:       plan.Family,
		RAMGB:        plan.RAMGB,
		VCPU:         plan.VCPU,
		StorageGB:    plan.StorageGB,
		BillingCycle: "monthly",
		Months:       1,
		BaseMonthly:  models.NewMoneyFromDecimal(decimal.NewFromInt(2240)),
		Subtotal:     models.NewMoneyFromDecimal(decimal.NewFromInt(2240)),
		TotalAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(2240)),
		CreatedAt:    now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	startAt := now.Add(-time.Hour)
	endAt := now.Add(time.Hour)

	overview, err := repo.GetOverview(startAt, endAt)
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.PaidOrders != 1 {
		t.Fatalf("paid orders want 1 got %d", overview.PaidOrders)
	}

	topPlans, err := repo.GetTopPlans(startAt, endAt, 5)
	if err != nil {
		t.Fatalf("get top plans failed: %v", err)
	}
	if len(topPlans) != 1 || topPlans[0].Name != "General 8GB" {
		t.Fatalf("top plans unexpected: %+v", topPlans)
	}

	orderTrends, err := repo.GetOrderTrends(startAt, endAt)
	if err != nil {
		t.Fatalf("get order trends failed: %v", err)
	}
	if len(orderTrends) == 0 || strings.TrimSpace(orderTrends[0].Day) == "" {
		t.Fatalf("order trends unexpected: %+v", orderTrends)
	}
}

func TestPostgresReferralEarningSums(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewReferralRepository(db)

	earning := &models.ReferralEarning{
		UserID:       7,
		SourceUserID: 8,
		OrderID:      101,
		Level:        1,
		CycleKind:    "long_term",
		RatePercent:  models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
		BaseAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
		Status:       constants.ReferralEarningStatusAvailable,
	}
	if err := repo.CreateEarning(earning); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}

	total, err := repo.SumEarningsByUser(7, []string{constants.ReferralEarningStatusAvailable}, true)
	if err != nil {
		t.Fatalf("sum earnings failed: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("sum want 150 got %s", total)
	}
}
