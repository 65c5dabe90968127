package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupReferralRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:referral_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.ReferralEarning{},
		&models.ReferralPayout{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newEarning(userID, orderID uint, level int, amount int64, status string) *models.ReferralEarning {
	availableAt := time.Now()
	return &models.ReferralEarning{
		UserID:       userID,
		SourceUserID: 99,
		OrderID:      orderID,
		Level:        level,
		CycleKind:    "long_term",
		RatePercent:  models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
		BaseAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(amount * 100 / 15)),
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Status:       status,
		AvailableAt:  &availableAt,
	}
}

func TestReferralEarningUniquePerOrderUserLevel(t *testing.T) {
	db := setupReferralRepoDB(t)
	repo := NewReferralRepository(db)

	if err := repo.CreateEarning(newEarning(1, 10, 1, 150, constants.ReferralEarningStatusPendingConfirm)); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}
	if err := repo.CreateEarning(newEarning(1, 10, 1, 150, constants.ReferralEarningStatusPendingConfirm)); err == nil {
		t.Fatalf("duplicate (user, order, level) should be rejected")
	}
	// 同一订单的不同层级允许
	if err := repo.CreateEarning(newEarning(2, 10, 2, 30, constants.ReferralEarningStatusPendingConfirm)); err != nil {
		t.Fatalf("second level earning failed: %v", err)
	}

	found, err := repo.GetEarningByOrderUserLevel(10, 1, 1)
	if err != nil {
		t.Fatalf("get earning failed: %v", err)
	}
	if found == nil || !found.Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected earning: %+v", found)
	}

	missing, err := repo.GetEarningByOrderUserLevel(10, 1, 3)
	if err != nil {
		t.Fatalf("get missing earning failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent earning, got %+v", missing)
	}
}

func TestReferralSumEarningsByUser(t *testing.T) {
	db := setupReferralRepoDB(t)
	repo := NewReferralRepository(db)

	if err := repo.CreateEarning(newEarning(5, 21, 1, 150, constants.ReferralEarningStatusAvailable)); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}
	if err := repo.CreateEarning(newEarning(5, 22, 1, 450, constants.ReferralEarningStatusAvailable)); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}
	if err := repo.CreateEarning(newEarning(5, 23, 1, 300, constants.ReferralEarningStatusPendingConfirm)); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}

	available, err := repo.SumEarningsByUser(5, []string{constants.ReferralEarningStatusAvailable}, true)
	if err != nil {
		t.Fatalf("sum available failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("available sum want 600 got %s", available)
	}

	pending, err := repo.SumEarningsByUser(5, []string{constants.ReferralEarningStatusPendingConfirm}, true)
	if err != nil {
		t.Fatalf("sum pending failed: %v", err)
	}
	if !pending.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("pending sum want 300 got %s", pending)
	}
}

func TestReferralMarkPendingEarningsAvailable(t *testing.T) {
	db := setupReferralRepoDB(t)
	repo := NewReferralRepository(db)

	if err := repo.CreateEarning(newEarning(3, 31, 1, 150, constants.ReferralEarningStatusPendingConfirm)); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}
	// 确认期未到的记录不得提前转可提现
	pending := newEarning(3, 32, 1, 150, constants.ReferralEarningStatusPendingConfirm)
	future := time.Now().Add(48 * time.Hour)
	pending.AvailableAt = &future
	if err := repo.CreateEarning(pending); err != nil {
		t.Fatalf("create pending earning failed: %v", err)
	}

	now := time.Now()
	affected, err := repo.MarkPendingEarningsAvailable(now.Add(time.Minute), now)
	if err != nil {
		t.Fatalf("mark available failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected want 1 got %d", affected)
	}

	rows, err := repo.ListAvailableEarningsForUpdate(3)
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	if len(rows) != 1 || rows[0].OrderID != 31 || rows[0].AvailableAt == nil {
		t.Fatalf("unexpected available rows: %+v", rows)
	}
}

func TestReferralPayoutLifecycleBinding(t *testing.T) {
	db := setupReferralRepoDB(t)
	repo := NewReferralRepository(db)

	if err := repo.CreateEarning(newEarning(9, 41, 1, 600, constants.ReferralEarningStatusAvailable)); err != nil {
		t.Fatalf("create earning failed: %v", err)
	}

	payout := &models.ReferralPayout{
		PayoutNo:    "PO-TEST-001",
		UserID:      9,
		Method:      "upi",
		UPIID:       "tester@okaxis",
		GrossAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(600)),
		TDSAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
		GSTAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(108)),
		NetAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(432)),
		Status:      constants.ReferralPayoutStatusRequested,
	}
	if err := repo.CreatePayout(payout); err != nil {
		t.Fatalf("create payout failed: %v", err)
	}

	inflight, err := repo.HasInflightPayout(9)
	if err != nil {
		t.Fatalf("inflight check failed: %v", err)
	}
	if !inflight {
		t.Fatalf("expected inflight payout")
	}

	rows, err := repo.ListAvailableEarningsForUpdate(9)
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	now := time.Now()
	if err := repo.BatchUpdateEarnings(ids, map[string]interface{}{
		"status":     constants.ReferralEarningStatusLocked,
		"payout_id":  payout.ID,
		"updated_at": now,
	}); err != nil {
		t.Fatalf("lock earnings failed: %v", err)
	}

	locked, err := repo.ListEarningsByPayoutIDForUpdate(payout.ID)
	if err != nil {
		t.Fatalf("list locked failed: %v", err)
	}
	if len(locked) != 1 || locked[0].Status != constants.ReferralEarningStatusLocked {
		t.Fatalf("unexpected locked rows: %+v", locked)
	}

	// 锁定后不再计入可提现余额
	remaining, err := repo.SumEarningsByUser(9, []string{constants.ReferralEarningStatusAvailable}, true)
	if err != nil {
		t.Fatalf("sum remaining failed: %v", err)
	}
	if !remaining.IsZero() {
		t.Fatalf("remaining want 0 got %s", remaining)
	}
}
