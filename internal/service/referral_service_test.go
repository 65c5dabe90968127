package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/referral"
	"github.com/hostara-cloud/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupReferralServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:referral_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.HostingPlan{},
		&models.Order{},
		&models.Invoice{},
		&models.ReferralEarning{},
		&models.ReferralPayout{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newReferralTestService(t *testing.T) (*ReferralService, *gorm.DB) {
	t.Helper()
	db := setupReferralServiceDB(t)
	svc := NewReferralService(
		repository.NewReferralRepository(db),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		nil,
	)
	return svc, db
}

func seedReferralUser(t *testing.T, db *gorm.DB, email string, l1, l2, l3 *uint) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Status:       constants.UserStatusActive,
		ReferralCode: "RC" + email,
		ReferredByL1: l1,
		ReferredByL2: l2,
		ReferredByL3: l3,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s failed: %v", email, err)
	}
	return user
}

// seedReferralChain 播种三级推荐链，返回买家与各级推荐人。
func seedReferralChain(t *testing.T, db *gorm.DB) (buyer, l1, l2, l3 *models.User) {
	t.Helper()
	l3 = seedReferralUser(t, db, "l3@test.dev", nil, nil, nil)
	l2 = seedReferralUser(t, db, "l2@test.dev", &l3.ID, nil, nil)
	l1 = seedReferralUser(t, db, "l1@test.dev", &l2.ID, &l3.ID, nil)
	buyer = seedReferralUser(t, db, "buyer@test.dev", &l1.ID, &l2.ID, &l3.ID)
	return buyer, l1, l2, l3
}

func seedPaidOrder(t *testing.T, db *gorm.DB, userID uint, totalINR int64, months int) *models.Order {
	t.Helper()
	now := time.Now()
	order := &models.Order{
		OrderNo:      fmt.Sprintf("HC%d%d", now.UnixNano(), userID),
		UserID:       userID,
		PlanID:       1,
		OrderType:    constants.OrderTypeNew,
		Status:       constants.OrderStatusPaid,
		Currency:     "INR",
		Family:       pricing.FamilyGeneralPurpose,
		RAMGB:        4,
		VCPU:         2,
		StorageGB:    80,
		BillingCycle: pricing.CycleAnnually,
		Months:       months,
		TotalAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(totalINR)),
		PaidAt:       &now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	return order
}

func seedAvailableEarning(t *testing.T, db *gorm.DB, userID uint, amountINR int64) *models.ReferralEarning {
	t.Helper()
	earning := &models.ReferralEarning{
		UserID:       userID,
		SourceUserID: 900,
		OrderID:      uint(time.Now().UnixNano() % 1_000_000_000),
		Level:        1,
		CycleKind:    referral.KindLongTerm,
		RatePercent:  models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
		BaseAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(amountINR * 100 / 15)),
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(amountINR)),
		Status:       constants.ReferralEarningStatusAvailable,
	}
	if err := db.Create(earning).Error; err != nil {
		t.Fatalf("seed earning failed: %v", err)
	}
	return earning
}

func upiPayoutInput(userID uint) PayoutRequestInput {
	return PayoutRequestInput{
		UserID: userID,
		Method: referral.MethodUPI,
		Details: referral.PaymentDetails{
			UPIID: "user@okhdfcbank",
		},
	}
}

func TestAccrueCommissionsThreeLevels(t *testing.T) {
	svc, db := newReferralTestService(t)
	buyer, l1, l2, l3 := seedReferralChain(t, db)
	order := seedPaidOrder(t, db, buyer.ID, 1000, 12)

	created, err := svc.AccrueCommissions(order.ID)
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if created != 3 {
		t.Fatalf("expected 3 earnings, got %d", created)
	}

	// 年付走长周期费率表 15/3/2
	expected := map[uint]int64{l1.ID: 150, l2.ID: 30, l3.ID: 20}
	var earnings []models.ReferralEarning
	if err := db.Where("order_id = ?", order.ID).Order("level asc").Find(&earnings).Error; err != nil {
		t.Fatalf("load earnings failed: %v", err)
	}
	if len(earnings) != 3 {
		t.Fatalf("expected 3 earning rows, got %d", len(earnings))
	}
	for _, e := range earnings {
		want, ok := expected[e.UserID]
		if !ok {
			t.Fatalf("unexpected beneficiary %d", e.UserID)
		}
		if !e.Amount.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("level %d amount %s, want %d", e.Level, e.Amount, want)
		}
		if e.Status != constants.ReferralEarningStatusPendingConfirm {
			t.Fatalf("expected pending_confirm, got %s", e.Status)
		}
		if e.AvailableAt == nil || !e.AvailableAt.After(time.Now()) {
			t.Fatalf("expected future available_at, got %v", e.AvailableAt)
		}
		if e.SourceUserID != buyer.ID {
			t.Fatalf("expected source user %d, got %d", buyer.ID, e.SourceUserID)
		}
	}

	// 任务重复投递时不重复入账
	again, err := svc.AccrueCommissions(order.ID)
	if err != nil {
		t.Fatalf("repeat accrue failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected 0 on repeat accrue, got %d", again)
	}
}

func TestAccrueCommissionsRecurringRates(t *testing.T) {
	svc, db := newReferralTestService(t)
	referrer := seedReferralUser(t, db, "ref@test.dev", nil, nil, nil)
	buyer := seedReferralUser(t, db, "buyer@test.dev", &referrer.ID, nil, nil)
	order := seedPaidOrder(t, db, buyer.ID, 2000, 1)

	created, err := svc.AccrueCommissions(order.ID)
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 earning, got %d", created)
	}

	var earning models.ReferralEarning
	if err := db.Where("order_id = ?", order.ID).First(&earning).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	// 月付走短周期费率表，一级 5%
	if !earning.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100, got %s", earning.Amount)
	}
	if earning.CycleKind != referral.KindRecurring {
		t.Fatalf("expected recurring kind, got %s", earning.CycleKind)
	}
}

func TestAccrueCommissionsSkipsDisabledAncestor(t *testing.T) {
	svc, db := newReferralTestService(t)
	buyer, l1, _, _ := seedReferralChain(t, db)
	if err := db.Model(&models.User{}).Where("id = ?", l1.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	order := seedPaidOrder(t, db, buyer.ID, 1000, 12)

	created, err := svc.AccrueCommissions(order.ID)
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 earnings with disabled L1, got %d", created)
	}
	var count int64
	if err := db.Model(&models.ReferralEarning{}).Where("order_id = ? AND user_id = ?", order.ID, l1.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatal("disabled beneficiary must not accrue")
	}
}

func TestAccrueCommissionsNoChain(t *testing.T) {
	svc, db := newReferralTestService(t)
	buyer := seedReferralUser(t, db, "solo@test.dev", nil, nil, nil)
	order := seedPaidOrder(t, db, buyer.ID, 1000, 12)

	created, err := svc.AccrueCommissions(order.ID)
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no earnings without referrers, got %d", created)
	}
}

func TestAccrueCommissionsRequiresPaidOrder(t *testing.T) {
	svc, db := newReferralTestService(t)
	buyer, _, _, _ := seedReferralChain(t, db)
	order := seedPaidOrder(t, db, buyer.ID, 1000, 12)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", constants.OrderStatusPendingPayment).Error; err != nil {
		t.Fatalf("update order failed: %v", err)
	}

	if _, err := svc.AccrueCommissions(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestConfirmPendingEarnings(t *testing.T) {
	svc, db := newReferralTestService(t)
	buyer, _, _, _ := seedReferralChain(t, db)
	order := seedPaidOrder(t, db, buyer.ID, 1000, 12)

	if _, err := svc.AccrueCommissions(order.ID); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}

	// 确认期未到时不转可提现
	flipped, err := svc.ConfirmPendingEarnings()
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if flipped != 0 {
		t.Fatalf("expected 0 before confirm window, got %d", flipped)
	}

	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.ReferralEarning{}).Where("order_id = ?", order.ID).Update("available_at", past).Error; err != nil {
		t.Fatalf("backdate available_at failed: %v", err)
	}

	flipped, err = svc.ConfirmPendingEarnings()
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if flipped != 3 {
		t.Fatalf("expected 3 confirmed, got %d", flipped)
	}

	var count int64
	if err := db.Model(&models.ReferralEarning{}).
		Where("order_id = ? AND status = ?", order.ID, constants.ReferralEarningStatusAvailable).
		Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 available, got %d", count)
	}
}

func TestRequestPayoutLocksEarningsAndSnapshotsTax(t *testing.T) {
	svc, db := newReferralTestService(t)
	user := seedReferralUser(t, db, "payee@test.dev", nil, nil, nil)
	seedAvailableEarning(t, db, user.ID, 400)
	seedAvailableEarning(t, db, user.ID, 200)

	payout, err := svc.RequestPayout(upiPayoutInput(user.ID))
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if payout.Status != constants.ReferralPayoutStatusRequested {
		t.Fatalf("expected requested, got %s", payout.Status)
	}
	if !payout.GrossAmount.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("gross mismatch: %s", payout.GrossAmount)
	}
	// TDS 10% / GST 18%，净额 = 毛额 - 两项代扣
	if !payout.TDSAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("tds mismatch: %s", payout.TDSAmount)
	}
	if !payout.GSTAmount.Equal(decimal.NewFromInt(108)) {
		t.Fatalf("gst mismatch: %s", payout.GSTAmount)
	}
	if !payout.NetAmount.Equal(decimal.NewFromInt(432)) {
		t.Fatalf("net mismatch: %s", payout.NetAmount)
	}

	var locked int64
	if err := db.Model(&models.ReferralEarning{}).
		Where("user_id = ? AND status = ? AND payout_id = ?", user.ID, constants.ReferralEarningStatusLocked, payout.ID).
		Count(&locked).Error; err != nil {
		t.Fatalf("count locked failed: %v", err)
	}
	if locked != 2 {
		t.Fatalf("expected 2 locked earnings, got %d", locked)
	}

	// 同一用户只允许一笔在途申请
	if _, err := svc.RequestPayout(upiPayoutInput(user.ID)); !errors.Is(err, ErrPayoutInflightExists) {
		t.Fatalf("expected ErrPayoutInflightExists, got %v", err)
	}
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	svc, db := newReferralTestService(t)
	user := seedReferralUser(t, db, "small@test.dev", nil, nil, nil)
	seedAvailableEarning(t, db, user.ID, 100)

	if _, err := svc.RequestPayout(upiPayoutInput(user.ID)); !errors.Is(err, referral.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestRequestPayoutValidatesMethod(t *testing.T) {
	svc, db := newReferralTestService(t)
	user := seedReferralUser(t, db, "method@test.dev", nil, nil, nil)
	seedAvailableEarning(t, db, user.ID, 600)

	if _, err := svc.RequestPayout(PayoutRequestInput{UserID: user.ID, Method: "cash"}); !errors.Is(err, referral.ErrPaymentMethodInvalid) {
		t.Fatalf("expected ErrPaymentMethodInvalid, got %v", err)
	}
	if _, err := svc.RequestPayout(PayoutRequestInput{UserID: user.ID, Method: referral.MethodUPI}); !errors.Is(err, referral.ErrIncompletePaymentDetails) {
		t.Fatalf("expected ErrIncompletePaymentDetails, got %v", err)
	}
	if _, err := svc.RequestPayout(PayoutRequestInput{
		UserID: user.ID,
		Method: referral.MethodBankTransfer,
		Details: referral.PaymentDetails{
			AccountHolder: "Payee",
			AccountNumber: "1234567890",
		},
	}); !errors.Is(err, referral.ErrIncompletePaymentDetails) {
		t.Fatalf("expected ErrIncompletePaymentDetails for partial bank details, got %v", err)
	}
}

func TestReviewPayoutRejectReleasesEarnings(t *testing.T) {
	svc, db := newReferralTestService(t)
	user := seedReferralUser(t, db, "reject@test.dev", nil, nil, nil)
	seedAvailableEarning(t, db, user.ID, 600)

	payout, err := svc.RequestPayout(upiPayoutInput(user.ID))
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	rejected, err := svc.ReviewPayout(PayoutReviewInput{
		PayoutID:     payout.ID,
		Action:       constants.ReferralPayoutActionReject,
		RejectReason: "details mismatch",
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.ReferralPayoutStatusRejected || rejected.RejectReason != "details mismatch" {
		t.Fatalf("unexpected payout after reject: %+v", rejected)
	}

	var available int64
	if err := db.Model(&models.ReferralEarning{}).
		Where("user_id = ? AND status = ? AND payout_id IS NULL", user.ID, constants.ReferralEarningStatusAvailable).
		Count(&available).Error; err != nil {
		t.Fatalf("count available failed: %v", err)
	}
	if available != 1 {
		t.Fatalf("expected released earning, got %d", available)
	}

	// 驳回后可重新申请
	if _, err := svc.RequestPayout(upiPayoutInput(user.ID)); err != nil {
		t.Fatalf("re-request after reject failed: %v", err)
	}
}

func TestReviewPayoutApproveAndPay(t *testing.T) {
	svc, db := newReferralTestService(t)
	user := seedReferralUser(t, db, "pay@test.dev", nil, nil, nil)
	seedAvailableEarning(t, db, user.ID, 600)

	payout, err := svc.RequestPayout(upiPayoutInput(user.ID))
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	// 未审批通过不能打款
	if _, err := svc.ReviewPayout(PayoutReviewInput{PayoutID: payout.ID, Action: constants.ReferralPayoutActionPay}); !errors.Is(err, ErrPayoutStatusInvalid) {
		t.Fatalf("expected ErrPayoutStatusInvalid, got %v", err)
	}

	if _, err := svc.ReviewPayout(PayoutReviewInput{PayoutID: payout.ID, Action: constants.ReferralPayoutActionReview, Note: "checking"}); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	approved, err := svc.ReviewPayout(PayoutReviewInput{PayoutID: payout.ID, Action: constants.ReferralPayoutActionApprove})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.ReferralPayoutStatusApproved || approved.DecidedAt == nil {
		t.Fatalf("unexpected payout after approve: %+v", approved)
	}

	paid, err := svc.ReviewPayout(PayoutReviewInput{
		PayoutID:         payout.ID,
		Action:           constants.ReferralPayoutActionPay,
		PaymentReference: "UTR123456",
	})
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.Status != constants.ReferralPayoutStatusPaid || paid.PaidAt == nil || paid.PaymentReference != "UTR123456" {
		t.Fatalf("unexpected payout after pay: %+v", paid)
	}

	var withdrawn int64
	if err := db.Model(&models.ReferralEarning{}).
		Where("user_id = ? AND status = ?", user.ID, constants.ReferralEarningStatusWithdrawn).
		Count(&withdrawn).Error; err != nil {
		t.Fatalf("count withdrawn failed: %v", err)
	}
	if withdrawn != 1 {
		t.Fatalf("expected withdrawn earning, got %d", withdrawn)
	}

	// 已打款的申请不可再流转
	if _, err := svc.ReviewPayout(PayoutReviewInput{PayoutID: payout.ID, Action: constants.ReferralPayoutActionApprove}); !errors.Is(err, ErrPayoutStatusInvalid) {
		t.Fatalf("expected ErrPayoutStatusInvalid, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	svc, db := newReferralTestService(t)
	user := seedReferralUser(t, db, "stats@test.dev", nil, nil, nil)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("total_referrals", 4).Error; err != nil {
		t.Fatalf("update total_referrals failed: %v", err)
	}
	seedAvailableEarning(t, db, user.ID, 300)
	pending := seedAvailableEarning(t, db, user.ID, 150)
	if err := db.Model(&models.ReferralEarning{}).Where("id = ?", pending.ID).Update("status", constants.ReferralEarningStatusPendingConfirm).Error; err != nil {
		t.Fatalf("update earning failed: %v", err)
	}

	stats, err := svc.GetStats(user.ID)
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.TotalReferrals != 4 {
		t.Fatalf("expected 4 referrals, got %d", stats.TotalReferrals)
	}
	if !stats.Available.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("available mismatch: %s", stats.Available)
	}
	if !stats.PendingAmount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("pending mismatch: %s", stats.PendingAmount)
	}
}
