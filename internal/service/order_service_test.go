package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.HostingPlan{},
		&models.Order{},
		&models.Invoice{},
		&models.Server{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newOrderTestService(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db := setupOrderServiceDB(t)
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewPlanRepository(db),
		repository.NewServerRepository(db),
		nil,
		nil,
		15,
	)
	return svc, db
}

func seedPlan(t *testing.T, db *gorm.DB, active bool) *models.HostingPlan {
	t.Helper()
	plan := &models.HostingPlan{
		Family:       pricing.FamilyGeneralPurpose,
		Name:         "GP-4",
		RAMGB:        4,
		VCPU:         2,
		StorageGB:    80,
		MonthlyPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(1120)),
		IsActive:     active,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("seed plan failed: %v", err)
	}
	return plan
}

func forceOrderExpired(t *testing.T, db *gorm.DB, orderID uint) {
	t.Helper()
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", orderID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("force expire failed: %v", err)
	}
}

func TestCreateOrderSnapshotAndInvoice(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:           1,
		PlanID:           plan.ID,
		Cycle:            pricing.CycleAnnually,
		ExtraStorageGB:   100,
		ExtraBandwidthTB: 1,
		ClientIP:         "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", order.Status)
	}
	if order.OrderType != constants.OrderTypeNew {
		t.Fatalf("expected order type new, got %s", order.OrderType)
	}
	if !strings.HasPrefix(order.OrderNo, "HC") {
		t.Fatalf("unexpected order no %s", order.OrderNo)
	}
	if order.RAMGB != 4 || order.VCPU != 2 || order.StorageGB != 80 {
		t.Fatalf("tier snapshot mismatch: %+v", order)
	}
	if order.Months != 12 || order.BillingCycle != pricing.CycleAnnually {
		t.Fatalf("cycle snapshot mismatch: months=%d cycle=%s", order.Months, order.BillingCycle)
	}
	if !order.BaseMonthly.Equal(decimal.NewFromInt(1120)) {
		t.Fatalf("base monthly mismatch: %s", order.BaseMonthly)
	}
	// 100GB*2 + 1TB*100 = 300/月
	if !order.AddonAmount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("addon amount mismatch: %s", order.AddonAmount)
	}
	// (1120+300)*12 = 17040，年付八折后 13632
	if !order.Subtotal.Equal(decimal.NewFromInt(17040)) {
		t.Fatalf("subtotal mismatch: %s", order.Subtotal)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(13632)) {
		t.Fatalf("total mismatch: %s", order.TotalAmount)
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expires_at, got %v", order.ExpiresAt)
	}

	invoice, err := repository.NewInvoiceRepository(db).GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("load invoice failed: %v", err)
	}
	if invoice == nil {
		t.Fatal("expected invoice to be created with order")
	}
	if invoice.Status != constants.InvoiceStatusUnpaid {
		t.Fatalf("expected unpaid invoice, got %s", invoice.Status)
	}
	if !invoice.Amount.Equal(order.TotalAmount.Decimal) {
		t.Fatalf("invoice amount %s does not match order total %s", invoice.Amount, order.TotalAmount)
	}
	if !strings.HasPrefix(invoice.InvoiceNo, "INV") {
		t.Fatalf("unexpected invoice no %s", invoice.InvoiceNo)
	}
}

func TestCreateOrderRejectsInactivePlan(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, false)

	_, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if !errors.Is(err, ErrPlanNotAvailable) {
		t.Fatalf("expected ErrPlanNotAvailable, got %v", err)
	}
}

func TestCreateOrderRejectsInvalidSelection(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	if _, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: "weekly"}); !errors.Is(err, pricing.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection for bad cycle, got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly, ExtraStorageGB: 33}); !errors.Is(err, pricing.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection for bad storage addon, got %v", err)
	}
	if _, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly, ExtraBandwidthTB: 4}); !errors.Is(err, pricing.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection for bad bandwidth addon, got %v", err)
	}
}

func TestCancelOrderPendingOnly(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.CancelOrder(order.ID, 2); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for other user, got %v", err)
	}

	canceled, err := svc.CancelOrder(order.ID, 1)
	if err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("expected canceled order, got %+v", canceled)
	}

	invoice, err := repository.NewInvoiceRepository(db).GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("load invoice failed: %v", err)
	}
	if invoice.Status != constants.InvoiceStatusCanceled {
		t.Fatalf("expected canceled invoice, got %s", invoice.Status)
	}

	if _, err := svc.CancelOrder(order.ID, 1); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("expected ErrOrderCancelNotAllowed on repeat cancel, got %v", err)
	}
}

func TestMarkOrderPaid(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleQuarterly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := svc.MarkOrderPaid(order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid order, got %+v", paid)
	}

	invoice, err := repository.NewInvoiceRepository(db).GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("load invoice failed: %v", err)
	}
	if invoice.Status != constants.InvoiceStatusPaid || invoice.PaidAt == nil {
		t.Fatalf("expected paid invoice, got %+v", invoice)
	}

	if _, err := svc.MarkOrderPaid(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid on repeat pay, got %v", err)
	}
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 待支付不能直接进入开通中
	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusProvisioning); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusPaid); err != nil {
		t.Fatalf("mark paid via status failed: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusCanceled); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("paid order should not cancel, got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusProvisioning); err != nil {
		t.Fatalf("mark provisioning failed: %v", err)
	}
	completed, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed order, got %+v", completed)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, constants.OrderStatusPaid); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("completed order is terminal, got %v", err)
	}
}

func TestMarkOrderProvisioningAndCompleted(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.MarkOrderProvisioning(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("pending order cannot provision, got %v", err)
	}
	if _, err := svc.MarkOrderPaid(order.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := svc.MarkOrderCompleted(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("paid order cannot complete directly, got %v", err)
	}
	if err := svc.MarkOrderProvisioning(order.ID); err != nil {
		t.Fatalf("mark provisioning failed: %v", err)
	}
	if err := svc.MarkOrderCompleted(order.ID); err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}
}

func TestRenewServerCreatesChildOrder(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	base, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly, ExtraStorageGB: 50})
	if err != nil {
		t.Fatalf("create base order failed: %v", err)
	}

	expires := time.Now().AddDate(0, 1, 0)
	server := &models.Server{
		UserID:         1,
		PlanID:         plan.ID,
		OrderID:        base.ID,
		Name:           "web-01",
		Status:         constants.ServerStatusActive,
		Family:         plan.Family,
		RAMGB:          plan.RAMGB,
		VCPU:           plan.VCPU,
		StorageGB:      plan.StorageGB,
		ExtraStorageGB: 50,
		BillingCycle:   pricing.CycleMonthly,
		ExpiresAt:      &expires,
	}
	if err := db.Create(server).Error; err != nil {
		t.Fatalf("seed server failed: %v", err)
	}

	renewal, err := svc.RenewServer(1, server.ID, pricing.CycleAnnually)
	if err != nil {
		t.Fatalf("renew server failed: %v", err)
	}
	if renewal.OrderType != constants.OrderTypeRenewal {
		t.Fatalf("expected renewal order, got %s", renewal.OrderType)
	}
	if renewal.ParentID == nil || *renewal.ParentID != base.ID {
		t.Fatalf("expected parent %d, got %v", base.ID, renewal.ParentID)
	}
	if renewal.ServerID == nil || *renewal.ServerID != server.ID {
		t.Fatalf("expected server %d, got %v", server.ID, renewal.ServerID)
	}
	// 续费沿用实例快照的附加资源
	if renewal.ExtraStorageGB != 50 {
		t.Fatalf("expected addon snapshot from server, got %d", renewal.ExtraStorageGB)
	}
	if renewal.Months != 12 {
		t.Fatalf("expected 12 months, got %d", renewal.Months)
	}

	children, err := svc.ListRenewalOrders(base.ID)
	if err != nil {
		t.Fatalf("list renewal orders failed: %v", err)
	}
	if len(children) != 1 || children[0].ID != renewal.ID {
		t.Fatalf("unexpected renewal chain: %+v", children)
	}

	if _, err := svc.RenewServer(2, server.ID, pricing.CycleMonthly); !errors.Is(err, ErrRenewTargetInvalid) {
		t.Fatalf("expected ErrRenewTargetInvalid for other user, got %v", err)
	}

	if err := db.Model(&models.Server{}).Where("id = ?", server.ID).Update("status", constants.ServerStatusProvisioning).Error; err != nil {
		t.Fatalf("update server status failed: %v", err)
	}
	if _, err := svc.RenewServer(1, server.ID, pricing.CycleMonthly); !errors.Is(err, ErrRenewTargetInvalid) {
		t.Fatalf("expected ErrRenewTargetInvalid for provisioning server, got %v", err)
	}

	// 暂停中的实例允许续费
	if err := db.Model(&models.Server{}).Where("id = ?", server.ID).Update("status", constants.ServerStatusSuspended).Error; err != nil {
		t.Fatalf("update server status failed: %v", err)
	}
	if _, err := svc.RenewServer(1, server.ID, pricing.CycleMonthly); err != nil {
		t.Fatalf("renew suspended server failed: %v", err)
	}
}

func TestLazyExpiryOnRead(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	forceOrderExpired(t, db, order.ID)

	got, err := svc.GetOrderByUser(order.ID, 1)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusCanceled || got.CanceledAt == nil {
		t.Fatalf("expected lazy cancel on read, got %+v", got)
	}

	invoice, err := repository.NewInvoiceRepository(db).GetByOrderID(order.ID)
	if err != nil {
		t.Fatalf("load invoice failed: %v", err)
	}
	if invoice.Status != constants.InvoiceStatusCanceled {
		t.Fatalf("expected canceled invoice, got %s", invoice.Status)
	}
}

func TestCancelExpiredOrderSkipsNonPending(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	order, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.MarkOrderPaid(order.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	forceOrderExpired(t, db, order.ID)

	got, err := svc.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if got.Status != constants.OrderStatusPaid {
		t.Fatalf("paid order must not be canceled by timeout task, got %s", got.Status)
	}
}

func TestSweepExpiredOrders(t *testing.T) {
	svc, db := newOrderTestService(t)
	plan := seedPlan(t, db, true)

	expired, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create expired order failed: %v", err)
	}
	forceOrderExpired(t, db, expired.ID)

	fresh, err := svc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create fresh order failed: %v", err)
	}

	canceled, err := svc.SweepExpiredOrders()
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if canceled != 1 {
		t.Fatalf("expected 1 canceled, got %d", canceled)
	}

	gotFresh, err := svc.GetOrderByUser(fresh.ID, 1)
	if err != nil {
		t.Fatalf("get fresh order failed: %v", err)
	}
	if gotFresh.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("fresh order should stay pending, got %s", gotFresh.Status)
	}
}
