package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/provider"
	"github.com/hostara-cloud/internal/queue"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.HostingPlan{},
		&models.Order{},
		&models.Invoice{},
		&models.Server{},
		&models.ReferralEarning{},
		&models.ReferralPayout{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	serverRepo := repository.NewServerRepository(db)
	orderService := service.NewOrderService(
		orderRepo,
		repository.NewInvoiceRepository(db),
		repository.NewPlanRepository(db),
		serverRepo,
		nil,
		nil,
		15,
	)
	container := &provider.Container{
		ServerRepo:      serverRepo,
		OrderService:    orderService,
		ServerService:   service.NewServerService(serverRepo, orderRepo, orderService, nil),
		ReferralService: service.NewReferralService(repository.NewReferralRepository(db), orderRepo, repository.NewUserRepository(db), nil),
	}
	return NewConsumer(container), db
}

func seedWorkerPlan(t *testing.T, db *gorm.DB) *models.HostingPlan {
	t.Helper()
	plan := &models.HostingPlan{
		Family:       pricing.FamilyGeneralPurpose,
		Name:         "GP-4",
		RAMGB:        4,
		VCPU:         2,
		StorageGB:    80,
		MonthlyPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(1120)),
		IsActive:     true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("seed plan failed: %v", err)
	}
	return plan
}

func createWorkerOrder(t *testing.T, c *Consumer, db *gorm.DB, userID uint, cycle string) *models.Order {
	t.Helper()
	plan := seedWorkerPlan(t, db)
	order, err := c.OrderService.CreateOrder(service.CreateOrderInput{
		UserID: userID,
		PlanID: plan.ID,
		Cycle:  cycle,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func taskOf(t *testing.T, name string, payload interface{}) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(name, body)
}

func TestHandleOrderTimeoutCancel(t *testing.T) {
	c, db := newTestConsumer(t)
	order := createWorkerOrder(t, c, db, 1, pricing.CycleMonthly)

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("force expire failed: %v", err)
	}

	task := taskOf(t, queue.TaskOrderTimeoutCancel, queue.OrderTimeoutCancelPayload{OrderID: order.ID})
	if err := c.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("handle timeout cancel failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled, got %s", reloaded.Status)
	}
}

func TestHandleOrderTimeoutCancelSwallowsMissingOrder(t *testing.T) {
	c, _ := newTestConsumer(t)

	task := taskOf(t, queue.TaskOrderTimeoutCancel, queue.OrderTimeoutCancelPayload{OrderID: 9999})
	if err := c.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("missing order must not requeue, got %v", err)
	}

	task = taskOf(t, queue.TaskOrderTimeoutCancel, queue.OrderTimeoutCancelPayload{})
	if err := c.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("zero order id must not requeue, got %v", err)
	}
}

func TestHandleOrderTimeoutCancelRejectsMalformedPayload(t *testing.T) {
	c, _ := newTestConsumer(t)

	task := asynq.NewTask(queue.TaskOrderTimeoutCancel, []byte("{not-json"))
	if err := c.handleOrderTimeoutCancel(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should surface an error")
	}
}

func TestHandleServerProvision(t *testing.T) {
	c, db := newTestConsumer(t)
	order := createWorkerOrder(t, c, db, 2, pricing.CycleAnnually)

	// 未支付订单直接跳过，不创建实例
	task := taskOf(t, queue.TaskServerProvision, queue.ServerProvisionPayload{OrderID: order.ID})
	if err := c.handleServerProvision(context.Background(), task); err != nil {
		t.Fatalf("pending order must be skipped, got %v", err)
	}
	var count int64
	if err := db.Model(&models.Server{}).Count(&count).Error; err != nil {
		t.Fatalf("count servers failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no server expected for pending order, got %d", count)
	}

	if _, err := c.OrderService.MarkOrderPaid(order.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := c.handleServerProvision(context.Background(), task); err != nil {
		t.Fatalf("handle provision failed: %v", err)
	}

	var server models.Server
	if err := db.Where("order_id = ?", order.ID).First(&server).Error; err != nil {
		t.Fatalf("load server failed: %v", err)
	}
	if server.Status != constants.ServerStatusActive {
		t.Fatalf("expected active server, got %s", server.Status)
	}
	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed order, got %s", reloaded.Status)
	}
}

func TestHandleReferralCommission(t *testing.T) {
	c, db := newTestConsumer(t)

	referrer := &models.User{Email: "ref@hostara.cloud", PasswordHash: "x", ReferralCode: "REFWORK1"}
	if err := db.Create(referrer).Error; err != nil {
		t.Fatalf("seed referrer failed: %v", err)
	}
	buyer := &models.User{Email: "buyer@hostara.cloud", PasswordHash: "x", ReferralCode: "BUYWORK1", ReferredByL1: &referrer.ID}
	if err := db.Create(buyer).Error; err != nil {
		t.Fatalf("seed buyer failed: %v", err)
	}

	order := createWorkerOrder(t, c, db, buyer.ID, pricing.CycleAnnually)

	// 未支付订单跳过，不产生佣金
	task := taskOf(t, queue.TaskReferralCommission, queue.ReferralCommissionPayload{OrderID: order.ID})
	if err := c.handleReferralCommission(context.Background(), task); err != nil {
		t.Fatalf("pending order must be skipped, got %v", err)
	}
	var count int64
	if err := db.Model(&models.ReferralEarning{}).Count(&count).Error; err != nil {
		t.Fatalf("count earnings failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no earning expected for pending order, got %d", count)
	}

	if _, err := c.OrderService.MarkOrderPaid(order.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := c.handleReferralCommission(context.Background(), task); err != nil {
		t.Fatalf("handle commission failed: %v", err)
	}
	if err := db.Model(&models.ReferralEarning{}).Count(&count).Error; err != nil {
		t.Fatalf("count earnings failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 earning, got %d", count)
	}

	// 重复投递保持幂等
	if err := c.handleReferralCommission(context.Background(), task); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if err := db.Model(&models.ReferralEarning{}).Count(&count).Error; err != nil {
		t.Fatalf("count earnings failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("redelivery must not duplicate earnings, got %d", count)
	}
}

func TestHandleServerRenewalNotice(t *testing.T) {
	c, db := newTestConsumer(t)

	task := taskOf(t, queue.TaskServerRenewalNotice, queue.ServerRenewalNoticePayload{ServerID: 9999, DaysLeft: 3})
	if err := c.handleServerRenewalNotice(context.Background(), task); err != nil {
		t.Fatalf("missing server must not requeue, got %v", err)
	}

	expires := time.Now().Add(72 * time.Hour)
	server := &models.Server{
		UserID:       4,
		PlanID:       1,
		OrderID:      1,
		Name:         "web-01",
		Status:       constants.ServerStatusActive,
		Family:       pricing.FamilyGeneralPurpose,
		RAMGB:        4,
		VCPU:         2,
		StorageGB:    80,
		BillingCycle: pricing.CycleMonthly,
		ExpiresAt:    &expires,
	}
	if err := db.Create(server).Error; err != nil {
		t.Fatalf("seed server failed: %v", err)
	}

	task = taskOf(t, queue.TaskServerRenewalNotice, queue.ServerRenewalNoticePayload{ServerID: server.ID, DaysLeft: 3})
	if err := c.handleServerRenewalNotice(context.Background(), task); err != nil {
		t.Fatalf("handle renewal notice failed: %v", err)
	}
}
