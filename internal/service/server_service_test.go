package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newServerTestService(t *testing.T) (*ServerService, *OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:server_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	orderRepo := repository.NewOrderRepository(db)
	serverRepo := repository.NewServerRepository(db)
	orderSvc := NewOrderService(
		orderRepo,
		repository.NewInvoiceRepository(db),
		repository.NewPlanRepository(db),
		serverRepo,
		nil,
		nil,
		15,
	)
	serverSvc := NewServerService(serverRepo, orderRepo, orderSvc, nil)
	return serverSvc, orderSvc, db
}

func paidOrderForProvision(t *testing.T, orderSvc *OrderService, db *gorm.DB, cycle string) *models.Order {
	t.Helper()
	plan := seedPlan(t, db, true)
	order, err := orderSvc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: cycle})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := orderSvc.MarkOrderPaid(order.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	return order
}

func seedServer(t *testing.T, db *gorm.DB, userID uint, status string, expiresAt *time.Time) *models.Server {
	t.Helper()
	server := &models.Server{
		UserID:       userID,
		PlanID:       1,
		OrderID:      1,
		Name:         "seeded",
		Status:       status,
		Family:       pricing.FamilyGeneralPurpose,
		RAMGB:        4,
		VCPU:         2,
		StorageGB:    80,
		BillingCycle: pricing.CycleMonthly,
		ExpiresAt:    expiresAt,
	}
	if err := db.Create(server).Error; err != nil {
		t.Fatalf("seed server failed: %v", err)
	}
	return server
}

func TestProvisionOrderCreatesServer(t *testing.T) {
	serverSvc, orderSvc, db := newServerTestService(t)
	order := paidOrderForProvision(t, orderSvc, db, pricing.CycleAnnually)

	server, err := serverSvc.ProvisionOrder(order.ID)
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if server.Status != constants.ServerStatusActive {
		t.Fatalf("expected active server, got %s", server.Status)
	}
	if server.UserID != order.UserID || server.PlanID != order.PlanID || server.OrderID != order.ID {
		t.Fatalf("server linkage mismatch: %+v", server)
	}
	if server.Family != order.Family || server.RAMGB != order.RAMGB || server.StorageGB != order.StorageGB {
		t.Fatalf("spec snapshot mismatch: %+v", server)
	}
	if server.ExpiresAt == nil {
		t.Fatal("expected expires_at on new server")
	}
	// 年付实例到期时间约为 12 个月后
	lower := time.Now().AddDate(0, 11, 0)
	if !server.ExpiresAt.After(lower) {
		t.Fatalf("expires_at too early: %v", server.ExpiresAt)
	}

	done, err := orderSvc.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if done.Status != constants.OrderStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("expected completed order, got %+v", done)
	}

	// 任务重复投递时订单已非已支付
	if _, err := serverSvc.ProvisionOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid on repeat provision, got %v", err)
	}
}

func TestProvisionOrderRequiresPaid(t *testing.T) {
	serverSvc, orderSvc, db := newServerTestService(t)
	plan := seedPlan(t, db, true)
	order, err := orderSvc.CreateOrder(CreateOrderInput{UserID: 1, PlanID: plan.ID, Cycle: pricing.CycleMonthly})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := serverSvc.ProvisionOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestProvisionRenewalExtendsExpiry(t *testing.T) {
	serverSvc, orderSvc, db := newServerTestService(t)
	order := paidOrderForProvision(t, orderSvc, db, pricing.CycleMonthly)

	server, err := serverSvc.ProvisionOrder(order.ID)
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	firstExpiry := *server.ExpiresAt

	renewal, err := orderSvc.RenewServer(1, server.ID, pricing.CycleQuarterly)
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if _, err := orderSvc.MarkOrderPaid(renewal.ID); err != nil {
		t.Fatalf("mark renewal paid failed: %v", err)
	}

	extended, err := serverSvc.ProvisionOrder(renewal.ID)
	if err != nil {
		t.Fatalf("provision renewal failed: %v", err)
	}
	if extended.ID != server.ID {
		t.Fatalf("renewal must extend the same server, got %d", extended.ID)
	}
	if extended.ExpiresAt == nil || !extended.ExpiresAt.After(firstExpiry) {
		t.Fatalf("expected extended expiry after %v, got %v", firstExpiry, extended.ExpiresAt)
	}
	if extended.BillingCycle != pricing.CycleQuarterly {
		t.Fatalf("expected billing cycle updated, got %s", extended.BillingCycle)
	}
}

func TestProvisionRenewalRestoresSuspendedServer(t *testing.T) {
	serverSvc, orderSvc, db := newServerTestService(t)
	order := paidOrderForProvision(t, orderSvc, db, pricing.CycleMonthly)

	server, err := serverSvc.ProvisionOrder(order.ID)
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if _, err := serverSvc.SuspendServer(server.ID); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}

	renewal, err := orderSvc.RenewServer(1, server.ID, pricing.CycleMonthly)
	if err != nil {
		t.Fatalf("renew suspended failed: %v", err)
	}
	if _, err := orderSvc.MarkOrderPaid(renewal.ID); err != nil {
		t.Fatalf("mark renewal paid failed: %v", err)
	}
	restored, err := serverSvc.ProvisionOrder(renewal.ID)
	if err != nil {
		t.Fatalf("provision renewal failed: %v", err)
	}
	if restored.Status != constants.ServerStatusActive || restored.SuspendedAt != nil {
		t.Fatalf("expected restored active server, got %+v", restored)
	}
}

func TestUserServerTransitions(t *testing.T) {
	serverSvc, _, db := newServerTestService(t)
	server := seedServer(t, db, 1, constants.ServerStatusActive, nil)

	stopped, err := serverSvc.StopServer(server.ID, 1)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if stopped.Status != constants.ServerStatusStopped {
		t.Fatalf("expected stopped, got %s", stopped.Status)
	}
	if _, err := serverSvc.StopServer(server.ID, 1); !errors.Is(err, ErrServerStatusInvalid) {
		t.Fatalf("expected ErrServerStatusInvalid on repeat stop, got %v", err)
	}

	started, err := serverSvc.StartServer(server.ID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != constants.ServerStatusActive {
		t.Fatalf("expected active, got %s", started.Status)
	}

	if _, err := serverSvc.StopServer(server.ID, 2); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("expected ErrServerNotFound for other user, got %v", err)
	}

	if _, err := serverSvc.RenameServer(server.ID, 1, "  "); !errors.Is(err, ErrServerStatusInvalid) {
		t.Fatalf("expected rejection of blank name, got %v", err)
	}
	renamed, err := serverSvc.RenameServer(server.ID, 1, "  app-db  ")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.Name != "app-db" {
		t.Fatalf("expected trimmed name, got %q", renamed.Name)
	}
}

func TestSuspendAndUnsuspend(t *testing.T) {
	serverSvc, _, db := newServerTestService(t)
	server := seedServer(t, db, 1, constants.ServerStatusActive, nil)

	suspended, err := serverSvc.SuspendServer(server.ID)
	if err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if suspended.Status != constants.ServerStatusSuspended || suspended.SuspendedAt == nil {
		t.Fatalf("expected suspended server, got %+v", suspended)
	}
	if _, err := serverSvc.SuspendServer(server.ID); !errors.Is(err, ErrServerStatusInvalid) {
		t.Fatalf("expected ErrServerStatusInvalid on repeat suspend, got %v", err)
	}

	restored, err := serverSvc.UnsuspendServer(server.ID)
	if err != nil {
		t.Fatalf("unsuspend failed: %v", err)
	}
	if restored.Status != constants.ServerStatusActive {
		t.Fatalf("expected active, got %s", restored.Status)
	}
	if _, err := serverSvc.UnsuspendServer(server.ID); !errors.Is(err, ErrServerStatusInvalid) {
		t.Fatalf("expected ErrServerStatusInvalid on repeat unsuspend, got %v", err)
	}
}

func TestSuspendExpiredServers(t *testing.T) {
	serverSvc, _, db := newServerTestService(t)
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().AddDate(0, 1, 0)
	expired := seedServer(t, db, 1, constants.ServerStatusActive, &past)
	fresh := seedServer(t, db, 1, constants.ServerStatusActive, &future)

	suspended, err := serverSvc.SuspendExpiredServers()
	if err != nil {
		t.Fatalf("suspend expired failed: %v", err)
	}
	if suspended != 1 {
		t.Fatalf("expected 1 suspended, got %d", suspended)
	}

	var reloaded models.Server
	if err := db.First(&reloaded, expired.ID).Error; err != nil {
		t.Fatalf("load expired failed: %v", err)
	}
	if reloaded.Status != constants.ServerStatusSuspended {
		t.Fatalf("expected suspended, got %s", reloaded.Status)
	}
	var untouched models.Server
	if err := db.First(&untouched, fresh.ID).Error; err != nil {
		t.Fatalf("load fresh failed: %v", err)
	}
	if untouched.Status != constants.ServerStatusActive {
		t.Fatalf("fresh server must stay active, got %s", untouched.Status)
	}
}
