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
	"gorm.io/gorm"
)

func newTicketTestService(t *testing.T) (*TicketService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ticket_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Server{},
		&models.Ticket{},
		&models.TicketMessage{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	svc := NewTicketService(repository.NewTicketRepository(db), repository.NewServerRepository(db))
	return svc, db
}

func TestCreateTicket(t *testing.T) {
	svc, _ := newTicketTestService(t)

	ticket, err := svc.CreateTicket(CreateTicketInput{
		UserID:   1,
		Subject:  "  Disk usage alert  ",
		Priority: "urgent",
		Body:     "Disk on web-01 is above 90 percent.",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	if ticket.Status != constants.TicketStatusOpen {
		t.Fatalf("expected open ticket, got %s", ticket.Status)
	}
	if ticket.Subject != "Disk usage alert" {
		t.Fatalf("expected trimmed subject, got %q", ticket.Subject)
	}
	// 未知优先级回落到 medium
	if ticket.Priority != constants.TicketPriorityMedium {
		t.Fatalf("expected medium priority, got %s", ticket.Priority)
	}
	if !strings.HasPrefix(ticket.TicketNo, "TK") {
		t.Fatalf("unexpected ticket no %s", ticket.TicketNo)
	}
	if len(ticket.Messages) != 1 || ticket.Messages[0].AuthorType != models.TicketAuthorUser {
		t.Fatalf("expected opening message, got %+v", ticket.Messages)
	}
	if ticket.LastReplyAt == nil {
		t.Fatal("expected last_reply_at to be set")
	}
}

func TestCreateTicketValidatesServerOwnership(t *testing.T) {
	svc, db := newTicketTestService(t)
	server := &models.Server{
		UserID:       2,
		PlanID:       1,
		OrderID:      1,
		Name:         "other",
		Status:       constants.ServerStatusActive,
		Family:       pricing.FamilyGeneralPurpose,
		RAMGB:        4,
		VCPU:         2,
		StorageGB:    80,
		BillingCycle: pricing.CycleMonthly,
	}
	if err := db.Create(server).Error; err != nil {
		t.Fatalf("seed server failed: %v", err)
	}

	if _, err := svc.CreateTicket(CreateTicketInput{
		UserID:   1,
		ServerID: &server.ID,
		Subject:  "Reboot request",
		Body:     "Please reboot.",
	}); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("expected ErrServerNotFound for foreign server, got %v", err)
	}

	if _, err := svc.CreateTicket(CreateTicketInput{UserID: 1, Subject: "", Body: "hi"}); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected rejection of empty subject, got %v", err)
	}
}

func TestTicketReplyFlow(t *testing.T) {
	svc, _ := newTicketTestService(t)

	ticket, err := svc.CreateTicket(CreateTicketInput{
		UserID:   1,
		Subject:  "SSH unreachable",
		Priority: constants.TicketPriorityHigh,
		Body:     "Cannot connect since this morning.",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}

	answered, err := svc.ReplyTicketByAdmin(ticket.ID, 7, "We are investigating.")
	if err != nil {
		t.Fatalf("admin reply failed: %v", err)
	}
	if answered.Status != constants.TicketStatusAnswered {
		t.Fatalf("expected answered, got %s", answered.Status)
	}
	if len(answered.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(answered.Messages))
	}
	last := answered.Messages[len(answered.Messages)-1]
	if last.AuthorType != models.TicketAuthorAdmin || last.AdminID == nil || *last.AdminID != 7 {
		t.Fatalf("unexpected admin message: %+v", last)
	}

	replied, err := svc.ReplyTicketByUser(ticket.ID, 1, "Still broken after the fix.")
	if err != nil {
		t.Fatalf("user reply failed: %v", err)
	}
	if replied.Status != constants.TicketStatusCustomerReply {
		t.Fatalf("expected customer_reply, got %s", replied.Status)
	}

	if _, err := svc.ReplyTicketByUser(ticket.ID, 2, "hijack"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound for other user, got %v", err)
	}
	if _, err := svc.ReplyTicketByUser(ticket.ID, 1, "   "); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected rejection of empty body, got %v", err)
	}
}

func TestTicketCloseGuards(t *testing.T) {
	svc, _ := newTicketTestService(t)

	ticket, err := svc.CreateTicket(CreateTicketInput{
		UserID:  1,
		Subject: "Billing question",
		Body:    "Why was I charged twice?",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}

	closed, err := svc.CloseTicketByUser(ticket.ID, 1)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Status != constants.TicketStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed ticket, got %+v", closed)
	}

	if _, err := svc.ReplyTicketByUser(ticket.ID, 1, "one more thing"); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed on reply, got %v", err)
	}
	if _, err := svc.ReplyTicketByAdmin(ticket.ID, 7, "answer"); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed on admin reply, got %v", err)
	}
	if _, err := svc.CloseTicketByUser(ticket.ID, 1); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed on repeat close, got %v", err)
	}
	if _, err := svc.CloseTicketByAdmin(ticket.ID); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed on admin close, got %v", err)
	}
}

func TestCloseTicketByAdmin(t *testing.T) {
	svc, _ := newTicketTestService(t)

	ticket, err := svc.CreateTicket(CreateTicketInput{
		UserID:  1,
		Subject: "Upgrade plan",
		Body:    "Need more RAM.",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}

	closed, err := svc.CloseTicketByAdmin(ticket.ID)
	if err != nil {
		t.Fatalf("admin close failed: %v", err)
	}
	if closed.Status != constants.TicketStatusClosed {
		t.Fatalf("expected closed, got %s", closed.Status)
	}
}
