package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/repository"
)

// TicketService 工单服务
type TicketService struct {
	ticketRepo repository.TicketRepository
	serverRepo repository.ServerRepository
}

// NewTicketService 创建工单服务
func NewTicketService(ticketRepo repository.TicketRepository, serverRepo repository.ServerRepository) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		serverRepo: serverRepo,
	}
}

// CreateTicketInput 创建工单输入
type CreateTicketInput struct {
	UserID   uint
	ServerID *uint
	Subject  string
	Priority string
	Body     string
}

// CreateTicket 用户创建工单
func (s *TicketService) CreateTicket(input CreateTicketInput) (*models.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if input.UserID == 0 || subject == "" || body == "" {
		return nil, ErrTicketNotFound
	}

	if input.ServerID != nil {
		server, err := s.serverRepo.GetByID(*input.ServerID)
		if err != nil {
			return nil, err
		}
		if server == nil || server.UserID != input.UserID {
			return nil, ErrServerNotFound
		}
	}

	priority := strings.ToLower(strings.TrimSpace(input.Priority))
	switch priority {
	case constants.TicketPriorityLow, constants.TicketPriorityMedium, constants.TicketPriorityHigh:
	default:
		priority = constants.TicketPriorityMedium
	}

	now := time.Now()
	ticket := &models.Ticket{
		TicketNo:    generateTicketNo(),
		UserID:      input.UserID,
		ServerID:    input.ServerID,
		Subject:     subject,
		Priority:    priority,
		Status:      constants.TicketStatusOpen,
		LastReplyAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, err
	}

	userID := input.UserID
	message := &models.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: models.TicketAuthorUser,
		UserID:     &userID,
		Body:       body,
		CreatedAt:  now,
	}
	if err := s.ticketRepo.AppendMessage(message); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByIDWithMessages(ticket.ID)
}

// GetTicketByUser 用户查询工单（含会话）
func (s *TicketService) GetTicketByUser(ticketID, userID uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByIDAndUser(ticketID, userID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return s.ticketRepo.GetByIDWithMessages(ticketID)
}

// ListTicketsByUser 用户工单列表
func (s *TicketService) ListTicketsByUser(userID uint, filter repository.TicketListFilter) ([]models.Ticket, int64, error) {
	filter.UserID = userID
	return s.ticketRepo.List(filter)
}

// ReplyTicketByUser 用户回复工单
// 回复后状态回到 customer_reply，已关闭工单不可回复。
func (s *TicketService) ReplyTicketByUser(ticketID, userID uint, body string) (*models.Ticket, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, ErrTicketNotFound
	}

	ticket, err := s.ticketRepo.GetByIDAndUser(ticketID, userID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil, ErrTicketClosed
	}

	now := time.Now()
	message := &models.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: models.TicketAuthorUser,
		UserID:     &userID,
		Body:       trimmed,
		CreatedAt:  now,
	}
	if err := s.ticketRepo.AppendMessage(message); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.UpdateStatus(ticket.ID, constants.TicketStatusCustomerReply, &now); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByIDWithMessages(ticket.ID)
}

// CloseTicketByUser 用户关闭工单
func (s *TicketService) CloseTicketByUser(ticketID, userID uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByIDAndUser(ticketID, userID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	return s.closeTicket(ticket)
}

// ListTicketsForAdmin 后台工单列表
func (s *TicketService) ListTicketsForAdmin(filter repository.TicketListFilter) ([]models.Ticket, int64, error) {
	return s.ticketRepo.List(filter)
}

// GetTicketForAdmin 后台工单详情
func (s *TicketService) GetTicketForAdmin(ticketID uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByIDWithMessages(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// ReplyTicketByAdmin 客服回复工单
func (s *TicketService) ReplyTicketByAdmin(ticketID, adminID uint, body string) (*models.Ticket, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, ErrTicketNotFound
	}

	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil, ErrTicketClosed
	}

	now := time.Now()
	message := &models.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: models.TicketAuthorAdmin,
		AdminID:    &adminID,
		Body:       trimmed,
		CreatedAt:  now,
	}
	if err := s.ticketRepo.AppendMessage(message); err != nil {
		return nil, err
	}
	if err := s.ticketRepo.UpdateStatus(ticket.ID, constants.TicketStatusAnswered, &now); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByIDWithMessages(ticket.ID)
}

// CloseTicketByAdmin 客服关闭工单
func (s *TicketService) CloseTicketByAdmin(ticketID uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	return s.closeTicket(ticket)
}

func (s *TicketService) closeTicket(ticket *models.Ticket) (*models.Ticket, error) {
	now := time.Now()
	ticket.Status = constants.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.UpdatedAt = now
	if err := s.ticketRepo.Update(ticket); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByIDWithMessages(ticket.ID)
}

func generateTicketNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("TK%s%s", now, randNumeric(4))
}
