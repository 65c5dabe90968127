package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateTicketRequest 创建工单请求
type CreateTicketRequest struct {
	ServerID *uint  `json:"server_id"`
	Subject  string `json:"subject" binding:"required"`
	Priority string `json:"priority"`
	Body     string `json:"body" binding:"required"`
}

// CreateTicket 创建工单
func (h *Handler) CreateTicket(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	ticket, err := h.TicketService.CreateTicket(service.CreateTicketInput{
		UserID:   uid,
		ServerID: req.ServerID,
		Subject:  req.Subject,
		Priority: req.Priority,
		Body:     req.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServerNotFound):
			respondError(c, response.CodeBadRequest, "error.server_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.ticket_create_failed", err)
		}
		return
	}

	response.Success(c, ticket)
}

// ListTickets 获取工单列表
func (h *Handler) ListTickets(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	tickets, total, err := h.TicketService.ListTicketsByUser(uid, repository.TicketListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.ticket_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, tickets, pagination)
}

// GetTicket 获取工单详情
func (h *Handler) GetTicket(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	ticketID, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.TicketService.GetTicketByUser(ticketID, uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.ticket_fetch_failed", err)
		return
	}
	if ticket == nil {
		respondError(c, response.CodeNotFound, "error.ticket_not_found", nil)
		return
	}

	response.Success(c, ticket)
}

// ReplyTicketRequest 回复工单请求
type ReplyTicketRequest struct {
	Body string `json:"body" binding:"required"`
}

// ReplyTicket 回复工单
func (h *Handler) ReplyTicket(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	ticketID, ok := parseTicketID(c)
	if !ok {
		return
	}

	var req ReplyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	ticket, err := h.TicketService.ReplyTicketByUser(ticketID, uid, req.Body)
	if err != nil {
		respondTicketActionError(c, err)
		return
	}

	response.Success(c, ticket)
}

// CloseTicket 关闭工单
func (h *Handler) CloseTicket(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	ticketID, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.TicketService.CloseTicketByUser(ticketID, uid)
	if err != nil {
		respondTicketActionError(c, err)
		return
	}

	response.Success(c, ticket)
}

func parseTicketID(c *gin.Context) (uint, bool) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.ticket_id_invalid", err)
		return 0, false
	}
	return uint(ticketID), true
}

func respondTicketActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		respondError(c, response.CodeNotFound, "error.ticket_not_found", nil)
	case errors.Is(err, service.ErrTicketClosed):
		respondError(c, response.CodeBadRequest, "error.ticket_closed", nil)
	default:
		respondError(c, response.CodeInternal, "error.ticket_action_failed", err)
	}
}
