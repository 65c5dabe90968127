package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListTickets 管理端工单列表
func (h *Handler) AdminListTickets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	userIDStr := strings.TrimSpace(c.Query("user_id"))
	var userID uint
	if userIDStr != "" {
		if parsed, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	tickets, total, err := h.TicketService.ListTicketsForAdmin(repository.TicketListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.ticket_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, tickets, response.BuildPagination(page, pageSize, total))
}

// AdminGetTicket 管理端工单详情
func (h *Handler) AdminGetTicket(c *gin.Context) {
	ticketID, ok := parseAdminTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.TicketService.GetTicketForAdmin(ticketID)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			respondError(c, response.CodeNotFound, "error.ticket_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.ticket_fetch_failed", err)
		return
	}

	response.Success(c, ticket)
}

// AdminReplyTicketRequest 管理端工单回复请求
type AdminReplyTicketRequest struct {
	Body string `json:"body" binding:"required"`
}

// AdminReplyTicket 管理端回复工单
func (h *Handler) AdminReplyTicket(c *gin.Context) {
	ticketID, ok := parseAdminTicketID(c)
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req AdminReplyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	ticket, err := h.TicketService.ReplyTicketByAdmin(ticketID, adminID, req.Body)
	if err != nil {
		respondAdminTicketError(c, err)
		return
	}

	response.Success(c, ticket)
}

// AdminCloseTicket 管理端关闭工单
func (h *Handler) AdminCloseTicket(c *gin.Context) {
	ticketID, ok := parseAdminTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.TicketService.CloseTicketByAdmin(ticketID)
	if err != nil {
		respondAdminTicketError(c, err)
		return
	}

	response.Success(c, ticket)
}

func parseAdminTicketID(c *gin.Context) (uint, bool) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ticketID == 0 {
		respondError(c, response.CodeBadRequest, "error.ticket_id_invalid", nil)
		return 0, false
	}
	return uint(ticketID), true
}

func respondAdminTicketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		respondError(c, response.CodeNotFound, "error.ticket_not_found", nil)
	case errors.Is(err, service.ErrTicketClosed):
		respondError(c, response.CodeBadRequest, "error.ticket_closed", nil)
	default:
		respondError(c, response.CodeInternal, "error.ticket_update_failed", err)
	}
}
