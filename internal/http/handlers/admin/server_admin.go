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

// AdminListServers 管理端实例列表
func (h *Handler) AdminListServers(c *gin.Context) {
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
	expiresFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("expires_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	expiresTo, err := parseTimeNullable(strings.TrimSpace(c.Query("expires_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	servers, total, err := h.ServerService.ListServersForAdmin(repository.ServerListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		Search:      strings.TrimSpace(c.Query("search")),
		ExpiresFrom: expiresFrom,
		ExpiresTo:   expiresTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.server_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, servers, response.BuildPagination(page, pageSize, total))
}

// AdminGetServer 管理端实例详情
func (h *Handler) AdminGetServer(c *gin.Context) {
	serverID, ok := parseAdminServerID(c)
	if !ok {
		return
	}

	server, err := h.ServerService.GetServerForAdmin(serverID)
	if err != nil {
		if errors.Is(err, service.ErrServerNotFound) {
			respondError(c, response.CodeNotFound, "error.server_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.server_fetch_failed", err)
		return
	}

	response.Success(c, server)
}

// AdminSuspendServer 管理端停用实例
func (h *Handler) AdminSuspendServer(c *gin.Context) {
	serverID, ok := parseAdminServerID(c)
	if !ok {
		return
	}

	server, err := h.ServerService.SuspendServer(serverID)
	if err != nil {
		respondAdminServerError(c, err)
		return
	}

	response.Success(c, server)
}

// AdminUnsuspendServer 管理端恢复实例
func (h *Handler) AdminUnsuspendServer(c *gin.Context) {
	serverID, ok := parseAdminServerID(c)
	if !ok {
		return
	}

	server, err := h.ServerService.UnsuspendServer(serverID)
	if err != nil {
		respondAdminServerError(c, err)
		return
	}

	response.Success(c, server)
}

func parseAdminServerID(c *gin.Context) (uint, bool) {
	serverID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || serverID == 0 {
		respondError(c, response.CodeBadRequest, "error.server_id_invalid", nil)
		return 0, false
	}
	return uint(serverID), true
}

func respondAdminServerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrServerNotFound):
		respondError(c, response.CodeNotFound, "error.server_not_found", nil)
	case errors.Is(err, service.ErrServerStatusInvalid):
		respondError(c, response.CodeBadRequest, "error.server_status_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.server_update_failed", err)
	}
}
