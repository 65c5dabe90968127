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

// ListServers 获取实例列表
func (h *Handler) ListServers(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	servers, total, err := h.ServerService.ListServersByUser(uid, repository.ServerListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.server_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, servers, pagination)
}

// GetServer 获取实例详情
func (h *Handler) GetServer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	serverID, ok := parseServerID(c)
	if !ok {
		return
	}

	server, err := h.ServerService.GetServerByUser(serverID, uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.server_fetch_failed", err)
		return
	}
	if server == nil {
		respondError(c, response.CodeNotFound, "error.server_not_found", nil)
		return
	}

	response.Success(c, server)
}

// RenameServerRequest 实例改名请求
type RenameServerRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameServer 修改实例名称
func (h *Handler) RenameServer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	serverID, ok := parseServerID(c)
	if !ok {
		return
	}

	var req RenameServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	server, err := h.ServerService.RenameServer(serverID, uid, req.Name)
	if err != nil {
		respondServerActionError(c, err)
		return
	}

	response.Success(c, server)
}

// StartServer 启动已停止的实例
func (h *Handler) StartServer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	serverID, ok := parseServerID(c)
	if !ok {
		return
	}

	server, err := h.ServerService.StartServer(serverID, uid)
	if err != nil {
		respondServerActionError(c, err)
		return
	}

	response.Success(c, server)
}

// StopServer 停止运行中的实例
func (h *Handler) StopServer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	serverID, ok := parseServerID(c)
	if !ok {
		return
	}

	server, err := h.ServerService.StopServer(serverID, uid)
	if err != nil {
		respondServerActionError(c, err)
		return
	}

	response.Success(c, server)
}

// RenewServerRequest 续费请求
type RenewServerRequest struct {
	Cycle string `json:"cycle" binding:"required"`
}

// RenewServer 创建续费订单
func (h *Handler) RenewServer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	serverID, ok := parseServerID(c)
	if !ok {
		return
	}

	var req RenewServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.RenewServer(uid, serverID, req.Cycle)
	if err != nil {
		respondServerRenewError(c, err)
		return
	}

	response.Success(c, order)
}

func parseServerID(c *gin.Context) (uint, bool) {
	serverID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.server_id_invalid", err)
		return 0, false
	}
	return uint(serverID), true
}

func respondServerActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrServerNotFound):
		respondError(c, response.CodeNotFound, "error.server_not_found", nil)
	case errors.Is(err, service.ErrServerStatusInvalid):
		respondError(c, response.CodeBadRequest, "error.server_status_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.server_action_failed", err)
	}
}
