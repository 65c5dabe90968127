package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminPlanRequest 套餐创建/更新请求
type AdminPlanRequest struct {
	Family     string  `json:"family" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	RAMGB      int     `json:"ram_gb" binding:"required"`
	Features   *string `json:"features"`
	IsActive   *bool   `json:"is_active"`
	IsFeatured *bool   `json:"is_featured"`
	SortOrder  *int    `json:"sort_order"`
}

func (r AdminPlanRequest) toServiceInput() service.PlanUpsertInput {
	return service.PlanUpsertInput{
		Family:     r.Family,
		Name:       r.Name,
		RAMGB:      r.RAMGB,
		Features:   r.Features,
		IsActive:   r.IsActive,
		IsFeatured: r.IsFeatured,
		SortOrder:  r.SortOrder,
	}
}

// AdminListPlans 管理端套餐列表
func (h *Handler) AdminListPlans(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	plans, total, err := h.PlanService.ListPlansForAdmin(repository.PlanListFilter{
		Page:     page,
		PageSize: pageSize,
		Family:   strings.TrimSpace(c.Query("family")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.plan_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, plans, response.BuildPagination(page, pageSize, total))
}

// AdminGetPlan 管理端套餐详情
func (h *Handler) AdminGetPlan(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || planID == 0 {
		respondError(c, response.CodeBadRequest, "error.plan_id_invalid", nil)
		return
	}

	plan, err := h.PlanService.GetPlanByID(uint(planID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.plan_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.plan_fetch_failed", err)
		return
	}

	response.Success(c, plan)
}

// AdminCreatePlan 管理端创建套餐
func (h *Handler) AdminCreatePlan(c *gin.Context) {
	var req AdminPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	plan, err := h.PlanService.CreatePlan(req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrInvalidSelection):
			respondError(c, response.CodeBadRequest, "error.pricing_selection_invalid", nil)
		case errors.Is(err, service.ErrPlanExists):
			respondError(c, response.CodeBadRequest, "error.plan_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.plan_save_failed", err)
		}
		return
	}

	response.Success(c, plan)
}

// AdminUpdatePlan 管理端更新套餐
func (h *Handler) AdminUpdatePlan(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || planID == 0 {
		respondError(c, response.CodeBadRequest, "error.plan_id_invalid", nil)
		return
	}

	var req AdminPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	plan, err := h.PlanService.UpdatePlan(uint(planID), req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.plan_not_found", nil)
		case errors.Is(err, pricing.ErrInvalidSelection):
			respondError(c, response.CodeBadRequest, "error.pricing_selection_invalid", nil)
		case errors.Is(err, service.ErrPlanExists):
			respondError(c, response.CodeBadRequest, "error.plan_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.plan_save_failed", err)
		}
		return
	}

	response.Success(c, plan)
}

// AdminDeletePlan 管理端下架并删除套餐
func (h *Handler) AdminDeletePlan(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || planID == 0 {
		respondError(c, response.CodeBadRequest, "error.plan_id_invalid", nil)
		return
	}

	if err := h.PlanService.DeletePlan(uint(planID)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.plan_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.plan_delete_failed", err)
		return
	}

	response.Success(c, nil)
}

// AdminSyncPlans 按内置套餐矩阵补齐缺失套餐
func (h *Handler) AdminSyncPlans(c *gin.Context) {
	created, err := h.PlanService.SyncPlansFromTiers()
	if err != nil {
		respondError(c, response.CodeInternal, "error.plan_save_failed", err)
		return
	}

	response.Success(c, gin.H{"created": created})
}
