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

// AdminListPayouts 管理端提现申请列表
func (h *Handler) AdminListPayouts(c *gin.Context) {
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
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payouts, total, err := h.ReferralService.ListPayoutsForAdmin(repository.ReferralPayoutListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		Method:      strings.TrimSpace(c.Query("method")),
		PayoutNo:    strings.TrimSpace(c.Query("payout_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.payout_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, payouts, response.BuildPagination(page, pageSize, total))
}

// AdminGetPayout 管理端提现申请详情
func (h *Handler) AdminGetPayout(c *gin.Context) {
	payoutID, ok := parseAdminPayoutID(c)
	if !ok {
		return
	}

	payout, err := h.ReferralService.GetPayoutForAdmin(payoutID)
	if err != nil {
		if errors.Is(err, service.ErrPayoutNotFound) {
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payout_fetch_failed", err)
		return
	}

	response.Success(c, payout)
}

// AdminReviewPayoutRequest 管理端提现审核请求
type AdminReviewPayoutRequest struct {
	Action           string `json:"action" binding:"required"`
	Note             string `json:"note"`
	RejectReason     string `json:"reject_reason"`
	PaymentReference string `json:"payment_reference"`
}

// AdminReviewPayout 管理端提现审核（受理/批准/驳回/打款）
func (h *Handler) AdminReviewPayout(c *gin.Context) {
	payoutID, ok := parseAdminPayoutID(c)
	if !ok {
		return
	}

	var req AdminReviewPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payout, err := h.ReferralService.ReviewPayout(service.PayoutReviewInput{
		PayoutID:         payoutID,
		Action:           strings.ToLower(strings.TrimSpace(req.Action)),
		Note:             req.Note,
		RejectReason:     req.RejectReason,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutNotFound):
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
		case errors.Is(err, service.ErrPayoutStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.payout_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.payout_update_failed", err)
		}
		return
	}

	response.Success(c, payout)
}

// AdminListReferralEarnings 管理端推荐收益列表
func (h *Handler) AdminListReferralEarnings(c *gin.Context) {
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
	orderIDStr := strings.TrimSpace(c.Query("order_id"))
	var orderID uint
	if orderIDStr != "" {
		if parsed, err := strconv.ParseUint(orderIDStr, 10, 64); err == nil {
			orderID = uint(parsed)
		}
	}
	level, _ := strconv.Atoi(c.DefaultQuery("level", "0"))

	earnings, total, err := h.ReferralRepo.ListEarnings(repository.ReferralEarningListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		OrderID:  orderID,
		Level:    level,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.earning_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, earnings, response.BuildPagination(page, pageSize, total))
}

func parseAdminPayoutID(c *gin.Context) (uint, bool) {
	payoutID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || payoutID == 0 {
		respondError(c, response.CodeBadRequest, "error.payout_id_invalid", nil)
		return 0, false
	}
	return uint(payoutID), true
}
