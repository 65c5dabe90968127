package public

import (
	"strconv"
	"strings"

	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/referral"
	"github.com/hostara-cloud/internal/repository"
	"github.com/hostara-cloud/internal/service"

	"github.com/gin-gonic/gin"
)

// GetReferralStats 获取推荐概览
func (h *Handler) GetReferralStats(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	stats, err := h.ReferralService.GetStats(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_stats_failed", err)
		return
	}

	response.Success(c, stats)
}

// ListReferralEarnings 获取收益明细
func (h *Handler) ListReferralEarnings(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	earnings, total, err := h.ReferralService.ListEarningsByUser(uid, repository.ReferralEarningListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.referral_earnings_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, earnings, pagination)
}

// RequestPayoutRequest 提现申请请求
type RequestPayoutRequest struct {
	Method        string `json:"method" binding:"required"`
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BankName      string `json:"bank_name"`
	UPIID         string `json:"upi_id"`
	PayPalEmail   string `json:"paypal_email"`
}

// RequestPayout 申请提现
func (h *Handler) RequestPayout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payout, err := h.ReferralService.RequestPayout(service.PayoutRequestInput{
		UserID: uid,
		Method: req.Method,
		Details: referral.PaymentDetails{
			AccountHolder: req.AccountHolder,
			AccountNumber: req.AccountNumber,
			IFSCCode:      req.IFSCCode,
			BankName:      req.BankName,
			UPIID:         req.UPIID,
			PayPalEmail:   req.PayPalEmail,
		},
	})
	if err != nil {
		respondPayoutRequestError(c, err)
		return
	}

	response.Success(c, payout)
}

// ListPayouts 获取提现申请列表
func (h *Handler) ListPayouts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	payouts, total, err := h.ReferralService.ListPayoutsByUser(uid, repository.ReferralPayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.payout_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, payouts, pagination)
}

// GetPayout 获取提现申请详情
func (h *Handler) GetPayout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	payoutID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.payout_id_invalid", err)
		return
	}

	payout, err := h.ReferralService.GetPayoutByUser(uint(payoutID), uid)
	if err != nil {
		if err == service.ErrPayoutNotFound {
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payout_fetch_failed", err)
		return
	}

	response.Success(c, payout)
}
