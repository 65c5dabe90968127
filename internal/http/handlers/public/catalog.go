package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCatalog 获取定价目录
func (h *Handler) GetCatalog(c *gin.Context) {
	response.Success(c, h.PricingService.GetCatalog())
}

// ListPlans 获取上架套餐列表
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.PlanService.ListActivePlans()
	if err != nil {
		respondError(c, response.CodeInternal, "error.plan_list_failed", err)
		return
	}

	family := strings.ToLower(strings.TrimSpace(c.Query("family")))
	if family != "" {
		filtered := make([]models.HostingPlan, 0, len(plans))
		for _, plan := range plans {
			if plan.Family == family {
				filtered = append(filtered, plan)
			}
		}
		plans = filtered
	}

	response.Success(c, gin.H{"plans": plans})
}

// QuoteRequest 报价请求
type QuoteRequest struct {
	Family           string `json:"family" binding:"required"`
	RAMGB            int    `json:"ram_gb" binding:"required"`
	Cycle            string `json:"cycle" binding:"required"`
	ExtraStorageGB   int    `json:"extra_storage_gb"`
	ExtraBandwidthTB int    `json:"extra_bandwidth_tb"`
}

// GetQuote 计算指定配置与周期的报价
func (h *Handler) GetQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	quote, err := h.PricingService.Quote(service.QuoteInput{
		Family:           req.Family,
		CapacityGB:       req.RAMGB,
		Cycle:            req.Cycle,
		ExtraStorageGB:   req.ExtraStorageGB,
		ExtraBandwidthTB: req.ExtraBandwidthTB,
	})
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidSelection) {
			respondError(c, response.CodeBadRequest, "error.pricing_selection_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.quote_failed", err)
		return
	}

	response.Success(c, quote)
}

// CompareCycles 同配置下全部计费周期的报价对比
func (h *Handler) CompareCycles(c *gin.Context) {
	family := strings.TrimSpace(c.Query("family"))
	ramGB, err := strconv.Atoi(strings.TrimSpace(c.Query("ram_gb")))
	if family == "" || err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	extraStorage, _ := strconv.Atoi(c.DefaultQuery("extra_storage_gb", "0"))
	extraBandwidth, _ := strconv.Atoi(c.DefaultQuery("extra_bandwidth_tb", "0"))

	quotes, err := h.PricingService.CompareCycles(service.QuoteInput{
		Family:           family,
		CapacityGB:       ramGB,
		ExtraStorageGB:   extraStorage,
		ExtraBandwidthTB: extraBandwidth,
	})
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidSelection) {
			respondError(c, response.CodeBadRequest, "error.pricing_selection_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.quote_failed", err)
		return
	}

	response.Success(c, gin.H{"quotes": quotes})
}
