package public

import (
	"errors"

	"github.com/hostara-cloud/internal/http/response"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/referral"
	"github.com/hostara-cloud/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrPlanNotAvailable, code: response.CodeBadRequest, key: "error.plan_not_available"},
	{target: pricing.ErrInvalidSelection, code: response.CodeBadRequest, key: "error.pricing_selection_invalid"},
	{target: service.ErrQueueUnavailable, code: response.CodeInternal, key: "error.queue_unavailable"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderCancelNotAllowed, code: response.CodeBadRequest, key: "error.order_cancel_not_allowed"},
}

var serverRenewErrorRules = []mappedHandlerError{
	{target: service.ErrServerNotFound, code: response.CodeNotFound, key: "error.server_not_found"},
	{target: service.ErrRenewTargetInvalid, code: response.CodeBadRequest, key: "error.renew_target_invalid"},
	{target: pricing.ErrInvalidSelection, code: response.CodeBadRequest, key: "error.pricing_selection_invalid"},
	{target: service.ErrQueueUnavailable, code: response.CodeInternal, key: "error.queue_unavailable"},
}

var payoutRequestErrorRules = []mappedHandlerError{
	{target: referral.ErrInsufficientBalance, code: response.CodeBadRequest, key: "error.payout_below_minimum"},
	{target: referral.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payout_method_invalid"},
	{target: referral.ErrIncompletePaymentDetails, code: response.CodeBadRequest, key: "error.payout_details_incomplete"},
	{target: service.ErrPayoutInflightExists, code: response.CodeBadRequest, key: "error.payout_inflight_exists"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "error.order_cancel_failed")
}

func respondServerRenewError(c *gin.Context, err error) {
	respondWithMappedError(c, err, serverRenewErrorRules, response.CodeInternal, "error.order_create_failed")
}

func respondPayoutRequestError(c *gin.Context, err error) {
	respondWithMappedError(c, err, payoutRequestErrorRules, response.CodeInternal, "error.payout_request_failed")
}
