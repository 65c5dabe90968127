package referral

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// 提现相关错误
var (
	ErrInsufficientBalance      = errors.New("referral: balance below minimum payout")
	ErrPaymentMethodInvalid     = errors.New("referral: unknown payment method")
	ErrIncompletePaymentDetails = errors.New("referral: incomplete payment details")
)

// 支持的提现方式。
const (
	MethodBankTransfer = "bank_transfer"
	MethodUPI          = "upi"
	MethodPayPal       = "paypal"
)

// 提现规则常量：最低提现额与代扣税率（百分比）。
const (
	MinPayoutINR = 500
	TDSPercent   = 10
	GSTPercent   = 18
)

// PaymentDetails 提现收款信息，各方式只校验各自所需字段。
type PaymentDetails struct {
	AccountHolder string `json:"account_holder,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSCCode      string `json:"ifsc_code,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	UPIID         string `json:"upi_id,omitempty"`
	PayPalEmail   string `json:"paypal_email,omitempty"`
}

// Breakdown 提现金额拆分：毛额、TDS、GST 与到手净额。
type Breakdown struct {
	Gross decimal.Decimal `json:"gross"`
	TDS   decimal.Decimal `json:"tds"`
	GST   decimal.Decimal `json:"gst"`
	Net   decimal.Decimal `json:"net"`
}

// ValidateAmount 校验提现金额是否达到最低额度，临界值 500.00 视为有效。
func ValidateAmount(gross decimal.Decimal) error {
	if gross.LessThan(decimal.NewFromInt(MinPayoutINR)) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateMethod 校验提现方式与收款信息的完整性。
func ValidateMethod(method string, details PaymentDetails) error {
	switch method {
	case MethodBankTransfer:
		if blank(details.AccountHolder) || blank(details.AccountNumber) ||
			blank(details.IFSCCode) || blank(details.BankName) {
			return ErrIncompletePaymentDetails
		}
	case MethodUPI:
		if blank(details.UPIID) {
			return ErrIncompletePaymentDetails
		}
	case MethodPayPal:
		if blank(details.PayPalEmail) {
			return ErrIncompletePaymentDetails
		}
	default:
		return ErrPaymentMethodInvalid
	}
	return nil
}

// ComputeBreakdown 按毛额计算代扣与净额，全部保留两位小数。
// 净额取毛额减两项代扣，保证三者之和恒等于毛额。
func ComputeBreakdown(gross decimal.Decimal) Breakdown {
	gross = gross.Round(2)
	hundred := decimal.NewFromInt(100)
	tds := gross.Mul(decimal.NewFromInt(TDSPercent)).Div(hundred).Round(2)
	gst := gross.Mul(decimal.NewFromInt(GSTPercent)).Div(hundred).Round(2)
	return Breakdown{
		Gross: gross,
		TDS:   tds,
		GST:   gst,
		Net:   gross.Sub(tds).Sub(gst),
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
