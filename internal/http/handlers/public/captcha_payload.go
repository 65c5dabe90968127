package public

import (
	handlershared "github.com/hostara-cloud/internal/http/handlers/shared"

	"github.com/hostara-cloud/internal/service"
)

// CaptchaPayloadRequest 验证码请求载荷
// image 模式提交 captcha_id + captcha_code，未启用场景允许空载荷，
// 由 service 层根据配置判定是否必填。
type CaptchaPayloadRequest = handlershared.CaptchaPayloadRequest

func toCaptchaPayload(r CaptchaPayloadRequest) service.CaptchaVerifyPayload {
	return r.ToServicePayload()
}
