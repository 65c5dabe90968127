package queue

import (
	"encoding/json"

	"github.com/hostara-cloud/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 订单超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskServerProvision 服务器开通任务
	TaskServerProvision = constants.TaskServerProvision
	// TaskReferralCommission 推荐佣金结算任务
	TaskReferralCommission = constants.TaskReferralCommission
	// TaskServerRenewalNotice 到期续费提醒任务
	TaskServerRenewalNotice = constants.TaskServerRenewalNotice
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// ServerProvisionPayload 服务器开通任务载荷
type ServerProvisionPayload struct {
	OrderID uint `json:"order_id"`
}

// ReferralCommissionPayload 推荐佣金结算任务载荷
type ReferralCommissionPayload struct {
	OrderID uint `json:"order_id"`
}

// ServerRenewalNoticePayload 到期续费提醒任务载荷
type ServerRenewalNoticePayload struct {
	ServerID uint `json:"server_id"`
	DaysLeft int  `json:"days_left"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewServerProvisionTask 创建服务器开通任务
func NewServerProvisionTask(payload ServerProvisionPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskServerProvision, body), nil
}

// NewReferralCommissionTask 创建推荐佣金结算任务
func NewReferralCommissionTask(payload ReferralCommissionPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReferralCommission, body), nil
}

// NewServerRenewalNoticeTask 创建到期续费提醒任务
func NewServerRenewalNoticeTask(payload ServerRenewalNoticePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskServerRenewalNotice, body), nil
}
