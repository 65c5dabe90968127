package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/provider"
	"github.com/hostara-cloud/internal/queue"
	"github.com/hostara-cloud/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskServerProvision, c.handleServerProvision)
	mux.HandleFunc(queue.TaskReferralCommission, c.handleReferralCommission)
	mux.HandleFunc(queue.TaskServerRenewalNotice, c.handleServerRenewalNotice)
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	_, err := c.OrderService.CancelExpiredOrder(payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleServerProvision(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_server_provision_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ServerProvisionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_server_provision_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_server_provision_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.ServerService == nil {
		logger.Warnw("worker_server_provision_skip_server_service_nil", "order_id", payload.OrderID)
		return nil
	}
	_, err := c.ServerService.ProvisionOrder(payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_server_provision_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			logger.Debugw("worker_server_provision_skip_invalid_status", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_server_provision_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleReferralCommission(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_referral_commission_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReferralCommissionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_referral_commission_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_referral_commission_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.ReferralService == nil {
		logger.Warnw("worker_referral_commission_skip_referral_service_nil", "order_id", payload.OrderID)
		return nil
	}
	_, err := c.ReferralService.AccrueCommissions(payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_referral_commission_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			logger.Debugw("worker_referral_commission_skip_invalid_status", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_referral_commission_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleServerRenewalNotice(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_server_renewal_notice_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ServerRenewalNoticePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_server_renewal_notice_unmarshal_failed", "error", err)
		return err
	}
	if payload.ServerID == 0 {
		logger.Debugw("worker_server_renewal_notice_skip_invalid_payload", "server_id", payload.ServerID)
		return nil
	}
	server, err := c.ServerRepo.GetByID(payload.ServerID)
	if err != nil {
		logger.Warnw("worker_server_renewal_notice_fetch_failed", "server_id", payload.ServerID, "error", err)
		return err
	}
	if server == nil {
		logger.Debugw("worker_server_renewal_notice_skip_server_not_found", "server_id", payload.ServerID)
		return nil
	}
	if server.ExpiresAt == nil {
		logger.Debugw("worker_server_renewal_notice_skip_no_expiry", "server_id", server.ID)
		return nil
	}
	// 通知渠道尚未接入，先落结构化日志供外部采集。
	logger.Infow("server_renewal_notice",
		"server_id", server.ID,
		"server_name", server.Name,
		"user_id", server.UserID,
		"days_left", payload.DaysLeft,
		"expires_at", server.ExpiresAt,
	)
	return nil
}
