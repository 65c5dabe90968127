package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hostara-cloud/internal/config"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = 10 * time.Minute

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil {
		go s.runSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSweepLoop 周期性维护任务：
// 超时订单兜底取消、到期实例停用、佣金转可提现、续费提醒投递。
func (s *Service) runSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}

	interval := defaultSweepInterval
	var noticeDays []int
	if s.consumer.Config != nil {
		if mins := s.consumer.Config.Renewal.SweepIntervalMins; mins > 0 {
			interval = time.Duration(mins) * time.Minute
		}
		noticeDays = s.consumer.Config.Renewal.NoticeDays
	}
	if len(noticeDays) == 0 {
		noticeDays = []int{7, 3, 1}
	}

	runOnce := func() {
		if s.consumer.OrderService != nil {
			if count, err := s.consumer.OrderService.SweepExpiredOrders(); err != nil {
				logger.Warnw("worker_sweep_expired_orders_failed", "error", err)
			} else if count > 0 {
				logger.Infow("worker_sweep_expired_orders", "canceled", count)
			}
		}
		if s.consumer.ServerService != nil {
			if count, err := s.consumer.ServerService.SuspendExpiredServers(); err != nil {
				logger.Warnw("worker_suspend_expired_servers_failed", "error", err)
			} else if count > 0 {
				logger.Infow("worker_suspend_expired_servers", "suspended", count)
			}
			if count, err := s.consumer.ServerService.EnqueueRenewalNotices(noticeDays); err != nil {
				logger.Warnw("worker_enqueue_renewal_notices_failed", "error", err)
			} else if count > 0 {
				logger.Infow("worker_enqueue_renewal_notices", "enqueued", count)
			}
		}
		if s.consumer.ReferralService != nil {
			if count, err := s.consumer.ReferralService.ConfirmPendingEarnings(); err != nil {
				logger.Warnw("worker_confirm_pending_earnings_failed", "error", err)
			} else if count > 0 {
				logger.Infow("worker_confirm_pending_earnings", "confirmed", count)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
