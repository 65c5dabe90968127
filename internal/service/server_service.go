package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/queue"
	"github.com/hostara-cloud/internal/repository"
)

// ServerService 服务器实例服务
type ServerService struct {
	serverRepo   repository.ServerRepository
	orderRepo    repository.OrderRepository
	orderService *OrderService
	queueClient  *queue.Client
}

// NewServerService 创建服务器实例服务
func NewServerService(serverRepo repository.ServerRepository, orderRepo repository.OrderRepository, orderService *OrderService, queueClient *queue.Client) *ServerService {
	return &ServerService{
		serverRepo:   serverRepo,
		orderRepo:    orderRepo,
		orderService: orderService,
		queueClient:  queueClient,
	}
}

// ProvisionOrder 执行订单开通（队列任务回调）
// 新购订单创建实例，续费订单顺延到期时间并恢复停用实例。
func (s *ServerService) ProvisionOrder(orderID uint) (*models.Server, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPaid {
		return nil, ErrOrderStatusInvalid
	}

	if err := s.orderService.MarkOrderProvisioning(orderID); err != nil {
		return nil, err
	}

	var server *models.Server
	if order.OrderType == constants.OrderTypeRenewal {
		server, err = s.extendServer(order)
	} else {
		server, err = s.createServer(order)
	}
	if err != nil {
		return nil, err
	}

	if err := s.orderService.MarkOrderCompleted(orderID); err != nil {
		return nil, err
	}
	return server, nil
}

func (s *ServerService) createServer(order *models.Order) (*models.Server, error) {
	now := time.Now()
	expiresAt := now.AddDate(0, order.Months, 0)
	server := &models.Server{
		UserID:           order.UserID,
		PlanID:           order.PlanID,
		OrderID:          order.ID,
		Name:             defaultServerName(order),
		Hostname:         fmt.Sprintf("srv-%s", strings.ToLower(order.OrderNo)),
		Status:           constants.ServerStatusActive,
		Family:           order.Family,
		RAMGB:            order.RAMGB,
		VCPU:             order.VCPU,
		StorageGB:        order.StorageGB,
		ExtraStorageGB:   order.ExtraStorageGB,
		ExtraBandwidthTB: order.ExtraBandwidthTB,
		BillingCycle:     order.BillingCycle,
		ExpiresAt:        &expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.serverRepo.Create(server); err != nil {
		return nil, err
	}
	return server, nil
}

func (s *ServerService) extendServer(order *models.Order) (*models.Server, error) {
	if order.ServerID == nil {
		return nil, ErrRenewTargetInvalid
	}
	server, err := s.serverRepo.GetByID(*order.ServerID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrServerNotFound
	}

	now := time.Now()
	base := now
	if server.ExpiresAt != nil && server.ExpiresAt.After(now) {
		base = *server.ExpiresAt
	}
	expiresAt := base.AddDate(0, order.Months, 0)

	server.ExpiresAt = &expiresAt
	server.BillingCycle = order.BillingCycle
	if server.Status == constants.ServerStatusSuspended {
		server.Status = constants.ServerStatusActive
		server.SuspendedAt = nil
	}
	server.UpdatedAt = now
	if err := s.serverRepo.Update(server); err != nil {
		return nil, err
	}
	return server, nil
}

// GetServerByUser 用户查询实例
func (s *ServerService) GetServerByUser(serverID, userID uint) (*models.Server, error) {
	server, err := s.serverRepo.GetByIDWithPlan(serverID)
	if err != nil {
		return nil, err
	}
	if server == nil || server.UserID != userID {
		return nil, ErrServerNotFound
	}
	return server, nil
}

// ListServersByUser 用户实例列表
func (s *ServerService) ListServersByUser(userID uint, filter repository.ServerListFilter) ([]models.Server, int64, error) {
	filter.UserID = userID
	return s.serverRepo.List(filter)
}

// RenameServer 用户重命名实例
func (s *ServerService) RenameServer(serverID, userID uint, name string) (*models.Server, error) {
	server, err := s.GetServerByUser(serverID, userID)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrServerStatusInvalid
	}
	server.Name = trimmed
	server.UpdatedAt = time.Now()
	if err := s.serverRepo.Update(server); err != nil {
		return nil, err
	}
	return server, nil
}

// StopServer 用户停止实例
func (s *ServerService) StopServer(serverID, userID uint) (*models.Server, error) {
	return s.transitionByUser(serverID, userID, constants.ServerStatusActive, constants.ServerStatusStopped)
}

// StartServer 用户启动实例
func (s *ServerService) StartServer(serverID, userID uint) (*models.Server, error) {
	return s.transitionByUser(serverID, userID, constants.ServerStatusStopped, constants.ServerStatusActive)
}

func (s *ServerService) transitionByUser(serverID, userID uint, from, to string) (*models.Server, error) {
	server, err := s.GetServerByUser(serverID, userID)
	if err != nil {
		return nil, err
	}
	if server.Status != from {
		return nil, ErrServerStatusInvalid
	}
	if err := s.serverRepo.UpdateStatus(serverID, to); err != nil {
		return nil, err
	}
	return s.serverRepo.GetByIDWithPlan(serverID)
}

// ListServersForAdmin 后台实例列表
func (s *ServerService) ListServersForAdmin(filter repository.ServerListFilter) ([]models.Server, int64, error) {
	return s.serverRepo.List(filter)
}

// GetServerForAdmin 后台实例详情
func (s *ServerService) GetServerForAdmin(serverID uint) (*models.Server, error) {
	server, err := s.serverRepo.GetByIDWithPlan(serverID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrServerNotFound
	}
	return server, nil
}

// SuspendServer 后台停用实例
func (s *ServerService) SuspendServer(serverID uint) (*models.Server, error) {
	server, err := s.GetServerForAdmin(serverID)
	if err != nil {
		return nil, err
	}
	switch server.Status {
	case constants.ServerStatusActive, constants.ServerStatusStopped:
	default:
		return nil, ErrServerStatusInvalid
	}
	if err := s.serverRepo.UpdateStatus(serverID, constants.ServerStatusSuspended); err != nil {
		return nil, err
	}
	return s.serverRepo.GetByIDWithPlan(serverID)
}

// UnsuspendServer 后台恢复实例
func (s *ServerService) UnsuspendServer(serverID uint) (*models.Server, error) {
	server, err := s.GetServerForAdmin(serverID)
	if err != nil {
		return nil, err
	}
	if server.Status != constants.ServerStatusSuspended {
		return nil, ErrServerStatusInvalid
	}
	if err := s.serverRepo.UpdateStatus(serverID, constants.ServerStatusActive); err != nil {
		return nil, err
	}
	return s.serverRepo.GetByIDWithPlan(serverID)
}

// SuspendExpiredServers 停用到期未续费实例（定时任务）
func (s *ServerService) SuspendExpiredServers() (int, error) {
	servers, err := s.serverRepo.ListExpiredActive(time.Now())
	if err != nil {
		return 0, err
	}
	suspended := 0
	for i := range servers {
		if err := s.serverRepo.UpdateStatus(servers[i].ID, constants.ServerStatusSuspended); err != nil {
			logger.Errorw("server_suspend_expired_failed",
				"server_id", servers[i].ID,
				"error", err,
			)
			continue
		}
		suspended++
	}
	return suspended, nil
}

// EnqueueRenewalNotices 按提醒天数推送到期续费提醒（定时任务）
func (s *ServerService) EnqueueRenewalNotices(noticeDays []int) (int, error) {
	if s.queueClient == nil || len(noticeDays) == 0 {
		return 0, nil
	}

	enqueued := 0
	now := time.Now()
	for _, days := range noticeDays {
		if days <= 0 {
			continue
		}
		from := now.AddDate(0, 0, days-1)
		to := now.AddDate(0, 0, days)
		servers, err := s.serverRepo.ListExpiringBetween(from, to)
		if err != nil {
			return enqueued, err
		}
		for i := range servers {
			if err := s.queueClient.EnqueueServerRenewalNotice(queue.ServerRenewalNoticePayload{
				ServerID: servers[i].ID,
				DaysLeft: days,
			}); err != nil {
				logger.Errorw("server_enqueue_renewal_notice_failed",
					"server_id", servers[i].ID,
					"days_left", days,
					"error", err,
				)
				continue
			}
			enqueued++
		}
	}
	return enqueued, nil
}

func defaultServerName(order *models.Order) string {
	label := strings.ReplaceAll(order.Family, "_", "-")
	return fmt.Sprintf("%s-%dgb-%d", label, order.RAMGB, order.ID)
}
