package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/queue"
	"github.com/hostara-cloud/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	invoiceRepo    repository.InvoiceRepository
	planRepo       repository.PlanRepository
	serverRepo     repository.ServerRepository
	queueClient    *queue.Client
	settingService *SettingService
	expireMinutes  int
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, invoiceRepo repository.InvoiceRepository, planRepo repository.PlanRepository, serverRepo repository.ServerRepository, queueClient *queue.Client, settingService *SettingService, expireMinutes int) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		invoiceRepo:    invoiceRepo,
		planRepo:       planRepo,
		serverRepo:     serverRepo,
		queueClient:    queueClient,
		settingService: settingService,
		expireMinutes:  expireMinutes,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID           uint
	PlanID           uint
	Cycle            string
	ExtraStorageGB   int
	ExtraBandwidthTB int
	ClientIP         string
}

// allowedTransitions 订单状态机
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPaid:     true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusProvisioning: true,
	},
	constants.OrderStatusProvisioning: {
		constants.OrderStatusCompleted: true,
	},
}

// CreateOrder 创建新购订单
// 规格与价格在下单时由定价引擎输出并固化为订单快照。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 || input.PlanID == 0 {
		return nil, ErrOrderNotFound
	}

	plan, err := s.planRepo.GetByID(input.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, ErrPlanNotAvailable
	}

	if !pricing.ValidStorageAddon(input.ExtraStorageGB) || !pricing.ValidBandwidthAddon(input.ExtraBandwidthTB) {
		return nil, pricing.ErrInvalidSelection
	}

	quote, err := pricing.Compute(pricing.Input{
		Family:           plan.Family,
		CapacityGB:       plan.RAMGB,
		Cycle:            strings.ToLower(strings.TrimSpace(input.Cycle)),
		ExtraStorageGB:   input.ExtraStorageGB,
		ExtraBandwidthTB: input.ExtraBandwidthTB,
	})
	if err != nil {
		return nil, err
	}

	return s.createPricedOrder(pricedOrderParams{
		UserID:           input.UserID,
		Plan:             plan,
		OrderType:        constants.OrderTypeNew,
		Quote:            quote,
		ExtraStorageGB:   input.ExtraStorageGB,
		ExtraBandwidthTB: input.ExtraBandwidthTB,
		ClientIP:         input.ClientIP,
	})
}

// RenewServer 为已开通实例创建续费订单
// 续费订单以首购订单为父订单，规格沿用实例快照，价格按当前价目表重算。
func (s *OrderService) RenewServer(userID, serverID uint, cycle string) (*models.Order, error) {
	if userID == 0 || serverID == 0 {
		return nil, ErrRenewTargetInvalid
	}

	server, err := s.serverRepo.GetByID(serverID)
	if err != nil {
		return nil, err
	}
	if server == nil || server.UserID != userID {
		return nil, ErrRenewTargetInvalid
	}
	switch server.Status {
	case constants.ServerStatusActive, constants.ServerStatusStopped, constants.ServerStatusSuspended:
	default:
		return nil, ErrRenewTargetInvalid
	}

	plan, err := s.planRepo.GetByID(server.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotAvailable
	}

	quote, err := pricing.Compute(pricing.Input{
		Family:           server.Family,
		CapacityGB:       server.RAMGB,
		Cycle:            strings.ToLower(strings.TrimSpace(cycle)),
		ExtraStorageGB:   server.ExtraStorageGB,
		ExtraBandwidthTB: server.ExtraBandwidthTB,
	})
	if err != nil {
		return nil, err
	}

	parentID := server.OrderID
	return s.createPricedOrder(pricedOrderParams{
		UserID:           userID,
		Plan:             plan,
		OrderType:        constants.OrderTypeRenewal,
		ParentID:         &parentID,
		ServerID:         &server.ID,
		Quote:            quote,
		ExtraStorageGB:   server.ExtraStorageGB,
		ExtraBandwidthTB: server.ExtraBandwidthTB,
	})
}

// pricedOrderParams 落库参数
type pricedOrderParams struct {
	UserID           uint
	Plan             *models.HostingPlan
	OrderType        string
	ParentID         *uint
	ServerID         *uint
	Quote            pricing.Quote
	ExtraStorageGB   int
	ExtraBandwidthTB int
	ClientIP         string
}

func (s *OrderService) createPricedOrder(params pricedOrderParams) (*models.Order, error) {
	expireMinutes := s.resolveExpireMinutes()
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireMinutes) * time.Minute)
	currency := s.resolveSiteCurrency()

	tier, ok := pricing.LookupTier(params.Quote.Family, params.Quote.CapacityGB)
	if !ok {
		return nil, pricing.ErrInvalidSelection
	}

	order := &models.Order{
		OrderNo:          generateOrderNo(),
		ParentID:         params.ParentID,
		UserID:           params.UserID,
		PlanID:           params.Plan.ID,
		ServerID:         params.ServerID,
		OrderType:        params.OrderType,
		Status:           constants.OrderStatusPendingPayment,
		Currency:         currency,
		Family:           params.Quote.Family,
		RAMGB:            tier.RAMGB,
		VCPU:             tier.VCPU,
		StorageGB:        tier.StorageGB,
		ExtraStorageGB:   params.ExtraStorageGB,
		ExtraBandwidthTB: params.ExtraBandwidthTB,
		BillingCycle:     params.Quote.Cycle,
		Months:           params.Quote.Months,
		BaseMonthly:      models.NewMoneyFromDecimal(params.Quote.BaseMonthly),
		AddonAmount:      models.NewMoneyFromDecimal(params.Quote.StorageAddon.Add(params.Quote.BandwidthAddon)),
		Subtotal:         models.NewMoneyFromDecimal(params.Quote.Subtotal),
		DiscountPercent:  models.NewMoneyFromDecimal(decimal.NewFromInt(params.Quote.DiscountPercent)),
		DiscountAmount:   models.NewMoneyFromDecimal(params.Quote.DiscountAmount),
		TotalAmount:      models.NewMoneyFromDecimal(params.Quote.TotalAfterDiscount),
		EffectiveMonthly: models.NewMoneyFromDecimal(params.Quote.EffectiveMonthly),
		ClientIP:         strings.TrimSpace(params.ClientIP),
		ExpiresAt:        &expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		invoice := &models.Invoice{
			InvoiceNo: generateInvoiceNo(),
			OrderID:   order.ID,
			UserID:    params.UserID,
			Status:    constants.InvoiceStatusUnpaid,
			Currency:  currency,
			Amount:    order.TotalAmount,
			DueAt:     &expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.invoiceRepo.WithTx(tx).Create(invoice)
	})
	if err != nil {
		return nil, err
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{
			OrderID: order.ID,
		}, time.Duration(expireMinutes)*time.Minute); err != nil {
			logger.Errorw("order_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
			if cancelErr := s.cancelOrder(order, now); cancelErr != nil {
				logger.Errorw("order_timeout_rollback_cancel_failed",
					"order_id", order.ID,
					"order_no", order.OrderNo,
					"error", cancelErr,
				)
			}
			return nil, ErrQueueUnavailable
		}
	}

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

// cancelOrder 取消订单并同步账单状态
func (s *OrderService) cancelOrder(order *models.Order, now time.Time) error {
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusCanceled, map[string]interface{}{
			"canceled_at": now,
		}); err != nil {
			return err
		}
		invoice, err := s.invoiceRepo.WithTx(tx).GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if invoice != nil && invoice.Status == constants.InvoiceStatusUnpaid {
			invoice.Status = constants.InvoiceStatusCanceled
			invoice.UpdatedAt = now
			if err := s.invoiceRepo.WithTx(tx).Update(invoice); err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelOrder 用户取消待支付订单
func (s *OrderService) CancelOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderCancelNotAllowed
	}

	if err := s.cancelOrder(order, time.Now()); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(orderID)
}

// CancelExpiredOrder 取消超时未支付订单（队列任务回调）
// 任务触发时订单可能已支付或已取消，此时静默跳过。
func (s *OrderService) CancelExpiredOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return order, nil
	}

	now := time.Now()
	if order.ExpiresAt != nil && order.ExpiresAt.After(now) {
		return order, nil
	}
	if err := s.cancelOrder(order, now); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(orderID)
}

// SweepExpiredOrders 兜底扫描过期未支付订单
// 队列异常丢任务时由定时任务调用。
func (s *OrderService) SweepExpiredOrders() (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(time.Now())
	if err != nil {
		return 0, err
	}
	canceled := 0
	for i := range orders {
		if _, err := s.CancelExpiredOrder(orders[i].ID); err != nil {
			logger.Errorw("order_sweep_cancel_failed",
				"order_id", orders[i].ID,
				"error", err,
			)
			continue
		}
		canceled++
	}
	return canceled, nil
}

// MarkOrderPaid 标记订单已支付
// 支付成功后推送开通与佣金结算任务。
func (s *OrderService) MarkOrderPaid(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusPaid, map[string]interface{}{
			"paid_at": now,
		}); err != nil {
			return err
		}
		invoice, err := s.invoiceRepo.WithTx(tx).GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if invoice != nil {
			invoice.Status = constants.InvoiceStatusPaid
			invoice.PaidAt = &now
			invoice.UpdatedAt = now
			if err := s.invoiceRepo.WithTx(tx).Update(invoice); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueServerProvision(queue.ServerProvisionPayload{OrderID: order.ID}); err != nil {
			logger.Errorw("order_enqueue_provision_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
		if err := s.queueClient.EnqueueReferralCommission(queue.ReferralCommissionPayload{OrderID: order.ID}); err != nil {
			logger.Errorw("order_enqueue_commission_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	return s.orderRepo.GetByID(orderID)
}

// UpdateOrderStatus 后台修改订单状态（受状态机约束）
func (s *OrderService) UpdateOrderStatus(orderID uint, targetStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	target := strings.ToLower(strings.TrimSpace(targetStatus))
	if !allowedTransitions[order.Status][target] {
		return nil, ErrOrderStatusInvalid
	}

	switch target {
	case constants.OrderStatusPaid:
		return s.MarkOrderPaid(orderID)
	case constants.OrderStatusCanceled:
		if err := s.cancelOrder(order, time.Now()); err != nil {
			return nil, err
		}
	case constants.OrderStatusProvisioning:
		if err := s.orderRepo.UpdateStatus(order.ID, target, nil); err != nil {
			return nil, err
		}
	case constants.OrderStatusCompleted:
		now := time.Now()
		if err := s.orderRepo.UpdateStatus(order.ID, target, map[string]interface{}{
			"completed_at": now,
		}); err != nil {
			return nil, err
		}
	}
	return s.orderRepo.GetByID(orderID)
}

// MarkOrderProvisioning 开通任务开始处理时调用
func (s *OrderService) MarkOrderProvisioning(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPaid {
		return ErrOrderStatusInvalid
	}
	return s.orderRepo.UpdateStatus(orderID, constants.OrderStatusProvisioning, nil)
}

// MarkOrderCompleted 开通完成后调用
func (s *OrderService) MarkOrderCompleted(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusProvisioning {
		return ErrOrderStatusInvalid
	}
	now := time.Now()
	return s.orderRepo.UpdateStatus(orderID, constants.OrderStatusCompleted, map[string]interface{}{
		"completed_at": now,
	})
}

// GetOrderByUser 用户按 ID 查询订单
func (s *OrderService) GetOrderByUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderCanceledIfExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByUserOrderNo 用户按订单号查询订单
func (s *OrderService) GetOrderByUserOrderNo(orderNo string, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(strings.TrimSpace(orderNo), userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderCanceledIfExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.ensureOrdersCanceledIfExpired(orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListRenewalOrders 查询某订单的续费子订单
func (s *OrderService) ListRenewalOrders(parentID uint) ([]models.Order, error) {
	return s.orderRepo.ListChildren(parentID)
}

// ListOrdersForAdmin 后台订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetOrderForAdmin 后台订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ensureOrderCanceledIfExpired 查询路径上的惰性超时取消
// 队列任务可能尚未触发，读到过期待支付订单时就地取消。
func (s *OrderService) ensureOrderCanceledIfExpired(order *models.Order) error {
	if order == nil || order.Status != constants.OrderStatusPendingPayment {
		return nil
	}
	now := time.Now()
	if order.ExpiresAt == nil || order.ExpiresAt.After(now) {
		return nil
	}
	if err := s.cancelOrder(order, now); err != nil {
		return err
	}
	order.Status = constants.OrderStatusCanceled
	order.CanceledAt = &now
	if order.Invoice != nil && order.Invoice.Status == constants.InvoiceStatusUnpaid {
		order.Invoice.Status = constants.InvoiceStatusCanceled
	}
	return nil
}

func (s *OrderService) ensureOrdersCanceledIfExpired(orders []models.Order) error {
	for i := range orders {
		if err := s.ensureOrderCanceledIfExpired(&orders[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) resolveExpireMinutes() int {
	defaultMinutes := s.expireMinutes
	if defaultMinutes <= 0 {
		defaultMinutes = 15
	}
	if s.settingService == nil {
		return defaultMinutes
	}
	minutes, err := s.settingService.GetOrderPaymentExpireMinutes(defaultMinutes)
	if err != nil {
		return defaultMinutes
	}
	if minutes <= 0 {
		return defaultMinutes
	}
	return minutes
}

func (s *OrderService) resolveSiteCurrency() string {
	if s == nil || s.settingService == nil {
		return constants.SiteCurrencyDefault
	}
	currency, err := s.settingService.GetSiteCurrency(constants.SiteCurrencyDefault)
	if err != nil {
		return constants.SiteCurrencyDefault
	}
	return currency
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("HC%s%s", now, randNumeric(6))
}

func generateInvoiceNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("INV%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
