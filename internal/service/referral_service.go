package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/logger"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/referral"
	"github.com/hostara-cloud/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralService 推荐分佣服务
type ReferralService struct {
	referralRepo   repository.ReferralRepository
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	settingService *SettingService
}

// NewReferralService 创建推荐分佣服务
func NewReferralService(referralRepo repository.ReferralRepository, orderRepo repository.OrderRepository, userRepo repository.UserRepository, settingService *SettingService) *ReferralService {
	return &ReferralService{
		referralRepo:   referralRepo,
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		settingService: settingService,
	}
}

// ReferralStats 用户推荐概览
type ReferralStats struct {
	ReferralCode   string          `json:"referral_code"`
	TotalReferrals uint            `json:"total_referrals"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	Available      decimal.Decimal `json:"available_amount"`
	LockedAmount   decimal.Decimal `json:"locked_amount"`
	Withdrawn      decimal.Decimal `json:"withdrawn_amount"`
}

// PayoutRequestInput 提现申请输入
type PayoutRequestInput struct {
	UserID  uint
	Method  string
	Details referral.PaymentDetails
}

// PayoutReviewInput 后台提现审核输入
type PayoutReviewInput struct {
	PayoutID         uint
	Action           string
	Note             string
	RejectReason     string
	PaymentReference string
}

// AccrueCommissions 为已支付订单沿推荐链逐级入账（队列任务回调）
// (user_id, order_id, level) 唯一，任务重复投递时跳过已存在记录。
func (s *ReferralService) AccrueCommissions(orderID uint) (int, error) {
	if !s.referralEnabled() {
		return 0, nil
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, ErrOrderNotFound
	}
	switch order.Status {
	case constants.OrderStatusPaid, constants.OrderStatusProvisioning, constants.OrderStatusCompleted:
	default:
		return 0, ErrOrderStatusInvalid
	}

	buyer, err := s.userRepo.GetByID(order.UserID)
	if err != nil {
		return 0, err
	}
	if buyer == nil {
		return 0, ErrNotFound
	}

	chain := referralChain(buyer)
	if len(chain) == 0 {
		return 0, nil
	}

	amount := order.TotalAmount.Decimal
	lines, err := referral.ComputeCommissions(amount, order.Months, len(chain))
	if err != nil {
		if err == referral.ErrUnsupportedCycle {
			return 0, nil
		}
		return 0, err
	}

	kind, err := referral.KindForMonths(order.Months)
	if err != nil {
		return 0, nil
	}

	confirmDays := s.resolveConfirmDays()
	now := time.Now()
	availableAt := now.AddDate(0, 0, confirmDays)

	created := 0
	for _, line := range lines {
		beneficiaryID := chain[line.Level-1]

		exist, err := s.referralRepo.GetEarningByOrderUserLevel(order.ID, beneficiaryID, line.Level)
		if err != nil {
			return created, err
		}
		if exist != nil {
			continue
		}

		beneficiary, err := s.userRepo.GetByID(beneficiaryID)
		if err != nil {
			return created, err
		}
		if beneficiary == nil || strings.ToLower(beneficiary.Status) != constants.UserStatusActive {
			continue
		}

		earning := &models.ReferralEarning{
			UserID:       beneficiaryID,
			SourceUserID: order.UserID,
			OrderID:      order.ID,
			Level:        line.Level,
			CycleKind:    kind,
			RatePercent:  models.NewMoneyFromDecimal(line.RatePercent),
			BaseAmount:   models.NewMoneyFromDecimal(amount),
			Amount:       models.NewMoneyFromDecimal(line.Amount),
			Status:       constants.ReferralEarningStatusPendingConfirm,
			AvailableAt:  &availableAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if confirmDays <= 0 {
			earning.Status = constants.ReferralEarningStatusAvailable
		}
		if err := s.referralRepo.CreateEarning(earning); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// ConfirmPendingEarnings 将过了确认期的收益转为可提现（定时任务）
func (s *ReferralService) ConfirmPendingEarnings() (int64, error) {
	now := time.Now()
	return s.referralRepo.MarkPendingEarningsAvailable(now, now)
}

// RevokeEarningsForOrder 作废某订单的未结算收益（后台操作）
func (s *ReferralService) RevokeEarningsForOrder(orderID uint, reason string) (int, error) {
	revoked := 0
	err := s.referralRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)
		earnings, err := repo.ListEarningsByOrderForUpdate(orderID, []string{
			constants.ReferralEarningStatusPendingConfirm,
			constants.ReferralEarningStatusAvailable,
		})
		if err != nil {
			return err
		}
		if len(earnings) == 0 {
			return nil
		}
		ids := make([]uint, 0, len(earnings))
		for i := range earnings {
			ids = append(ids, earnings[i].ID)
		}
		revoked = len(ids)
		return repo.BatchUpdateEarnings(ids, map[string]interface{}{
			"status":         constants.ReferralEarningStatusRejected,
			"invalid_reason": strings.TrimSpace(reason),
		})
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}

// GetStats 用户推荐概览
func (s *ReferralService) GetStats(userID uint) (*ReferralStats, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	pending, err := s.referralRepo.SumEarningsByUser(userID, []string{constants.ReferralEarningStatusPendingConfirm}, false)
	if err != nil {
		return nil, err
	}
	available, err := s.referralRepo.SumEarningsByUser(userID, []string{constants.ReferralEarningStatusAvailable}, true)
	if err != nil {
		return nil, err
	}
	locked, err := s.referralRepo.SumEarningsByUser(userID, []string{constants.ReferralEarningStatusLocked}, false)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.referralRepo.SumEarningsByUser(userID, []string{constants.ReferralEarningStatusWithdrawn}, false)
	if err != nil {
		return nil, err
	}

	return &ReferralStats{
		ReferralCode:   user.ReferralCode,
		TotalReferrals: user.TotalReferrals,
		PendingAmount:  pending,
		Available:      available,
		LockedAmount:   locked,
		Withdrawn:      withdrawn,
	}, nil
}

// ListEarningsByUser 用户收益明细
func (s *ReferralService) ListEarningsByUser(userID uint, filter repository.ReferralEarningListFilter) ([]models.ReferralEarning, int64, error) {
	filter.UserID = userID
	return s.referralRepo.ListEarnings(filter)
}

// RequestPayout 申请提现
// 锁定全部可提现收益并按毛额快照 TDS/GST 拆分，同一用户同时只允许一笔在途申请。
func (s *ReferralService) RequestPayout(input PayoutRequestInput) (*models.ReferralPayout, error) {
	method := strings.ToLower(strings.TrimSpace(input.Method))
	if err := referral.ValidateMethod(method, input.Details); err != nil {
		return nil, err
	}

	inflight, err := s.referralRepo.HasInflightPayout(input.UserID)
	if err != nil {
		return nil, err
	}
	if inflight {
		return nil, ErrPayoutInflightExists
	}

	var payout *models.ReferralPayout
	err = s.referralRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)

		earnings, err := repo.ListAvailableEarningsForUpdate(input.UserID)
		if err != nil {
			return err
		}

		gross := decimal.Zero
		ids := make([]uint, 0, len(earnings))
		for i := range earnings {
			gross = gross.Add(earnings[i].Amount.Decimal)
			ids = append(ids, earnings[i].ID)
		}
		if err := referral.ValidateAmount(gross); err != nil {
			return err
		}

		breakdown := referral.ComputeBreakdown(gross)
		now := time.Now()
		payout = &models.ReferralPayout{
			PayoutNo:      generatePayoutNo(),
			UserID:        input.UserID,
			Method:        method,
			AccountHolder: strings.TrimSpace(input.Details.AccountHolder),
			AccountNumber: strings.TrimSpace(input.Details.AccountNumber),
			IFSCCode:      strings.ToUpper(strings.TrimSpace(input.Details.IFSCCode)),
			BankName:      strings.TrimSpace(input.Details.BankName),
			UPIID:         strings.TrimSpace(input.Details.UPIID),
			PayPalEmail:   strings.TrimSpace(input.Details.PayPalEmail),
			GrossAmount:   models.NewMoneyFromDecimal(breakdown.Gross),
			TDSAmount:     models.NewMoneyFromDecimal(breakdown.TDS),
			GSTAmount:     models.NewMoneyFromDecimal(breakdown.GST),
			NetAmount:     models.NewMoneyFromDecimal(breakdown.Net),
			Status:        constants.ReferralPayoutStatusRequested,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.CreatePayout(payout); err != nil {
			return err
		}

		return repo.BatchUpdateEarnings(ids, map[string]interface{}{
			"status":    constants.ReferralEarningStatusLocked,
			"payout_id": payout.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// GetPayoutByUser 用户查询提现申请
func (s *ReferralService) GetPayoutByUser(payoutID, userID uint) (*models.ReferralPayout, error) {
	payout, err := s.referralRepo.GetPayoutByIDAndUser(payoutID, userID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// ListPayoutsByUser 用户提现申请列表
func (s *ReferralService) ListPayoutsByUser(userID uint, filter repository.ReferralPayoutListFilter) ([]models.ReferralPayout, int64, error) {
	filter.UserID = userID
	return s.referralRepo.ListPayouts(filter)
}

// ListPayoutsForAdmin 后台提现申请列表
func (s *ReferralService) ListPayoutsForAdmin(filter repository.ReferralPayoutListFilter) ([]models.ReferralPayout, int64, error) {
	return s.referralRepo.ListPayouts(filter)
}

// GetPayoutForAdmin 后台提现申请详情
func (s *ReferralService) GetPayoutForAdmin(payoutID uint) (*models.ReferralPayout, error) {
	payout, err := s.referralRepo.GetPayoutByID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// ReviewPayout 后台提现审核流转
// requested → under_review → approved/rejected，approved → paid。
// 驳回释放锁定收益回可提现，打款将锁定收益转已提现。
func (s *ReferralService) ReviewPayout(input PayoutReviewInput) (*models.ReferralPayout, error) {
	action := strings.ToLower(strings.TrimSpace(input.Action))

	var payout *models.ReferralPayout
	err := s.referralRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)

		current, err := repo.GetPayoutByIDForUpdate(input.PayoutID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrPayoutNotFound
		}

		now := time.Now()
		switch action {
		case constants.ReferralPayoutActionReview:
			if current.Status != constants.ReferralPayoutStatusRequested {
				return ErrPayoutStatusInvalid
			}
			current.Status = constants.ReferralPayoutStatusUnderReview
			current.ReviewedAt = &now
			current.ReviewNote = strings.TrimSpace(input.Note)

		case constants.ReferralPayoutActionApprove:
			if current.Status != constants.ReferralPayoutStatusRequested &&
				current.Status != constants.ReferralPayoutStatusUnderReview {
				return ErrPayoutStatusInvalid
			}
			current.Status = constants.ReferralPayoutStatusApproved
			current.DecidedAt = &now
			current.ReviewNote = strings.TrimSpace(input.Note)

		case constants.ReferralPayoutActionReject:
			if current.Status != constants.ReferralPayoutStatusRequested &&
				current.Status != constants.ReferralPayoutStatusUnderReview {
				return ErrPayoutStatusInvalid
			}
			current.Status = constants.ReferralPayoutStatusRejected
			current.DecidedAt = &now
			current.RejectReason = strings.TrimSpace(input.RejectReason)
			if err := s.releaseLockedEarnings(repo, current.ID); err != nil {
				return err
			}

		case constants.ReferralPayoutActionPay:
			if current.Status != constants.ReferralPayoutStatusApproved {
				return ErrPayoutStatusInvalid
			}
			current.Status = constants.ReferralPayoutStatusPaid
			current.PaidAt = &now
			current.PaymentReference = strings.TrimSpace(input.PaymentReference)
			if err := s.settleLockedEarnings(repo, current.ID); err != nil {
				return err
			}

		default:
			return ErrPayoutStatusInvalid
		}

		current.UpdatedAt = now
		if err := repo.UpdatePayout(current); err != nil {
			return err
		}
		payout = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *ReferralService) releaseLockedEarnings(repo repository.ReferralRepository, payoutID uint) error {
	earnings, err := repo.ListEarningsByPayoutIDForUpdate(payoutID)
	if err != nil {
		return err
	}
	if len(earnings) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(earnings))
	for i := range earnings {
		ids = append(ids, earnings[i].ID)
	}
	return repo.BatchUpdateEarnings(ids, map[string]interface{}{
		"status":    constants.ReferralEarningStatusAvailable,
		"payout_id": nil,
	})
}

func (s *ReferralService) settleLockedEarnings(repo repository.ReferralRepository, payoutID uint) error {
	earnings, err := repo.ListEarningsByPayoutIDForUpdate(payoutID)
	if err != nil {
		return err
	}
	if len(earnings) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(earnings))
	for i := range earnings {
		ids = append(ids, earnings[i].ID)
	}
	return repo.BatchUpdateEarnings(ids, map[string]interface{}{
		"status": constants.ReferralEarningStatusWithdrawn,
	})
}

func (s *ReferralService) referralEnabled() bool {
	if s.settingService == nil {
		return true
	}
	value, err := s.settingService.GetByKey(constants.SettingKeyReferralConfig)
	if err != nil {
		logger.Warnw("referral_setting_read_failed", "error", err)
		return true
	}
	if value == nil {
		return true
	}
	raw, ok := value["enabled"]
	if !ok {
		return true
	}
	return parseSettingBool(raw)
}

func (s *ReferralService) resolveConfirmDays() int {
	defaultDays := 7
	if s.settingService == nil {
		return defaultDays
	}
	value, err := s.settingService.GetByKey(constants.SettingKeyReferralConfig)
	if err != nil || value == nil {
		return defaultDays
	}
	days := readInt(value, "confirm_days", defaultDays)
	if days < 0 {
		return defaultDays
	}
	return days
}

// referralChain 按层级展开用户的推荐链（最多三级）
func referralChain(user *models.User) []uint {
	chain := make([]uint, 0, referral.MaxLevels)
	for _, ref := range []*uint{user.ReferredByL1, user.ReferredByL2, user.ReferredByL3} {
		if ref == nil || *ref == 0 {
			break
		}
		chain = append(chain, *ref)
	}
	return chain
}

func generatePayoutNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("PO%s%s", now, randNumeric(6))
}
