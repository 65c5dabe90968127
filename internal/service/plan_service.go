package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/pricing"
	"github.com/hostara-cloud/internal/repository"

	"github.com/shopspring/decimal"
)

// PlanService 主机套餐服务
type PlanService struct {
	planRepo repository.PlanRepository
}

// NewPlanService 创建套餐服务
func NewPlanService(planRepo repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// PlanUpsertInput 套餐创建/更新输入
type PlanUpsertInput struct {
	Family     string
	Name       string
	RAMGB      int
	Features   *string
	IsActive   *bool
	IsFeatured *bool
	SortOrder  *int
}

// ListActivePlans 获取上架套餐目录
func (s *PlanService) ListActivePlans() ([]models.HostingPlan, error) {
	return s.planRepo.ListActive()
}

// ListPlansForAdmin 后台套餐列表
func (s *PlanService) ListPlansForAdmin(filter repository.PlanListFilter) ([]models.HostingPlan, int64, error) {
	return s.planRepo.List(filter)
}

// GetPlanByID 获取套餐
func (s *PlanService) GetPlanByID(id uint) (*models.HostingPlan, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	return s.planRepo.GetByID(id)
}

// CreatePlan 创建套餐
// 规格必须命中定价档位表，月付基准价取自档位表而非外部输入。
func (s *PlanService) CreatePlan(input PlanUpsertInput) (*models.HostingPlan, error) {
	family := strings.ToLower(strings.TrimSpace(input.Family))
	tier, ok := pricing.LookupTier(family, input.RAMGB)
	if !ok {
		return nil, pricing.ErrInvalidSelection
	}

	exist, err := s.planRepo.GetBySpec(family, input.RAMGB)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrPlanExists
	}

	now := time.Now()
	plan := &models.HostingPlan{
		Family:       family,
		Name:         strings.TrimSpace(input.Name),
		RAMGB:        tier.RAMGB,
		VCPU:         tier.VCPU,
		StorageGB:    tier.StorageGB,
		MonthlyPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(tier.BasePriceINR)),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if plan.Name == "" {
		plan.Name = defaultPlanName(family, tier.RAMGB)
	}
	if input.Features != nil {
		plan.Features = strings.TrimSpace(*input.Features)
	}
	if input.IsActive != nil {
		plan.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		plan.IsFeatured = *input.IsFeatured
	}
	if input.SortOrder != nil {
		plan.SortOrder = *input.SortOrder
	}

	if err := s.planRepo.Create(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlan 更新套餐展示属性
// 规格与价格由定价档位表决定，不允许后台直接改价。
func (s *PlanService) UpdatePlan(id uint, input PlanUpsertInput) (*models.HostingPlan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		plan.Name = name
	}
	if input.Features != nil {
		plan.Features = strings.TrimSpace(*input.Features)
	}
	if input.IsActive != nil {
		plan.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		plan.IsFeatured = *input.IsFeatured
	}
	if input.SortOrder != nil {
		plan.SortOrder = *input.SortOrder
	}
	plan.UpdatedAt = time.Now()

	if err := s.planRepo.Update(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan 下架并删除套餐
func (s *PlanService) DeletePlan(id uint) error {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrNotFound
	}
	return s.planRepo.Delete(id)
}

// SyncPlansFromTiers 按定价档位表补齐套餐目录
// 已存在的规格保持不动，仅创建缺失档位，供种子命令调用。
func (s *PlanService) SyncPlansFromTiers() (int, error) {
	created := 0
	for _, family := range pricing.Families() {
		for _, tier := range pricing.FamilyTiers(family) {
			exist, err := s.planRepo.GetBySpec(family, tier.RAMGB)
			if err != nil {
				return created, err
			}
			if exist != nil {
				continue
			}
			now := time.Now()
			plan := &models.HostingPlan{
				Family:       family,
				Name:         defaultPlanName(family, tier.RAMGB),
				RAMGB:        tier.RAMGB,
				VCPU:         tier.VCPU,
				StorageGB:    tier.StorageGB,
				MonthlyPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(tier.BasePriceINR)),
				IsActive:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.planRepo.Create(plan); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func defaultPlanName(family string, ramGB int) string {
	label := strings.ReplaceAll(family, "_", " ")
	words := strings.Fields(label)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ") + " " + strconv.Itoa(ramGB) + "GB"
}
