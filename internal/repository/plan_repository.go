package repository

import (
	"errors"
	"strings"

	"github.com/hostara-cloud/internal/models"

	"gorm.io/gorm"
)

// PlanRepository 套餐数据访问接口
type PlanRepository interface {
	GetByID(id uint) (*models.HostingPlan, error)
	GetBySpec(family string, ramGB int) (*models.HostingPlan, error)
	Create(plan *models.HostingPlan) error
	Update(plan *models.HostingPlan) error
	Delete(id uint) error
	List(filter PlanListFilter) ([]models.HostingPlan, int64, error)
	ListActive() ([]models.HostingPlan, error)
}

// GormPlanRepository GORM 实现
type GormPlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository 创建套餐仓库
func NewPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// GetByID 根据 ID 获取套餐
func (r *GormPlanRepository) GetByID(id uint) (*models.HostingPlan, error) {
	var plan models.HostingPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// GetBySpec 按套餐族与内存规格获取套餐
func (r *GormPlanRepository) GetBySpec(family string, ramGB int) (*models.HostingPlan, error) {
	var plan models.HostingPlan
	if err := r.db.Where("family = ? AND ram_gb = ?", strings.TrimSpace(family), ramGB).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// Create 创建套餐
func (r *GormPlanRepository) Create(plan *models.HostingPlan) error {
	return r.db.Create(plan).Error
}

// Update 更新套餐
func (r *GormPlanRepository) Update(plan *models.HostingPlan) error {
	return r.db.Save(plan).Error
}

// Delete 删除套餐（软删除）
func (r *GormPlanRepository) Delete(id uint) error {
	return r.db.Delete(&models.HostingPlan{}, id).Error
}

// List 套餐列表
func (r *GormPlanRepository) List(filter PlanListFilter) ([]models.HostingPlan, int64, error) {
	query := r.db.Model(&models.HostingPlan{})

	if filter.Family != "" {
		query = query.Where("family = ?", filter.Family)
	}
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var plans []models.HostingPlan
	if err := query.Order("sort_order ASC, id ASC").Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// ListActive 上架套餐列表（目录展示用）
func (r *GormPlanRepository) ListActive() ([]models.HostingPlan, error) {
	var plans []models.HostingPlan
	if err := r.db.Where("is_active = ?", true).
		Order("family ASC, ram_gb ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
