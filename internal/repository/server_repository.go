package repository

import (
	"errors"
	"time"

	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"

	"gorm.io/gorm"
)

// ServerRepository 服务器实例数据访问接口
type ServerRepository interface {
	GetByID(id uint) (*models.Server, error)
	GetByIDWithPlan(id uint) (*models.Server, error)
	Create(server *models.Server) error
	Update(server *models.Server) error
	UpdateStatus(id uint, status string) error
	List(filter ServerListFilter) ([]models.Server, int64, error)
	ListExpiringBetween(from, to time.Time) ([]models.Server, error)
	ListExpiredActive(now time.Time) ([]models.Server, error)
	CountByStatus(status string) (int64, error)
}

// GormServerRepository GORM 实现
type GormServerRepository struct {
	db *gorm.DB
}

// NewServerRepository 创建服务器仓库
func NewServerRepository(db *gorm.DB) *GormServerRepository {
	return &GormServerRepository{db: db}
}

// GetByID 根据 ID 获取实例
func (r *GormServerRepository) GetByID(id uint) (*models.Server, error) {
	var server models.Server
	if err := r.db.First(&server, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &server, nil
}

// GetByIDWithPlan 根据 ID 获取实例（带套餐信息）
func (r *GormServerRepository) GetByIDWithPlan(id uint) (*models.Server, error) {
	var server models.Server
	if err := r.db.Preload("Plan").First(&server, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &server, nil
}

// Create 创建实例
func (r *GormServerRepository) Create(server *models.Server) error {
	return r.db.Create(server).Error
}

// Update 更新实例
func (r *GormServerRepository) Update(server *models.Server) error {
	return r.db.Save(server).Error
}

// UpdateStatus 更新实例状态
func (r *GormServerRepository) UpdateStatus(id uint, status string) error {
	if id == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == constants.ServerStatusSuspended {
		updates["suspended_at"] = time.Now()
	}
	return r.db.Model(&models.Server{}).Where("id = ?", id).Updates(updates).Error
}

// List 实例列表
func (r *GormServerRepository) List(filter ServerListFilter) ([]models.Server, int64, error) {
	query := r.db.Model(&models.Server{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.PlanID != 0 {
		query = query.Where("plan_id = ?", filter.PlanID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR hostname LIKE ? OR ip_address LIKE ?", like, like, like)
	}
	if filter.ExpiresFrom != nil {
		query = query.Where("expires_at >= ?", *filter.ExpiresFrom)
	}
	if filter.ExpiresTo != nil {
		query = query.Where("expires_at <= ?", *filter.ExpiresTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var servers []models.Server
	if err := query.Preload("Plan").Order("id DESC").Find(&servers).Error; err != nil {
		return nil, 0, err
	}
	return servers, total, nil
}

// ListExpiringBetween 查询指定时间窗内到期的活跃实例（续费提醒用）
func (r *GormServerRepository) ListExpiringBetween(from, to time.Time) ([]models.Server, error) {
	var servers []models.Server
	if err := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at >= ? AND expires_at < ?",
		constants.ServerStatusActive, from, to).
		Find(&servers).Error; err != nil {
		return nil, err
	}
	return servers, nil
}

// ListExpiredActive 查询已过期但仍处于活跃状态的实例（停机扫描用）
func (r *GormServerRepository) ListExpiredActive(now time.Time) ([]models.Server, error) {
	var servers []models.Server
	if err := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?",
		constants.ServerStatusActive, now).
		Find(&servers).Error; err != nil {
		return nil, err
	}
	return servers, nil
}

// CountByStatus 按状态统计实例数
func (r *GormServerRepository) CountByStatus(status string) (int64, error) {
	var total int64
	query := r.db.Model(&models.Server{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
