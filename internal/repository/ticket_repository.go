package repository

import (
	"errors"
	"time"

	"github.com/hostara-cloud/internal/models"

	"gorm.io/gorm"
)

// TicketRepository 工单数据访问接口
type TicketRepository interface {
	Create(ticket *models.Ticket) error
	Update(ticket *models.Ticket) error
	GetByID(id uint) (*models.Ticket, error)
	GetByIDAndUser(id uint, userID uint) (*models.Ticket, error)
	GetByIDWithMessages(id uint) (*models.Ticket, error)
	List(filter TicketListFilter) ([]models.Ticket, int64, error)
	AppendMessage(message *models.TicketMessage) error
	UpdateStatus(id uint, status string, lastReplyAt *time.Time) error
	CountByStatus(status string) (int64, error)
}

// GormTicketRepository GORM 实现
type GormTicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository 创建工单仓库
func NewTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// Create 创建工单
func (r *GormTicketRepository) Create(ticket *models.Ticket) error {
	return r.db.Create(ticket).Error
}

// Update 更新工单
func (r *GormTicketRepository) Update(ticket *models.Ticket) error {
	return r.db.Save(ticket).Error
}

// GetByID 根据 ID 获取工单
func (r *GormTicketRepository) GetByID(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// GetByIDAndUser 获取用户工单
func (r *GormTicketRepository) GetByIDAndUser(id uint, userID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("id = ? AND user_id = ?", id, userID).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// GetByIDWithMessages 获取工单及会话记录
func (r *GormTicketRepository) GetByIDWithMessages(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// List 工单列表
func (r *GormTicketRepository) List(filter TicketListFilter) ([]models.Ticket, int64, error) {
	query := r.db.Model(&models.Ticket{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ServerID != 0 {
		query = query.Where("server_id = ?", filter.ServerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("ticket_no LIKE ? OR subject LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var tickets []models.Ticket
	if err := query.Order("updated_at DESC").Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// AppendMessage 追加工单回复
func (r *GormTicketRepository) AppendMessage(message *models.TicketMessage) error {
	return r.db.Create(message).Error
}

// UpdateStatus 更新工单状态
func (r *GormTicketRepository) UpdateStatus(id uint, status string, lastReplyAt *time.Time) error {
	if id == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if lastReplyAt != nil {
		updates["last_reply_at"] = *lastReplyAt
	}
	return r.db.Model(&models.Ticket{}).Where("id = ?", id).Updates(updates).Error
}

// CountByStatus 按状态统计工单数
func (r *GormTicketRepository) CountByStatus(status string) (int64, error) {
	var total int64
	query := r.db.Model(&models.Ticket{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
