package repository

import (
	"errors"

	"github.com/firesales-next/internal/models"

	"gorm.io/gorm"
)

// PayoutRepository 结算批次数据访问接口
type PayoutRepository interface {
	WithTx(tx *gorm.DB) PayoutRepository

	GetByID(id uint) (*models.Payout, error)
	Create(payout *models.Payout) error
	List(filter PayoutListFilter) ([]models.Payout, int64, error)
}

// GormPayoutRepository GORM 结算仓储
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建结算仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// GetByID 按ID获取结算批次
func (r *GormPayoutRepository) GetByID(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.Preload("User").First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// Create 创建结算批次
func (r *GormPayoutRepository) Create(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

// List 查询结算批次列表
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.PaidFrom != nil {
		query = query.Where("date_paid >= ?", *filter.PaidFrom)
	}
	if filter.PaidTo != nil {
		query = query.Where("date_paid <= ?", *filter.PaidTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Payout
	if err := query.Order("date_paid desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
