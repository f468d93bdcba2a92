package repository

import (
	"errors"
	"time"

	"github.com/firesales-next/internal/models"

	"gorm.io/gorm"
)

// CompensationGroupRepository 分成组数据访问接口
type CompensationGroupRepository interface {
	GetByID(id uint) (*models.CompensationGroup, error)
	Create(group *models.CompensationGroup) error
	Update(group *models.CompensationGroup) error
	List(page, pageSize int) ([]models.CompensationGroup, int64, error)

	AppendVersion(version *models.CompensationGroupVersion) error
	ValidVersionAt(groupID uint, at time.Time) (*models.CompensationGroupVersion, error)
	LatestVersion(groupID uint) (*models.CompensationGroupVersion, error)
}

// GormCompensationGroupRepository GORM 分成组仓储
type GormCompensationGroupRepository struct {
	db *gorm.DB
}

// NewCompensationGroupRepository 创建分成组仓储
func NewCompensationGroupRepository(db *gorm.DB) *GormCompensationGroupRepository {
	return &GormCompensationGroupRepository{db: db}
}

// GetByID 按ID获取分成组
func (r *GormCompensationGroupRepository) GetByID(id uint) (*models.CompensationGroup, error) {
	if id == 0 {
		return nil, nil
	}
	var group models.CompensationGroup
	if err := r.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// Create 创建分成组
func (r *GormCompensationGroupRepository) Create(group *models.CompensationGroup) error {
	return r.db.Create(group).Error
}

// Update 更新分成组
func (r *GormCompensationGroupRepository) Update(group *models.CompensationGroup) error {
	return r.db.Save(group).Error
}

// List 查询分成组列表
func (r *GormCompensationGroupRepository) List(page, pageSize int) ([]models.CompensationGroup, int64, error) {
	query := r.db.Model(&models.CompensationGroup{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var rows []models.CompensationGroup
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AppendVersion 追加分成组版本快照；历史版本永不修改
func (r *GormCompensationGroupRepository) AppendVersion(version *models.CompensationGroupVersion) error {
	return r.db.Create(version).Error
}

// ValidVersionAt 取给定时刻生效的版本快照
func (r *GormCompensationGroupRepository) ValidVersionAt(groupID uint, at time.Time) (*models.CompensationGroupVersion, error) {
	if groupID == 0 {
		return nil, nil
	}
	var version models.CompensationGroupVersion
	err := r.db.
		Preload("Links").
		Preload("Incentives").
		Where("group_id = ? AND effective_at <= ?", groupID, at).
		Order("effective_at desc").
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

// LatestVersion 取最新版本快照
func (r *GormCompensationGroupRepository) LatestVersion(groupID uint) (*models.CompensationGroupVersion, error) {
	return r.ValidVersionAt(groupID, time.Now())
}
