package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/firesales-next/internal/models"

	"gorm.io/gorm"
)

// ClientRepository 客户数据访问接口
type ClientRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ClientRepository

	GetByID(id uint) (*models.Client, error)
	Create(client *models.Client) error
	Update(client *models.Client) error
	List(filter ClientListFilter) ([]models.Client, int64, error)
	ListEnabled() ([]models.Client, error)

	AppendVersion(version *models.ClientVersion) error
	ValidVersionAt(clientID uint, at time.Time) (*models.ClientVersion, error)
	LatestVersion(clientID uint) (*models.ClientVersion, error)
}

// GormClientRepository GORM 客户仓储
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository 创建客户仓储
func NewClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// WithTx 绑定事务
func (r *GormClientRepository) WithTx(tx *gorm.DB) ClientRepository {
	if tx == nil {
		return r
	}
	return &GormClientRepository{db: tx}
}

// Transaction 执行事务
func (r *GormClientRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取客户
func (r *GormClientRepository) GetByID(id uint) (*models.Client, error) {
	if id == 0 {
		return nil, nil
	}
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// Create 创建客户
func (r *GormClientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}

// Update 更新客户
func (r *GormClientRepository) Update(client *models.Client) error {
	return r.db.Save(client).Error
}

// List 查询客户列表
func (r *GormClientRepository) List(filter ClientListFilter) ([]models.Client, int64, error) {
	query := r.db.Model(&models.Client{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Client
	if err := query.Order("name asc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListEnabled 查询启用中的客户（CSV 导入匹配用）
func (r *GormClientRepository) ListEnabled() ([]models.Client, error) {
	var rows []models.Client
	if err := r.db.Where("status = ?", "enabled").Order("name asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendVersion 追加客户版本快照；历史版本永不修改
func (r *GormClientRepository) AppendVersion(version *models.ClientVersion) error {
	return r.db.Create(version).Error
}

// ValidVersionAt 取给定时刻生效的版本：生效时间不晚于该时刻的最新快照
func (r *GormClientRepository) ValidVersionAt(clientID uint, at time.Time) (*models.ClientVersion, error) {
	if clientID == 0 {
		return nil, nil
	}
	var version models.ClientVersion
	err := r.db.
		Preload("Deals", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc, id asc") }).
		Where("client_id = ? AND effective_at <= ?", clientID, at).
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
func (r *GormClientRepository) LatestVersion(clientID uint) (*models.ClientVersion, error) {
	return r.ValidVersionAt(clientID, time.Now())
}
