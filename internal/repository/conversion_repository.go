package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/firesales-next/internal/models"

	"gorm.io/gorm"
)

// ConversionRepository 转化数据访问接口：正式转化、待归属转化与归属码
type ConversionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ConversionRepository

	GetByKey(key string) (*models.Conversion, error)
	Create(conversion *models.Conversion) error
	CreateBulk(conversions []models.Conversion) error
	Save(conversion *models.Conversion) error
	List(filter ConversionListFilter) ([]models.Conversion, int64, error)
	ListByKeys(keys []string) ([]models.Conversion, error)
	ListByUserSince(userID uint, since time.Time) ([]models.Conversion, error)
	ListByUserWithStatus(userID uint, status string) ([]models.Conversion, error)
	CountMonthlyByLink(groupID, clientID uint, linkType, conversionType string, monthStart time.Time) (int64, error)
	CountMonthlyRetention(clientID uint, monthStart time.Time) (int64, error)

	CreateUnassignedBulk(conversions []models.UnassignedConversion) error
	ListUnassignedByCode(code string) ([]models.UnassignedConversion, error)
	ListUnassignedKeys(keys []string) ([]string, error)
	ListUnassigned(filter UnassignedListFilter) ([]models.UnassignedConversion, int64, error)
	DeleteUnassignedByCode(code string) error

	GetAssignmentCode(code string) (*models.AssignmentCode, error)
	CreateAssignmentCode(assignmentCode *models.AssignmentCode) error
	SaveAssignmentCode(assignmentCode *models.AssignmentCode) error
	ListOpenAssignmentCodesBefore(createdBefore time.Time) ([]models.AssignmentCode, error)
}

// GormConversionRepository GORM 转化仓储
type GormConversionRepository struct {
	db *gorm.DB
}

// NewConversionRepository 创建转化仓储
func NewConversionRepository(db *gorm.DB) *GormConversionRepository {
	return &GormConversionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormConversionRepository) WithTx(tx *gorm.DB) ConversionRepository {
	if tx == nil {
		return r
	}
	return &GormConversionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormConversionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByKey 按业务键获取转化
func (r *GormConversionRepository) GetByKey(key string) (*models.Conversion, error) {
	normalized := strings.TrimSpace(key)
	if normalized == "" {
		return nil, nil
	}
	var conversion models.Conversion
	if err := r.db.Where("conversion_key = ?", normalized).First(&conversion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversion, nil
}

// Create 创建转化
func (r *GormConversionRepository) Create(conversion *models.Conversion) error {
	return r.db.Create(conversion).Error
}

// CreateBulk 批量创建转化；调用方需包在事务里保证全量提交
func (r *GormConversionRepository) CreateBulk(conversions []models.Conversion) error {
	if len(conversions) == 0 {
		return nil
	}
	return r.db.Create(&conversions).Error
}

// Save 保存转化（状态切换后的新值落库）
func (r *GormConversionRepository) Save(conversion *models.Conversion) error {
	return r.db.Save(conversion).Error
}

// List 查询转化列表
func (r *GormConversionRepository) List(filter ConversionListFilter) ([]models.Conversion, int64, error) {
	query := r.db.Model(&models.Conversion{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.GroupID != 0 {
		query = query.Where("compensation_group_id = ?", filter.GroupID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if conversionType := strings.TrimSpace(filter.Type); conversionType != "" {
		query = query.Where("type = ?", conversionType)
	}
	if filter.OccurredFrom != nil {
		query = query.Where("date_occurred >= ?", *filter.OccurredFrom)
	}
	if filter.OccurredTo != nil {
		query = query.Where("date_occurred <= ?", *filter.OccurredTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Conversion
	if err := query.Order("date_occurred desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByKeys 按业务键集合查询转化
func (r *GormConversionRepository) ListByKeys(keys []string) ([]models.Conversion, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var rows []models.Conversion
	if err := r.db.Where("conversion_key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUserSince 查询代理自某时刻以来的转化
func (r *GormConversionRepository) ListByUserSince(userID uint, since time.Time) ([]models.Conversion, error) {
	if userID == 0 {
		return nil, nil
	}
	var rows []models.Conversion
	err := r.db.
		Where("user_id = ? AND date_occurred >= ?", userID, since).
		Order("date_occurred asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUserWithStatus 查询代理处于指定状态的转化
func (r *GormConversionRepository) ListByUserWithStatus(userID uint, status string) ([]models.Conversion, error) {
	if userID == 0 {
		return nil, nil
	}
	var rows []models.Conversion
	err := r.db.
		Where("user_id = ? AND status = ?", userID, status).
		Order("date_occurred asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountMonthlyByLink 统计某分成组内同客户同类型链接自月初以来的转化数（月度上限校验）
func (r *GormConversionRepository) CountMonthlyByLink(groupID, clientID uint, linkType, conversionType string, monthStart time.Time) (int64, error) {
	query := r.db.Model(&models.Conversion{}).
		Where("compensation_group_id = ?", groupID).
		Where("client_id = ?", clientID).
		Where("date_occurred >= ?", monthStart).
		Where("status <> ?", "rejected")
	if linkType != "" {
		query = query.Where("link_type = ?", linkType)
	}
	if conversionType != "" {
		query = query.Where("type = ?", conversionType)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountMonthlyRetention 统计某客户自月初以来的留存激励转化数
func (r *GormConversionRepository) CountMonthlyRetention(clientID uint, monthStart time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Conversion{}).
		Where("type = ?", "retention_incentive").
		Where("client_id = ?", clientID).
		Where("date_occurred >= ?", monthStart).
		Where("status <> ?", "rejected").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateUnassignedBulk 批量创建待归属转化
func (r *GormConversionRepository) CreateUnassignedBulk(conversions []models.UnassignedConversion) error {
	if len(conversions) == 0 {
		return nil
	}
	return r.db.Create(&conversions).Error
}

// ListUnassignedByCode 按归属码查询待归属转化
func (r *GormConversionRepository) ListUnassignedByCode(code string) ([]models.UnassignedConversion, error) {
	normalized := models.NormalizeAssignmentCode(code)
	if normalized == "" {
		return nil, nil
	}
	var rows []models.UnassignedConversion
	if err := r.db.Where("assignment_code = ?", normalized).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListUnassignedKeys 返回给定业务键中已存在于待归属集合的那些
func (r *GormConversionRepository) ListUnassignedKeys(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.db.Model(&models.UnassignedConversion{}).
		Where("conversion_key IN ?", keys).
		Pluck("conversion_key", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// ListUnassigned 查询待归属转化列表
func (r *GormConversionRepository) ListUnassigned(filter UnassignedListFilter) ([]models.UnassignedConversion, int64, error) {
	query := r.db.Model(&models.UnassignedConversion{})
	if code := models.NormalizeAssignmentCode(filter.AssignmentCode); code != "" {
		query = query.Where("assignment_code = ?", code)
	}
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.UnassignedConversion
	if err := query.Order("date_occurred desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DeleteUnassignedByCode 删除某归属码下全部待归属转化（认领后移动，绝不复制）
func (r *GormConversionRepository) DeleteUnassignedByCode(code string) error {
	normalized := models.NormalizeAssignmentCode(code)
	if normalized == "" {
		return nil
	}
	return r.db.Unscoped().
		Where("assignment_code = ?", normalized).
		Delete(&models.UnassignedConversion{}).Error
}

// GetAssignmentCode 按归属码取登记记录
func (r *GormConversionRepository) GetAssignmentCode(code string) (*models.AssignmentCode, error) {
	normalized := models.NormalizeAssignmentCode(code)
	if normalized == "" {
		return nil, nil
	}
	var row models.AssignmentCode
	if err := r.db.Where("code = ?", normalized).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CreateAssignmentCode 登记归属码
func (r *GormConversionRepository) CreateAssignmentCode(assignmentCode *models.AssignmentCode) error {
	return r.db.Create(assignmentCode).Error
}

// SaveAssignmentCode 保存归属码状态
func (r *GormConversionRepository) SaveAssignmentCode(assignmentCode *models.AssignmentCode) error {
	return r.db.Save(assignmentCode).Error
}

// ListOpenAssignmentCodesBefore 查询在指定时间之前登记且仍未使用的归属码
func (r *GormConversionRepository) ListOpenAssignmentCodesBefore(createdBefore time.Time) ([]models.AssignmentCode, error) {
	var rows []models.AssignmentCode
	err := r.db.
		Where("status = ? AND created_at < ?", "open", createdBefore).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
