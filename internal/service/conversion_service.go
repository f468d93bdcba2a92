package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// legalStatusTransitions 转化状态机的合法边
var legalStatusTransitions = map[string][]string{
	constants.ConversionStatusPending:        {constants.ConversionStatusApprovedUnpaid, constants.ConversionStatusRejected},
	constants.ConversionStatusApprovedUnpaid: {constants.ConversionStatusApprovedPaid},
	constants.ConversionStatusApprovedPaid:   {constants.ConversionStatusApprovedUnpaid},
	constants.ConversionStatusRejected:       {constants.ConversionStatusPending},
}

// ConversionService 转化记录业务服务：录入、状态流转、认领
type ConversionService struct {
	conversionRepo repository.ConversionRepository
	groupRepo      repository.CompensationGroupRepository
	capService     *CapEnforcementService
}

// NewConversionService 创建转化记录服务
func NewConversionService(conversionRepo repository.ConversionRepository, groupRepo repository.CompensationGroupRepository, capService *CapEnforcementService) *ConversionService {
	return &ConversionService{conversionRepo: conversionRepo, groupRepo: groupRepo, capService: capService}
}

// GetByKey 按业务键查询转化
func (s *ConversionService) GetByKey(key string) (*models.Conversion, error) {
	conversion, err := s.conversionRepo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if conversion == nil {
		return nil, ErrNotFound
	}
	return conversion, nil
}

// List 分页查询转化
func (s *ConversionService) List(filter repository.ConversionListFilter) ([]models.Conversion, int64, error) {
	return s.conversionRepo.List(filter)
}

// Create 录入单条转化；业务键重复即拒绝，月度上限按单条批次校验
func (s *ConversionService) Create(input models.NewConversionInput) (*models.Conversion, error) {
	conversion, err := models.NewConversion(input)
	if err != nil {
		return nil, err
	}

	var created *models.Conversion
	err = s.conversionRepo.Transaction(func(tx *gorm.DB) error {
		txRepo := s.conversionRepo.WithTx(tx)
		existing, err := txRepo.GetByKey(conversion.ConversionKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateConversion
		}
		if err := s.capService.ValidateMonthlyCaps(txRepo, conversion.CompensationGroupID, []models.Conversion{*conversion}, time.Now()); err != nil {
			return err
		}
		if err := txRepo.Create(conversion); err != nil {
			return err
		}
		created = conversion
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("conversion_created", "key", created.ConversionKey, "type", created.Type)
	return created, nil
}

// BulkSubmit 代理批量提交转化：整批通过上限校验后一次性写入，任一失败整批回滚
func (s *ConversionService) BulkSubmit(userID, groupID uint, inputs []models.NewConversionInput) ([]models.Conversion, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	batch := make([]models.Conversion, 0, len(inputs))
	for _, input := range inputs {
		input.UserID = &userID
		input.AssignmentCode = ""
		input.CompensationGroupID = groupID
		conversion, err := models.NewConversion(input)
		if err != nil {
			return nil, err
		}
		batch = append(batch, *conversion)
	}

	err := s.conversionRepo.Transaction(func(tx *gorm.DB) error {
		txRepo := s.conversionRepo.WithTx(tx)
		for _, c := range batch {
			existing, err := txRepo.GetByKey(c.ConversionKey)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: %s", ErrDuplicateConversion, c.ConversionKey)
			}
		}
		if err := s.capService.ValidateMonthlyCaps(txRepo, groupID, batch, time.Now()); err != nil {
			return err
		}
		return txRepo.CreateBulk(batch)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("conversion_bulk_submitted", "user_id", userID, "count", len(batch))
	return batch, nil
}

// ChangeStatus 按状态机流转转化状态，非法边返回 ErrIllegalStatusChange
func (s *ConversionService) ChangeStatus(key, target string) (*models.Conversion, error) {
	conversion, err := s.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if !statusTransitionAllowed(conversion.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalStatusChange, conversion.Status, target)
	}
	updated := conversion.WithStatus(target)
	if err := s.conversionRepo.Save(&updated); err != nil {
		return nil, err
	}
	logger.Infow("conversion_status_changed", "key", key, "from", conversion.Status, "to", target)
	return &updated, nil
}

// AddMessage 追加备注
func (s *ConversionService) AddMessage(key, message string) (*models.Conversion, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrValidation
	}
	conversion, err := s.GetByKey(key)
	if err != nil {
		return nil, err
	}
	updated := conversion.WithMessage(strings.TrimSpace(message))
	if err := s.conversionRepo.Save(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddAttachmentURLs 追加附件链接
func (s *ConversionService) AddAttachmentURLs(key string, urls ...string) (*models.Conversion, error) {
	if len(urls) == 0 {
		return nil, ErrValidation
	}
	conversion, err := s.GetByKey(key)
	if err != nil {
		return nil, err
	}
	updated := conversion.WithAttachmentURLs(urls...)
	if err := s.conversionRepo.Save(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListUnassigned 分页查询待认领转化
func (s *ConversionService) ListUnassigned(filter repository.UnassignedListFilter) ([]models.UnassignedConversion, int64, error) {
	return s.conversionRepo.ListUnassigned(filter)
}

// IssueAssignmentCode 为分成组签发新的归属码
func (s *ConversionService) IssueAssignmentCode(groupID uint) (*models.AssignmentCode, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNotFound
	}
	code := &models.AssignmentCode{
		Code:                models.NormalizeAssignmentCode(uuid.NewString()[:8]),
		CompensationGroupID: groupID,
		Status:              constants.AssignmentCodeStatusOpen,
	}
	if err := s.conversionRepo.CreateAssignmentCode(code); err != nil {
		return nil, err
	}
	logger.Infow("assignment_code_issued", "code", code.Code, "group_id", groupID)
	return code, nil
}

// IsAssignmentCodeValid 判断归属码是否存在且未被使用或过期
func (s *ConversionService) IsAssignmentCodeValid(code string) (bool, error) {
	record, err := s.conversionRepo.GetAssignmentCode(models.NormalizeAssignmentCode(code))
	if err != nil {
		return false, err
	}
	return record != nil && record.Status == constants.AssignmentCodeStatusOpen, nil
}

// Claim 认领：把同一归属码下的全部待认领转化迁移为该代理名下的正式转化。
// 迁移、删除与标记码已用在同一事务内完成，同一事实不会同时存在于两个集合；
// 码按批次粒度一次性使用，二次认领直接拒绝。
func (s *ConversionService) Claim(code string, userID uint) ([]models.Conversion, error) {
	normalized := models.NormalizeAssignmentCode(code)
	var claimed []models.Conversion
	err := s.conversionRepo.Transaction(func(tx *gorm.DB) error {
		txRepo := s.conversionRepo.WithTx(tx)

		record, err := txRepo.GetAssignmentCode(normalized)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrAssignmentCodeNotFound
		}
		if record.Status != constants.AssignmentCodeStatusOpen {
			return ErrAssignmentCodeUsed
		}

		unassigned, err := txRepo.ListUnassignedByCode(normalized)
		if err != nil {
			return err
		}
		if len(unassigned) == 0 {
			return ErrEmptyBatch
		}

		batch := make([]models.Conversion, 0, len(unassigned))
		for _, u := range unassigned {
			conversion := u.ToConversion(userID)
			conversion.CompensationGroupID = record.CompensationGroupID
			batch = append(batch, conversion)
		}
		if err := s.capService.ValidateMonthlyCaps(txRepo, record.CompensationGroupID, batch, time.Now()); err != nil {
			return err
		}
		if err := txRepo.CreateBulk(batch); err != nil {
			return err
		}
		if err := txRepo.DeleteUnassignedByCode(normalized); err != nil {
			return err
		}

		now := time.Now()
		record.Status = constants.AssignmentCodeStatusUsed
		record.UsedByUserID = &userID
		record.UsedAt = &now
		if err := txRepo.SaveAssignmentCode(record); err != nil {
			return err
		}
		claimed = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("assignment_code_claimed", "code", normalized, "user_id", userID, "count", len(claimed))
	return claimed, nil
}

// ExpireAssignmentCodes 把指定时间之前签发且仍未使用的归属码标记为过期，返回处理数量
func (s *ConversionService) ExpireAssignmentCodes(createdBefore time.Time) (int, error) {
	codes, err := s.conversionRepo.ListOpenAssignmentCodesBefore(createdBefore)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range codes {
		codes[i].Status = constants.AssignmentCodeStatusExpired
		if err := s.conversionRepo.SaveAssignmentCode(&codes[i]); err != nil {
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		logger.Infow("assignment_codes_expired", "count", expired)
	}
	return expired, nil
}

func statusTransitionAllowed(from, to string) bool {
	for _, allowed := range legalStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
