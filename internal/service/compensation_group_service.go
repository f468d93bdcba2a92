package service

import (
	"strings"
	"time"

	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// CompensationGroupService 分成组业务服务：链接与留存奖励按版本快照管理
type CompensationGroupService struct {
	groupRepo repository.CompensationGroupRepository
}

// NewCompensationGroupService 创建分成组服务
func NewCompensationGroupService(groupRepo repository.CompensationGroupRepository) *CompensationGroupService {
	return &CompensationGroupService{groupRepo: groupRepo}
}

// GetByID 查询分成组
func (s *CompensationGroupService) GetByID(id uint) (*models.CompensationGroup, error) {
	group, err := s.groupRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return group, nil
}

// List 分页查询分成组
func (s *CompensationGroupService) List(page, pageSize int) ([]models.CompensationGroup, int64, error) {
	return s.groupRepo.List(page, pageSize)
}

// Create 创建分成组
func (s *CompensationGroupService) Create(name string) (*models.CompensationGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	group := &models.CompensationGroup{Name: name, Enabled: true}
	if err := s.groupRepo.Create(group); err != nil {
		return nil, err
	}
	logger.Infow("compensation_group_created", "group_id", group.ID, "name", name)
	return group, nil
}

// SetEnabled 启用或停用分成组
func (s *CompensationGroupService) SetEnabled(id uint, enabled bool) error {
	group, err := s.GetByID(id)
	if err != nil {
		return err
	}
	group.Enabled = enabled
	return s.groupRepo.Update(group)
}

// AppendVersion 追加一个链接与奖励配置的快照
func (s *CompensationGroupService) AppendVersion(groupID uint, links []models.AffiliateLink, incentives []models.RetentionIncentive, effectiveAt time.Time) (*models.CompensationGroupVersion, error) {
	if _, err := s.GetByID(groupID); err != nil {
		return nil, err
	}
	if len(links) == 0 && len(incentives) == 0 {
		return nil, ErrValidation
	}
	for i := range links {
		links[i].ID = 0
		links[i].GroupVersionID = 0
	}
	for i := range incentives {
		incentives[i].ID = 0
		incentives[i].GroupVersionID = 0
	}
	version := &models.CompensationGroupVersion{
		GroupID:     groupID,
		EffectiveAt: effectiveAt,
		Links:       links,
		Incentives:  incentives,
	}
	if err := s.groupRepo.AppendVersion(version); err != nil {
		return nil, err
	}
	logger.Infow("compensation_group_version_appended",
		"group_id", groupID, "links", len(links), "incentives", len(incentives))
	return version, nil
}

// VersionAt 点时查询分成组配置
func (s *CompensationGroupService) VersionAt(groupID uint, at time.Time) (*models.CompensationGroupVersion, error) {
	version, err := s.groupRepo.ValidVersionAt(groupID, at)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, ErrNotFound
	}
	return version, nil
}
