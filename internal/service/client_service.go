package service

import (
	"strings"
	"time"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// ClientService 客户（体育博彩平台）业务服务，条款变更一律追加新快照
type ClientService struct {
	clientRepo repository.ClientRepository
}

// NewClientService 创建客户服务
func NewClientService(clientRepo repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// GetByID 查询客户
func (s *ClientService) GetByID(id uint) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrNotFound
	}
	return client, nil
}

// List 分页查询客户
func (s *ClientService) List(filter repository.ClientListFilter) ([]models.Client, int64, error) {
	return s.clientRepo.List(filter)
}

// Create 创建客户并写入首个条款快照
func (s *ClientService) Create(name string, deals []models.AffiliateDeal) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	client := &models.Client{Name: name, Status: constants.ClientStatusEnabled}
	if err := s.clientRepo.Create(client); err != nil {
		return nil, err
	}
	if len(deals) > 0 {
		if _, err := s.AppendVersion(client.ID, deals, time.Now()); err != nil {
			return nil, err
		}
	}
	logger.Infow("client_created", "client_id", client.ID, "name", name)
	return client, nil
}

// SetStatus 启用或停用客户
func (s *ClientService) SetStatus(id uint, status string) error {
	if status != constants.ClientStatusEnabled && status != constants.ClientStatusDisabled {
		return ErrValidation
	}
	client, err := s.GetByID(id)
	if err != nil {
		return err
	}
	client.Status = status
	return s.clientRepo.Update(client)
}

// AppendVersion 追加一个条款快照，历史快照永不改写
func (s *ClientService) AppendVersion(clientID uint, deals []models.AffiliateDeal, effectiveAt time.Time) (*models.ClientVersion, error) {
	if _, err := s.GetByID(clientID); err != nil {
		return nil, err
	}
	if len(deals) == 0 {
		return nil, ErrValidation
	}
	for i := range deals {
		deals[i].ID = 0
		deals[i].ClientVersionID = 0
		deals[i].SortOrder = i
	}
	version := &models.ClientVersion{
		ClientID:    clientID,
		EffectiveAt: effectiveAt,
		Deals:       deals,
	}
	if err := s.clientRepo.AppendVersion(version); err != nil {
		return nil, err
	}
	logger.Infow("client_version_appended", "client_id", clientID, "deals", len(deals))
	return version, nil
}

// VersionAt 点时查询：取不晚于给定时间的最近快照，供历史报表使用
func (s *ClientService) VersionAt(clientID uint, at time.Time) (*models.ClientVersion, error) {
	version, err := s.clientRepo.ValidVersionAt(clientID, at)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, ErrNotFound
	}
	return version, nil
}
