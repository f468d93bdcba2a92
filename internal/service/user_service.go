package service

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// UserService 代理账号管理服务（管理端使用）
type UserService struct {
	userRepo  repository.UserRepository
	groupRepo repository.CompensationGroupRepository
}

// NewUserService 创建代理管理服务
func NewUserService(userRepo repository.UserRepository, groupRepo repository.CompensationGroupRepository) *UserService {
	return &UserService{userRepo: userRepo, groupRepo: groupRepo}
}

// GetByID 查询代理
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// List 分页查询代理
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Create 创建代理账号
func (s *UserService) Create(email, password, displayName string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrValidation
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		DisplayName:  strings.TrimSpace(displayName),
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	logger.Infow("agent_created", "user_id", user.ID, "email", normalized)
	return user, nil
}

// AssignCompensationGroup 把代理划入分成组
func (s *UserService) AssignCompensationGroup(userID, groupID uint) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrNotFound
	}
	user.CompensationGroupID = &group.ID
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	logger.Infow("agent_group_assigned", "user_id", userID, "group_id", groupID)
	return nil
}

// SetStatus 启用或停用代理账号
func (s *UserService) SetStatus(userID uint, status string) error {
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return ErrValidation
	}
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	user.Status = status
	return s.userRepo.Update(user)
}

// UpdatePaymentInfo 更新代理收款信息
func (s *UserService) UpdatePaymentInfo(userID uint, method, address string) error {
	user, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	user.PaymentMethod = strings.TrimSpace(method)
	user.PaymentAddress = strings.TrimSpace(address)
	return s.userRepo.Update(user)
}
