package service

import (
	"fmt"
	"time"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// CapEnforcementService 月度上限校验：整批先验后提交，不允许部分写入
type CapEnforcementService struct {
	groupRepo      repository.CompensationGroupRepository
	conversionRepo repository.ConversionRepository
}

// NewCapEnforcementService 创建月度上限校验服务
func NewCapEnforcementService(groupRepo repository.CompensationGroupRepository, conversionRepo repository.ConversionRepository) *CapEnforcementService {
	return &CapEnforcementService{groupRepo: groupRepo, conversionRepo: conversionRepo}
}

// ValidateMonthlyCaps 对整批候选转化做两项独立的月度校验：
// 推广链接上限（带 monthlyLimit 的链接，当月已有 + 本批不得超限）、
// 留存奖励上限（同客户当月 retention_incentive 类型总数不得超限）。
// 任何一项超限即整批拒绝。conversionRepo 需传入事务内实例，
// 使校验与写入共享同一事务边界。
func (s *CapEnforcementService) ValidateMonthlyCaps(conversionRepo repository.ConversionRepository, groupID uint, batch []models.Conversion, now time.Time) error {
	if len(batch) == 0 {
		return nil
	}
	version, err := s.groupRepo.ValidVersionAt(groupID, now)
	if err != nil {
		return err
	}
	if version == nil {
		return nil
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	for _, link := range version.Links {
		if link.MonthlyLimit == nil || !link.Enabled {
			continue
		}
		pending := int64(0)
		for _, c := range batch {
			if c.ClientID == link.ClientID && c.LinkType == link.LinkType {
				pending++
			}
		}
		if pending == 0 {
			continue
		}
		existing, err := conversionRepo.CountMonthlyByLink(groupID, link.ClientID, link.LinkType, "", monthStart)
		if err != nil {
			return err
		}
		if existing+pending > int64(*link.MonthlyLimit) {
			return fmt.Errorf("%w: affiliate link client=%d type=%q limit=%d existing=%d batch=%d",
				ErrCapExceeded, link.ClientID, link.LinkType, *link.MonthlyLimit, existing, pending)
		}
	}

	for _, incentive := range version.Incentives {
		pending := int64(0)
		for _, c := range batch {
			if c.Type == constants.ConversionTypeRetentionIncentive && c.ClientID == incentive.ClientID {
				pending++
			}
		}
		if pending == 0 {
			continue
		}
		existing, err := conversionRepo.CountMonthlyRetention(incentive.ClientID, monthStart)
		if err != nil {
			return err
		}
		if existing+pending > int64(incentive.MonthlyLimit) {
			return fmt.Errorf("%w: retention incentive client=%d limit=%d existing=%d batch=%d",
				ErrCapExceeded, incentive.ClientID, incentive.MonthlyLimit, existing, pending)
		}
	}
	return nil
}
