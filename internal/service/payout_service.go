package service

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// PayoutService 结算服务：生成结算批次并把对应转化标记为已支付
type PayoutService struct {
	payoutRepo     repository.PayoutRepository
	conversionRepo repository.ConversionRepository
	userRepo       repository.UserRepository
}

// NewPayoutService 创建结算服务
func NewPayoutService(payoutRepo repository.PayoutRepository, conversionRepo repository.ConversionRepository, userRepo repository.UserRepository) *PayoutService {
	return &PayoutService{payoutRepo: payoutRepo, conversionRepo: conversionRepo, userRepo: userRepo}
}

// GetByID 查询结算批次
func (s *PayoutService) GetByID(id uint) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrNotFound
	}
	return payout, nil
}

// List 分页查询结算批次
func (s *PayoutService) List(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(filter)
}

// SettleUser 结算代理名下全部已审批未支付的佣金。
// 批次落库与转化状态翻转在同一事务内完成，金额为批内佣金之和，
// 收款方式与地址取结算时刻的快照。
func (s *PayoutService) SettleUser(userID uint) (*models.Payout, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	unpaid, err := s.conversionRepo.ListByUserWithStatus(userID, constants.ConversionStatusApprovedUnpaid)
	if err != nil {
		return nil, err
	}
	if len(unpaid) == 0 {
		return nil, ErrEmptyBatch
	}

	total := decimal.Zero
	keys := make(models.StringArray, 0, len(unpaid))
	currency := constants.DefaultCurrency
	for _, c := range unpaid {
		total = total.Add(c.Link.Commission.Decimal)
		keys = append(keys, c.ConversionKey)
		if c.Currency != "" {
			currency = c.Currency
		}
	}

	payout := &models.Payout{
		UserID:         userID,
		Amount:         models.NewMoneyFromDecimal(total),
		Currency:       currency,
		ConversionKeys: keys,
		DatePaid:       time.Now(),
		PaymentMethod:  user.PaymentMethod,
		PaymentAddress: user.PaymentAddress,
	}

	err = s.conversionRepo.Transaction(func(tx *gorm.DB) error {
		txConversions := s.conversionRepo.WithTx(tx)
		txPayouts := s.payoutRepo.WithTx(tx)
		if err := txPayouts.Create(payout); err != nil {
			return err
		}
		for _, c := range unpaid {
			paid := c.WithStatus(constants.ConversionStatusApprovedPaid)
			if err := txConversions.Save(&paid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("payout_settled",
		"payout_id", payout.ID, "user_id", userID, "count", len(unpaid), "amount", payout.Amount.String())
	return payout, nil
}
