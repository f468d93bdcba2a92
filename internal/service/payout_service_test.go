package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPayoutServiceTest(t *testing.T) (*PayoutService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payout_svc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversion{}, &models.Payout{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	payoutRepo := repository.NewPayoutRepository(db)
	conversionRepo := repository.NewConversionRepository(db)
	userRepo := repository.NewUserRepository(db)
	return NewPayoutService(payoutRepo, conversionRepo, userRepo), db
}

func createPayoutTestConversion(t *testing.T, db *gorm.DB, userID uint, customer, status string, commission int64) {
	t.Helper()
	input := models.NewConversionInput{
		Type:         constants.ConversionTypeFreeBet,
		DateOccurred: time.Now().Truncate(24 * time.Hour),
		UserID:       &userID,
		Link: models.AffiliateLinkSnapshot{
			ClientID:   1,
			ClientName: "Bet99",
			Commission: models.NewMoneyFromDecimal(decimal.NewFromInt(commission)),
			CPA:        models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
			Currency:   "CAD",
		},
		Customer: customer,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Currency: "CAD",
	}
	conversion, err := models.NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}
	withStatus := conversion.WithStatus(status)
	if err := db.Create(&withStatus).Error; err != nil {
		t.Fatalf("create conversion failed: %v", err)
	}
}

func TestSettleUserCreatesPayoutAndFlipsStatus(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)
	user := models.User{
		Email:          "agent@example.com",
		PasswordHash:   "x",
		Status:         constants.UserStatusActive,
		PaymentMethod:  "interac",
		PaymentAddress: "agent@example.com",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	createPayoutTestConversion(t, db, user.ID, "Player One", constants.ConversionStatusApprovedUnpaid, 50)
	createPayoutTestConversion(t, db, user.ID, "Player Two", constants.ConversionStatusApprovedUnpaid, 40)
	// pending 的佣金不参与结算
	createPayoutTestConversion(t, db, user.ID, "Player Three", constants.ConversionStatusPending, 999)

	payout, err := svc.SettleUser(user.ID)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !payout.Amount.Decimal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("payout amount want 90 got %s", payout.Amount.Decimal)
	}
	if len(payout.ConversionKeys) != 2 {
		t.Fatalf("conversion keys want 2 got %d", len(payout.ConversionKeys))
	}
	if payout.PaymentMethod != "interac" || payout.PaymentAddress != "agent@example.com" {
		t.Fatalf("payout must snapshot payment info, got %q %q", payout.PaymentMethod, payout.PaymentAddress)
	}

	var paid int64
	if err := db.Model(&models.Conversion{}).
		Where("user_id = ? AND status = ?", user.ID, constants.ConversionStatusApprovedPaid).
		Count(&paid).Error; err != nil {
		t.Fatalf("count paid failed: %v", err)
	}
	if paid != 2 {
		t.Fatalf("paid conversions want 2 got %d", paid)
	}

	// 二次结算无可结算项
	if _, err := svc.SettleUser(user.ID); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("second settle want ErrEmptyBatch got %v", err)
	}
}

func TestSettleUserUnknownAgent(t *testing.T) {
	svc, _ := setupPayoutServiceTest(t)
	if _, err := svc.SettleUser(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown agent want ErrNotFound got %v", err)
	}
}
