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

func setupConversionServiceTest(t *testing.T) (*ConversionService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:conversion_svc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Conversion{},
		&models.UnassignedConversion{},
		&models.AssignmentCode{},
		&models.CompensationGroup{},
		&models.CompensationGroupVersion{},
		&models.AffiliateLink{},
		&models.RetentionIncentive{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	conversionRepo := repository.NewConversionRepository(db)
	groupRepo := repository.NewCompensationGroupRepository(db)
	capService := NewCapEnforcementService(groupRepo, conversionRepo)
	return NewConversionService(conversionRepo, groupRepo, capService), db
}

func createTestGroup(t *testing.T, db *gorm.DB, monthlyLimit *int) *models.CompensationGroup {
	t.Helper()
	group := &models.CompensationGroup{Name: "test group", Enabled: true}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	version := &models.CompensationGroupVersion{
		GroupID:     group.ID,
		EffectiveAt: time.Now().Add(-time.Hour),
		Links: []models.AffiliateLink{
			{
				ClientID:     1,
				LinkType:     constants.LinkTypeSports,
				Commission:   models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
				MinBetSize:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
				CPA:          models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
				MonthlyLimit: monthlyLimit,
				Enabled:      true,
			},
		},
	}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("create group version failed: %v", err)
	}
	return group
}

func testConversionInput(customer string, userID *uint, code string, groupID uint) models.NewConversionInput {
	return models.NewConversionInput{
		Type:                constants.ConversionTypeFreeBet,
		DateOccurred:        time.Now().Truncate(24 * time.Hour),
		UserID:              userID,
		AssignmentCode:      code,
		CompensationGroupID: groupID,
		Link: models.AffiliateLinkSnapshot{
			ClientID:   1,
			ClientName: "Bet99",
			LinkType:   constants.LinkTypeSports,
			Commission: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			MinBetSize: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
			CPA:        models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
			Currency:   "CAD",
		},
		Customer: customer,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Currency: "CAD",
	}
}

func TestCreateConversionRejectsDuplicateKey(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := createTestGroup(t, db, nil)
	userID := uint(7)

	created, err := svc.Create(testConversionInput("John Doe", &userID, "", group.ID))
	if err != nil {
		t.Fatalf("create conversion failed: %v", err)
	}
	if created.ConversionKey == "" {
		t.Fatalf("conversion key must be set")
	}
	if created.Status != constants.ConversionStatusPending {
		t.Fatalf("new conversion status want pending got %s", created.Status)
	}

	if _, err := svc.Create(testConversionInput("John Doe", &userID, "", group.ID)); !errors.Is(err, ErrDuplicateConversion) {
		t.Fatalf("duplicate key want ErrDuplicateConversion got %v", err)
	}
}

func TestChangeStatusFollowsStateMachine(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := createTestGroup(t, db, nil)
	userID := uint(7)
	created, err := svc.Create(testConversionInput("Jane Doe", &userID, "", group.ID))
	if err != nil {
		t.Fatalf("create conversion failed: %v", err)
	}
	key := created.ConversionKey

	// pending -> approved_paid 不是合法边
	if _, err := svc.ChangeStatus(key, constants.ConversionStatusApprovedPaid); !errors.Is(err, ErrIllegalStatusChange) {
		t.Fatalf("pending to approved_paid want ErrIllegalStatusChange got %v", err)
	}

	for _, target := range []string{
		constants.ConversionStatusApprovedUnpaid,
		constants.ConversionStatusApprovedPaid,
		constants.ConversionStatusApprovedUnpaid,
	} {
		updated, err := svc.ChangeStatus(key, target)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("status want %s got %s", target, updated.Status)
		}
	}
}

func TestChangeStatusRejectedBackToPending(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := createTestGroup(t, db, nil)
	userID := uint(7)
	created, err := svc.Create(testConversionInput("Jane Doe", &userID, "", group.ID))
	if err != nil {
		t.Fatalf("create conversion failed: %v", err)
	}

	if _, err := svc.ChangeStatus(created.ConversionKey, constants.ConversionStatusRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	updated, err := svc.ChangeStatus(created.ConversionKey, constants.ConversionStatusPending)
	if err != nil {
		t.Fatalf("rejected back to pending failed: %v", err)
	}
	if updated.Status != constants.ConversionStatusPending {
		t.Fatalf("status want pending got %s", updated.Status)
	}
}

func TestBulkSubmitRejectsWholeBatchOnCap(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	limit := 1
	group := createTestGroup(t, db, &limit)

	inputs := []models.NewConversionInput{
		testConversionInput("Player One", nil, "", group.ID),
		testConversionInput("Player Two", nil, "", group.ID),
	}
	if _, err := svc.BulkSubmit(7, group.ID, inputs); !errors.Is(err, ErrCapExceeded) {
		t.Fatalf("over-cap batch want ErrCapExceeded got %v", err)
	}

	var count int64
	if err := db.Model(&models.Conversion{}).Count(&count).Error; err != nil {
		t.Fatalf("count conversions failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no partial writes expected, got %d rows", count)
	}
}

func TestBulkSubmitRejectsWholeBatchOnRetentionCap(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := &models.CompensationGroup{Name: "retention group", Enabled: true}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	version := &models.CompensationGroupVersion{
		GroupID:     group.ID,
		EffectiveAt: time.Now().Add(-time.Hour),
		Incentives: []models.RetentionIncentive{
			{
				ClientID:     1,
				Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(25)),
				MonthlyLimit: 2,
			},
		},
	}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("create group version failed: %v", err)
	}

	retentionInput := func(customer string, userID *uint) models.NewConversionInput {
		input := testConversionInput(customer, userID, "", group.ID)
		input.Type = constants.ConversionTypeRetentionIncentive
		return input
	}

	// 当月已有一笔留存激励转化
	userID := uint(7)
	if _, err := svc.Create(retentionInput("Existing Player", &userID)); err != nil {
		t.Fatalf("seed retention conversion failed: %v", err)
	}

	inputs := []models.NewConversionInput{
		retentionInput("Player One", nil),
		retentionInput("Player Two", nil),
	}
	if _, err := svc.BulkSubmit(7, group.ID, inputs); !errors.Is(err, ErrCapExceeded) {
		t.Fatalf("over-cap retention batch want ErrCapExceeded got %v", err)
	}

	var count int64
	if err := db.Model(&models.Conversion{}).Count(&count).Error; err != nil {
		t.Fatalf("count conversions failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("only the seeded conversion should persist, got %d rows", count)
	}
}

func TestBulkSubmitWithinCap(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	limit := 2
	group := createTestGroup(t, db, &limit)

	created, err := svc.BulkSubmit(7, group.ID, []models.NewConversionInput{
		testConversionInput("Player One", nil, "", group.ID),
		testConversionInput("Player Two", nil, "", group.ID),
	})
	if err != nil {
		t.Fatalf("bulk submit failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created count want 2 got %d", len(created))
	}
	for _, c := range created {
		if c.UserID == nil || *c.UserID != 7 {
			t.Fatalf("conversion must be attributed to submitting agent")
		}
	}
}

func TestIssueAndClaimAssignmentCode(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := createTestGroup(t, db, nil)

	code, err := svc.IssueAssignmentCode(group.ID)
	if err != nil {
		t.Fatalf("issue assignment code failed: %v", err)
	}
	if code.Status != constants.AssignmentCodeStatusOpen {
		t.Fatalf("issued code status want open got %s", code.Status)
	}

	valid, err := svc.IsAssignmentCodeValid(code.Code)
	if err != nil || !valid {
		t.Fatalf("freshly issued code should be valid, valid=%v err=%v", valid, err)
	}

	// 用该归属码写入两条待认领转化
	for _, customer := range []string{"Player One", "Player Two"} {
		unassigned, err := models.NewUnassignedConversion(testConversionInput(customer, nil, code.Code, 0))
		if err != nil {
			t.Fatalf("build unassigned conversion failed: %v", err)
		}
		if err := db.Create(unassigned).Error; err != nil {
			t.Fatalf("create unassigned conversion failed: %v", err)
		}
	}

	claimed, err := svc.Claim(code.Code, 9)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed count want 2 got %d", len(claimed))
	}
	for _, c := range claimed {
		if c.UserID == nil || *c.UserID != 9 {
			t.Fatalf("claimed conversion must belong to claiming agent")
		}
		if c.AssignmentCode != "" {
			t.Fatalf("claimed conversion must not keep the assignment code")
		}
		if c.CompensationGroupID != group.ID {
			t.Fatalf("claimed conversion group want %d got %d", group.ID, c.CompensationGroupID)
		}
	}

	var remaining int64
	if err := db.Model(&models.UnassignedConversion{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count unassigned failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("unassigned rows must be removed after claim, got %d", remaining)
	}

	// 同一个码不能二次认领
	if _, err := svc.Claim(code.Code, 11); !errors.Is(err, ErrAssignmentCodeUsed) {
		t.Fatalf("second claim want ErrAssignmentCodeUsed got %v", err)
	}
	valid, err = svc.IsAssignmentCodeValid(code.Code)
	if err != nil || valid {
		t.Fatalf("used code must be invalid, valid=%v err=%v", valid, err)
	}
}

func TestClaimUnknownOrEmptyCode(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := createTestGroup(t, db, nil)

	if _, err := svc.Claim("NO-SUCH-CODE", 9); !errors.Is(err, ErrAssignmentCodeNotFound) {
		t.Fatalf("unknown code want ErrAssignmentCodeNotFound got %v", err)
	}

	code, err := svc.IssueAssignmentCode(group.ID)
	if err != nil {
		t.Fatalf("issue assignment code failed: %v", err)
	}
	if _, err := svc.Claim(code.Code, 9); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("code with no rows want ErrEmptyBatch got %v", err)
	}
}

func TestExpireAssignmentCodes(t *testing.T) {
	svc, db := setupConversionServiceTest(t)
	group := createTestGroup(t, db, nil)

	code, err := svc.IssueAssignmentCode(group.ID)
	if err != nil {
		t.Fatalf("issue assignment code failed: %v", err)
	}

	expired, err := svc.ExpireAssignmentCodes(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired count want 1 got %d", expired)
	}

	var record models.AssignmentCode
	if err := db.Where("code = ?", code.Code).First(&record).Error; err != nil {
		t.Fatalf("load code failed: %v", err)
	}
	if record.Status != constants.AssignmentCodeStatusExpired {
		t.Fatalf("code status want expired got %s", record.Status)
	}
}
