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

func setupClientServiceTest(t *testing.T) *ClientService {
	t.Helper()
	dsn := fmt.Sprintf("file:client_svc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Client{}, &models.ClientVersion{}, &models.AffiliateDeal{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewClientService(repository.NewClientRepository(db))
}

func dealWithCPA(cpa int64) models.AffiliateDeal {
	return models.AffiliateDeal{
		LinkType: constants.LinkTypeSports,
		CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(cpa)),
		Currency: "CAD",
		Enabled:  true,
	}
}

func TestClientVersionsArePointInTime(t *testing.T) {
	svc := setupClientServiceTest(t)

	client, err := svc.Create("Bet99", []models.AffiliateDeal{dealWithCPA(100)})
	if err != nil {
		t.Fatalf("create client failed: %v", err)
	}

	// 未来生效的新条款不影响历史查询
	future := time.Now().Add(48 * time.Hour)
	if _, err := svc.AppendVersion(client.ID, []models.AffiliateDeal{dealWithCPA(200)}, future); err != nil {
		t.Fatalf("append version failed: %v", err)
	}

	current, err := svc.VersionAt(client.ID, time.Now())
	if err != nil {
		t.Fatalf("version at now failed: %v", err)
	}
	if len(current.Deals) != 1 || !current.Deals[0].CPA.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("version at now must carry the original terms")
	}

	upcoming, err := svc.VersionAt(client.ID, future.Add(time.Hour))
	if err != nil {
		t.Fatalf("version at future failed: %v", err)
	}
	if !upcoming.Deals[0].CPA.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("future version must carry the new terms")
	}
}

func TestClientVersionBeforeFirstEffectiveAt(t *testing.T) {
	svc := setupClientServiceTest(t)

	client, err := svc.Create("Bet99", []models.AffiliateDeal{dealWithCPA(100)})
	if err != nil {
		t.Fatalf("create client failed: %v", err)
	}
	if _, err := svc.VersionAt(client.ID, time.Now().Add(-time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no valid version yet want ErrNotFound got %v", err)
	}
}

func TestClientSetStatusValidation(t *testing.T) {
	svc := setupClientServiceTest(t)

	client, err := svc.Create("Bet99", []models.AffiliateDeal{dealWithCPA(100)})
	if err != nil {
		t.Fatalf("create client failed: %v", err)
	}

	if err := svc.SetStatus(client.ID, "archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown status want ErrValidation got %v", err)
	}
	if err := svc.SetStatus(client.ID, constants.ClientStatusDisabled); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	reloaded, err := svc.GetByID(client.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.ClientStatusDisabled {
		t.Fatalf("status want disabled got %s", reloaded.Status)
	}
}
