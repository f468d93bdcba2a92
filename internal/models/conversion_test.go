package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func baseConversionInput() NewConversionInput {
	return NewConversionInput{
		Type:         "free_bet",
		DateOccurred: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Link: AffiliateLinkSnapshot{
			ClientID:   3,
			ClientName: "Bet99",
			LinkType:   "sports",
			Commission: NewMoneyFromDecimal(decimal.NewFromInt(50)),
			MinBetSize: NewMoneyFromDecimal(decimal.NewFromInt(100)),
			CPA:        NewMoneyFromDecimal(decimal.NewFromInt(150)),
			Currency:   "CAD",
		},
		Customer: "John Doe",
		Amount:   NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Currency: "CAD",
	}
}

func TestNewConversionKeyIsDeterministic(t *testing.T) {
	userID := uint(7)
	input := baseConversionInput()
	input.UserID = &userID

	first, err := NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}
	second, err := NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}
	if first.ConversionKey != second.ConversionKey {
		t.Fatalf("same facts must yield the same key: %s vs %s", first.ConversionKey, second.ConversionKey)
	}
	want := "2026-03-01_u7_3_john-doe"
	if first.ConversionKey != want {
		t.Fatalf("key want %s got %s", want, first.ConversionKey)
	}
}

func TestNewConversionKeyWithAssignmentCode(t *testing.T) {
	input := baseConversionInput()
	input.AssignmentCode = "batch one"

	conversion, err := NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}
	// 归属码标准化后进入业务键
	want := "2026-03-01_BATCH-ONE_3_john-doe"
	if conversion.ConversionKey != want {
		t.Fatalf("key want %s got %s", want, conversion.ConversionKey)
	}
}

func TestNewConversionRequiresExactlyOneAttribution(t *testing.T) {
	userID := uint(7)

	neither := baseConversionInput()
	if _, err := NewConversion(neither); !errors.Is(err, ErrConversionUnattributed) {
		t.Fatalf("no attribution want ErrConversionUnattributed got %v", err)
	}

	both := baseConversionInput()
	both.UserID = &userID
	both.AssignmentCode = "BATCH-1"
	if _, err := NewConversion(both); !errors.Is(err, ErrConversionUnattributed) {
		t.Fatalf("double attribution want ErrConversionUnattributed got %v", err)
	}
}

func TestWithUserRecomputesKey(t *testing.T) {
	input := baseConversionInput()
	input.AssignmentCode = "BATCH-1"
	conversion, err := NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}

	claimed := conversion.WithUser(9)
	if claimed.AssignmentCode != "" {
		t.Fatalf("claimed copy must drop the code")
	}
	if claimed.ConversionKey == conversion.ConversionKey {
		t.Fatalf("attribution change must change the key")
	}
	if conversion.AssignmentCode != "BATCH-1" {
		t.Fatalf("original must stay untouched")
	}
}

func TestWithMessageAndAttachmentsAreCopies(t *testing.T) {
	userID := uint(7)
	input := baseConversionInput()
	input.UserID = &userID
	conversion, err := NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}

	annotated := conversion.WithMessage("looks good").WithAttachmentURLs("/uploads/a.png")
	if len(annotated.Messages) != 1 || len(annotated.AttachmentURLs) != 1 {
		t.Fatalf("copy must carry the additions")
	}
	if len(conversion.Messages) != 0 || len(conversion.AttachmentURLs) != 0 {
		t.Fatalf("original must stay untouched")
	}
}

func TestConversionSQLiteRoundTrip(t *testing.T) {
	dsn := fmt.Sprintf("file:conversion_model_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&Conversion{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	userID := uint(7)
	input := baseConversionInput()
	input.UserID = &userID
	conversion, err := NewConversion(input)
	if err != nil {
		t.Fatalf("build conversion failed: %v", err)
	}
	annotated := conversion.WithMessage("imported from weekly report")
	if err := db.Create(&annotated).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var loaded Conversion
	if err := db.Where("conversion_key = ?", annotated.ConversionKey).First(&loaded).Error; err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Link.ClientName != "Bet99" || !loaded.Link.CPA.Decimal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("link snapshot did not survive the round trip: %+v", loaded.Link)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0] != "imported from weekly report" {
		t.Fatalf("messages did not survive the round trip: %v", loaded.Messages)
	}
	if !loaded.Amount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("amount want 100 got %s", loaded.Amount.Decimal)
	}

	// 唯一索引保证同一事实不会入库两次
	dup := *conversion
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("duplicate key must be rejected by the unique index")
	}
}
