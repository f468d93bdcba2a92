package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/firesales-next/internal/config"
	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCsvImportTest(t *testing.T) (*CsvImportService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:csv_import_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Client{},
		&models.ClientVersion{},
		&models.AffiliateDeal{},
		&models.UnassignedConversion{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	clientRepo := repository.NewClientRepository(db)
	conversionRepo := repository.NewConversionRepository(db)
	return NewCsvImportService(clientRepo, conversionRepo, config.ImportConfig{}), db
}

func createImportClient(t *testing.T, db *gorm.DB, name string, deals []models.AffiliateDeal) *models.Client {
	t.Helper()
	client := &models.Client{Name: name, Status: constants.ClientStatusEnabled}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("create client failed: %v", err)
	}
	for i := range deals {
		deals[i].SortOrder = i
	}
	version := &models.ClientVersion{
		ClientID:    client.ID,
		EffectiveAt: time.Now().Add(-time.Hour),
		Deals:       deals,
	}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("create client version failed: %v", err)
	}
	return client
}

func sportsDeal(cpa int64) models.AffiliateDeal {
	return models.AffiliateDeal{
		LinkType: constants.LinkTypeSports,
		CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(cpa)),
		Currency: "CAD",
		Enabled:  true,
	}
}

func TestImportReportSkipsBadRows(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{sportsDeal(150)})

	csvData := strings.Join([]string{
		"Date,Sportsbook,Type,Bet size,Commission,Customer name",
		"2026-03-01,Bet99,Sports,$100.00,50.00,John Doe",
		"01/03/2026,Bet99,Sports,$100.00,50.00,Bad Date",
		"2026-03-02,Bet99,Sports,\"$1,250.00\",50.00,Jane Doe",
	}, "\n")

	summary, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Total != 3 || summary.Processed != 2 || summary.Skipped != 1 {
		t.Fatalf("summary want 3/2/1 got %d/%d/%d", summary.Total, summary.Processed, summary.Skipped)
	}

	var rows []models.UnassignedConversion
	if err := db.Order("date_occurred asc").Find(&rows).Error; err != nil {
		t.Fatalf("load unassigned failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("stored rows want 2 got %d", len(rows))
	}
	// 千分位与 $ 前缀都要能解析
	if !rows[1].Amount.Decimal.Equal(decimal.NewFromFloat(1250.00)) {
		t.Fatalf("amount want 1250 got %s", rows[1].Amount.Decimal)
	}
	for _, row := range rows {
		if row.AssignmentCode != "BATCH-1" {
			t.Fatalf("assignment code want BATCH-1 got %s", row.AssignmentCode)
		}
		if row.Type != constants.ConversionTypeFreeBet {
			t.Fatalf("sports row type want free_bet got %s", row.Type)
		}
	}
}

func TestImportReportRowCodeOverridesDefault(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{sportsDeal(150)})

	csvData := "2026-03-01,Bet99,Sports,100.00,50.00,John Doe,ROW-CODE\n"
	summary, err := svc.ImportReport(strings.NewReader(csvData), "DEFAULT", nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("processed want 1 got %d", summary.Processed)
	}

	var row models.UnassignedConversion
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load row failed: %v", err)
	}
	if row.AssignmentCode != "ROW-CODE" {
		t.Fatalf("row code should win, got %s", row.AssignmentCode)
	}
}

func TestImportReportFuzzyClientMatch(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	client := createImportClient(t, db, "Sports Interaction", []models.AffiliateDeal{sportsDeal(100)})

	// 行内写法与库内名称不完全一致
	csvData := "2026-03-01,sports interaction,Sports,100.00,40.00,John Doe\n"
	summary, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("processed want 1 got %d", summary.Processed)
	}

	var row models.UnassignedConversion
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load row failed: %v", err)
	}
	if row.ClientID != client.ID {
		t.Fatalf("client id want %d got %d", client.ID, row.ClientID)
	}
}

func TestImportReportLeadingIndexColumn(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{sportsDeal(150)})

	csvData := "1,2026-03-01,Bet99,Sports,100.00,50.00,John Doe\n"
	summary, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("row with index column should import, got processed %d", summary.Processed)
	}
}

func TestImportReportEmptyFile(t *testing.T) {
	svc, _ := setupCsvImportTest(t)

	if _, err := svc.ImportReport(strings.NewReader(""), "BATCH-1", nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("empty file want ErrEmptyBatch got %v", err)
	}
	// 只有表头也算空批次
	headerOnly := "Date,Sportsbook,Type,Bet size,Commission,Customer name\n"
	if _, err := svc.ImportReport(strings.NewReader(headerOnly), "BATCH-1", nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("header-only file want ErrEmptyBatch got %v", err)
	}
}

func TestFilterCsvHeadersThreshold(t *testing.T) {
	svc, _ := setupCsvImportTest(t)

	withHeader := [][]string{
		{"Date", "Sportsbook", "Type", "Bet size", "Commission", "Customer name"},
		{"2026-03-01", "Bet99", "Sports", "100.00", "50.00", "John Doe"},
	}
	if got := svc.FilterCsvHeaders(withHeader); len(got) != 1 {
		t.Fatalf("header row should be dropped, got %d rows", len(got))
	}

	// 关键词命中不足时首行按数据行保留
	withoutHeader := [][]string{
		{"2026-03-01", "Bet99", "Sports", "100.00", "50.00", "John Doe"},
	}
	if got := svc.FilterCsvHeaders(withoutHeader); len(got) != 1 {
		t.Fatalf("data row must be kept, got %d rows", len(got))
	}
}

func TestMapCsvRowCasinoType(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{
		{
			LinkType: constants.LinkTypeCasino,
			CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
			Currency: "CAD",
			Enabled:  true,
		},
	})

	csvData := "2026-03-01,Bet99,Casino bonus,100.00,50.00,John Doe\n"
	if _, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	var row models.UnassignedConversion
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load row failed: %v", err)
	}
	if row.Type != constants.ConversionTypeBetMatch {
		t.Fatalf("casino row type want bet_match got %s", row.Type)
	}
	if row.LinkType != constants.LinkTypeCasino {
		t.Fatalf("casino row link type want casino got %s", row.LinkType)
	}
}

func TestMapCsvRowNoApplicableDeal(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	// 只有 casino 条款，sports 行匹配不到
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{
		{
			LinkType: constants.LinkTypeCasino,
			CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
			Currency: "CAD",
			Enabled:  true,
		},
	})

	csvData := "2026-03-01,Bet99,Sports,100.00,50.00,John Doe\n"
	summary, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Skipped != 1 || summary.Processed != 0 {
		t.Fatalf("row without applicable deal must be skipped, got %d/%d", summary.Processed, summary.Skipped)
	}
}

func TestImportReportSkipsDuplicateKeys(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{sportsDeal(150)})

	csvData := strings.Join([]string{
		"2026-03-01,Bet99,Sports,100.00,50.00,John Doe",
		"2026-03-01,Bet99,Sports,100.00,50.00,John Doe",
		"2026-03-02,Bet99,Sports,100.00,50.00,Jane Doe",
	}, "\n")

	summary, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Total != 3 || summary.Processed != 2 || summary.Skipped != 1 {
		t.Fatalf("summary want 3/2/1 got %d/%d/%d", summary.Total, summary.Processed, summary.Skipped)
	}

	var count int64
	if err := db.Model(&models.UnassignedConversion{}).Count(&count).Error; err != nil {
		t.Fatalf("count unassigned failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("stored rows want 2 got %d", count)
	}

	// 同一文件重复导入：全部行已存在，整体跳过而非报错
	summary, err = svc.ImportReport(strings.NewReader(csvData), "BATCH-1", nil)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 3 {
		t.Fatalf("re-import summary want 0 processed 3 skipped got %d/%d", summary.Processed, summary.Skipped)
	}
	if err := db.Model(&models.UnassignedConversion{}).Count(&count).Error; err != nil {
		t.Fatalf("count unassigned failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("re-import must not add rows, got %d", count)
	}
}

func TestImportReportAttachesRowAttachments(t *testing.T) {
	svc, db := setupCsvImportTest(t)
	createImportClient(t, db, "Bet99", []models.AffiliateDeal{sportsDeal(150)})

	csvData := strings.Join([]string{
		"2026-03-01,Bet99,Sports,100.00,50.00,John Doe",
		"2026-03-02,Bet99,Sports,100.00,50.00,Jane Doe",
	}, "\n")
	attachments := map[int][]string{
		2: {"/uploads/attachments/2026/03/a.png", "/uploads/attachments/2026/03/b.png"},
	}

	summary, err := svc.ImportReport(strings.NewReader(csvData), "BATCH-1", attachments)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if summary.Processed != 2 {
		t.Fatalf("processed want 2 got %d", summary.Processed)
	}

	var rows []models.UnassignedConversion
	if err := db.Order("date_occurred asc").Find(&rows).Error; err != nil {
		t.Fatalf("load unassigned failed: %v", err)
	}
	if len(rows[0].AttachmentURLs) != 0 {
		t.Fatalf("row 1 must have no attachments, got %v", rows[0].AttachmentURLs)
	}
	if len(rows[1].AttachmentURLs) != 2 || rows[1].AttachmentURLs[0] != "/uploads/attachments/2026/03/a.png" {
		t.Fatalf("row 2 attachments mismatch: %v", rows[1].AttachmentURLs)
	}
}
