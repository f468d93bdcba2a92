package service

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/firesales-next/internal/config"
	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// csvHeaderKeywords 表头识别关键词，覆盖各家平台导出文件的常见叫法
var csvHeaderKeywords = []string{
	"date", "sportsbook", "client", "type", "bet", "commission", "customer", "name", "code", "affiliate",
}

// csvDateLayouts 严格日期格式，依次尝试 年-月-日 与 年-日-月
var csvDateLayouts = []string{"2006-01-02", "2006-02-01"}

// ImportSummary 批量导入结果汇总
type ImportSummary struct {
	Total     int `json:"total"`     // 去掉表头后的数据行数
	Processed int `json:"processed"` // 成功入库行数
	Skipped   int `json:"skipped"`   // 因数据问题跳过的行数
}

// importClient 导入期间使用的客户及其当前生效的合作条款
type importClient struct {
	Client models.Client
	Deals  []models.AffiliateDeal
}

// CsvImportService CSV 批量导入服务：逐行解析、模糊匹配客户，坏行跳过不中断
type CsvImportService struct {
	clientRepo     repository.ClientRepository
	conversionRepo repository.ConversionRepository
	cfg            config.ImportConfig
}

// NewCsvImportService 创建 CSV 导入服务
func NewCsvImportService(clientRepo repository.ClientRepository, conversionRepo repository.ConversionRepository, cfg config.ImportConfig) *CsvImportService {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultMatchThreshold
	}
	if cfg.HeaderKeywordMinCount <= 0 {
		cfg.HeaderKeywordMinCount = 3
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	return &CsvImportService{clientRepo: clientRepo, conversionRepo: conversionRepo, cfg: cfg}
}

// ImportReport 解析 CSV 报表并整体写入待认领集合。
// 行内未带归属码时回落到 defaultCode；入库为全量成功或全量失败。
// attachments 按数据行号（从 1 起计）附带凭证链接，可为 nil。
// 业务键是天然的去重键：文件内重复行与待认领集合中已存在的行
// 都按坏行跳过，不中断导入。
func (s *CsvImportService) ImportReport(reader io.Reader, defaultCode string, attachments map[int][]string) (*ImportSummary, error) {
	rows, err := s.readRows(reader)
	if err != nil {
		return nil, err
	}
	rows = s.FilterCsvHeaders(rows)
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(rows) > s.cfg.MaxRows {
		return nil, ErrValidation
	}

	clients, err := s.loadEnabledClients()
	if err != nil {
		return nil, err
	}

	type pendingRow struct {
		row        int
		conversion models.UnassignedConversion
	}
	summary := &ImportSummary{Total: len(rows)}
	pending := make([]pendingRow, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		conversion := s.MapCsvRowToConversion(row, clients, defaultCode)
		if conversion == nil {
			summary.Skipped++
			logger.Warnw("import_row_skipped", "row", i+1)
			continue
		}
		if _, dup := seen[conversion.ConversionKey]; dup {
			summary.Skipped++
			logger.Warnw("import_row_skipped", "row", i+1, "reason", "duplicate_key")
			continue
		}
		seen[conversion.ConversionKey] = struct{}{}
		if urls := attachments[i+1]; len(urls) > 0 {
			conversion.AttachmentURLs = models.StringArray(urls)
		}
		pending = append(pending, pendingRow{row: i + 1, conversion: *conversion})
	}
	if len(pending) == 0 {
		return summary, nil
	}

	keys := make([]string, len(pending))
	for i, p := range pending {
		keys[i] = p.conversion.ConversionKey
	}
	existingKeys, err := s.conversionRepo.ListUnassignedKeys(keys)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(existingKeys))
	for _, key := range existingKeys {
		existing[key] = struct{}{}
	}

	batch := make([]models.UnassignedConversion, 0, len(pending))
	for _, p := range pending {
		if _, dup := existing[p.conversion.ConversionKey]; dup {
			summary.Skipped++
			logger.Warnw("import_row_skipped", "row", p.row, "reason", "already_imported")
			continue
		}
		batch = append(batch, p.conversion)
	}
	if len(batch) == 0 {
		return summary, nil
	}

	if err := s.conversionRepo.CreateUnassignedBulk(batch); err != nil {
		return nil, err
	}
	summary.Processed = len(batch)
	logger.Infow("import_report_done",
		"total", summary.Total, "processed", summary.Processed, "skipped", summary.Skipped)
	return summary, nil
}

// FilterCsvHeaders 识别并丢弃表头行。
// 统计首行拼接文本中命中的关键词个数，达到阈值即认为是表头。
// 各家导出文件的列名措辞和顺序并不一致，只按命中数判断。
func (s *CsvImportService) FilterCsvHeaders(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	joined := strings.ToLower(strings.Join(rows[0], " "))
	count := 0
	for _, keyword := range csvHeaderKeywords {
		if strings.Contains(joined, keyword) {
			count++
		}
	}
	if count >= s.cfg.HeaderKeywordMinCount {
		return rows[1:]
	}
	return rows
}

// MapCsvRowToConversion 把一行 CSV 映射成待认领转化。
// 任何一步失败都返回 nil（行级失败，不影响其他行）：
// 日期非法、客户匹配不到、无适用条款、金额解析失败均视为坏行。
// 推广链接快照由条款与行内金额现场拼出，不回查任何分成组，
// 批量导入的佣金以报表为准。
func (s *CsvImportService) MapCsvRowToConversion(row []string, clients []importClient, defaultCode string) *models.UnassignedConversion {
	cells := trimRow(row)
	if len(cells) > 0 && isNumericIndex(cells[0]) {
		cells = cells[1:]
	}
	if len(cells) < 6 {
		return nil
	}

	dateOccurred, ok := parseCsvDate(cells[0])
	if !ok {
		return nil
	}

	linkType := resolveLinkType(cells[2])

	matched, ok := FindClosestMatch(cells[1], clients, func(c importClient) string {
		return c.Client.Name
	}, s.cfg.MatchThreshold)
	if !ok {
		return nil
	}

	deal, ok := firstMatchingDeal(matched.Deals, linkType)
	if !ok {
		return nil
	}

	betSize, ok := parseMoneyCell(cells[3])
	if !ok {
		return nil
	}
	commission, ok := parseMoneyCell(cells[4])
	if !ok {
		return nil
	}

	customer := cells[5]
	if customer == "" {
		return nil
	}

	code := defaultCode
	if len(cells) > 6 && strings.TrimSpace(cells[6]) != "" {
		code = cells[6]
	}

	conversion, err := models.NewUnassignedConversion(models.NewConversionInput{
		Type:           conversionTypeForLinkType(linkType),
		DateOccurred:   dateOccurred,
		AssignmentCode: code,
		Link: models.AffiliateLinkSnapshot{
			ClientID:   matched.Client.ID,
			ClientName: matched.Client.Name,
			LinkType:   deal.LinkType,
			Commission: commission,
			MinBetSize: betSize,
			CPA:        deal.CPA,
			Currency:   deal.Currency,
		},
		Customer: customer,
		Amount:   betSize,
		Currency: deal.Currency,
	})
	if err != nil {
		return nil
	}
	return conversion
}

func (s *CsvImportService) readRows(reader io.Reader) ([][]string, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func (s *CsvImportService) loadEnabledClients() ([]importClient, error) {
	enabled, err := s.clientRepo.ListEnabled()
	if err != nil {
		return nil, err
	}
	clients := make([]importClient, 0, len(enabled))
	for _, client := range enabled {
		version, err := s.clientRepo.LatestVersion(client.ID)
		if err != nil {
			return nil, err
		}
		if version == nil {
			continue
		}
		clients = append(clients, importClient{Client: client, Deals: version.Deals})
	}
	return clients, nil
}

// trimRow 去掉首尾空单元格并修剪每格空白
func trimRow(row []string) []string {
	start := 0
	end := len(row)
	for start < end && strings.TrimSpace(row[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	cells := make([]string, 0, end-start)
	for _, cell := range row[start:end] {
		cells = append(cells, strings.TrimSpace(cell))
	}
	return cells
}

// isNumericIndex 判断首列是否为行号列
func isNumericIndex(cell string) bool {
	if cell == "" {
		return false
	}
	_, err := strconv.Atoi(cell)
	return err == nil
}

func parseCsvDate(cell string) (time.Time, bool) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveLinkType 类型关键词按大小写不敏感子串匹配；无法识别时留空，表示两类通用
func resolveLinkType(cell string) string {
	lowered := strings.ToLower(cell)
	switch {
	case strings.Contains(lowered, "sport"):
		return constants.LinkTypeSports
	case strings.Contains(lowered, "casino"):
		return constants.LinkTypeCasino
	default:
		return constants.LinkTypeBoth
	}
}

// firstMatchingDeal 取第一个适用该类型的条款，条款存储顺序是约定的一部分
func firstMatchingDeal(deals []models.AffiliateDeal, linkType string) (models.AffiliateDeal, bool) {
	for _, deal := range deals {
		if deal.Enabled && deal.MatchesLinkType(linkType) {
			return deal, true
		}
	}
	return models.AffiliateDeal{}, false
}

// parseMoneyCell 解析金额，容忍 "$" 前缀与千分位逗号
func parseMoneyCell(cell string) (models.Money, bool) {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(cell), "$"), ",", "")
	if cleaned == "" {
		return models.Money{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return models.Money{}, false
	}
	return models.NewMoneyFromDecimal(d), true
}

func conversionTypeForLinkType(linkType string) string {
	if linkType == constants.LinkTypeCasino {
		return constants.ConversionTypeBetMatch
	}
	return constants.ConversionTypeFreeBet
}
