package service

import (
	"time"

	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"
)

// MetricsSummary 一组转化的核心财务指标
type MetricsSummary struct {
	ConversionCount       int          `json:"conversion_count"`
	TotalRevenue          models.Money `json:"total_revenue"`
	TotalCommission       models.Money `json:"total_commission"`
	TotalUnpaidCommission models.Money `json:"total_unpaid_commission"`
	TotalGrossProfit      models.Money `json:"total_gross_profit"`
	TotalCost             models.Money `json:"total_cost"`
	AverageBetSize        models.Money `json:"average_bet_size"`
	AverageCommission     models.Money `json:"average_commission"`
	AverageCPA            models.Money `json:"average_cpa"`
}

// SegmentSummary 单个报表区间的指标
type SegmentSummary struct {
	Label   string         `json:"label"`
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Metrics MetricsSummary `json:"metrics"`
}

// DashboardReport 时间范围内的整体指标与分段走势
type DashboardReport struct {
	Timeframe string           `json:"timeframe"`
	Overall   MetricsSummary   `json:"overall"`
	Segments  []SegmentSummary `json:"segments"`
}

// ReportService 报表服务：指标全部即时从转化事实计算，不依赖预聚合
type ReportService struct {
	conversionRepo repository.ConversionRepository
}

// NewReportService 创建报表服务
func NewReportService(conversionRepo repository.ConversionRepository) *ReportService {
	return &ReportService{conversionRepo: conversionRepo}
}

// AgentDashboard 代理视角的时间范围报表
func (s *ReportService) AgentDashboard(userID uint, timeframe string, now time.Time) (*DashboardReport, error) {
	start, ok := IntervalStart(timeframe, now)
	if !ok {
		return nil, ErrValidation
	}
	conversions, err := s.conversionRepo.ListByUserSince(userID, start)
	if err != nil {
		return nil, err
	}
	return buildDashboard(conversions, timeframe, now), nil
}

// BusinessDashboard 经营视角的时间范围报表（全部代理）
func (s *ReportService) BusinessDashboard(timeframe string, now time.Time) (*DashboardReport, error) {
	start, ok := IntervalStart(timeframe, now)
	if !ok {
		return nil, ErrValidation
	}
	conversions, _, err := s.conversionRepo.List(repository.ConversionListFilter{OccurredFrom: &start})
	if err != nil {
		return nil, err
	}
	return buildDashboard(conversions, timeframe, now), nil
}

// ClientDashboard 单客户视角的时间范围报表
func (s *ReportService) ClientDashboard(clientID uint, timeframe string, now time.Time) (*DashboardReport, error) {
	start, ok := IntervalStart(timeframe, now)
	if !ok {
		return nil, ErrValidation
	}
	conversions, _, err := s.conversionRepo.List(repository.ConversionListFilter{ClientID: clientID, OccurredFrom: &start})
	if err != nil {
		return nil, err
	}
	return buildDashboard(conversions, timeframe, now), nil
}

func buildDashboard(conversions []models.Conversion, timeframe string, now time.Time) *DashboardReport {
	report := &DashboardReport{
		Timeframe: timeframe,
		Overall:   summarize(conversions),
	}
	for _, segment := range SegmentConversionsByTimeframe(conversions, timeframe, now) {
		report.Segments = append(report.Segments, SegmentSummary{
			Label:   segment.Bucket.Label,
			Start:   segment.Bucket.Start,
			End:     segment.Bucket.End,
			Metrics: summarize(segment.Conversions),
		})
	}
	return report
}

func summarize(conversions []models.Conversion) MetricsSummary {
	return MetricsSummary{
		ConversionCount:       len(conversions),
		TotalRevenue:          TotalRevenue(conversions),
		TotalCommission:       TotalCommission(conversions),
		TotalUnpaidCommission: TotalUnpaidCommission(conversions),
		TotalGrossProfit:      TotalGrossProfit(conversions),
		TotalCost:             TotalCostOfConversions(conversions),
		AverageBetSize:        AverageBetSize(conversions),
		AverageCommission:     AverageCommission(conversions),
		AverageCPA:            AverageCPA(conversions),
	}
}
