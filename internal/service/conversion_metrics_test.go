package service

import (
	"testing"
	"time"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/models"

	"github.com/shopspring/decimal"
)

func metricConversion(cpa, commission, amount int64, status string, dateOccurred time.Time) models.Conversion {
	return models.Conversion{
		Status:       status,
		DateOccurred: dateOccurred,
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Link: models.AffiliateLinkSnapshot{
			CPA:        models.NewMoneyFromDecimal(decimal.NewFromInt(cpa)),
			Commission: models.NewMoneyFromDecimal(decimal.NewFromInt(commission)),
		},
	}
}

func TestConversionTotals(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	conversions := []models.Conversion{
		metricConversion(150, 50, 100, constants.ConversionStatusApprovedUnpaid, day),
		metricConversion(100, 40, 50, constants.ConversionStatusPending, day),
	}

	if got := TotalRevenue(conversions).Decimal; !got.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("revenue want 250 got %s", got)
	}
	if got := TotalCommission(conversions).Decimal; !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("commission want 90 got %s", got)
	}
	if got := TotalUnpaidCommission(conversions).Decimal; !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unpaid commission want 50 got %s", got)
	}
	// 毛利 = (150-100-50) + (100-50-40) = 10
	if got := TotalGrossProfit(conversions).Decimal; !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("gross profit want 10 got %s", got)
	}
	// 成本 = (100+50) + (50+40) = 240
	if got := TotalCostOfConversions(conversions).Decimal; !got.Equal(decimal.NewFromInt(240)) {
		t.Fatalf("cost want 240 got %s", got)
	}
}

func TestConversionAverages(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	conversions := []models.Conversion{
		metricConversion(150, 50, 100, constants.ConversionStatusPending, day),
		metricConversion(100, 30, 50, constants.ConversionStatusPending, day),
	}

	if got := AverageBetSize(conversions).Decimal; !got.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("average bet size want 75 got %s", got)
	}
	if got := AverageCommission(conversions).Decimal; !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("average commission want 40 got %s", got)
	}
	if got := AverageCPA(conversions).Decimal; !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("average cpa want 125 got %s", got)
	}
}

func TestAveragesOnEmptyListAreZero(t *testing.T) {
	if got := AverageBetSize(nil).Decimal; !got.IsZero() {
		t.Fatalf("average bet size on empty list want 0 got %s", got)
	}
	if got := AverageCommission(nil).Decimal; !got.IsZero() {
		t.Fatalf("average commission on empty list want 0 got %s", got)
	}
	if got := AverageCPA(nil).Decimal; !got.IsZero() {
		t.Fatalf("average cpa on empty list want 0 got %s", got)
	}
}

func TestFilterConversionsByTimeframe(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	inside := metricConversion(100, 30, 50, constants.ConversionStatusPending, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	outside := metricConversion(100, 30, 50, constants.ConversionStatusPending, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	filtered := FilterConversionsByTimeframe([]models.Conversion{inside, outside}, constants.TimeframeLastMonth, now)
	if len(filtered) != 1 {
		t.Fatalf("filtered count want 1 got %d", len(filtered))
	}
	if !filtered[0].DateOccurred.Equal(inside.DateOccurred) {
		t.Fatalf("wrong conversion retained")
	}

	if got := FilterConversionsByTimeframe([]models.Conversion{inside}, "bogus", now); got != nil {
		t.Fatalf("unknown timeframe should yield nil")
	}
}

func TestFilterConversionsByDateInterval(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC) }
	conversions := []models.Conversion{
		metricConversion(100, 30, 50, constants.ConversionStatusPending, day(1)),
		metricConversion(100, 30, 50, constants.ConversionStatusPending, day(10)),
		metricConversion(100, 30, 50, constants.ConversionStatusPending, day(20)),
	}

	from := day(10)
	to := day(20)
	filtered := FilterConversionsByDateInterval(conversions, &from, &to)
	if len(filtered) != 2 {
		t.Fatalf("inclusive interval count want 2 got %d", len(filtered))
	}

	if got := FilterConversionsByDateInterval(conversions, nil, nil); len(got) != 3 {
		t.Fatalf("open interval should keep everything, got %d", len(got))
	}
}

func TestSegmentConversionsByTimeframePlacement(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	early := metricConversion(100, 30, 50, constants.ConversionStatusPending, time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC))
	atNow := metricConversion(100, 30, 50, constants.ConversionStatusPending, now)
	before := metricConversion(100, 30, 50, constants.ConversionStatusPending, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	segments := SegmentConversionsByTimeframe([]models.Conversion{early, atNow, before}, constants.TimeframeLastMonth, now)
	if len(segments) != 4 {
		t.Fatalf("segment count want 4 got %d", len(segments))
	}

	total := 0
	for _, segment := range segments {
		total += len(segment.Conversions)
	}
	if total != 2 {
		t.Fatalf("placed conversions want 2 got %d", total)
	}
	// 恰好等于 now 的转化归入末段
	last := segments[len(segments)-1]
	if len(last.Conversions) != 1 || !last.Conversions[0].DateOccurred.Equal(now) {
		t.Fatalf("conversion at now must land in the last segment")
	}
}
