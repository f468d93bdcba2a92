package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/models"
)

// 转化汇总函数：全部基于原始转化列表即时计算，不维护累积缓存

// TotalRevenue 汇总客户侧收入（每笔转化的 CPA）
func TotalRevenue(conversions []models.Conversion) models.Money {
	total := decimal.Zero
	for _, c := range conversions {
		total = total.Add(c.Link.CPA.Decimal)
	}
	return models.NewMoneyFromDecimal(total)
}

// TotalCommission 汇总付给业务员的佣金
func TotalCommission(conversions []models.Conversion) models.Money {
	total := decimal.Zero
	for _, c := range conversions {
		total = total.Add(c.Link.Commission.Decimal)
	}
	return models.NewMoneyFromDecimal(total)
}

// TotalUnpaidCommission 汇总已审核未结算的佣金
func TotalUnpaidCommission(conversions []models.Conversion) models.Money {
	total := decimal.Zero
	for _, c := range conversions {
		if c.Status == constants.ConversionStatusApprovedUnpaid {
			total = total.Add(c.Link.Commission.Decimal)
		}
	}
	return models.NewMoneyFromDecimal(total)
}

// TotalGrossProfit 汇总毛利，单笔 = CPA - 投注额 - 佣金
func TotalGrossProfit(conversions []models.Conversion) models.Money {
	total := decimal.Zero
	for _, c := range conversions {
		total = total.Add(c.Link.CPA.Decimal.Sub(c.Amount.Decimal).Sub(c.Link.Commission.Decimal))
	}
	return models.NewMoneyFromDecimal(total)
}

// TotalCostOfConversions 汇总成本，单笔 = 投注额 + 佣金
func TotalCostOfConversions(conversions []models.Conversion) models.Money {
	total := decimal.Zero
	for _, c := range conversions {
		total = total.Add(c.Amount.Decimal.Add(c.Link.Commission.Decimal))
	}
	return models.NewMoneyFromDecimal(total)
}

// AverageBetSize 平均投注额，空列表返回 0
func AverageBetSize(conversions []models.Conversion) models.Money {
	return averageOver(conversions, func(c models.Conversion) decimal.Decimal {
		return c.Amount.Decimal
	})
}

// AverageCommission 平均佣金，空列表返回 0
func AverageCommission(conversions []models.Conversion) models.Money {
	return averageOver(conversions, func(c models.Conversion) decimal.Decimal {
		return c.Link.Commission.Decimal
	})
}

// AverageCPA 平均 CPA，空列表返回 0
func AverageCPA(conversions []models.Conversion) models.Money {
	return averageOver(conversions, func(c models.Conversion) decimal.Decimal {
		return c.Link.CPA.Decimal
	})
}

func averageOver(conversions []models.Conversion, value func(models.Conversion) decimal.Decimal) models.Money {
	if len(conversions) == 0 {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	total := decimal.Zero
	for _, c := range conversions {
		total = total.Add(value(c))
	}
	return models.NewMoneyFromDecimal(total.Div(decimal.NewFromInt(int64(len(conversions)))))
}

// FilterConversionsByTimeframe 保留发生时间不早于时间范围起点的转化
func FilterConversionsByTimeframe(conversions []models.Conversion, timeframe string, now time.Time) []models.Conversion {
	start, ok := IntervalStart(timeframe, now)
	if !ok {
		return nil
	}
	filtered := make([]models.Conversion, 0, len(conversions))
	for _, c := range conversions {
		if !c.DateOccurred.Before(start) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FilterConversionsByDateInterval 按两侧可选的闭区间过滤
func FilterConversionsByDateInterval(conversions []models.Conversion, from, to *time.Time) []models.Conversion {
	filtered := make([]models.Conversion, 0, len(conversions))
	for _, c := range conversions {
		if from != nil && c.DateOccurred.Before(*from) {
			continue
		}
		if to != nil && c.DateOccurred.After(*to) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// ConversionSegment 某个报表区间及落入其中的转化
type ConversionSegment struct {
	Bucket      TimeBucket          `json:"bucket"`
	Conversions []models.Conversion `json:"conversions"`
}

// SegmentConversionsByTimeframe 把转化按报表区间划分。
// 区间左闭右开，末段终点为 now，与 SegmentTimeframe 保持一致。
func SegmentConversionsByTimeframe(conversions []models.Conversion, timeframe string, now time.Time) []ConversionSegment {
	buckets := SegmentTimeframe(timeframe, now)
	if len(buckets) == 0 {
		return nil
	}
	segments := make([]ConversionSegment, len(buckets))
	for i, bucket := range buckets {
		segments[i] = ConversionSegment{Bucket: bucket, Conversions: []models.Conversion{}}
	}
	for _, c := range conversions {
		for i := range segments {
			inLast := i == len(segments)-1 && !c.DateOccurred.Before(segments[i].Bucket.Start) && !c.DateOccurred.After(now)
			if segments[i].Bucket.Contains(c.DateOccurred) || inLast {
				segments[i].Conversions = append(segments[i].Conversions, c)
				break
			}
		}
	}
	return segments
}
