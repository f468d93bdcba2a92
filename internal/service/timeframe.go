package service

import (
	"time"

	"github.com/firesales-next/internal/constants"
)

// bucketLabelLayout 区间展示名称的日期格式（取区间起点）
const bucketLabelLayout = "2006-01-02"

// TimeBucket 时间段区间，左闭右开 [Start, End)
type TimeBucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains 判断时间点是否落在区间内
func (b TimeBucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// timeframeBucketCount 各时间范围划分出的区间数量
func timeframeBucketCount(timeframe string) int {
	switch timeframe {
	case constants.TimeframeLastWeek:
		return 7
	case constants.TimeframeLastMonth:
		return 4
	case constants.TimeframeLastThreeMonths:
		return 6
	case constants.TimeframeLastSixMonths:
		return 6
	case constants.TimeframeLastYear:
		return 4
	default:
		return 0
	}
}

// IntervalStart 计算时间范围的起点。
// 最近一周取当天起算往前 6 天的零点（共覆盖 7 个自然日），
// 其余按日历单位回退，由 AddDate 处理跨月进位。
func IntervalStart(timeframe string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch timeframe {
	case constants.TimeframeLastWeek:
		return today.AddDate(0, 0, -6), true
	case constants.TimeframeLastMonth:
		return today.AddDate(0, -1, 0), true
	case constants.TimeframeLastThreeMonths:
		return today.AddDate(0, -3, 0), true
	case constants.TimeframeLastSixMonths:
		return today.AddDate(0, -6, 0), true
	case constants.TimeframeLastYear:
		return today.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// SegmentTimeframe 把时间范围均分成固定数量的区间。
// 区间首尾相接，最后一个区间的终点收到 now，保证整体覆盖 [start, now]。
func SegmentTimeframe(timeframe string, now time.Time) []TimeBucket {
	start, ok := IntervalStart(timeframe, now)
	if !ok {
		return nil
	}
	count := timeframeBucketCount(timeframe)
	if count <= 0 {
		return nil
	}

	total := now.Sub(start)
	step := total / time.Duration(count)
	buckets := make([]TimeBucket, 0, count)
	cursor := start
	for i := 0; i < count; i++ {
		end := cursor.Add(step)
		if i == count-1 {
			end = now
		}
		buckets = append(buckets, TimeBucket{
			Label: cursor.Format(bucketLabelLayout),
			Start: cursor,
			End:   end,
		})
		cursor = end
	}
	return buckets
}
