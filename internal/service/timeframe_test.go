package service

import (
	"testing"
	"time"

	"github.com/firesales-next/internal/constants"
)

func TestIntervalStartLastWeekCoversSevenDays(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	start, ok := IntervalStart(constants.TimeframeLastWeek, now)
	if !ok {
		t.Fatalf("expected interval for last_week")
	}
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("last_week start want %v got %v", want, start)
	}
}

func TestIntervalStartCalendarUnits(t *testing.T) {
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		timeframe string
		want      time.Time
	}{
		// 无 2 月 31 日，AddDate 进位到 3 月初
		{constants.TimeframeLastMonth, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{constants.TimeframeLastThreeMonths, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
		{constants.TimeframeLastSixMonths, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
		{constants.TimeframeLastYear, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		start, ok := IntervalStart(tc.timeframe, now)
		if !ok {
			t.Fatalf("%s: expected interval", tc.timeframe)
		}
		if !start.Equal(tc.want) {
			t.Fatalf("%s start want %v got %v", tc.timeframe, tc.want, start)
		}
	}
}

func TestIntervalStartUnknownTimeframe(t *testing.T) {
	if _, ok := IntervalStart("fortnight", time.Now()); ok {
		t.Fatalf("unknown timeframe must not resolve")
	}
}

func TestSegmentTimeframeBucketCounts(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

	cases := map[string]int{
		constants.TimeframeLastWeek:        7,
		constants.TimeframeLastMonth:       4,
		constants.TimeframeLastThreeMonths: 6,
		constants.TimeframeLastSixMonths:   6,
		constants.TimeframeLastYear:        4,
	}
	for timeframe, want := range cases {
		buckets := SegmentTimeframe(timeframe, now)
		if len(buckets) != want {
			t.Fatalf("%s bucket count want %d got %d", timeframe, want, len(buckets))
		}
	}
}

func TestSegmentTimeframeCoversWholeInterval(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	buckets := SegmentTimeframe(constants.TimeframeLastMonth, now)
	if len(buckets) == 0 {
		t.Fatalf("expected buckets")
	}

	start, _ := IntervalStart(constants.TimeframeLastMonth, now)
	if !buckets[0].Start.Equal(start) {
		t.Fatalf("first bucket start want %v got %v", start, buckets[0].Start)
	}
	if !buckets[len(buckets)-1].End.Equal(now) {
		t.Fatalf("last bucket end want %v got %v", now, buckets[len(buckets)-1].End)
	}
	for i := 1; i < len(buckets); i++ {
		if !buckets[i].Start.Equal(buckets[i-1].End) {
			t.Fatalf("bucket %d not contiguous: prev end %v next start %v", i, buckets[i-1].End, buckets[i].Start)
		}
	}
}

func TestSegmentTimeframeLabelsBuckets(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	buckets := SegmentTimeframe(constants.TimeframeLastWeek, now)
	if len(buckets) != 7 {
		t.Fatalf("last_week buckets want 7 got %d", len(buckets))
	}
	for i, bucket := range buckets {
		want := bucket.Start.Format("2006-01-02")
		if bucket.Label != want {
			t.Fatalf("bucket %d label want %q got %q", i, want, bucket.Label)
		}
	}
	if buckets[0].Label != "2026-03-09" {
		t.Fatalf("first bucket label want 2026-03-09 got %q", buckets[0].Label)
	}
}

func TestTimeBucketContainsHalfOpen(t *testing.T) {
	bucket := TimeBucket{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	if !bucket.Contains(bucket.Start) {
		t.Fatalf("start must be inside the bucket")
	}
	if bucket.Contains(bucket.End) {
		t.Fatalf("end must be outside the bucket")
	}
}
