package aggregate

import (
	"math"
	"time"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// PeriodStart returns the start of the period containing t for the given
// granularity. Days and weeks are anchored to UTC midnight; weeks start on
// Monday; months are calendar months.
func PeriodStart(g types.Granularity, t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case types.GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday == 0
		return day.AddDate(0, 0, -offset)
	case types.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// NextPeriod returns the start of the period following the one that
// contains t.
func NextPeriod(g types.Granularity, t time.Time) time.Time {
	start := PeriodStart(g, t)
	switch g {
	case types.GranularityWeek:
		return start.AddDate(0, 0, 7)
	case types.GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Aggregate buckets workload records into uniform periods covering
// [windowStart, windowEnd] and sums the three dashboard metrics per bucket.
// Every calendar period in the window yields exactly one bucket, including
// periods with no records, so charts always render a contiguous axis.
//
// Accumulation is defensive: non-finite metric values on a record count as
// zero, and a malformed record never fails the whole aggregation. Records
// outside the window are ignored.
func Aggregate(records []types.WorkloadRecord, g types.Granularity, windowStart, windowEnd time.Time) []types.AggregatedBucket {
	windowStart = windowStart.UTC()
	windowEnd = windowEnd.UTC()
	if windowEnd.Before(windowStart) {
		return nil
	}

	var buckets []types.AggregatedBucket
	index := make(map[int64]int)
	for start := PeriodStart(g, windowStart); !start.After(windowEnd); start = NextPeriod(g, start) {
		index[start.Unix()] = len(buckets)
		buckets = append(buckets, types.AggregatedBucket{
			PeriodStart: start,
			PeriodEnd:   NextPeriod(g, start),
		})
	}

	owners := make([]map[string]struct{}, len(buckets))

	for _, rec := range records {
		ts := rec.SubmittedAt.UTC()
		if ts.Before(windowStart) || ts.After(windowEnd) {
			continue
		}
		i, ok := index[PeriodStart(g, ts).Unix()]
		if !ok {
			continue
		}

		b := &buckets[i]
		b.EnergyKWh += sanitize(rec.EnergyConsumedKWh)
		b.CostUSD += sanitize(rec.CostUSD)
		b.CarbonKg += sanitize(rec.CarbonEmittedKg)
		b.SampleCount++

		if rec.OwnerID != "" {
			if owners[i] == nil {
				owners[i] = make(map[string]struct{})
			}
			owners[i][rec.OwnerID] = struct{}{}
		}
	}

	for i := range buckets {
		buckets[i].DistinctOwnerCount = len(owners[i])
	}
	return buckets
}

// sanitize treats missing or corrupt numeric fields as zero.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
