package forecast

import (
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// Summarize reduces a forecast series to the scalar KPIs shown on the
// dashboard cards: total projected value, average per period, and the peak
// period. Only projected points contribute; historical actuals are skipped.
// An empty or all-historical series yields a zeroed summary with a nil peak
// date rather than an error.
func Summarize(points []types.ForecastPoint) types.MetricSummary {
	summary := types.MetricSummary{}

	futureCount := 0
	for i := range points {
		p := points[i]
		if p.Forecast == nil {
			continue
		}
		v := *p.Forecast
		summary.Total += v
		futureCount++

		// Strictly-greater keeps the earliest period on ties; points
		// arrive in ascending period order.
		if summary.PeakPeriodDate == nil || v > summary.PeakValue {
			summary.PeakValue = v
			d := p.PeriodDate
			summary.PeakPeriodDate = &d
		}
	}

	if futureCount > 0 {
		summary.AveragePerPeriod = summary.Total / float64(futureCount)
	}
	return summary
}

// SummarizeAll builds the combined three-metric summary from per-metric
// forecast series.
func SummarizeAll(byMetric map[types.Metric][]types.ForecastPoint) types.ForecastSummary {
	return types.ForecastSummary{
		Energy: Summarize(byMetric[types.MetricEnergy]),
		Cost:   Summarize(byMetric[types.MetricCost]),
		Carbon: Summarize(byMetric[types.MetricCarbon]),
	}
}
