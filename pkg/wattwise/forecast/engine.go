package forecast

import (
	"math"

	"github.com/montanaflynn/stats"
	"k8s.io/klog/v2"

	"github.com/gridlens/wattwise/pkg/wattwise/aggregate"
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

const (
	// trailingWindow caps how many recent periods feed the moving average,
	// the trend fit, and the uncertainty band.
	trailingWindow = 7

	// A fitted slope smaller than this fraction of the window mean (per
	// period) is noise; the projection stays flat.
	trendSignificanceFraction = 0.02
)

// Horizon returns the default historical window (in days) and the number of
// periods to project for a granularity.
func Horizon(g types.Granularity) (historicalDays, periodsAhead int) {
	switch g {
	case types.GranularityWeek:
		return 90, 4
	case types.GranularityMonth:
		return 180, 3
	default:
		return 30, 7
	}
}

// Forecast projects periodsAhead future buckets for one metric from an
// aggregated historical series. Historical periods are included in the
// output carrying their actual totals; projected periods carry a central
// estimate with a symmetric uncertainty band.
//
// The central estimate is a trailing moving average of the last
// min(trailingWindow, len) bucket totals, extrapolated flat unless the
// least-squares slope over the same window is significant, in which case
// the slope is applied additively per future step. The band half-width is
// the sample standard deviation of the window; the lower bound never drops
// below zero.
//
// An empty historical series yields an empty result, not an error: callers
// must render "insufficient data" rather than a failure.
func Forecast(historical []types.AggregatedBucket, periodsAhead int, metric types.Metric, g types.Granularity) []types.ForecastPoint {
	if len(historical) == 0 {
		return nil
	}

	points := make([]types.ForecastPoint, 0, len(historical)+periodsAhead)
	for _, b := range historical {
		points = append(points, types.ForecastPoint{
			PeriodDate: b.PeriodStart,
			Actual:     fptr(b.Total(metric)),
		})
	}
	if periodsAhead <= 0 {
		return points
	}

	window := trailingTotals(historical, metric)
	mean, sigma, slope := windowStats(window)

	trend := 0.0
	if mean != 0 && math.Abs(slope) >= trendSignificanceFraction*math.Abs(mean) {
		trend = slope
	}
	klog.V(4).InfoS("Projecting forecast",
		"metric", metric,
		"granularity", g,
		"windowSize", len(window),
		"mean", mean,
		"sigma", sigma,
		"trend", trend)

	date := historical[len(historical)-1].PeriodEnd
	for k := 1; k <= periodsAhead; k++ {
		central := math.Max(0, mean+trend*float64(k))
		points = append(points, types.ForecastPoint{
			PeriodDate: date,
			Forecast:   fptr(central),
			LowerBound: fptr(math.Max(0, central-sigma)),
			UpperBound: fptr(central + sigma),
		})
		date = aggregate.NextPeriod(g, date)
	}
	return points
}

// trailingTotals extracts the last min(trailingWindow, len) per-period
// totals for the metric.
func trailingTotals(historical []types.AggregatedBucket, metric types.Metric) []float64 {
	n := len(historical)
	size := trailingWindow
	if n < size {
		size = n
	}
	window := make([]float64, 0, size)
	for _, b := range historical[n-size:] {
		window = append(window, b.Total(metric))
	}
	return window
}

// windowStats computes the moving-average mean, the sample standard
// deviation, and the per-period least-squares slope of the window. A
// single-sample window has zero deviation and zero slope.
func windowStats(window []float64) (mean, sigma, slope float64) {
	mean, err := stats.Mean(stats.Float64Data(window))
	if err != nil {
		return 0, 0, 0
	}
	if len(window) < 2 {
		return mean, 0, 0
	}

	sigma, err = stats.StandardDeviationSample(stats.Float64Data(window))
	if err != nil {
		sigma = 0
	}

	series := make(stats.Series, len(window))
	for i, v := range window {
		series[i] = stats.Coordinate{X: float64(i), Y: v}
	}
	fitted, err := stats.LinearRegression(series)
	if err == nil && len(fitted) >= 2 {
		slope = fitted[1].Y - fitted[0].Y
	}
	return mean, sigma, slope
}

func fptr(v float64) *float64 {
	return &v
}
