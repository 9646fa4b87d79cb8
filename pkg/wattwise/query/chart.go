package query

import (
	"sort"
	"time"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// ChartRow is one period on the combined historical+forecast chart axis.
// Historical periods populate Actual; projected periods populate Forecast
// with its bounds.
type ChartRow struct {
	Date     time.Time `json:"date"`
	Actual   *float64  `json:"actual,omitempty"`
	Forecast *float64  `json:"forecast,omitempty"`
	Lower    *float64  `json:"lower,omitempty"`
	Upper    *float64  `json:"upper,omitempty"`
}

// FormatChart merges aggregated historical buckets and a forecast series
// for one metric into chart rows, one row per period in ascending order.
// Periods present in the buckets but absent from the forecast series (and
// vice versa) still get a row, so the axis has no gaps.
func FormatChart(historical []types.AggregatedBucket, forecasts []types.ForecastPoint, metric types.Metric) []ChartRow {
	rows := make(map[int64]*ChartRow)

	rowFor := func(date time.Time) *ChartRow {
		key := date.Unix()
		if row, ok := rows[key]; ok {
			return row
		}
		row := &ChartRow{Date: date}
		rows[key] = row
		return row
	}

	for _, b := range historical {
		v := b.Total(metric)
		rowFor(b.PeriodStart).Actual = &v
	}

	for i := range forecasts {
		p := forecasts[i]
		row := rowFor(p.PeriodDate)
		if p.Actual != nil && row.Actual == nil {
			row.Actual = p.Actual
		}
		if p.Forecast != nil {
			row.Forecast = p.Forecast
			row.Lower = p.LowerBound
			row.Upper = p.UpperBound
		}
	}

	out := make([]ChartRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
