package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

func chartDay(d int) time.Time {
	return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC)
}

func fptr(v float64) *float64 { return &v }

func TestFormatChartMergesHistoricalAndForecast(t *testing.T) {
	historical := []types.AggregatedBucket{
		{PeriodStart: chartDay(1), PeriodEnd: chartDay(2), EnergyKWh: 10},
		{PeriodStart: chartDay(2), PeriodEnd: chartDay(3), EnergyKWh: 20},
	}
	forecasts := []types.ForecastPoint{
		{PeriodDate: chartDay(1), Actual: fptr(10)},
		{PeriodDate: chartDay(2), Actual: fptr(20)},
		{PeriodDate: chartDay(3), Forecast: fptr(15), LowerBound: fptr(12), UpperBound: fptr(18)},
		{PeriodDate: chartDay(4), Forecast: fptr(16), LowerBound: fptr(13), UpperBound: fptr(19)},
	}

	rows := FormatChart(historical, forecasts, types.MetricEnergy)
	require.Len(t, rows, 4)

	// Ascending, gap-free axis.
	for i, r := range rows {
		assert.Equal(t, chartDay(i+1), r.Date)
	}

	// Historical rows carry actuals only.
	require.NotNil(t, rows[0].Actual)
	assert.Equal(t, 10.0, *rows[0].Actual)
	assert.Nil(t, rows[0].Forecast)

	// Projected rows carry the estimate and its band.
	require.NotNil(t, rows[2].Forecast)
	assert.Equal(t, 15.0, *rows[2].Forecast)
	assert.Equal(t, 12.0, *rows[2].Lower)
	assert.Equal(t, 18.0, *rows[2].Upper)
	assert.Nil(t, rows[2].Actual)
}

func TestFormatChartUsesMetricTotals(t *testing.T) {
	historical := []types.AggregatedBucket{
		{PeriodStart: chartDay(1), PeriodEnd: chartDay(2), EnergyKWh: 10, CostUSD: 1.5, CarbonKg: 2.5},
	}

	cost := FormatChart(historical, nil, types.MetricCost)
	require.Len(t, cost, 1)
	assert.Equal(t, 1.5, *cost[0].Actual)

	carbon := FormatChart(historical, nil, types.MetricCarbon)
	assert.Equal(t, 2.5, *carbon[0].Actual)
}

func TestFormatChartEmptyInputs(t *testing.T) {
	rows := FormatChart(nil, nil, types.MetricEnergy)
	assert.Empty(t, rows)
}

func TestFormatChartForecastOnlyPeriods(t *testing.T) {
	forecasts := []types.ForecastPoint{
		{PeriodDate: chartDay(5), Forecast: fptr(7), LowerBound: fptr(7), UpperBound: fptr(7)},
	}
	rows := FormatChart(nil, forecasts, types.MetricEnergy)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Actual)
	assert.Equal(t, 7.0, *rows[0].Forecast)
}
