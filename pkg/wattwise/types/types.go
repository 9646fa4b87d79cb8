package types

import (
	"time"
)

// WorkloadType categorizes a compute job and parameterizes its base
// resource and energy assumptions in the profile catalog.
type WorkloadType string

const (
	WorkloadTraining       WorkloadType = "TRAINING_RUN"
	WorkloadInferenceBatch WorkloadType = "INFERENCE_BATCH"
	WorkloadDataProcessing WorkloadType = "DATA_PROCESSING"
	WorkloadFineTuning     WorkloadType = "FINE_TUNING"
	WorkloadRAGQuery       WorkloadType = "RAG_QUERY"
)

// Urgency indicates how quickly a workload owner expects their job to run.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// Metric identifies one of the three dashboard series.
type Metric string

const (
	MetricEnergy Metric = "energy" // kWh
	MetricCost   Metric = "cost"   // USD
	MetricCarbon Metric = "carbon" // kg CO2eq
)

// Metrics lists all dashboard metrics in display order.
func Metrics() []Metric {
	return []Metric{MetricEnergy, MetricCost, MetricCarbon}
}

// Granularity is the uniform period size used to bucket workload records
// for charting and forecasting.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// WorkloadRecord is one synthesized job in the historical ledger. Records
// are created once by the corpus builder (or the on-demand submission path)
// and never mutated afterward.
type WorkloadRecord struct {
	ID                string       `json:"id"`
	Type              WorkloadType `json:"type"`
	SubmittedAt       time.Time    `json:"submittedAt"`
	GPUMinutes        float64      `json:"gpuMinutes"`
	CPUCores          int          `json:"cpuCores"`
	MemoryGB          int          `json:"memoryGb"`
	Urgency           Urgency      `json:"urgency"`
	EnergyConsumedKWh float64      `json:"energyConsumedKwh"`
	CostUSD           float64      `json:"costUsd"`
	CarbonEmittedKg   float64      `json:"carbonEmittedKg"`
	ActualStart       time.Time    `json:"actualStart"`
	ActualEnd         time.Time    `json:"actualEnd"`
	OwnerID           string       `json:"ownerId"`
	ZoneID            string       `json:"zoneId"`
}

// AggregatedBucket holds per-period totals over a set of workload records.
// Buckets are derived on demand and never persisted independently of their
// source records.
type AggregatedBucket struct {
	PeriodStart        time.Time `json:"periodStart"`
	PeriodEnd          time.Time `json:"periodEnd"`
	EnergyKWh          float64   `json:"energyKwh"`
	CostUSD            float64   `json:"costUsd"`
	CarbonKg           float64   `json:"carbonKg"`
	SampleCount        int       `json:"sampleCount"`
	DistinctOwnerCount int       `json:"distinctOwnerCount"`
}

// Total returns the bucket total for the given metric.
func (b AggregatedBucket) Total(m Metric) float64 {
	switch m {
	case MetricEnergy:
		return b.EnergyKWh
	case MetricCost:
		return b.CostUSD
	case MetricCarbon:
		return b.CarbonKg
	}
	return 0
}

// ForecastPoint is one period in a combined historical+projected series.
// Historical periods carry Actual only; projected periods carry Forecast
// with its uncertainty bounds.
type ForecastPoint struct {
	PeriodDate time.Time `json:"periodDate"`
	Actual     *float64  `json:"actualValue,omitempty"`
	Forecast   *float64  `json:"forecastValue,omitempty"`
	LowerBound *float64  `json:"lowerBound,omitempty"`
	UpperBound *float64  `json:"upperBound,omitempty"`
}

// MetricSummary reduces a forecast series for one metric to scalar KPIs.
// PeakPeriodDate is nil when the series contains no projected points.
type MetricSummary struct {
	Total            float64    `json:"totalForecast"`
	AveragePerPeriod float64    `json:"averagePerPeriod"`
	PeakValue        float64    `json:"peakValue"`
	PeakPeriodDate   *time.Time `json:"peakPeriodDate,omitempty"`
}

// ForecastSummary groups the per-metric KPI reductions shown on the
// dashboard summary cards.
type ForecastSummary struct {
	Energy MetricSummary `json:"energy"`
	Cost   MetricSummary `json:"cost"`
	Carbon MetricSummary `json:"carbon"`
}
