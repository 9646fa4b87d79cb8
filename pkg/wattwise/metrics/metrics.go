package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "wattwise"

var (
	// RecordsGenerated counts workload records produced by the corpus builder.
	RecordsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "records_generated_total",
		Help:      "Number of synthetic workload records generated",
	})

	// RecordsInserted counts records accepted by the persistence sink.
	RecordsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "records_inserted_total",
		Help:      "Number of workload records accepted by the persistence sink",
	})

	// BatchesFailed counts sink batches that were dropped after an insert error.
	BatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "sink_batches_failed_total",
		Help:      "Number of persistence batches dropped after an insert error",
	})

	// ForecastRequests counts forecast queries by granularity.
	ForecastRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "forecast_requests_total",
		Help:      "Number of forecast queries served, by bucket granularity",
	}, []string{"granularity"})

	// WorkloadsSubmitted counts records created through the on-demand
	// submission path rather than bulk generation.
	WorkloadsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "workloads_submitted_total",
		Help:      "Number of workload records created via on-demand submission",
	})

	// QueryDuration observes end-to-end forecast query latency.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "query_duration_seconds",
		Help:      "Latency of forecast queries including store access",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)
