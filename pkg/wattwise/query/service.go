package query

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/gridlens/wattwise/pkg/wattwise/aggregate"
	"github.com/gridlens/wattwise/pkg/wattwise/catalog"
	"github.com/gridlens/wattwise/pkg/wattwise/clock"
	"github.com/gridlens/wattwise/pkg/wattwise/forecast"
	"github.com/gridlens/wattwise/pkg/wattwise/metrics"
	"github.com/gridlens/wattwise/pkg/wattwise/store"
	"github.com/gridlens/wattwise/pkg/wattwise/synth"
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// Request describes one forecast query from the dashboard.
type Request struct {
	Scope       store.Scope
	Granularity types.Granularity
	// HistoricalWindowDays and PeriodsAhead default per granularity
	// when zero (day: 30/7, week: 90/4, month: 180/3).
	HistoricalWindowDays int
	PeriodsAhead         int
}

// Response carries everything the dashboard needs to render one scope:
// the zero-filled historical buckets, per-metric forecast series, and the
// KPI summary. Empty data is a valid response, not an error.
type Response struct {
	AggregatedHistorical []types.AggregatedBucket               `json:"aggregatedHistorical"`
	Forecasts            map[types.Metric][]types.ForecastPoint `json:"forecasts"`
	Summary              types.ForecastSummary                  `json:"summary"`
}

// Service answers forecast queries over the workload ledger and accepts
// on-demand workload submissions. It is safe for concurrent use.
type Service struct {
	store store.RecordStore
	clk   clock.Clock
	cache *responseCache

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a query service. cacheTTL <= 0 disables response
// caching; a nil clk falls back to the system clock.
func NewService(st store.RecordStore, clk clock.Clock, cacheTTL time.Duration) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	var cache *responseCache
	if cacheTTL > 0 {
		cache = newResponseCache(cacheTTL)
	}
	return &Service{
		store: st,
		clk:   clk,
		cache: cache,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Forecast aggregates the historical window for the requested scope and
// projects every dashboard metric forward. The returned historical buckets
// are zero-filled across the whole window so charts render a contiguous
// axis even for scopes with no records.
func (s *Service) Forecast(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(started).Seconds())
	}()

	g := req.Granularity
	if g == "" {
		g = types.GranularityDay
	}
	defaultDays, defaultAhead := forecast.Horizon(g)
	windowDays := req.HistoricalWindowDays
	if windowDays <= 0 {
		windowDays = defaultDays
	}
	periodsAhead := req.PeriodsAhead
	if periodsAhead <= 0 {
		periodsAhead = defaultAhead
	}

	cacheKey := fmt.Sprintf("%s_%s_%s_%d_%d", req.Scope.OwnerID, req.Scope.ZoneID, g, windowDays, periodsAhead)
	if s.cache != nil {
		if cached := s.cache.Get(cacheKey); cached != nil {
			klog.V(3).InfoS("Serving forecast from cache", "key", cacheKey)
			return cached, nil
		}
	}

	now := s.clk.Now().UTC()
	windowStart := aggregate.PeriodStart(types.GranularityDay, now).AddDate(0, 0, -(windowDays - 1))

	records, err := s.store.Query(ctx, req.Scope, windowStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load workload records: %v", err)
	}

	historical := aggregate.Aggregate(records, g, windowStart, now)

	forecasts := make(map[types.Metric][]types.ForecastPoint, 3)
	for _, m := range types.Metrics() {
		forecasts[m] = forecast.Forecast(historical, periodsAhead, m, g)
	}

	resp := &Response{
		AggregatedHistorical: historical,
		Forecasts:            forecasts,
		Summary:              forecast.SummarizeAll(forecasts),
	}

	metrics.ForecastRequests.WithLabelValues(string(g)).Inc()
	klog.V(3).InfoS("Served forecast query",
		"owner", req.Scope.OwnerID,
		"zone", req.Scope.ZoneID,
		"granularity", g,
		"records", len(records),
		"buckets", len(historical),
		"periodsAhead", periodsAhead)

	if s.cache != nil {
		s.cache.Set(cacheKey, resp)
	}
	return resp, nil
}

// SubmitRequest describes one on-demand workload submission. Zero resource
// values fall back to the catalog profile for the type.
type SubmitRequest struct {
	Type       types.WorkloadType `json:"type"`
	GPUMinutes float64            `json:"gpuMinutes"`
	CPUCores   int                `json:"cpuCores"`
	MemoryGB   int                `json:"memoryGb"`
	Urgency    types.Urgency      `json:"urgency"`
	OwnerID    string             `json:"ownerId"`
	ZoneID     string             `json:"zoneId"`
}

// SubmitWorkload synthesizes telemetry for a single workload submitted now
// and appends it to the ledger. It runs through the same canonical
// synthesizer as bulk generation, so the two paths can never drift apart.
// An unknown workload type fails this call only.
func (s *Service) SubmitWorkload(ctx context.Context, req SubmitRequest) (*types.WorkloadRecord, error) {
	profile, err := catalog.Lookup(req.Type)
	if err != nil {
		return nil, err
	}

	gpuMinutes := req.GPUMinutes
	if gpuMinutes <= 0 {
		gpuMinutes = (profile.GPUMinutes.Min + profile.GPUMinutes.Max) / 2
	}
	cpuCores := req.CPUCores
	if cpuCores <= 0 {
		cpuCores = int(profile.CPUCores.Min)
	}
	memoryGB := req.MemoryGB
	if memoryGB <= 0 {
		memoryGB = int(profile.MemoryGB.Min)
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = types.UrgencyMedium
	}

	submittedAt := s.clk.Now().UTC()

	s.rngMu.Lock()
	result, err := synth.Synthesize(req.Type, gpuMinutes, float64(cpuCores), submittedAt, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	rec := types.WorkloadRecord{
		ID:                "JOB-" + uuid.New().String(),
		Type:              req.Type,
		SubmittedAt:       submittedAt,
		GPUMinutes:        gpuMinutes,
		CPUCores:          cpuCores,
		MemoryGB:          memoryGB,
		Urgency:           urgency,
		EnergyConsumedKWh: result.EnergyKWh,
		CostUSD:           result.CostUSD,
		CarbonEmittedKg:   result.CarbonKg,
		ActualStart:       result.ActualStart,
		ActualEnd:         result.ActualEnd,
		OwnerID:           req.OwnerID,
		ZoneID:            req.ZoneID,
	}

	if _, err := s.store.InsertBatch(ctx, []types.WorkloadRecord{rec}); err != nil {
		return nil, fmt.Errorf("failed to persist submitted workload: %v", err)
	}

	metrics.WorkloadsSubmitted.Inc()
	if s.cache != nil {
		s.cache.Clear()
	}
	return &rec, nil
}

// Close releases cache resources.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}
