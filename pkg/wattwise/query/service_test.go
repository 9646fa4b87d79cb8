package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlens/wattwise/pkg/wattwise/catalog"
	"github.com/gridlens/wattwise/pkg/wattwise/clock"
	"github.com/gridlens/wattwise/pkg/wattwise/corpus"
	"github.com/gridlens/wattwise/pkg/wattwise/store"
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

var serviceNow = time.Date(2025, 6, 18, 23, 59, 0, 0, time.UTC)

// seededService builds a service over an in-memory ledger holding a 7-day
// synthetic corpus.
func seededService(t *testing.T, cacheTTL time.Duration) (*Service, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	clk := clock.NewFixed(serviceNow)
	builder := corpus.New(corpus.Config{
		Days:   7,
		Seed:   42,
		Owners: []string{"team-ml-platform", "team-search"},
		Zones:  []string{"us-west-2", "eu-central-1"},
	}, st, clk)

	report, err := builder.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, report.Generated, report.Inserted)

	svc := NewService(st, clk, cacheTTL)
	t.Cleanup(svc.Close)
	return svc, st
}

func TestForecastEndToEnd(t *testing.T) {
	svc, _ := seededService(t, 0)

	resp, err := svc.Forecast(context.Background(), Request{
		Granularity:          types.GranularityDay,
		HistoricalWindowDays: 7,
		PeriodsAhead:         3,
	})
	require.NoError(t, err)

	// Exactly one bucket per day in the window, all populated.
	require.Len(t, resp.AggregatedHistorical, 7)
	for _, b := range resp.AggregatedHistorical {
		assert.Greater(t, b.SampleCount, 0, "every day in the corpus has jobs")
		assert.Greater(t, b.EnergyKWh, 0.0)
	}

	for _, m := range types.Metrics() {
		points := resp.Forecasts[m]
		require.Len(t, points, 10, "7 historical + 3 projected for %s", m)

		for _, p := range points[:7] {
			assert.NotNil(t, p.Actual)
			assert.Nil(t, p.Forecast)
		}
		for _, p := range points[7:] {
			assert.Nil(t, p.Actual)
			require.NotNil(t, p.Forecast)
			require.NotNil(t, p.LowerBound)
			require.NotNil(t, p.UpperBound)
			assert.LessOrEqual(t, *p.LowerBound, *p.Forecast)
			assert.GreaterOrEqual(t, *p.UpperBound, *p.Forecast)
			assert.GreaterOrEqual(t, *p.LowerBound, 0.0)
		}
	}

	assert.Greater(t, resp.Summary.Energy.Total, 0.0)
	assert.NotNil(t, resp.Summary.Energy.PeakPeriodDate)
}

func TestForecastDefaultsFromGranularity(t *testing.T) {
	svc, _ := seededService(t, 0)

	resp, err := svc.Forecast(context.Background(), Request{Granularity: types.GranularityDay})
	require.NoError(t, err)

	// Default day horizon is a 30-day window with 7 projected periods.
	assert.Len(t, resp.AggregatedHistorical, 30)
	assert.Len(t, resp.Forecasts[types.MetricEnergy], 37)
}

func TestForecastScopeNarrowsTotals(t *testing.T) {
	svc, _ := seededService(t, 0)
	ctx := context.Background()
	req := Request{Granularity: types.GranularityDay, HistoricalWindowDays: 7, PeriodsAhead: 1}

	all, err := svc.Forecast(ctx, req)
	require.NoError(t, err)

	req.Scope = store.Scope{OwnerID: "team-search"}
	scoped, err := svc.Forecast(ctx, req)
	require.NoError(t, err)

	var allEnergy, scopedEnergy float64
	for i := range all.AggregatedHistorical {
		allEnergy += all.AggregatedHistorical[i].EnergyKWh
		scopedEnergy += scoped.AggregatedHistorical[i].EnergyKWh
	}
	assert.Greater(t, scopedEnergy, 0.0)
	assert.Less(t, scopedEnergy, allEnergy)

	for _, b := range scoped.AggregatedHistorical {
		assert.LessOrEqual(t, b.DistinctOwnerCount, 1)
	}
}

func TestForecastEmptyScope(t *testing.T) {
	svc, _ := seededService(t, 0)

	resp, err := svc.Forecast(context.Background(), Request{
		Scope:                store.Scope{OwnerID: "team-that-does-not-exist"},
		Granularity:          types.GranularityDay,
		HistoricalWindowDays: 7,
		PeriodsAhead:         3,
	})
	require.NoError(t, err)

	// No records still yields zero-filled buckets and a valid response.
	require.Len(t, resp.AggregatedHistorical, 7)
	for _, b := range resp.AggregatedHistorical {
		assert.Zero(t, b.SampleCount)
	}
	assert.Nil(t, resp.Summary.Energy.PeakPeriodDate)
}

func TestForecastCaching(t *testing.T) {
	svc, _ := seededService(t, time.Minute)
	ctx := context.Background()
	req := Request{Granularity: types.GranularityDay, HistoricalWindowDays: 7, PeriodsAhead: 2}

	first, err := svc.Forecast(ctx, req)
	require.NoError(t, err)
	second, err := svc.Forecast(ctx, req)
	require.NoError(t, err)
	assert.Same(t, first, second, "repeat query within the TTL must hit the cache")

	// A new submission invalidates cached responses.
	_, err = svc.SubmitWorkload(ctx, SubmitRequest{Type: types.WorkloadRAGQuery, OwnerID: "team-search", ZoneID: "us-west-2"})
	require.NoError(t, err)
	third, err := svc.Forecast(ctx, req)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestSubmitWorkloadDefaultsAndPersistence(t *testing.T) {
	svc, st := seededService(t, 0)
	before := st.Size()

	rec, err := svc.SubmitWorkload(context.Background(), SubmitRequest{
		Type:    types.WorkloadTraining,
		OwnerID: "team-ml-platform",
		ZoneID:  "us-west-2",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rec.ID, "JOB-"))
	assert.Equal(t, serviceNow, rec.SubmittedAt)
	assert.Equal(t, types.UrgencyMedium, rec.Urgency, "urgency defaults to medium")

	// Zero resources fall back to the catalog profile.
	profile, err := catalog.Lookup(types.WorkloadTraining)
	require.NoError(t, err)
	assert.Equal(t, (profile.GPUMinutes.Min+profile.GPUMinutes.Max)/2, rec.GPUMinutes)
	assert.Equal(t, int(profile.CPUCores.Min), rec.CPUCores)
	assert.Equal(t, int(profile.MemoryGB.Min), rec.MemoryGB)

	assert.GreaterOrEqual(t, rec.EnergyConsumedKWh, 1.0)
	assert.Equal(t, before+1, st.Size())
}

func TestSubmitWorkloadExplicitResources(t *testing.T) {
	svc, _ := seededService(t, 0)

	rec, err := svc.SubmitWorkload(context.Background(), SubmitRequest{
		Type:       types.WorkloadRAGQuery,
		GPUMinutes: 12,
		CPUCores:   2,
		MemoryGB:   8,
		Urgency:    types.UrgencyHigh,
		OwnerID:    "team-search",
		ZoneID:     "eu-central-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, rec.GPUMinutes)
	assert.Equal(t, 2, rec.CPUCores)
	assert.Equal(t, 8, rec.MemoryGB)
	assert.Equal(t, types.UrgencyHigh, rec.Urgency)
}

func TestSubmitWorkloadUnknownType(t *testing.T) {
	svc, st := seededService(t, 0)
	before := st.Size()

	_, err := svc.SubmitWorkload(context.Background(), SubmitRequest{Type: "NOT_A_TYPE"})
	require.Error(t, err)
	var unknownType *catalog.UnknownWorkloadTypeError
	assert.ErrorAs(t, err, &unknownType)
	assert.Equal(t, before, st.Size(), "nothing may be persisted on a rejected submission")
}

func TestSubmittedWorkloadVisibleInForecast(t *testing.T) {
	svc, _ := seededService(t, 0)
	ctx := context.Background()

	// A scope with no corpus records, then one submission into it.
	scope := store.Scope{OwnerID: "team-fresh"}
	req := Request{Scope: scope, Granularity: types.GranularityDay, HistoricalWindowDays: 7, PeriodsAhead: 1}

	empty, err := svc.Forecast(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, empty.AggregatedHistorical[6].SampleCount)

	_, err = svc.SubmitWorkload(ctx, SubmitRequest{Type: types.WorkloadInferenceBatch, OwnerID: "team-fresh", ZoneID: "us-west-2"})
	require.NoError(t, err)

	after, err := svc.Forecast(ctx, req)
	require.NoError(t, err)
	today := after.AggregatedHistorical[6]
	assert.Equal(t, 1, today.SampleCount)
	assert.Greater(t, today.EnergyKWh, 0.0)
}
