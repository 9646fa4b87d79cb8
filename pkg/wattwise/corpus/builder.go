package corpus

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/gridlens/wattwise/pkg/wattwise/catalog"
	"github.com/gridlens/wattwise/pkg/wattwise/clock"
	"github.com/gridlens/wattwise/pkg/wattwise/metrics"
	"github.com/gridlens/wattwise/pkg/wattwise/synth"
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

const (
	// DefaultBatchSize is how many records are handed to the sink per call.
	DefaultBatchSize = 100

	weekendJobsMin = 3
	weekendJobsMax = 7
	weekdayJobsMin = 10
	weekdayJobsMax = 19

	// Probability that a submission lands inside business hours (9:00-17:00).
	businessHoursBias = 0.7
	businessHourStart = 9
	businessHourEnd   = 17
)

// typeWeights drives the categorical draw of workload types. The table is
// data, not code; adjusting the mix means editing weights here only.
var typeWeights = []synth.Weighted[types.WorkloadType]{
	{Value: types.WorkloadTraining, Weight: 0.25},
	{Value: types.WorkloadInferenceBatch, Weight: 0.25},
	{Value: types.WorkloadDataProcessing, Weight: 0.20},
	{Value: types.WorkloadFineTuning, Weight: 0.15},
	{Value: types.WorkloadRAGQuery, Weight: 0.15},
}

var urgencyWeights = []synth.Weighted[types.Urgency]{
	{Value: types.UrgencyMedium, Weight: 0.60},
	{Value: types.UrgencyLow, Weight: 0.25},
	{Value: types.UrgencyHigh, Weight: 0.15},
}

// Sink accepts batches of workload records for persistence. A partial
// failure is reported per batch; the builder never rolls back batches that
// already succeeded.
type Sink interface {
	InsertBatch(ctx context.Context, batch []types.WorkloadRecord) (int, error)
}

// PreconditionError aborts a corpus build before any record is generated.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("corpus precondition failed: %s", e.Reason)
}

// Config controls corpus generation and delivery.
type Config struct {
	// Days is the number of calendar days to cover, counting backward
	// from the clock's current day.
	Days int
	// Seed anchors all random draws. The same seed, day count, owners,
	// and zones reproduce the exact same corpus.
	Seed int64
	// BatchSize is the sink delivery batch size; DefaultBatchSize if <= 0.
	BatchSize int
	// Workers bounds concurrent per-day generation. Each day owns an
	// independent RNG stream seeded from (Seed, day offset), so the
	// corpus is identical whatever the worker count. 1 if <= 0.
	Workers int

	Owners []string
	Zones  []string
}

// Report summarizes a corpus build: how much was generated and how much of
// it the sink actually accepted.
type Report struct {
	Generated     int
	Inserted      int
	Batches       int
	FailedBatches int
}

// Builder generates a historical corpus and delivers it to a sink.
type Builder struct {
	cfg  Config
	sink Sink
	clk  clock.Clock
}

// New creates a corpus builder. A nil clk falls back to the system clock.
func New(cfg Config, sink Sink, clk clock.Clock) *Builder {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Builder{cfg: cfg, sink: sink, clk: clk}
}

// Generate produces the full synthetic corpus for the configured window.
// It is pure given the config and the supplied "now": no records are
// persisted and no global state is touched.
func Generate(cfg Config, now time.Time) ([]types.WorkloadRecord, error) {
	if len(cfg.Owners) == 0 {
		return nil, &PreconditionError{Reason: "owner set is empty"}
	}
	if len(cfg.Zones) == 0 {
		return nil, &PreconditionError{Reason: "zone set is empty"}
	}
	if cfg.Days <= 0 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("day count must be positive, got %d", cfg.Days)}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > cfg.Days {
		workers = cfg.Days
	}

	today := now.UTC().Truncate(24 * time.Hour)
	perDay := make([][]types.WorkloadRecord, cfg.Days)

	var (
		wg     sync.WaitGroup
		dayCh  = make(chan int)
		errMu  sync.Mutex
		genErr error
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for d := range dayCh {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(d)))
				day := today.AddDate(0, 0, -d)
				records, err := generateDay(d, day, cfg.Owners, cfg.Zones, rng)
				if err != nil {
					errMu.Lock()
					if genErr == nil {
						genErr = err
					}
					errMu.Unlock()
					continue
				}
				perDay[d] = records
			}
		}()
	}
	for d := 0; d < cfg.Days; d++ {
		dayCh <- d
	}
	close(dayCh)
	wg.Wait()

	if genErr != nil {
		return nil, fmt.Errorf("failed to generate corpus: %v", genErr)
	}

	var corpus []types.WorkloadRecord
	for _, records := range perDay {
		corpus = append(corpus, records...)
	}

	// Newest first, matching the ledger convention. Callers must not rely
	// on this order.
	sort.Slice(corpus, func(i, j int) bool {
		return corpus[i].SubmittedAt.After(corpus[j].SubmittedAt)
	})

	metrics.RecordsGenerated.Add(float64(len(corpus)))
	return corpus, nil
}

// generateDay synthesizes every workload submitted on one calendar day.
// day must be midnight UTC of the target date.
func generateDay(dayOffset int, day time.Time, owners, zones []string, rng synth.Rand) ([]types.WorkloadRecord, error) {
	var jobCount int
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		jobCount = weekendJobsMin + rng.Intn(weekendJobsMax-weekendJobsMin+1)
	default:
		jobCount = weekdayJobsMin + rng.Intn(weekdayJobsMax-weekdayJobsMin+1)
	}

	records := make([]types.WorkloadRecord, 0, jobCount)
	for i := 0; i < jobCount; i++ {
		workloadType := synth.SampleWeighted(typeWeights, rng)

		var hour int
		if rng.Float64() < businessHoursBias {
			hour = businessHourStart + rng.Intn(businessHourEnd-businessHourStart)
		} else {
			hour = rng.Intn(24)
		}
		minute := rng.Intn(60)
		submittedAt := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

		profile, err := catalog.Lookup(workloadType)
		if err != nil {
			return nil, err
		}
		gpuMinutes := synth.Uniform(rng, profile.GPUMinutes.Min, profile.GPUMinutes.Max)
		cpuCores := sampleIntRange(profile.CPUCores, rng)
		memoryGB := sampleIntRange(profile.MemoryGB, rng)

		urgency := synth.SampleWeighted(urgencyWeights, rng)
		owner := owners[rng.Intn(len(owners))]
		zone := zones[rng.Intn(len(zones))]

		result, err := synth.Synthesize(workloadType, gpuMinutes, float64(cpuCores), submittedAt, rng)
		if err != nil {
			return nil, err
		}

		records = append(records, types.WorkloadRecord{
			ID:                fmt.Sprintf("JOB-HIST-%05d-%03d", dayOffset, i),
			Type:              workloadType,
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
			OwnerID:           owner,
			ZoneID:            zone,
		})
	}
	return records, nil
}

func sampleIntRange(r catalog.Range, rng synth.Rand) int {
	if r.Max <= r.Min {
		return int(r.Min)
	}
	return int(math.Round(synth.Uniform(rng, r.Min, r.Max)))
}

// Run generates the corpus and delivers it to the sink in fixed-size
// batches. A failed batch is logged and skipped; sibling batches proceed.
// The returned report always reflects what actually happened, even when an
// error is returned alongside it.
func (b *Builder) Run(ctx context.Context) (Report, error) {
	report := Report{}

	corpus, err := Generate(b.cfg, b.clk.Now())
	if err != nil {
		return report, err
	}
	report.Generated = len(corpus)

	if b.sink == nil {
		return report, fmt.Errorf("corpus builder has no sink configured")
	}

	batchSize := b.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(corpus); start += batchSize {
		if err := ctx.Err(); err != nil {
			klog.V(2).InfoS("Corpus delivery cancelled",
				"inserted", report.Inserted,
				"generated", report.Generated)
			return report, err
		}

		end := start + batchSize
		if end > len(corpus) {
			end = len(corpus)
		}
		batch := corpus[start:end]
		report.Batches++

		inserted, err := b.sink.InsertBatch(ctx, batch)
		if err != nil {
			report.FailedBatches++
			metrics.BatchesFailed.Inc()
			klog.ErrorS(err, "Failed to insert batch, continuing with next",
				"batch", report.Batches,
				"size", len(batch))
			continue
		}
		report.Inserted += inserted
		metrics.RecordsInserted.Add(float64(inserted))
	}

	klog.V(2).InfoS("Corpus build complete",
		"days", b.cfg.Days,
		"generated", report.Generated,
		"inserted", report.Inserted,
		"batches", report.Batches,
		"failedBatches", report.FailedBatches)

	return report, nil
}
