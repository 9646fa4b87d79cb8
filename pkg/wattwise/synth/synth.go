package synth

import (
	"math"
	"time"

	"github.com/gridlens/wattwise/pkg/wattwise/catalog"
	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

const (
	// kWh drawn per GPU-hour of work, on top of the profile base.
	gpuEnergyPerHour = 0.3
	// kWh drawn per allocated CPU core over the job lifetime.
	cpuEnergyPerCore = 0.1
	// USD per kWh before the zone multiplier.
	baseRatePerKWh = 0.15

	energyVarianceFraction = 0.15
	zoneMultiplierMin      = 0.8
	zoneMultiplierMax      = 1.2
	carbonIntensityMin     = 180.0 // gCO2eq/kWh
	carbonIntensityMax     = 280.0
	durationJitterMin      = 0.8
	durationJitterMax      = 1.2
	maxQueueDelayMinutes   = 5.0

	// Every job draws at least this much energy regardless of profile.
	minEnergyKWh = 1.0
)

// Rand is the explicit source of randomness threaded through synthesis.
// *math/rand.Rand satisfies it; tests substitute scripted sources so that
// outputs are fully deterministic.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Uniform draws a value uniformly from [lo, hi).
func Uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Result holds the synthesized telemetry for a single workload.
type Result struct {
	EnergyKWh       float64
	CostUSD         float64
	CarbonKg        float64
	DurationMinutes float64
	ActualStart     time.Time
	ActualEnd       time.Time
}

// Synthesize produces statistically plausible energy, cost, carbon, and
// runtime figures for one workload. It is the single canonical home for
// these formulas; both the bulk corpus builder and the on-demand submission
// path call it.
//
// Draw order against rng is part of the contract: energy variance, zone
// multiplier, carbon intensity, duration jitter, queue delay.
func Synthesize(t types.WorkloadType, gpuMinutes, cpuCores float64, submittedAt time.Time, rng Rand) (Result, error) {
	profile, err := catalog.Lookup(t)
	if err != nil {
		return Result{}, err
	}

	base := profile.BaseEnergyKWh
	gpuFactor := (gpuMinutes / 60) * gpuEnergyPerHour
	cpuFactor := cpuCores * cpuEnergyPerCore
	variance := Uniform(rng, -energyVarianceFraction, energyVarianceFraction) * base
	energyKWh := math.Max(minEnergyKWh, base+gpuFactor+cpuFactor+variance)

	zoneMultiplier := Uniform(rng, zoneMultiplierMin, zoneMultiplierMax)
	costUSD := round2(energyKWh * baseRatePerKWh * zoneMultiplier)

	intensity := Uniform(rng, carbonIntensityMin, carbonIntensityMax) * IntensityFactor(submittedAt.Hour())
	carbonKg := round3(energyKWh * intensity / 1000)

	durationMinutes := profile.NominalDurationMinutes * Uniform(rng, durationJitterMin, durationJitterMax)

	queueDelay := Uniform(rng, 0, maxQueueDelayMinutes)
	actualStart := submittedAt.Add(time.Duration(queueDelay * float64(time.Minute)))
	actualEnd := actualStart.Add(time.Duration(durationMinutes * float64(time.Minute)))

	return Result{
		EnergyKWh:       energyKWh,
		CostUSD:         costUSD,
		CarbonKg:        carbonKg,
		DurationMinutes: durationMinutes,
		ActualStart:     actualStart,
		ActualEnd:       actualEnd,
	}, nil
}

// IntensityFactor scales the drawn grid carbon intensity by hour of day:
// midday solar depresses intensity, morning and evening ramps raise it.
func IntensityFactor(hour int) float64 {
	switch {
	case hour >= 10 && hour <= 16:
		return 0.7
	case hour >= 6 && hour <= 9, hour >= 17 && hour <= 22:
		return 1.2
	default:
		return 1.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
