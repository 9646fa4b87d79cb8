package catalog

import (
	"fmt"

	"github.com/gridlens/wattwise/pkg/wattwise/types"
)

// Range bounds a resource dimension. Min == Max pins the dimension to a
// fixed value.
type Range struct {
	Min float64
	Max float64
}

// Profile is the static per-type configuration used by the telemetry
// synthesizer: base energy draw, nominal duration, and resource ranges.
type Profile struct {
	Type                   types.WorkloadType
	BaseEnergyKWh          float64
	NominalDurationMinutes float64
	GPUMinutes             Range
	CPUCores               Range
	MemoryGB               Range
}

// profiles is the workload profile catalog. Values come from observed
// averages for each job class and are intentionally fixed; per-job variance
// is applied by the synthesizer, not here.
var profiles = map[types.WorkloadType]Profile{
	types.WorkloadTraining: {
		Type:                   types.WorkloadTraining,
		BaseEnergyKWh:          50.0,
		NominalDurationMinutes: 480,
		GPUMinutes:             Range{Min: 240, Max: 960},
		CPUCores:               Range{Min: 16, Max: 16},
		MemoryGB:               Range{Min: 64, Max: 64},
	},
	types.WorkloadInferenceBatch: {
		Type:                   types.WorkloadInferenceBatch,
		BaseEnergyKWh:          15.0,
		NominalDurationMinutes: 60,
		GPUMinutes:             Range{Min: 30, Max: 120},
		CPUCores:               Range{Min: 8, Max: 8},
		MemoryGB:               Range{Min: 32, Max: 32},
	},
	types.WorkloadDataProcessing: {
		Type:                   types.WorkloadDataProcessing,
		BaseEnergyKWh:          25.0,
		NominalDurationMinutes: 180,
		GPUMinutes:             Range{Min: 60, Max: 300},
		CPUCores:               Range{Min: 12, Max: 12},
		MemoryGB:               Range{Min: 48, Max: 48},
	},
	types.WorkloadFineTuning: {
		Type:                   types.WorkloadFineTuning,
		BaseEnergyKWh:          35.0,
		NominalDurationMinutes: 300,
		GPUMinutes:             Range{Min: 120, Max: 480},
		CPUCores:               Range{Min: 16, Max: 16},
		MemoryGB:               Range{Min: 64, Max: 64},
	},
	types.WorkloadRAGQuery: {
		Type:                   types.WorkloadRAGQuery,
		BaseEnergyKWh:          5.0,
		NominalDurationMinutes: 20,
		GPUMinutes:             Range{Min: 5, Max: 30},
		CPUCores:               Range{Min: 4, Max: 4},
		MemoryGB:               Range{Min: 16, Max: 16},
	},
}

// UnknownWorkloadTypeError is returned when a profile is requested for a
// workload type that is not in the catalog.
type UnknownWorkloadTypeError struct {
	Type types.WorkloadType
}

func (e *UnknownWorkloadTypeError) Error() string {
	return fmt.Sprintf("unknown workload type: %q", string(e.Type))
}

// Lookup returns the profile for a workload type.
func Lookup(t types.WorkloadType) (Profile, error) {
	profile, ok := profiles[t]
	if !ok {
		return Profile{}, &UnknownWorkloadTypeError{Type: t}
	}
	return profile, nil
}

// Types returns all cataloged workload types in a stable order.
func Types() []types.WorkloadType {
	return []types.WorkloadType{
		types.WorkloadTraining,
		types.WorkloadInferenceBatch,
		types.WorkloadDataProcessing,
		types.WorkloadFineTuning,
		types.WorkloadRAGQuery,
	}
}
