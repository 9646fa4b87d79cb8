package synth

// Weighted pairs a candidate value with its selection weight. Weights do
// not need to sum to 1; they are normalized at draw time.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// SampleWeighted draws one value from a weighted categorical distribution.
// The distribution is data, not code: callers declare a weight table rather
// than chaining threshold comparisons.
//
// Zero or negative weights are skipped. If every weight is non-positive the
// first entry is returned. Panics on an empty table, which is a programming
// error.
func SampleWeighted[T any](choices []Weighted[T], rng Rand) T {
	if len(choices) == 0 {
		panic("synth: SampleWeighted called with no choices")
	}

	var total float64
	for _, c := range choices {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		return choices[0].Value
	}

	draw := rng.Float64() * total
	var cumulative float64
	for _, c := range choices {
		if c.Weight <= 0 {
			continue
		}
		cumulative += c.Weight
		if draw < cumulative {
			return c.Value
		}
	}
	// Float rounding can leave draw == total; attribute it to the last
	// positive-weight entry.
	for i := len(choices) - 1; i >= 0; i-- {
		if choices[i].Weight > 0 {
			return choices[i].Value
		}
	}
	return choices[0].Value
}
