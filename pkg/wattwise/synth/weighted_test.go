package synth

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleWeightedFrequencies(t *testing.T) {
	choices := []Weighted[string]{
		{Value: "a", Weight: 0.25},
		{Value: "b", Weight: 0.25},
		{Value: "c", Weight: 0.20},
		{Value: "d", Weight: 0.15},
		{Value: "e", Weight: 0.15},
	}

	const n = 10000
	rng := rand.New(rand.NewSource(1))
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		counts[SampleWeighted(choices, rng)]++
	}

	for _, c := range choices {
		observed := float64(counts[c.Value]) / n
		assert.InDelta(t, c.Weight, observed, 0.02,
			"observed frequency for %s drifted from its weight", c.Value)
	}
}

func TestSampleWeightedSkipsNonPositive(t *testing.T) {
	choices := []Weighted[int]{
		{Value: 1, Weight: 0},
		{Value: 2, Weight: -3},
		{Value: 3, Weight: 1},
	}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 3, SampleWeighted(choices, rng))
	}
}

func TestSampleWeightedAllNonPositive(t *testing.T) {
	choices := []Weighted[int]{
		{Value: 7, Weight: 0},
		{Value: 8, Weight: 0},
	}
	assert.Equal(t, 7, SampleWeighted(choices, rand.New(rand.NewSource(3))))
}

func TestSampleWeightedBoundaryDraw(t *testing.T) {
	// A draw that lands exactly on the total weight is attributed to the
	// last positive-weight entry rather than falling off the table.
	choices := []Weighted[string]{
		{Value: "x", Weight: 0.5},
		{Value: "y", Weight: 0.5},
		{Value: "dead", Weight: 0},
	}
	rng := &scriptedRand{floats: []float64{1.0}}
	assert.Equal(t, "y", SampleWeighted(choices, rng))
}

func TestSampleWeightedEmptyPanics(t *testing.T) {
	assert.Panics(t, func() {
		SampleWeighted[int](nil, rand.New(rand.NewSource(4)))
	})
}
