package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinUniformDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, 1000)
	for i := range values {
		values[i] = rng.Float64()
	}

	buckets := Bin(values, DefaultCutPercentiles)
	require.Len(t, buckets, 1000)

	counts := make(map[int]int)
	for _, b := range buckets {
		counts[b]++
	}
	assert.Zero(t, counts[BucketMissing])

	// Expected shares for cutpoints 50/75/90/95 over uniforms.
	assert.InDelta(t, 500, counts[1], 25)
	assert.InDelta(t, 250, counts[2], 25)
	assert.InDelta(t, 150, counts[3], 25)
	assert.InDelta(t, 50, counts[4], 20)
	assert.InDelta(t, 50, counts[5], 20)
}

func TestBinMissingAndDegenerate(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{
			name:   "missing values stay missing",
			values: []float64{0.1, nan, 0.9},
			want:   []int{1, BucketMissing, 5},
		},
		{
			name:   "all missing input",
			values: []float64{nan, nan, nan},
			want:   []int{BucketMissing, BucketMissing, BucketMissing},
		},
		{
			name:   "constant input",
			values: []float64{3, 3, 3, 3},
			want:   []int{BucketMissing, BucketMissing, BucketMissing, BucketMissing},
		},
		{
			name:   "empty input",
			values: nil,
			want:   []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bin(tt.values, DefaultCutPercentiles)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignBucketsBoundaries(t *testing.T) {
	cuts := []float64{10, 20, 30}

	values := []float64{5, 10, 15, 20, 29.9, 30, 100}
	want := []int{1, 2, 2, 3, 3, 4, 4}
	assert.Equal(t, want, AssignBuckets(values, cuts))
}

func TestBucketRates(t *testing.T) {
	buckets := []int{1, 1, 2, 2, BucketMissing, 2}
	labels := []float64{0, 1, 1, 1, 1, math.NaN()}

	rates, counts := BucketRates(buckets, labels)

	assert.InDelta(t, 0.5, rates[1], 1e-12)
	assert.InDelta(t, 1.0, rates[2], 1e-12)
	assert.Equal(t, 2, counts[1])
	assert.Equal(t, 2, counts[2])
	_, hasMissing := rates[BucketMissing]
	assert.False(t, hasMissing)
}

func TestDescribe(t *testing.T) {
	s := Describe("leverage", []float64{1, 2, 3, 4, math.NaN()})
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.Min, 1e-12)
	assert.InDelta(t, 4.0, s.Max, 1e-12)

	empty := Describe("empty", []float64{math.NaN()})
	assert.Zero(t, empty.N)
	assert.True(t, math.IsNaN(empty.Mean))
}
