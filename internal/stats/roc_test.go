package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROCAUC(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		labels []float64
		scores []float64
		want   float64
		isNaN  bool
	}{
		{
			name:   "perfect separation",
			labels: []float64{0, 0, 1, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "perfectly wrong",
			labels: []float64{1, 1, 0, 0},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   0.0,
		},
		{
			name:   "all scores tied",
			labels: []float64{0, 1, 0, 1},
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name: "hand computed",
			// pairs won by positive: (0.4 vs 0.3), (0.4 vs 0.1),
			// (0.2 vs 0.1); lost: (0.2 vs 0.3); AUC = 3/4
			labels: []float64{1, 0, 1, 0},
			scores: []float64{0.4, 0.3, 0.2, 0.1},
			want:   0.75,
		},
		{
			name:   "missing rows dropped",
			labels: []float64{0, 0, 1, 1, nan, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9, 0.5, nan},
			want:   1.0,
		},
		{
			name:   "single class undefined",
			labels: []float64{1, 1, 1},
			scores: []float64{0.1, 0.2, 0.3},
			isNaN:  true,
		},
		{
			name:   "empty undefined",
			labels: nil,
			scores: nil,
			isNaN:  true,
		},
		{
			name:   "only missing undefined",
			labels: []float64{nan, nan},
			scores: []float64{0.1, 0.2},
			isNaN:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ROCAUC(tt.labels, tt.scores)
			if tt.isNaN {
				assert.True(t, math.IsNaN(got), "expected NaN, got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestROCAUCBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	labels := make([]float64, 500)
	scores := make([]float64, 500)
	for i := range labels {
		if rng.Float64() < 0.1 {
			labels[i] = 1
		}
		scores[i] = rng.Float64()
	}
	auc := ROCAUC(labels, scores)
	require.False(t, math.IsNaN(auc))
	assert.GreaterOrEqual(t, auc, 0.0)
	assert.LessOrEqual(t, auc, 1.0)
	// Uncorrelated scores should hover near 0.5.
	assert.InDelta(t, 0.5, auc, 0.15)
}

func TestPRAUC(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		scores []float64
		want   float64
		isNaN  bool
	}{
		{
			name:   "perfect ranking",
			labels: []float64{1, 1, 0, 0},
			scores: []float64{0.9, 0.8, 0.2, 0.1},
			want:   1.0,
		},
		{
			name: "hand computed average precision",
			// ranked: pos(1.0), neg(0.8), pos(0.6)
			// AP = 1/2*(1/1) + 1/2*(2/3) = 0.8333...
			labels: []float64{1, 0, 1},
			scores: []float64{1.0, 0.8, 0.6},
			want:   5.0 / 6.0,
		},
		{
			name:   "single class undefined",
			labels: []float64{0, 0},
			scores: []float64{0.4, 0.6},
			isNaN:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PRAUC(tt.labels, tt.scores)
			if tt.isNaN {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPrecisionAtRecall(t *testing.T) {
	labels := []float64{1, 0, 1, 0, 0, 1}
	scores := []float64{0.95, 0.9, 0.8, 0.4, 0.3, 0.2}

	// recall 1/3 reached at top-1: precision 1
	assert.InDelta(t, 1.0, PrecisionAtRecall(labels, scores, 0.33), 1e-12)
	// recall 2/3 reached at top-3: precision 2/3
	assert.InDelta(t, 2.0/3.0, PrecisionAtRecall(labels, scores, 0.66), 1e-12)
	// full recall reached at top-6: precision 3/6
	assert.InDelta(t, 0.5, PrecisionAtRecall(labels, scores, 1.0), 1e-12)

	assert.True(t, math.IsNaN(PrecisionAtRecall(labels, scores, 0)))
	assert.True(t, math.IsNaN(PrecisionAtRecall([]float64{1, 1}, []float64{0.1, 0.2}, 0.5)))
}
