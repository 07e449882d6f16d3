package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallDataset() *Dataset {
	nan := math.NaN()
	ds := NewDataset(6)
	ds.Banks = []string{"A", "A", "B", "B", "C", "C"}
	ds.Years = []int{1900, 1901, 1900, 1901, 1900, 1901}
	ds.Cols = map[string][]float64{
		"y":   {0, 1, 0, 1, 0, nan},
		"x":   {1, 2, 3, nan, 5, 6},
		"z":   {2, 2, 1, 1, 3, 3},
		"era": {0, 0, 1, 1, 2, 2},
	}
	return ds
}

func TestBuildDesignListwiseDeletion(t *testing.T) {
	ds := smallDataset()
	design, err := BuildDesign(ds, "y", []Term{{Name: "x"}})
	require.NoError(t, err)

	// Row 3 (missing x) and row 5 (missing y) drop.
	assert.Equal(t, []int{0, 1, 2, 4}, design.Rows)
	assert.Equal(t, []float64{0, 1, 0, 0}, design.Y)
	assert.Equal(t, []string{"const", "x"}, design.ColNames)

	r, c := design.X.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.0, design.X.At(0, 0))
	assert.Equal(t, 1.0, design.X.At(0, 1))
	assert.Equal(t, 5.0, design.X.At(3, 1))
}

func TestBuildDesignInteraction(t *testing.T) {
	ds := smallDataset()
	design, err := BuildDesign(ds, "y", []Term{{Name: "x"}, {Name: "x", Interact: "z"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"const", "x", "x:z"}, design.ColNames)
	// Row 0: x=1, z=2 -> 2.
	assert.Equal(t, 2.0, design.X.At(0, 2))
}

func TestBuildDesignCategorical(t *testing.T) {
	ds := smallDataset()
	design, err := BuildDesign(ds, "y", []Term{{Name: "x"}, {Name: "era", Categorical: true}})
	require.NoError(t, err)

	// Levels 0,1,2 with 0 as baseline.
	assert.Equal(t, []string{"const", "x", "era=1", "era=2"}, design.ColNames)
	// Row for bank B (era 1): dummy era=1 set, era=2 clear.
	assert.Equal(t, 1.0, design.X.At(2, 2))
	assert.Equal(t, 0.0, design.X.At(2, 3))
}

func TestBuildDesignUnknownColumn(t *testing.T) {
	ds := smallDataset()
	_, err := BuildDesign(ds, "y", []Term{{Name: "nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestPredictRowsMissingPredictor(t *testing.T) {
	ds := smallDataset()
	design, err := BuildDesign(ds, "y", []Term{{Name: "x"}})
	require.NoError(t, err)
	fit, err := FitModel(design, FamilyLPM)
	require.NoError(t, err)

	preds, err := PredictRows(ds, []Term{{Name: "x"}}, fit)
	require.NoError(t, err)
	require.Len(t, preds, 6)

	assert.True(t, math.IsNaN(preds[3]), "missing predictor must yield missing prediction")
	// Row 5 has a missing label but observed predictor: still predicted.
	assert.False(t, math.IsNaN(preds[5]))
}

// A single-year prediction subset typically carries one categorical level.
// The dummies must encode against the training levels, so those rows still
// score their fitted contrast instead of collapsing to the baseline.
func TestPredictRowsCategoricalYearSubset(t *testing.T) {
	ds := NewDataset(8)
	ds.Banks = []string{"A", "B", "C", "D", "A", "B", "C", "D"}
	ds.Years = []int{1900, 1900, 1900, 1900, 1901, 1901, 1901, 1901}
	ds.Cols = map[string][]float64{
		"y":   {0, 0, 1, 1, 1, 1, 1, 1},
		"era": {0, 0, 1, 1, 1, 1, 1, 1},
	}
	terms := []Term{{Name: "era", Categorical: true}}

	design, err := BuildDesign(ds, "y", terms)
	require.NoError(t, err)
	require.Equal(t, []string{"const", "era=1"}, design.ColNames)
	fit, err := FitModel(design, FamilyLPM)
	require.NoError(t, err)

	// y equals the era=1 indicator exactly, so beta is (0, 1).
	sub, _ := ds.YearRange(1901, 1901)
	preds, err := PredictRows(sub, terms, fit)
	require.NoError(t, err)
	require.Len(t, preds, 4)
	for i, p := range preds {
		assert.InDelta(t, 1.0, p, 1e-8, "row %d", i)
	}
}

func TestPredictRowsUnseenCategoricalLevel(t *testing.T) {
	ds := NewDataset(4)
	ds.Banks = []string{"A", "B", "C", "D"}
	ds.Years = []int{1900, 1900, 1901, 1901}
	ds.Cols = map[string][]float64{
		"y":   {0, 1, 0, 1},
		"era": {0, 1, 0, 1},
	}
	terms := []Term{{Name: "era", Categorical: true}}

	design, err := BuildDesign(ds, "y", terms)
	require.NoError(t, err)
	fit, err := FitModel(design, FamilyLPM)
	require.NoError(t, err)

	target := NewDataset(2)
	target.Banks = []string{"E", "F"}
	target.Years = []int{1902, 1902}
	target.Cols = map[string][]float64{"era": {1, 2}}

	preds, err := PredictRows(target, terms, fit)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, preds[0], 1e-8)
	assert.True(t, math.IsNaN(preds[1]), "level absent from training cannot be scored")
}

func TestYearRangeAndSelect(t *testing.T) {
	ds := smallDataset()
	sub, keep := ds.YearRange(1901, 1901)
	assert.Equal(t, []int{1, 3, 5}, keep)
	assert.Equal(t, 3, sub.Len())
	assert.Equal(t, []string{"A", "B", "C"}, sub.Banks)
	assert.Equal(t, 2.0, sub.Value("x", 0))
}
