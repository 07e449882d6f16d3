package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BucketMissing is the bucket assigned to observations whose input value
// is missing. Real buckets are numbered from 1.
const BucketMissing = 0

// DefaultCutPercentiles are the cutpoints used for the conditional
// failure-rate tabulations: <p50, p50-p75, p75-p90, p90-p95, >=p95.
var DefaultCutPercentiles = []float64{50, 75, 90, 95}

// PercentileCutpoints computes empirical quantile cutpoints for the given
// percentiles (0-100), ignoring missing values. Returns nil when the
// non-missing input is empty or constant, in which case no binning is
// possible.
func PercentileCutpoints(values []float64, percentiles []float64) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	sort.Float64s(clean)
	if clean[0] == clean[len(clean)-1] {
		// Constant input: every cutpoint collapses to the same value.
		return nil
	}

	cuts := make([]float64, len(percentiles))
	for i, p := range percentiles {
		cuts[i] = stat.Quantile(p/100, stat.Empirical, clean, nil)
	}
	return cuts
}

// AssignBuckets maps each value to the smallest bucket whose upper
// cutpoint it lies below. Values below cuts[0] get bucket 1, values at or
// above the last cutpoint get bucket len(cuts)+1, and missing values get
// BucketMissing. Cutpoints must be non-decreasing.
func AssignBuckets(values []float64, cuts []float64) []int {
	buckets := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || len(cuts) == 0 {
			buckets[i] = BucketMissing
			continue
		}
		b := len(cuts) + 1
		for j, c := range cuts {
			if v < c {
				b = j + 1
				break
			}
		}
		buckets[i] = b
	}
	return buckets
}

// Bin is the one-call form: cutpoints from the input's own empirical
// quantiles, then assignment. An entirely missing or constant input yields
// all BucketMissing, mirroring the cutpoint degeneracy.
func Bin(values []float64, percentiles []float64) []int {
	cuts := PercentileCutpoints(values, percentiles)
	return AssignBuckets(values, cuts)
}

// BucketRates tabulates the mean of a binary label per bucket, skipping
// rows whose label is missing or whose bucket is BucketMissing. The
// returned maps are keyed by bucket number.
func BucketRates(buckets []int, labels []float64) (rates map[int]float64, counts map[int]int) {
	sums := make(map[int]float64)
	counts = make(map[int]int)
	n := len(buckets)
	if len(labels) < n {
		n = len(labels)
	}
	for i := 0; i < n; i++ {
		if buckets[i] == BucketMissing || math.IsNaN(labels[i]) {
			continue
		}
		sums[buckets[i]] += labels[i]
		counts[buckets[i]]++
	}
	rates = make(map[int]float64, len(sums))
	for b, s := range sums {
		rates[b] = s / float64(counts[b])
	}
	return rates, counts
}
