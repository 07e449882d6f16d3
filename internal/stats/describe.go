package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics reported for one panel column.
type Summary struct {
	Name   string  `json:"name"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// Describe computes a Summary over the non-missing values of a column.
// An entirely missing column yields N==0 with NaN moments.
func Describe(name string, values []float64) Summary {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	s := Summary{Name: name, N: len(clean)}
	if len(clean) == 0 {
		s.Mean, s.StdDev = math.NaN(), math.NaN()
		s.Min, s.P25, s.Median, s.P75, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	sort.Float64s(clean)
	s.Mean = stat.Mean(clean, nil)
	s.StdDev = math.Sqrt(stat.Variance(clean, nil))
	s.Min = clean[0]
	s.Max = clean[len(clean)-1]
	s.P25 = stat.Quantile(0.25, stat.Empirical, clean, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, clean, nil)
	s.P75 = stat.Quantile(0.75, stat.Empirical, clean, nil)
	return s
}
