// Package series imports the macro time series (GDP, CPI, long-term
// yields) used to deflate the panel and to provide aggregate predictors:
// annual frequency, derived growth and inflation rates, and a price
// deflator rebased to a reference year.
package series

import (
	"fmt"
	"math"
	"sort"
)

// Annual is a year-indexed numeric series.
type Annual struct {
	values map[int]float64
}

// NewAnnual creates an empty annual series.
func NewAnnual() *Annual {
	return &Annual{values: make(map[int]float64)}
}

// Set records the value for a year, overwriting any earlier reading.
func (a *Annual) Set(year int, v float64) {
	a.values[year] = v
}

// Value returns the value for a year; ok is false when the year is absent.
func (a *Annual) Value(year int) (v float64, ok bool) {
	v, ok = a.values[year]
	return v, ok
}

// Len returns the number of observed years.
func (a *Annual) Len() int { return len(a.values) }

// Years returns the observed years in increasing order.
func (a *Annual) Years() []int {
	years := make([]int, 0, len(a.values))
	for y := range a.values {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Span returns the first and last observed years. An empty series returns
// an error so callers fail on a missing input rather than a zero span.
func (a *Annual) Span() (first, last int, err error) {
	years := a.Years()
	if len(years) == 0 {
		return 0, 0, fmt.Errorf("series is empty")
	}
	return years[0], years[len(years)-1], nil
}

// Growth derives year-over-year percentage growth: g_t = v_t/v_{t-1} - 1.
// Years whose predecessor is absent or non-positive are skipped.
func (a *Annual) Growth() *Annual {
	out := NewAnnual()
	for _, y := range a.Years() {
		prev, ok := a.values[y-1]
		if !ok || prev <= 0 {
			continue
		}
		out.Set(y, a.values[y]/prev-1)
	}
	return out
}

// Interpolate fills interior gaps linearly. The early historical sources
// skip years; downstream joins want a value for every year in the span.
func (a *Annual) Interpolate() *Annual {
	out := NewAnnual()
	years := a.Years()
	if len(years) == 0 {
		return out
	}
	for i, y := range years {
		out.Set(y, a.values[y])
		if i == 0 {
			continue
		}
		prevYear := years[i-1]
		gap := y - prevYear
		if gap <= 1 {
			continue
		}
		v0, v1 := a.values[prevYear], a.values[y]
		for k := 1; k < gap; k++ {
			frac := float64(k) / float64(gap)
			out.Set(prevYear+k, v0+(v1-v0)*frac)
		}
	}
	return out
}

// Deflator converts nominal values to reference-year prices using a price
// index series.
type Deflator struct {
	index   *Annual
	refYear int
	refVal  float64
}

// NewDeflator builds a deflator anchored at refYear. The index must cover
// the reference year.
func NewDeflator(index *Annual, refYear int) (*Deflator, error) {
	ref, ok := index.Value(refYear)
	if !ok || ref <= 0 {
		return nil, fmt.Errorf("price index has no usable value for reference year %d", refYear)
	}
	return &Deflator{index: index, refYear: refYear, refVal: ref}, nil
}

// RefYear returns the anchor year.
func (d *Deflator) RefYear() int { return d.refYear }

// Factor returns the multiplier converting year-t nominal values to
// reference-year prices, or NaN when the index does not cover the year.
func (d *Deflator) Factor(year int) float64 {
	v, ok := d.index.Value(year)
	if !ok || v <= 0 {
		return math.NaN()
	}
	return d.refVal / v
}

// Deflate converts one nominal value; missing stays missing.
func (d *Deflator) Deflate(nominal float64, year int) float64 {
	if math.IsNaN(nominal) {
		return nominal
	}
	return nominal * d.Factor(year)
}
