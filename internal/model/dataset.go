package model

import (
	"fmt"
	"math"
)

// Dataset is the columnar view of the bank-period panel consumed by the
// fitters: one entry per row in Banks/Years, and a named float column per
// label or predictor. NaN marks a missing value.
type Dataset struct {
	Banks []string
	Years []int
	Cols  map[string][]float64
}

// NewDataset creates an empty dataset with capacity for n rows.
func NewDataset(n int) *Dataset {
	return &Dataset{
		Banks: make([]string, 0, n),
		Years: make([]int, 0, n),
		Cols:  make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Years) }

// Column returns the named column, or an error naming the missing column
// so a misspelled term surfaces before any fitting starts.
func (d *Dataset) Column(name string) ([]float64, error) {
	col, ok := d.Cols[name]
	if !ok {
		return nil, fmt.Errorf("dataset has no column %q", name)
	}
	if len(col) != d.Len() {
		return nil, fmt.Errorf("column %q has %d values for %d rows", name, len(col), d.Len())
	}
	return col, nil
}

// Value returns the value of a column at row i, or NaN when the column is
// absent.
func (d *Dataset) Value(name string, i int) float64 {
	col, ok := d.Cols[name]
	if !ok || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// YearRange restricts the dataset to rows with year in [start, end] and
// returns the resulting copy together with the original row indices.
func (d *Dataset) YearRange(start, end int) (*Dataset, []int) {
	keep := make([]int, 0, d.Len())
	for i, y := range d.Years {
		if y >= start && y <= end {
			keep = append(keep, i)
		}
	}
	return d.Select(keep), keep
}

// Select returns a new dataset holding only the given rows, in order.
func (d *Dataset) Select(rows []int) *Dataset {
	out := NewDataset(len(rows))
	for _, i := range rows {
		out.Banks = append(out.Banks, d.Banks[i])
		out.Years = append(out.Years, d.Years[i])
	}
	for name, col := range d.Cols {
		sub := make([]float64, len(rows))
		for j, i := range rows {
			sub[j] = col[i]
		}
		out.Cols[name] = sub
	}
	return out
}
