package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// z975 is the two-sided 95% normal critical value.
const z975 = 1.959963984540054

// Coefficient is one row of a coefficient table.
type Coefficient struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Stat     float64 `json:"stat"`
	PValue   float64 `json:"p_value"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// Table is the coefficient table of one fitted specification.
type Table struct {
	SpecID       string        `json:"spec_id"`
	Family       Family        `json:"family"`
	N            int           `json:"n"`
	Coefficients []Coefficient `json:"coefficients"`
}

// BuildTable combines estimates with a robust covariance into the exported
// coefficient table. Test statistics use the normal reference
// distribution for both families.
func BuildTable(specID string, f *Fit, cov *mat.SymDense) Table {
	norm := distuv.UnitNormal
	rows := make([]Coefficient, len(f.Beta))
	for j, b := range f.Beta {
		se := math.Sqrt(cov.At(j, j))
		stat := math.NaN()
		p := math.NaN()
		if se > 0 && !math.IsNaN(se) {
			stat = b / se
			p = 2 * norm.Survival(math.Abs(stat))
		}
		rows[j] = Coefficient{
			Term:     f.ColNames[j],
			Estimate: b,
			StdErr:   se,
			Stat:     stat,
			PValue:   p,
			CILower:  b - z975*se,
			CIUpper:  b + z975*se,
		}
	}
	return Table{
		SpecID:       specID,
		Family:       f.Family,
		N:            f.N,
		Coefficients: rows,
	}
}
