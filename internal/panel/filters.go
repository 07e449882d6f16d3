package panel

import "math"

// EraMask forces variables that were not collected during a historical
// sub-period to missing for that period, regardless of what the raw
// source contains. Stray values in uncollected years would otherwise show
// up as spurious discontinuities at era boundaries.
type EraMask struct {
	StartYear int      `yaml:"start_year"`
	EndYear   int      `yaml:"end_year"`
	Columns   []string `yaml:"columns"`
}

// DefaultEraMasks encodes the collection history of the call-report
// variables: income statements only begin with the 1869 annual reports,
// and the noncore funding breakdown is unavailable before 1976 and during
// the 1942-1958 reporting gap.
var DefaultEraMasks = []EraMask{
	{StartYear: 1863, EndYear: 1868, Columns: []string{"net_income", "income_ratio"}},
	{StartYear: 1863, EndYear: 1975, Columns: []string{"noncore", "noncore_ratio"}},
}

// ApplyEraMasks blanks masked columns in place.
func ApplyEraMasks(obs []Observation, masks []EraMask) {
	for i := range obs {
		o := &obs[i]
		for _, m := range masks {
			if o.Year < m.StartYear || o.Year > m.EndYear {
				continue
			}
			for _, col := range m.Columns {
				setColumn(o, col, math.NaN())
			}
		}
	}
}

// FilterAnalysisRows applies the row-level sample filters: de novo banks
// (age under three) drop, rows with unknown age stay, and reporting
// periods outside the valid quarter range drop.
func FilterAnalysisRows(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.IsDeNovo() {
			continue
		}
		if o.Quarter < 0 || o.Quarter > 4 {
			continue
		}
		out = append(out, o)
	}
	return out
}
