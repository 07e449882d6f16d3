package panel

import (
	"fmt"
	"math"
)

// DeNovoAgeYears is the age below which a bank counts as de novo and is
// excluded from the analysis panel. Rows with unknown age are kept.
const DeNovoAgeYears = 3

// Observation is one bank-period row of the panel. Monetary levels are in
// thousands of reference-year dollars once deflation has run. NaN marks a
// missing value throughout.
type Observation struct {
	// BankID is the synthetic life identifier: a charter that exits and
	// re-enters receivership starts a new life with a fresh BankID.
	BankID string `json:"bank_id"`
	// CharterID is the original charter identifier from the source.
	CharterID string `json:"charter_id"`
	Year      int    `json:"year"`
	// Quarter is 1-4 for quarterly reports and 0 for annual-only eras.
	Quarter int `json:"quarter"`

	// Age in years at the report date; NaN when the charter date is
	// unknown.
	Age float64 `json:"age"`

	// Balance-sheet levels.
	Assets       float64 `json:"assets"`
	Deposits     float64 `json:"deposits"`
	Loans        float64 `json:"loans"`
	Equity       float64 `json:"equity"`
	LiquidAssets float64 `json:"liquid_assets"`
	NetIncome    float64 `json:"net_income"`
	Noncore      float64 `json:"noncore"`

	// Derived ratios.
	Leverage     float64 `json:"leverage"`
	NoncoreRatio float64 `json:"noncore_ratio"`
	IncomeRatio  float64 `json:"income_ratio"`
	SurplusRatio float64 `json:"surplus_ratio"`
	LiquidRatio  float64 `json:"liquid_ratio"`

	// Failure timing. FailYear is zero for banks never observed to fail.
	FailYear       int     `json:"fail_year"`
	YearsToFailure float64 `json:"years_to_failure"`

	// Forward failure-horizon labels: failure within 1/3/5 years of the
	// report date. NaN when the horizon is right-censored by the end of
	// the panel.
	F1 float64 `json:"f1_failure"`
	F3 float64 `json:"f3_failure"`
	F5 float64 `json:"f5_failure"`
}

// Key returns the composite panel key.
func (o Observation) Key() string {
	if o.Quarter > 0 {
		return fmt.Sprintf("%s-%d-Q%d", o.BankID, o.Year, o.Quarter)
	}
	return fmt.Sprintf("%s-%d", o.BankID, o.Year)
}

// Failed reports whether the bank was ever observed to fail.
func (o Observation) Failed() bool { return o.FailYear > 0 }

// IsDeNovo reports whether the row is excluded by the age filter. Unknown
// age is conservatively not de novo.
func (o Observation) IsDeNovo() bool {
	return !math.IsNaN(o.Age) && o.Age < DeNovoAgeYears
}

// ratioColumns maps panel column names to accessors, fixing the schema the
// model layer sees. Order is the persisted CSV column order.
var observationColumns = []struct {
	Name string
	Get  func(*Observation) float64
	Set  func(*Observation, float64)
}{
	{"age", func(o *Observation) float64 { return o.Age }, func(o *Observation, v float64) { o.Age = v }},
	{"assets", func(o *Observation) float64 { return o.Assets }, func(o *Observation, v float64) { o.Assets = v }},
	{"deposits", func(o *Observation) float64 { return o.Deposits }, func(o *Observation, v float64) { o.Deposits = v }},
	{"loans", func(o *Observation) float64 { return o.Loans }, func(o *Observation, v float64) { o.Loans = v }},
	{"equity", func(o *Observation) float64 { return o.Equity }, func(o *Observation, v float64) { o.Equity = v }},
	{"liquid_assets", func(o *Observation) float64 { return o.LiquidAssets }, func(o *Observation, v float64) { o.LiquidAssets = v }},
	{"net_income", func(o *Observation) float64 { return o.NetIncome }, func(o *Observation, v float64) { o.NetIncome = v }},
	{"noncore", func(o *Observation) float64 { return o.Noncore }, func(o *Observation, v float64) { o.Noncore = v }},
	{"leverage", func(o *Observation) float64 { return o.Leverage }, func(o *Observation, v float64) { o.Leverage = v }},
	{"noncore_ratio", func(o *Observation) float64 { return o.NoncoreRatio }, func(o *Observation, v float64) { o.NoncoreRatio = v }},
	{"income_ratio", func(o *Observation) float64 { return o.IncomeRatio }, func(o *Observation, v float64) { o.IncomeRatio = v }},
	{"surplus_ratio", func(o *Observation) float64 { return o.SurplusRatio }, func(o *Observation, v float64) { o.SurplusRatio = v }},
	{"liquid_ratio", func(o *Observation) float64 { return o.LiquidRatio }, func(o *Observation, v float64) { o.LiquidRatio = v }},
	{"years_to_failure", func(o *Observation) float64 { return o.YearsToFailure }, func(o *Observation, v float64) { o.YearsToFailure = v }},
	{"f1_failure", func(o *Observation) float64 { return o.F1 }, func(o *Observation, v float64) { o.F1 = v }},
	{"f3_failure", func(o *Observation) float64 { return o.F3 }, func(o *Observation, v float64) { o.F3 = v }},
	{"f5_failure", func(o *Observation) float64 { return o.F5 }, func(o *Observation, v float64) { o.F5 = v }},
}

// ColumnNames returns the named float columns of the panel schema, in
// persisted order.
func ColumnNames() []string {
	names := make([]string, len(observationColumns))
	for i, c := range observationColumns {
		names[i] = c.Name
	}
	return names
}

// columnValue reads a named column from an observation; ok is false for an
// unknown name.
func columnValue(o *Observation, name string) (float64, bool) {
	for _, c := range observationColumns {
		if c.Name == name {
			return c.Get(o), true
		}
	}
	return 0, false
}

// setColumn writes a named column on an observation.
func setColumn(o *Observation, name string, v float64) bool {
	for _, c := range observationColumns {
		if c.Name == name {
			c.Set(o, v)
			return true
		}
	}
	return false
}
