// Package panel builds the unified bank-period panel the prediction stages
// consume: one row per (bank, year), merged from the historical and modern
// call-report tables, the receivership record, and the macro series.
//
// Construction follows fixed rules rather than the quirks of any one
// source: nominal balance-sheet levels are deflated to reference-year
// prices, ratio variables outside their admissible range are coerced to
// missing (not clipped, except the explicitly clipped list), variables
// that were not collected in a historical sub-period are forced to missing
// for that period regardless of what the raw file contains, and de novo
// banks (age under three years) are excluded while rows with unknown age
// are retained.
package panel
