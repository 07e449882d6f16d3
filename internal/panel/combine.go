package panel

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"bankfail/internal/model"
	"bankfail/internal/series"
)

// Build assembles the analysis panel from the raw source tables: merge,
// life assignment, deflation, ratio derivation, era masking, failure
// labels, and the row filters, in that order. The result is sorted by
// (bank, year, quarter) so every downstream pass is deterministic.
func Build(ctx context.Context, historical, modern []Observation, recs []Receivership, deflator *series.Deflator, masks []EraMask) []Observation {
	logger := slog.Default()

	obs := make([]Observation, 0, len(historical)+len(modern))
	obs = append(obs, historical...)
	obs = append(obs, modern...)

	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].CharterID != obs[j].CharterID {
			return obs[i].CharterID < obs[j].CharterID
		}
		if obs[i].Year != obs[j].Year {
			return obs[i].Year < obs[j].Year
		}
		return obs[i].Quarter < obs[j].Quarter
	})
	obs = dedupe(obs)

	AssignLives(obs, recs)

	if deflator != nil {
		for i := range obs {
			o := &obs[i]
			o.Assets = deflator.Deflate(o.Assets, o.Year)
			o.Deposits = deflator.Deflate(o.Deposits, o.Year)
			o.Loans = deflator.Deflate(o.Loans, o.Year)
			o.Equity = deflator.Deflate(o.Equity, o.Year)
			o.LiquidAssets = deflator.Deflate(o.LiquidAssets, o.Year)
			o.NetIncome = deflator.Deflate(o.NetIncome, o.Year)
			o.Noncore = deflator.Deflate(o.Noncore, o.Year)
		}
	}

	for i := range obs {
		ComputeRatios(&obs[i])
	}
	ApplyEraMasks(obs, masks)

	lastYear := 0
	for _, o := range obs {
		if o.Year > lastYear {
			lastYear = o.Year
		}
	}
	ApplyFailureLabels(obs, lastYear)

	filtered := FilterAnalysisRows(obs)
	logger.InfoContext(ctx, "panel built",
		"source_rows", len(historical)+len(modern),
		"panel_rows", len(filtered),
		"last_year", lastYear)
	return filtered
}

// dedupe keeps the first row per (charter, year, quarter); the input must
// already be sorted by that key.
func dedupe(obs []Observation) []Observation {
	out := obs[:0]
	for i, o := range obs {
		if i > 0 {
			p := out[len(out)-1]
			if p.CharterID == o.CharterID && p.Year == o.Year && p.Quarter == o.Quarter {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}

// ToDataset projects the panel into the columnar form the model layer
// consumes, one float column per schema name plus the bank and year keys.
func ToDataset(obs []Observation) *model.Dataset {
	ds := model.NewDataset(len(obs))
	cols := make(map[string][]float64, len(observationColumns))
	for _, c := range observationColumns {
		cols[c.Name] = make([]float64, 0, len(obs))
	}
	for i := range obs {
		o := &obs[i]
		ds.Banks = append(ds.Banks, o.BankID)
		ds.Years = append(ds.Years, o.Year)
		for _, c := range observationColumns {
			cols[c.Name] = append(cols[c.Name], c.Get(o))
		}
	}
	ds.Cols = cols
	return ds
}

// Levels lists the monetary columns subject to deflation; exported for
// the descriptive stage's summary tables.
func Levels() []string {
	return []string{"assets", "deposits", "loans", "equity", "liquid_assets", "net_income", "noncore"}
}

// Column extracts one named column across the panel, NaN-filling unknown
// names so callers can iterate the schema without error plumbing.
func Column(obs []Observation, name string) []float64 {
	out := make([]float64, len(obs))
	for i := range obs {
		v, ok := columnValue(&obs[i], name)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
