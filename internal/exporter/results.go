package exporter

import (
	"fmt"
	"math"
	"sort"

	"bankfail/internal/model"
	"bankfail/internal/series"
	"bankfail/internal/stats"
)

// ResultsExporter writes the per-model result files of a pipeline run.
type ResultsExporter struct {
	csvWriter *CSVWriter
}

// NewResultsExporter creates an exporter rooted at outputDir.
func NewResultsExporter(outputDir string) *ResultsExporter {
	return &ResultsExporter{csvWriter: NewCSVWriter(outputDir)}
}

// ExportEvaluation writes the three per-model files: the bank-year
// prediction panel, the coefficient table, and the skipped-window log.
func (e *ResultsExporter) ExportEvaluation(ev *model.Evaluation) error {
	base := fmt.Sprintf("%s_%d_%d", ev.Spec.ID, ev.Spec.StartYear, ev.Spec.EndYear)

	if err := e.writePredictions("predictions_"+base+".csv", ev.Rows); err != nil {
		return fmt.Errorf("export predictions for %s: %w", ev.Spec.ID, err)
	}
	if err := e.writeCoefficients("coefficients_"+base+".csv", ev.Coefficients); err != nil {
		return fmt.Errorf("export coefficients for %s: %w", ev.Spec.ID, err)
	}
	if len(ev.Skips) > 0 {
		if err := e.writeSkips("skipped_windows_"+base+".csv", ev.Skips); err != nil {
			return fmt.Errorf("export skipped windows for %s: %w", ev.Spec.ID, err)
		}
	}
	return nil
}

func (e *ResultsExporter) writePredictions(name string, rows []model.PredictionRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.BankID,
			formatInt(r.Year),
			formatFloat(r.Label),
			formatFloat(r.InSample),
			formatFloat(r.OOS),
		})
	}
	headers := []string{"bank_id", "year", "label", "in_sample", "out_of_sample"}
	return e.csvWriter.WriteSimpleCSV(name, headers, records)
}

func (e *ResultsExporter) writeCoefficients(name string, table model.Table) error {
	records := make([][]string, 0, len(table.Coefficients))
	for _, c := range table.Coefficients {
		records = append(records, []string{
			c.Term,
			formatFloat(c.Estimate),
			formatFloat(c.StdErr),
			formatFloat(c.Stat),
			formatFloat(c.PValue),
			formatFloat(c.CILower),
			formatFloat(c.CIUpper),
		})
	}
	headers := []string{"term", "estimate", "std_err", "stat", "p_value", "ci_lower", "ci_upper"}
	return e.csvWriter.WriteSimpleCSV(name, headers, records)
}

func (e *ResultsExporter) writeSkips(name string, skips []model.WindowSkip) error {
	records := make([][]string, 0, len(skips))
	for _, s := range skips {
		records = append(records, []string{
			formatInt(s.TrainEnd),
			formatInt(s.TestYear),
			string(s.Reason),
			s.Detail,
		})
	}
	headers := []string{"train_end", "test_year", "reason", "detail"}
	return e.csvWriter.WriteSimpleCSV(name, headers, records)
}

// ExportSummaries writes the cross-model evaluation summary, one row per
// model, sorted by id so reruns diff cleanly.
func (e *ResultsExporter) ExportSummaries(summaries []model.EvalSummary) error {
	sorted := make([]model.EvalSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SpecID < sorted[j].SpecID })

	records := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		records = append(records, []string{
			s.SpecID,
			formatInt(s.N),
			formatInt(s.NBanks),
			formatFloat(s.MeanLabel),
			formatFloat(s.AUCIn),
			formatFloat(s.AUCOut),
			formatFloat(s.PRAUCIn),
			formatFloat(s.PRAUCOut),
			formatFloat(s.PrecIn50),
			formatFloat(s.PrecOut50),
			formatInt(s.Windows),
			formatInt(s.Skipped),
		})
	}
	headers := []string{
		"spec_id", "n", "n_banks", "mean_label",
		"auc_in", "auc_out", "pr_auc_in", "pr_auc_out",
		"prec_in_50", "prec_out_50",
		"windows", "skipped",
	}
	return e.csvWriter.WriteSimpleCSV("evaluation_summary.csv", headers, records)
}

// ExportDescriptives writes the per-column summary statistics table.
func (e *ResultsExporter) ExportDescriptives(summaries []stats.Summary) error {
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, []string{
			s.Name,
			formatInt(s.N),
			formatFloat(s.Mean),
			formatFloat(s.StdDev),
			formatFloat(s.Min),
			formatFloat(s.P25),
			formatFloat(s.Median),
			formatFloat(s.P75),
			formatFloat(s.Max),
		})
	}
	headers := []string{"column", "n", "mean", "std_dev", "min", "p25", "median", "p75", "max"}
	return e.csvWriter.WriteSimpleCSV("descriptives.csv", headers, records)
}

// ExportMacroSeries writes the aligned macro time series with their
// derived rates: inflation from the CPI and year-over-year GDP growth.
// Any series may be nil; its columns come out blank.
func (e *ResultsExporter) ExportMacroSeries(cpi, gdp, yields *series.Annual) error {
	var inflation, gdpGrowth *series.Annual
	if cpi != nil {
		inflation = cpi.Growth()
	}
	if gdp != nil {
		gdpGrowth = gdp.Growth()
	}

	yearSet := make(map[int]struct{})
	for _, s := range []*series.Annual{cpi, gdp, yields} {
		if s == nil {
			continue
		}
		for _, y := range s.Years() {
			yearSet[y] = struct{}{}
		}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	records := make([][]string, 0, len(years))
	for _, y := range years {
		records = append(records, []string{
			formatInt(y),
			formatFloat(annualValue(cpi, y)),
			formatFloat(annualValue(inflation, y)),
			formatFloat(annualValue(gdp, y)),
			formatFloat(annualValue(gdpGrowth, y)),
			formatFloat(annualValue(yields, y)),
		})
	}
	headers := []string{"year", "cpi", "inflation", "gdp", "gdp_growth", "yield"}
	return e.csvWriter.WriteSimpleCSV("macro_series.csv", headers, records)
}

func annualValue(s *series.Annual, year int) float64 {
	if s == nil {
		return math.NaN()
	}
	v, ok := s.Value(year)
	if !ok {
		return math.NaN()
	}
	return v
}

// BucketTable is the conditional failure-rate tabulation for one
// predictor: the observed failure rate within each percentile bucket.
type BucketTable struct {
	Column string
	Label  string
	Rates  map[int]float64
	Counts map[int]int
}

// ExportBucketRates writes the bucket tabulations as one long-format
// table. Bucket 0 is the missing-value bucket.
func (e *ResultsExporter) ExportBucketRates(tables []BucketTable) error {
	var records [][]string
	for _, t := range tables {
		buckets := make([]int, 0, len(t.Counts))
		for b := range t.Counts {
			buckets = append(buckets, b)
		}
		sort.Ints(buckets)
		for _, b := range buckets {
			records = append(records, []string{
				t.Column,
				t.Label,
				formatInt(b),
				formatInt(t.Counts[b]),
				formatFloat(t.Rates[b]),
			})
		}
	}
	headers := []string{"column", "label", "bucket", "n", "failure_rate"}
	return e.csvWriter.WriteSimpleCSV("bucket_rates.csv", headers, records)
}
