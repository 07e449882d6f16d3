package exporter

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"bankfail/internal/model"
)

// WriteWorkbook writes the combined results workbook: a summary sheet
// with one row per model, plus one coefficient sheet per model. The file
// mirrors the CSV artifacts for readers who want everything in one place.
func WriteWorkbook(path string, evals []*model.Evaluation) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryHeaders := []string{
		"spec_id", "family", "n", "n_banks", "mean_label",
		"auc_in", "auc_out", "pr_auc_in", "pr_auc_out",
		"prec_in_50", "prec_out_50",
		"windows", "skipped",
	}
	for i, h := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(summarySheet, cell, h)
	}

	for row, ev := range evals {
		s := ev.Summary
		values := []interface{}{
			s.SpecID, string(ev.Spec.Family), s.N, s.NBanks, cellFloat(s.MeanLabel),
			cellFloat(s.AUCIn), cellFloat(s.AUCOut),
			cellFloat(s.PRAUCIn), cellFloat(s.PRAUCOut),
			cellFloat(s.PrecIn50), cellFloat(s.PrecOut50),
			s.Windows, s.Skipped,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			f.SetCellValue(summarySheet, cell, v)
		}

		if err := writeCoefficientSheet(f, ev); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeCoefficientSheet(f *excelize.File, ev *model.Evaluation) error {
	// Sheet names are capped at 31 characters by the format.
	name := ev.Spec.ID
	if len(name) > 31 {
		name = name[:31]
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	headers := []string{"term", "estimate", "std_err", "stat", "p_value", "ci_lower", "ci_upper"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}
	for row, c := range ev.Coefficients.Coefficients {
		values := []interface{}{
			c.Term, cellFloat(c.Estimate), cellFloat(c.StdErr),
			cellFloat(c.Stat), cellFloat(c.PValue),
			cellFloat(c.CILower), cellFloat(c.CIUpper),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			f.SetCellValue(name, cell, v)
		}
	}
	return nil
}

// cellFloat maps NaN to an empty cell; excelize rejects NaN values.
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return ""
	}
	return v
}
