package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankfail/internal/config"
	"bankfail/internal/model"
)

// writeRawTables fabricates a small but workable source universe: twelve
// years of annual reports for twenty banks, a quarter of which fail at
// staggered dates.
func writeRawTables(t *testing.T, paths *config.Paths) {
	t.Helper()
	require.NoError(t, paths.EnsureDirs())

	var hist strings.Builder
	hist.WriteString("charter_id,year,established,assets,deposits,loans,equity,liquid_assets,net_income\n")
	var recs strings.Builder
	recs.WriteString("charter_id,start_year,end_year\n")

	for bank := 1; bank <= 20; bank++ {
		failYear := 0
		if bank%4 == 0 {
			// Failures at 1903, 1905, 1907, 1909, 1911.
			failYear = 1901 + bank/2
		}
		for year := 1900; year <= 1911; year++ {
			if failYear > 0 && year >= failYear {
				break
			}
			assets := 1000.0 + float64(bank*37+year%5)
			// Failing banks run thinner equity.
			equity := 120.0 - float64(bank%7)*10
			if failYear > 0 {
				equity -= 40
			}
			netIncome := 5.0 + float64((bank+year)%5) - float64(bank%3)
			fmt.Fprintf(&hist, "%d,%d,1885,%.1f,%.1f,%.1f,%.1f,%.1f,%.1f\n",
				bank, year, assets, assets*0.8, assets*0.6, equity, assets*0.2, netIncome)
		}
		if failYear > 0 {
			fmt.Fprintf(&recs, "%d,%d,\n", bank, failYear)
		}
	}

	require.NoError(t, os.WriteFile(paths.HistoricalCSV(), []byte(hist.String()), 0o644))
	require.NoError(t, os.WriteFile(paths.ReceivershipCSV(), []byte(recs.String()), 0o644))

	var cpi strings.Builder
	cpi.WriteString("year,cpi\n")
	for year := 1900; year <= 1911; year++ {
		fmt.Fprintf(&cpi, "%d,%.1f\n", year, 25.0+float64(year-1900)*0.5)
	}
	require.NoError(t, os.WriteFile(paths.CPICSV(), []byte(cpi.String()), 0o644))
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	root := t.TempDir()
	p, err := config.NewPaths(config.PathsConfig{
		RawDir:     filepath.Join(root, "raw"),
		InterimDir: filepath.Join(root, "interim"),
		OutputDir:  filepath.Join(root, "output"),
	})
	require.NoError(t, err)
	return p
}

func TestPipelineEndToEnd(t *testing.T) {
	paths := testPaths(t)
	writeRawTables(t, paths)

	cfg := &config.Config{
		Pipeline:  config.PipelineConfig{ContinueOnError: true, Concurrency: 2},
		Deflation: config.DeflationConfig{Enabled: true, RefYear: 1905},
		Models: []model.ModelSpec{
			{
				ID:        "f1_lpm",
				LabelCol:  "f1_failure",
				Family:    model.FamilyLPM,
				StartYear: 1900,
				EndYear:   1911,
				MinWindow: 5,
				Terms:     []model.Term{{Name: "leverage"}},
			},
			{
				ID:        "f3_logit",
				LabelCol:  "f3_failure",
				Family:    model.FamilyLogit,
				StartYear: 1900,
				EndYear:   1911,
				MinWindow: 5,
				Terms:     []model.Term{{Name: "leverage"}, {Name: "income_ratio"}},
			},
		},
	}

	reg, err := DefaultRegistry(cfg, paths)
	require.NoError(t, err)

	state := NewState()
	runner := NewRunner(reg, WithProgressLog(NewProgressLog(paths.OutputDir)))
	report, err := runner.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)

	// The interim panel persisted.
	_, err = os.Stat(paths.PanelCSV())
	require.NoError(t, err)
	assert.NotEmpty(t, state.Panel())

	// Evaluations for both specs, in spec order.
	evals := state.Evaluations()
	require.Len(t, evals, 2)
	assert.Equal(t, "f1_lpm", evals[0].Spec.ID)
	assert.Equal(t, "f3_logit", evals[1].Spec.ID)
	assert.Greater(t, evals[0].Summary.N, 0)

	// Exported artifacts.
	for _, name := range []string{
		"predictions_f1_lpm_1900_1911.csv",
		"coefficients_f1_lpm_1900_1911.csv",
		"predictions_f3_logit_1900_1911.csv",
		"evaluation_summary.csv",
		"descriptives.csv",
		"bucket_rates.csv",
		"macro_series.csv",
		"results.xlsx",
		"progress.csv",
	} {
		_, err := os.Stat(filepath.Join(paths.OutputDir, name))
		assert.NoError(t, err, name)
	}
}

func TestImportStageMissingHistorical(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, paths.EnsureDirs())

	stage := &ImportStage{Paths: paths, Deflation: config.DeflationConfig{}}
	err := stage.Run(context.Background(), NewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "historical")
}

func TestPredictStageNoSpecs(t *testing.T) {
	stage := &PredictStage{}
	err := stage.Run(context.Background(), NewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model specs")
}

func TestBuildPanelStageEmptySources(t *testing.T) {
	paths := testPaths(t)
	stage := &BuildPanelStage{Paths: paths}
	err := stage.Run(context.Background(), NewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}
