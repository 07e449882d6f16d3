package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"bankfail/internal/config"
	"bankfail/internal/exporter"
	"bankfail/internal/model"
	"bankfail/internal/panel"
	"bankfail/internal/series"
	"bankfail/internal/stats"
)

// Stage IDs, used in dependency declarations and the progress log.
const (
	StageImport       = "import"
	StageBuildPanel   = "build_panel"
	StageDescriptives = "descriptives"
	StagePredict      = "predict"
	StageExport       = "export"
)

// ImportStage reads the raw source tables and the price index into the
// run state. The modern table and the CPI are optional: an all-historical
// run proceeds without them.
type ImportStage struct {
	Paths     *config.Paths
	Deflation config.DeflationConfig
}

func (s *ImportStage) ID() string             { return StageImport }
func (s *ImportStage) Name() string           { return "Import source tables" }
func (s *ImportStage) Dependencies() []string { return nil }
func (s *ImportStage) Critical() bool         { return true }

func (s *ImportStage) Run(ctx context.Context, state *State) error {
	historical, err := panel.LoadHistorical(s.Paths.HistoricalCSV())
	if err != nil {
		return fmt.Errorf("load historical table: %w", err)
	}

	var modern []panel.Observation
	if _, err := os.Stat(s.Paths.ModernCSV()); err == nil {
		modern, err = panel.LoadModern(s.Paths.ModernCSV())
		if err != nil {
			return fmt.Errorf("load modern table: %w", err)
		}
	}

	recs, err := panel.LoadReceiverships(s.Paths.ReceivershipCSV())
	if err != nil {
		return fmt.Errorf("load receiverships: %w", err)
	}

	var cpi *series.Annual
	var deflator *series.Deflator
	if s.Deflation.Enabled {
		cpi, err = series.LoadCPI(s.Paths.CPICSV())
		if err != nil {
			return fmt.Errorf("load CPI: %w", err)
		}
		deflator, err = series.NewDeflator(cpi, s.Deflation.RefYear)
		if err != nil {
			return fmt.Errorf("build deflator: %w", err)
		}
	}

	// The remaining macro series feed the descriptive exports only, so
	// an absent file is not an error.
	var gdp, yields *series.Annual
	if _, err := os.Stat(s.Paths.GDPCSV()); err == nil {
		if gdp, err = series.LoadGDP(s.Paths.GDPCSV()); err != nil {
			return fmt.Errorf("load GDP: %w", err)
		}
	}
	if _, err := os.Stat(s.Paths.YieldsCSV()); err == nil {
		if yields, err = series.LoadYields(s.Paths.YieldsCSV()); err != nil {
			return fmt.Errorf("load yields: %w", err)
		}
	}

	state.SetSources(historical, modern, recs, deflator)
	state.SetMacro(cpi, gdp, yields)
	return nil
}

// BuildPanelStage assembles the analysis panel and persists it to the
// interim directory so a later predict-only run can start from disk.
type BuildPanelStage struct {
	Paths *config.Paths
	Masks []panel.EraMask
}

func (s *BuildPanelStage) ID() string             { return StageBuildPanel }
func (s *BuildPanelStage) Name() string           { return "Build analysis panel" }
func (s *BuildPanelStage) Dependencies() []string { return []string{StageImport} }
func (s *BuildPanelStage) Critical() bool         { return true }

func (s *BuildPanelStage) Run(ctx context.Context, state *State) error {
	historical, modern, recs, deflator := state.Sources()
	masks := s.Masks
	if masks == nil {
		masks = panel.DefaultEraMasks
	}

	rows := panel.Build(ctx, historical, modern, recs, deflator, masks)
	if len(rows) == 0 {
		return fmt.Errorf("panel construction produced no rows")
	}
	state.SetPanel(rows)

	if err := panel.Save(rows, s.Paths.PanelCSV()); err != nil {
		return fmt.Errorf("persist panel: %w", err)
	}
	return nil
}

// LoadPanelStage reads a previously built panel from disk in place of
// the import and build stages. It shares the build stage's ID so
// downstream dependency declarations resolve unchanged.
type LoadPanelStage struct {
	Path string
}

func (s *LoadPanelStage) ID() string             { return StageBuildPanel }
func (s *LoadPanelStage) Name() string           { return "Load panel from disk" }
func (s *LoadPanelStage) Dependencies() []string { return nil }
func (s *LoadPanelStage) Critical() bool         { return true }

func (s *LoadPanelStage) Run(ctx context.Context, state *State) error {
	rows, err := panel.Load(s.Path)
	if err != nil {
		return fmt.Errorf("load panel: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("panel %s is empty", s.Path)
	}
	state.SetPanel(rows)
	return nil
}

// descriptiveLabels are the outcome columns tabulated against each
// predictor's percentile buckets.
var descriptiveLabels = []string{"f1_failure", "f3_failure", "f5_failure"}

// descriptivePredictors are the ratio columns whose distribution and
// conditional failure rates are reported.
var descriptivePredictors = []string{
	"leverage", "noncore_ratio", "income_ratio", "surplus_ratio", "liquid_ratio",
}

// DescriptivesStage exports summary statistics and failure rates by
// percentile bucket. It is analysis output: a failure here does not
// block prediction.
type DescriptivesStage struct {
	Paths *config.Paths
}

func (s *DescriptivesStage) ID() string             { return StageDescriptives }
func (s *DescriptivesStage) Name() string           { return "Descriptive statistics" }
func (s *DescriptivesStage) Dependencies() []string { return []string{StageBuildPanel} }
func (s *DescriptivesStage) Critical() bool         { return false }

func (s *DescriptivesStage) Run(ctx context.Context, state *State) error {
	rows := state.Panel()
	exp := exporter.NewResultsExporter(s.Paths.OutputDir)

	var summaries []stats.Summary
	for _, name := range panel.ColumnNames() {
		summaries = append(summaries, stats.Describe(name, panel.Column(rows, name)))
	}
	if err := exp.ExportDescriptives(summaries); err != nil {
		return fmt.Errorf("export descriptives: %w", err)
	}

	var tables []exporter.BucketTable
	for _, pred := range descriptivePredictors {
		values := panel.Column(rows, pred)
		buckets := stats.Bin(values, stats.DefaultCutPercentiles)
		if buckets == nil {
			continue
		}
		for _, label := range descriptiveLabels {
			rates, counts := stats.BucketRates(buckets, panel.Column(rows, label))
			tables = append(tables, exporter.BucketTable{
				Column: pred,
				Label:  label,
				Rates:  rates,
				Counts: counts,
			})
		}
	}
	if err := exp.ExportBucketRates(tables); err != nil {
		return fmt.Errorf("export bucket rates: %w", err)
	}

	cpi, gdp, yields := state.Macro()
	if cpi != nil || gdp != nil || yields != nil {
		if err := exp.ExportMacroSeries(cpi, gdp, yields); err != nil {
			return fmt.Errorf("export macro series: %w", err)
		}
	}
	return nil
}

// PredictStage evaluates every configured model spec against the panel,
// bounded-concurrently. Results land in the state in spec order so the
// export is deterministic regardless of scheduling.
type PredictStage struct {
	Specs       []model.ModelSpec
	Concurrency int
}

func (s *PredictStage) ID() string             { return StagePredict }
func (s *PredictStage) Name() string           { return "Evaluate models" }
func (s *PredictStage) Dependencies() []string { return []string{StageBuildPanel} }
func (s *PredictStage) Critical() bool         { return false }

func (s *PredictStage) Run(ctx context.Context, state *State) error {
	if len(s.Specs) == 0 {
		return fmt.Errorf("no model specs configured")
	}
	ds := state.Dataset()

	evals := make([]*model.Evaluation, len(s.Specs))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, spec := range s.Specs {
		i, spec := i, spec
		g.Go(func() error {
			ev, err := model.Evaluate(gctx, ds, spec)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", spec.ID, err)
			}
			evals[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	state.SetEvaluations(evals)
	return nil
}

// ExportStage writes the per-model CSV artifacts, the cross-model
// summary, and the combined workbook.
type ExportStage struct {
	Paths *config.Paths
}

func (s *ExportStage) ID() string             { return StageExport }
func (s *ExportStage) Name() string           { return "Export results" }
func (s *ExportStage) Dependencies() []string { return []string{StagePredict} }
func (s *ExportStage) Critical() bool         { return false }

func (s *ExportStage) Run(ctx context.Context, state *State) error {
	evals := state.Evaluations()
	if len(evals) == 0 {
		return fmt.Errorf("nothing to export")
	}

	exp := exporter.NewResultsExporter(s.Paths.OutputDir)
	summaries := make([]model.EvalSummary, 0, len(evals))
	for _, ev := range evals {
		if err := exp.ExportEvaluation(ev); err != nil {
			return err
		}
		summaries = append(summaries, ev.Summary)
	}
	if err := exp.ExportSummaries(summaries); err != nil {
		return err
	}

	// The workbook sheet order follows spec IDs.
	sorted := make([]*model.Evaluation, len(evals))
	copy(sorted, evals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Spec.ID < sorted[j].Spec.ID })
	if err := exporter.WriteWorkbook(s.Paths.WorkbookXLSX(), sorted); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// DefaultRegistry wires the standard five-stage pipeline.
func DefaultRegistry(cfg *config.Config, paths *config.Paths) (*Registry, error) {
	reg := NewRegistry()
	stages := []Stage{
		&ImportStage{Paths: paths, Deflation: cfg.Deflation},
		&BuildPanelStage{Paths: paths},
		&DescriptivesStage{Paths: paths},
		&PredictStage{Specs: cfg.Models, Concurrency: cfg.Pipeline.Concurrency},
		&ExportStage{Paths: paths},
	}
	for _, s := range stages {
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
