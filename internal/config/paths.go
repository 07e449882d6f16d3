package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the data directory tree of a run. Raw holds downloaded
// source tables, Interim holds the built panel, Output holds the
// exported results.
type Paths struct {
	RawDir     string
	InterimDir string
	OutputDir  string
}

// NewPaths builds absolute paths from the configured directories.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	p := &Paths{}
	var err error
	if p.RawDir, err = filepath.Abs(cfg.RawDir); err != nil {
		return nil, fmt.Errorf("resolve raw dir: %w", err)
	}
	if p.InterimDir, err = filepath.Abs(cfg.InterimDir); err != nil {
		return nil, fmt.Errorf("resolve interim dir: %w", err)
	}
	if p.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	return p, nil
}

// EnsureDirs creates the directory tree.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.RawDir, p.InterimDir, p.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Raw source tables the importers read.
func (p *Paths) HistoricalCSV() string   { return filepath.Join(p.RawDir, "historical_calls.csv") }
func (p *Paths) ModernCSV() string       { return filepath.Join(p.RawDir, "modern_calls.csv") }
func (p *Paths) ReceivershipCSV() string { return filepath.Join(p.RawDir, "receiverships.csv") }
func (p *Paths) CPICSV() string          { return filepath.Join(p.RawDir, "cpi.csv") }
func (p *Paths) GDPCSV() string          { return filepath.Join(p.RawDir, "gdp.csv") }
func (p *Paths) YieldsCSV() string       { return filepath.Join(p.RawDir, "yields.csv") }

// PanelCSV is the built panel between the build and predict stages.
func (p *Paths) PanelCSV() string { return filepath.Join(p.InterimDir, "panel.csv") }

// ProgressCSV is the per-run stage log.
func (p *Paths) ProgressCSV() string { return filepath.Join(p.OutputDir, "progress.csv") }

// WorkbookXLSX is the combined results workbook.
func (p *Paths) WorkbookXLSX() string { return filepath.Join(p.OutputDir, "results.xlsx") }
