// Command predict evaluates the configured model specifications against
// a previously built panel and exports the results.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bankfail/internal/config"
	"bankfail/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	panelPath := flag.String("panel", "", "panel CSV to evaluate (defaults to the interim panel)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg.Logging, os.Stderr))

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		os.Exit(1)
	}

	src := *panelPath
	if src == "" {
		src = paths.PanelCSV()
	}

	registry := pipeline.NewRegistry()
	stages := []pipeline.Stage{
		&pipeline.LoadPanelStage{Path: src},
		&pipeline.PredictStage{Specs: cfg.Models, Concurrency: cfg.Pipeline.Concurrency},
		&pipeline.ExportStage{Paths: paths},
	}
	for _, s := range stages {
		if err := registry.Register(s); err != nil {
			slog.Error("failed to assemble pipeline", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := pipeline.NewState()
	if _, err := pipeline.NewRunner(registry).Run(ctx, state); err != nil {
		slog.Error("prediction run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("prediction run completed",
		"models", len(cfg.Models),
		"output", paths.OutputDir)
}
