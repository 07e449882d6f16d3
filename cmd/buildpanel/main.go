// Command buildpanel imports the raw source tables and writes the
// analysis panel to the interim directory, without running the models.
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
	if err := paths.EnsureDirs(); err != nil {
		slog.Error("failed to create data directories", "error", err)
		os.Exit(1)
	}

	registry := pipeline.NewRegistry()
	stages := []pipeline.Stage{
		&pipeline.ImportStage{Paths: paths, Deflation: cfg.Deflation},
		&pipeline.BuildPanelStage{Paths: paths},
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
		slog.Error("panel build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("panel written",
		"rows", len(state.Panel()),
		"path", paths.PanelCSV())
}
