// Command pipeline runs the full staged run: import, panel build,
// descriptives, model evaluation, and export.
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

	registry, err := pipeline.DefaultRegistry(cfg, paths)
	if err != nil {
		slog.Error("failed to assemble pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(registry,
		pipeline.WithProgressLog(pipeline.NewProgressLog(paths.OutputDir)),
		pipeline.WithContinueOnError(cfg.Pipeline.ContinueOnError))

	state := pipeline.NewState()
	report, err := runner.Run(ctx, state)
	if report != nil {
		for _, st := range report.Stages {
			slog.Info("stage finished",
				"stage", st.ID,
				"status", st.GetStatus(),
				"duration", st.Duration())
		}
	}
	if err != nil {
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("pipeline run completed", "run_id", state.RunID)
}
