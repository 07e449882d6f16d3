// Command download fetches the public regulatory source datasets into
// the raw data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankfail/internal/config"
	"bankfail/internal/download"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	list := flag.Bool("list", false, "list the catalog and exit")
	group := flag.String("group", "", "restrict to one publisher group (fdic, nic, chicago_fed, cdr)")
	interval := flag.Duration("interval", 2*time.Second, "minimum spacing between requests")
	flag.Parse()

	sources := download.Catalog
	if *group != "" {
		sources = download.ByGroup(download.Group(*group))
		if len(sources) == 0 {
			slog.Error("unknown source group", "group", *group)
			os.Exit(1)
		}
	}

	if *list {
		for _, s := range sources {
			access := "direct"
			if s.ManualOnly {
				access = "manual"
			}
			fmt.Printf("%-28s %-8s %-8s %s\n", s.Key, s.Group, access, s.URL)
		}
		return
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := download.New(paths.RawDir, download.WithInterval(*interval))
	results := d.FetchAll(ctx, sources)

	fetched, skipped, manual, failed := 0, 0, 0, 0
	for _, res := range results {
		switch {
		case res.Source.ManualOnly:
			manual++
		case res.Err != nil:
			failed++
		case res.Skipped:
			skipped++
		default:
			fetched++
		}
	}
	slog.Info("download run finished",
		"fetched", fetched,
		"skipped", skipped,
		"manual_only", manual,
		"failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
