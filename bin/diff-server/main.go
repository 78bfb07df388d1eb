package main

import (
	"context"
	"flag"
	"log"
	"snapshot-compare/internal/compare"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/report"
	"snapshot-compare/internal/runnable"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	var configPath string
	var left string
	var right string
	var schedule string
	var concurrency int

	flag.StringVar(&configPath, "config", config.EnvOrDefault("SNAPSHOT_COMPARE_CONFIG", ""), "Path to the project file")
	flag.StringVar(&left, "left", config.EnvOrDefault("LEFT_DIR", ""), "Directory of the current images; defaults to the project's current_dir")
	flag.StringVar(&right, "right", config.EnvOrDefault("RIGHT_DIR", ""), "Directory of the snapshots; defaults to the project's snapshot_dir")
	flag.StringVar(&schedule, "schedule", config.EnvOrDefault("SCHEDULE", ""), "Cron schedule of the directory comparison; empty disables it")
	flag.IntVar(&concurrency, "concurrency", config.EnvOrDefault("CONCURRENCY", 0), "Pairs compared at once; zero uses GOMAXPROCS")
	flag.BoolVar(&runnable.Debug, "debug", config.EnvOrDefault("DEBUG", false), "Text logs and pprof endpoints")
	flag.Parse()

	project, err := config.FindProject(configPath)
	if err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}
	if left == "" {
		left = project.CurrentDir
	}
	if right == "" {
		right = project.SnapshotDir
	}
	if schedule == "" {
		schedule = project.Schedule
	}

	engine := diff.NewEngine()
	engine.Concurrency = concurrency

	var refresher *runnable.Refresher
	if schedule != "" {
		refresher, err = runnable.NewRefresher(schedule, left, right)
		if err != nil {
			log.Fatalf("Failed to create refresher: %v", err)
		}
		refresher.Engine = engine
		refresher.Compare = compare.Config{IgnoreLeftMissing: true}
		refresher.Report = report.Config{
			LeftTitle:   project.Report.LeftTitle,
			RightTitle:  project.Report.RightTitle,
			EmbedImages: true,
		}
	}

	server := runnable.NewServer(engine, refresher)
	if err := server.Start(context.Background()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
