package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"snapshot-compare/internal/compare"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/logging"
	"snapshot-compare/internal/report"
	"snapshot-compare/internal/storage"
	"syscall"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	defaults := report.DefaultConfig()

	var leftTitle string
	var rightTitle string
	var ignoreMatch bool
	var ignoreLeftMissing bool
	var ignoreRightMissing bool
	var snapshotTesting bool
	var filter string
	var output string
	var format string
	var embedImages bool
	var publish string
	var storageDir string
	var bucket string
	var prefix string
	var concurrency int
	var verbose bool

	flag.StringVar(&leftTitle, "left-title", config.EnvOrDefault("LEFT_TITLE", defaults.LeftTitle), "Title of the left directory in the report")
	flag.StringVar(&rightTitle, "right-title", config.EnvOrDefault("RIGHT_TITLE", defaults.RightTitle), "Title of the right directory in the report")
	flag.BoolVar(&ignoreMatch, "ignore-match", config.EnvOrDefault("IGNORE_MATCH", false), "Do not report identical images")
	flag.BoolVar(&ignoreLeftMissing, "ignore-left-missing", config.EnvOrDefault("IGNORE_LEFT_MISSING", false), "Do not report images missing on the left")
	flag.BoolVar(&ignoreRightMissing, "ignore-right-missing", config.EnvOrDefault("IGNORE_RIGHT_MISSING", false), "Do not report images missing on the right")
	flag.BoolVar(&snapshotTesting, "snapshot-testing", config.EnvOrDefault("SNAPSHOT_TESTING", false), "Left holds current test images and right holds snapshots; implies -ignore-left-missing")
	flag.StringVar(&filter, "filter", config.EnvOrDefault("FILTER", ""), "Only compare images whose name contains this text")
	flag.StringVar(&output, "output", config.EnvOrDefault("OUTPUT", "report.html"), "Output filename")
	flag.StringVar(&format, "format", config.EnvOrDefault("FORMAT", ""), "Report format (html, markdown or json); guessed from -output when empty")
	flag.BoolVar(&embedImages, "embed-images", config.EnvOrDefault("EMBED_IMAGES", false), "Embed images into the report")
	flag.StringVar(&publish, "publish", config.EnvOrDefault("PUBLISH", ""), "Also publish the report to a storage backend (file or s3)")
	flag.StringVar(&storageDir, "storage-dir", config.EnvOrDefault("STORAGE_DIR", ""), "Directory of the file storage backend")
	flag.StringVar(&bucket, "bucket", config.EnvOrDefault("BUCKET", ""), "Bucket of the s3 storage backend")
	flag.StringVar(&prefix, "prefix", config.EnvOrDefault("PREFIX", ""), "Key prefix of the published objects")
	flag.IntVar(&concurrency, "concurrency", config.EnvOrDefault("CONCURRENCY", 0), "Pairs compared at once; zero uses GOMAXPROCS")
	flag.BoolVar(&verbose, "v", config.EnvOrDefault("VERBOSE", false), "Verbose output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] LEFT RIGHT\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(2)
	}

	reportFormat := report.FormatFromPath(output)
	if format != "" {
		f, err := report.ParseFormat(format)
		if err != nil {
			log.Fatalf("Invalid format: %v", err)
		}
		reportFormat = f
	}

	logger := logging.New(verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	engine := diff.NewEngine()
	engine.Concurrency = concurrency
	session := compare.NewSession(engine)

	logger.V(1).Info("comparing directories", "left", args[0], "right", args[1])
	if err := session.CompareDirectories(ctx, compare.Config{
		IgnoreMatch:        ignoreMatch,
		IgnoreLeftMissing:  ignoreLeftMissing || snapshotTesting,
		IgnoreRightMissing: ignoreRightMissing,
		FilterName:         filter,
	}, args[0], args[1]); err != nil {
		logger.Error(err, "comparison failed")
		os.Exit(1)
	}

	o := report.Output{
		Path:    output,
		Format:  reportFormat,
		Verbose: verbose,
		Out:     os.Stdout,
	}
	if publish != "" {
		s, err := storage.New(ctx, storage.Config{
			Backend:   publish,
			Directory: storageDir,
			Bucket:    bucket,
			Prefix:    prefix,
		})
		if err != nil {
			logger.Error(err, "failed to create storage")
			os.Exit(1)
		}
		o.Publish = s
	}

	if err := report.Create(ctx, report.Config{
		LeftTitle:   leftTitle,
		RightTitle:  rightTitle,
		EmbedImages: embedImages,
	}, session.Results(), o); err != nil {
		logger.Error(err, "failed to create report")
		os.Exit(1)
	}
}
