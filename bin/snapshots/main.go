package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"snapshot-compare/internal/capture"
	"snapshot-compare/internal/compare"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/logging"
	"snapshot-compare/internal/report"
	"snapshot-compare/internal/runner"
	"snapshot-compare/internal/snapshot"
	"snapshot-compare/internal/storage"

	"github.com/go-logr/logr"
)

const usage = `Usage: snapshots [-config file] [-v] <command> [flags]

Commands:
  report          compare current images against the snapshots and write a report
  clean           remove every image from the current directory
  dead-snapshots  list snapshots no test produces anymore
`

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	var configPath string
	var verbose bool
	flag.StringVar(&configPath, "config", config.EnvOrDefault("SNAPSHOT_COMPARE_CONFIG", ""), "Path to the project file")
	flag.BoolVar(&verbose, "v", config.EnvOrDefault("VERBOSE", false), "Verbose logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	project, err := config.FindProject(configPath)
	if err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}
	logger := logging.New(verbose)

	ctx := context.Background()
	if err := run(ctx, project, logger, args[0], args[1:]); err != nil {
		logger.Error(err, "command failed", "command", args[0])
		os.Exit(1)
	}
}

func run(ctx context.Context, project *config.Project, logger logr.Logger, command string, args []string) error {
	m := &snapshot.Manager{
		CurrentDir:  project.CurrentDir,
		SnapshotDir: project.SnapshotDir,
		Log:         logger.WithName("snapshots"),
		Out:         os.Stdout,
	}

	switch command {
	case "report":
		return runReport(ctx, project, m, args)
	case "clean":
		fs := flag.NewFlagSet("clean", flag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			return err
		}
		return m.Clean()
	case "dead-snapshots":
		return runDeadSnapshots(ctx, project, m, logger, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runReport(ctx context.Context, project *config.Project, m *snapshot.Manager, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	output := fs.String("output", project.Report.Output, "Output filename")
	format := fs.String("format", project.Report.Format, "Report format (html, markdown or json); guessed from -output when empty")
	embedImages := fs.Bool("embed-images", project.Report.EmbedImages, "Embed images into the report")
	filter := fs.String("filter", "", "Only compare images whose name contains this text")
	publish := fs.Bool("publish", project.Storage.Backend != "", "Publish the report to the configured storage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reportFormat := report.FormatFromPath(*output)
	if *format != "" {
		f, err := report.ParseFormat(*format)
		if err != nil {
			return err
		}
		reportFormat = f
	}

	session := compare.NewSession(nil)
	if err := m.Compare(ctx, session, *filter); err != nil {
		return err
	}

	o := report.Output{
		Path:    *output,
		Format:  reportFormat,
		Verbose: true,
		Out:     os.Stdout,
	}
	if *publish {
		s, err := storage.New(ctx, project.Storage)
		if err != nil {
			return err
		}
		o.Publish = s
	}

	return report.Create(ctx, report.Config{
		LeftTitle:   project.Report.LeftTitle,
		RightTitle:  project.Report.RightTitle,
		EmbedImages: *embedImages,
	}, session.Results(), o)
}

func runDeadSnapshots(ctx context.Context, project *config.Project, m *snapshot.Manager, logger logr.Logger, args []string) error {
	fs := flag.NewFlagSet("dead-snapshots", flag.ExitOnError)
	removeFiles := fs.Bool("remove-files", false, "Remove the dead snapshots")
	useCapture := fs.Bool("capture", false, "Produce the current images by capturing the project's targets instead of running the tests")
	failOnExitCode := fs.Bool("fail-on-test-failure", false, "Abort when the test command exits with a non-zero status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *useCapture {
		targets := make([]runner.Target, 0, len(project.Targets))
		for _, t := range project.Targets {
			targets = append(targets, runner.Target{Name: t.Name, URL: t.URL, Options: t.CaptureOptions})
		}
		m.Runner = &runner.CaptureRunner{
			Capturer: capture.NewPlaywrightCapturer(capture.DefaultPlaywrightConfig()),
			Dir:      project.CurrentDir,
			Targets:  targets,
			Log:      logger.WithName("capture"),
		}
	} else {
		m.Runner = &runner.CommandRunner{
			Command:        project.TestCommand,
			EnvName:        project.GenerateEnv,
			FailOnExitCode: *failOnExitCode,
			Stdout:         os.Stderr,
			Stderr:         os.Stderr,
			Log:            logger.WithName("runner"),
		}
	}

	_, err := m.ProcessDeadSnapshots(ctx, *removeFiles)
	return err
}
