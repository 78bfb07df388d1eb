package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"snapshot-compare/internal/capture"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/logging"
	"snapshot-compare/internal/runner"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

type headers []string

func (h *headers) String() string {
	return strings.Join(*h, ", ")
}

func (h *headers) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func (h headers) Map() (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, header := range h {
		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", header)
		}
		m[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return m, nil
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	var configPath string
	var directory string
	var name string
	var maskSelectors string
	var delay time.Duration
	var viewportWidth int
	var viewportHeight int
	var userAgent string
	var chromeDevtoolsProtocolURL string
	var concurrency int
	var verbose bool
	var headers headers
	flag.StringVar(&configPath, "config", config.EnvOrDefault("SNAPSHOT_COMPARE_CONFIG", ""), "Path to the project file")
	flag.StringVar(&directory, "directory", config.EnvOrDefault("DIRECTORY", ""), "Output directory; defaults to the project's current_dir")
	flag.StringVar(&name, "name", config.EnvOrDefault("NAME", ""), "Image name for a URL given as argument")
	flag.StringVar(&maskSelectors, "mask-selectors", config.EnvOrDefault("MASK_SELECTORS", ""), "Comma-separated list of CSS selectors to mask during capture")
	flag.DurationVar(&delay, "delay", config.EnvOrDefault("DELAY", 3*time.Second), "Delay before capturing")
	flag.IntVar(&viewportWidth, "viewport-width", config.EnvOrDefault("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", config.EnvOrDefault("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.StringVar(&userAgent, "user-agent", config.EnvOrDefault("USER_AGENT", ""), "User-Agent string to use for requests")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", config.EnvOrDefault("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.IntVar(&concurrency, "concurrency", config.EnvOrDefault("CONCURRENCY", 2), "Targets captured at once")
	flag.BoolVar(&verbose, "v", config.EnvOrDefault("VERBOSE", false), "Verbose logging")
	flag.Var(&headers, "H", "Add HTTP header (can be used multiple times, e.g., -H 'Accept: text/html' -H 'Authorization: Bearer token')")
	flag.Parse()

	logger := logging.New(verbose)

	project, err := config.FindProject(configPath)
	if err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}
	if directory == "" {
		directory = project.CurrentDir
	}

	options := capture.CaptureOptions{}
	if maskSelectors != "" {
		for _, selector := range strings.Split(maskSelectors, ",") {
			options.MaskSelectors = append(options.MaskSelectors, strings.TrimSpace(selector))
		}
	}
	if options.Headers, err = headers.Map(); err != nil {
		log.Fatalf("Failed to parse headers: %v", err)
	}

	var targets []runner.Target
	if args := flag.Args(); len(args) > 0 {
		if name == "" {
			log.Fatalf("-name is required when a url is given")
		}
		targets = append(targets, runner.Target{Name: name, URL: args[0], Options: options})
	} else {
		for _, t := range project.Targets {
			targetOptions := t.CaptureOptions
			targetOptions.MaskSelectors = append(targetOptions.MaskSelectors, options.MaskSelectors...)
			if len(options.Headers) > 0 {
				merged := make(map[string]string, len(t.Headers)+len(options.Headers))
				for k, v := range t.Headers {
					merged[k] = v
				}
				for k, v := range options.Headers {
					merged[k] = v
				}
				targetOptions.Headers = merged
			}
			targets = append(targets, runner.Target{Name: t.Name, URL: t.URL, Options: targetOptions})
		}
	}
	if len(targets) == 0 {
		log.Fatalf("url not specified and the project has no targets")
	}

	playwrightConfig := capture.DefaultPlaywrightConfig()
	if delay > 0 {
		playwrightConfig.Delay = delay
	}
	if chromeDevtoolsProtocolURL != "" {
		playwrightConfig.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		playwrightConfig.Headless = false
	}
	if viewportWidth > 0 {
		playwrightConfig.ViewportWidth = viewportWidth
	}
	if viewportHeight > 0 {
		playwrightConfig.ViewportHeight = viewportHeight
	}
	if userAgent != "" {
		playwrightConfig.UserAgent = userAgent
	}

	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		log.Fatalf("failed to install playwright browsers: %v", err)
	}

	r := &runner.CaptureRunner{
		Capturer:    capture.NewPlaywrightCapturer(playwrightConfig),
		Dir:         directory,
		Targets:     targets,
		Concurrency: concurrency,
		Log:         logger.WithName("capture"),
	}
	if err := r.GenerateAllTests(context.Background()); err != nil {
		log.Fatalf("Failed to capture: %v", err)
	}
}
