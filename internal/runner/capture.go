package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"snapshot-compare/internal/capture"
	"snapshot-compare/internal/imagefs"
	"snapshot-compare/internal/snapshot"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type Target struct {
	Name    string
	URL     string
	Options capture.CaptureOptions
}

// CaptureRunner produces the current images by taking a screenshot of every
// target. Each target is written as <Name>.png into Dir.
type CaptureRunner struct {
	Capturer    capture.Capturer
	Dir         string
	Targets     []Target
	Concurrency int
	Log         logr.Logger
}

var _ snapshot.TestRunner = (*CaptureRunner)(nil)

func (r *CaptureRunner) GenerateAllTests(ctx context.Context) error {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return xerrors.Errorf("failed to create output directory: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(limit)

	for _, target := range r.Targets {
		eg.Go(func() error {
			log := r.Log.WithValues("target", target.Name, "url", target.URL)
			log.V(1).Info("capturing")

			screenshot, err := r.Capturer.Capture(ctx, target.URL, target.Options)
			if err != nil {
				return xerrors.Errorf("failed to capture %s: %w", target.Name, err)
			}

			path := filepath.Join(r.Dir, target.Name+"."+imagefs.Extension)
			if err := os.WriteFile(path, screenshot, 0644); err != nil {
				return xerrors.Errorf("failed to write %s: %w", path, err)
			}
			log.Info("captured", "path", path, "bytes", len(screenshot))
			return nil
		})
	}
	return eg.Wait()
}
