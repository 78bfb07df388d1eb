package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"snapshot-compare/internal/capture"
	"snapshot-compare/internal/imagefs"
	"snapshot-compare/internal/runner"
	"sync"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
)

type fakeCapturer struct {
	mu      sync.Mutex
	options map[string]capture.CaptureOptions
	fail    string
}

func (f *fakeCapturer) Capture(ctx context.Context, url string, options capture.CaptureOptions) ([]byte, error) {
	if url == f.fail {
		return nil, errors.New("navigation failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.options == nil {
		f.options = map[string]capture.CaptureOptions{}
	}
	f.options[url] = options
	return []byte(url), nil
}

func TestCaptureRunner(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "current")
	capturer := &fakeCapturer{}
	r := &runner.CaptureRunner{
		Capturer: capturer,
		Dir:      dir,
		Targets: []runner.Target{
			{Name: "home", URL: "http://example.test/"},
			{Name: "about", URL: "http://example.test/about", Options: capture.CaptureOptions{MaskSelectors: []string{".clock"}}},
		},
		Concurrency: 1,
		Log:         testr.New(t),
	}

	if err := r.GenerateAllTests(context.Background()); err != nil {
		t.Fatal(err)
	}

	seq, err := imagefs.ListImageDirNames(dir)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"about.png", "home.png"}, slices.Sorted(seq)); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
	data, err := os.ReadFile(filepath.Join(dir, "about.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "http://example.test/about" {
		t.Errorf("Unexpected content %q", data)
	}
	if d := cmp.Diff([]string{".clock"}, capturer.options["http://example.test/about"].MaskSelectors); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestCaptureRunnerFailure(t *testing.T) {
	r := &runner.CaptureRunner{
		Capturer: &fakeCapturer{fail: "http://example.test/broken"},
		Dir:      t.TempDir(),
		Targets: []runner.Target{
			{Name: "broken", URL: "http://example.test/broken"},
		},
	}
	if err := r.GenerateAllTests(context.Background()); err == nil {
		t.Error("Expected capture failure")
	}
}
