package report_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"snapshot-compare/internal/report"
	"snapshot-compare/internal/storage"
	"strings"
	"testing"
)

func TestCreate(t *testing.T) {
	t.Run("NothingToReport", func(t *testing.T) {
		var out bytes.Buffer
		p := filepath.Join(t.TempDir(), "report.html")
		err := report.Create(context.Background(), report.DefaultConfig(), nil, report.Output{
			Path:    p,
			Format:  report.FormatHTML,
			Verbose: true,
			Out:     &out,
		})
		if err != nil {
			t.Fatal(err)
		}
		if out.String() != "Nothing to report\n" {
			t.Errorf("Unexpected output %q", out.String())
		}
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("Expected no report file, got %v", err)
		}
	})

	t.Run("QuietEmptyReport", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "report.html")
		if err := report.Create(context.Background(), report.DefaultConfig(), nil, report.Output{Path: p, Format: report.FormatHTML}); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected an empty report to be written: %v", err)
		}
	})

	t.Run("WriteAndPublish", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: filepath.Join(dir, "published")})
		if err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		p := filepath.Join(dir, "report.md")
		err = report.Create(ctx, report.DefaultConfig(), results(t), report.Output{
			Path:    p,
			Format:  report.FormatMarkdown,
			Publish: s,
			Verbose: true,
			Out:     &out,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Report written into '"+p+"'; found 5 images") {
			t.Errorf("Unexpected output %q", out.String())
		}
		if !strings.Contains(out.String(), "Report published to "+filepath.Join(dir, "published")) {
			t.Errorf("Unexpected output %q", out.String())
		}
	})
}
