package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"snapshot-compare/internal/diff"
	diffimage "snapshot-compare/internal/diff/image"
	"snapshot-compare/internal/pair"
	"snapshot-compare/internal/report"
	"snapshot-compare/internal/storage"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loaded(w, h uint32) diff.ImageInfoResult {
	return diff.InfoLoaded{Info: diff.ImageInfo{Width: w, Height: h}}
}

func diffImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 3; i < img.Stride*10; i += 4 {
		img.Pix[i] = 255
	}
	img.Set(2, 2, color.RGBA{R: 20, A: 255})
	img.Set(3, 2, color.RGBA{G: 30, A: 255})
	return img
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatal(err)
	}
}

func results(t *testing.T) []diff.PairResult {
	t.Helper()
	dir := t.TempDir()
	left := filepath.Join(dir, "left.png")
	writePNG(t, left)

	return []diff.PairResult{
		{
			Pair:       pair.Pair{Title: "same.png", Left: left, Right: left},
			Difference: diff.None{},
			LeftInfo:   loaded(10, 10),
			RightInfo:  loaded(10, 10),
		},
		{
			Pair:       pair.Pair{Title: "changed.png", Left: left, Right: left},
			Difference: diff.Content{DifferentPixels: 2, DistanceSum: 510, Image: diffImage()},
			LeftInfo:   loaded(10, 10),
			RightInfo:  loaded(10, 10),
		},
		{
			Pair:       pair.Pair{Title: "resized.png", Left: left, Right: left},
			Difference: diff.SizeMismatch{},
			LeftInfo:   loaded(10, 10),
			RightInfo:  loaded(20, 5),
		},
		{
			Pair:       pair.Pair{Title: "new.png", Left: left, Right: filepath.Join(dir, "missing.png")},
			Difference: diff.MissingFile{},
			LeftInfo:   loaded(10, 10),
			RightInfo:  diff.InfoMissing{},
		},
		{
			Pair:       pair.Pair{Title: "broken.png", Left: left, Right: left},
			Difference: diff.LoadError{},
			LeftInfo:   loaded(10, 10),
			RightInfo:  diff.InfoError{Message: "png: invalid format"},
		},
	}
}

func TestNewStats(t *testing.T) {
	rs := results(t)
	got := make([]report.Stats, 0, len(rs))
	for _, r := range rs {
		got = append(got, report.NewStats(r))
	}

	want := []report.Stats{
		{Status: report.StatusOK, Description: "Match"},
		{
			Status:           report.StatusWarning,
			Description:      "Different pixels",
			DifferentPixels:  2,
			Percent:          2,
			ColorDistance:    2,
			AvgColorDistance: 0.02,
		},
		{Status: report.StatusError, Description: "Size mismatch", LeftSize: "10x10", RightSize: "20x5"},
		{Status: report.StatusError, Description: "Missing file"},
		{Status: report.StatusError, Description: "Loading error"},
	}
	approx := cmp.Comparer(func(x, y float64) bool { return math.Abs(x-y) < 1e-9 })
	if d := cmp.Diff(want, got, approx); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	if s := got[1].DifferentPixelsText(); s != "2 (2.0%)" {
		t.Errorf("Unexpected text %q", s)
	}
	if s := got[1].ColorDistanceText(); s != "2.000" {
		t.Errorf("Unexpected text %q", s)
	}
	if s := got[1].AvgColorDistanceText(); s != "0.0200" {
		t.Errorf("Unexpected text %q", s)
	}
}

func TestNew(t *testing.T) {
	r, err := report.New(report.DefaultConfig(), results(t))
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 5 || r.RunID == "" {
		t.Fatalf("Unexpected report %+v", r)
	}

	changed, ok := r.Find("changed.png")
	if !ok {
		t.Fatal("Expected changed.png entry")
	}
	if len(changed.DiffPNG) == 0 || changed.DiffImage() == nil {
		t.Error("Expected encoded difference image")
	}
	if d := cmp.Diff([]diffimage.Rectangle{{X: 2, Y: 2, Width: 2, Height: 1}}, changed.Regions); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	want := map[diff.Kind]int{
		diff.KindNone:         1,
		diff.KindContent:      1,
		diff.KindSizeMismatch: 1,
		diff.KindMissingFile:  1,
		diff.KindLoadError:    1,
	}
	if d := cmp.Diff(want, r.Summary()); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
	if _, ok := r.Find("unknown.png"); ok {
		t.Error("Expected no entry for unknown title")
	}
}

func TestWriteHTML(t *testing.T) {
	tests := []struct {
		name   string
		config report.Config
		want   []string
		absent []string
	}{
		{
			"Default",
			report.DefaultConfig(),
			[]string{
				"<h2>changed.png</h2>",
				"<h3>Left image</h3>",
				"<h3>Right image</h3>",
				"2 (2.0%)",
				"Left image size",
				"20x5",
				"File is missing",
				"Error: png: invalid format",
				"data:image/png;base64,",
				"left.png",
			},
			nil,
		},
		{
			"ProjectTitles",
			report.Config{LeftTitle: "Current test", RightTitle: "Snapshot", EmbedImages: true},
			[]string{"<h3>Current test</h3>", "<h3>Snapshot</h3>", "Snapshot size"},
			[]string{"left.png\""},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, err := report.New(tt.config, results(t))
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := r.WriteHTML(&buf); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Expected %q in report", w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("Unexpected %q in report", a)
				}
			}
			if strings.Contains(out, "ZgotmplZ") {
				t.Error("Expected image sources to survive escaping")
			}
		})
	}
}

func TestWriteHTMLEmbedMissingFile(t *testing.T) {
	rs := results(t)
	rs[0].Pair.Left = filepath.Join(t.TempDir(), "gone.png")
	r, err := report.New(report.Config{EmbedImages: true}, rs[:1])
	if err != nil {
		t.Fatal(err)
	}
	if err := r.WriteHTML(&bytes.Buffer{}); err == nil {
		t.Error("Expected error embedding a vanished file")
	}
}

func TestWriteMarkdown(t *testing.T) {
	r, err := report.New(report.DefaultConfig(), results(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.WriteMarkdown(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, w := range []string{
		"# Snapshot Report",
		"## Summary",
		"Different pixels",
		"2 (2.0%), distance 2.000",
		"10x10 vs 20x5",
		"## broken.png",
		"Error: png: invalid format",
		"2x1+2+2",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("Expected %q in:\n%s", w, out)
		}
	}
	if strings.Contains(out, "## same.png") {
		t.Error("Expected matches to be summarized only")
	}
}

func TestWriteJSON(t *testing.T) {
	r, err := report.New(report.DefaultConfig(), results(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var got struct {
		RunID   string `json:"runId"`
		Entries []struct {
			Title   string                `json:"title"`
			Kind    string                `json:"kind"`
			Regions []diffimage.Rectangle `json:"regions"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != r.RunID {
		t.Errorf("Expected run id %s, got %s", r.RunID, got.RunID)
	}
	kinds := make([]string, 0, len(got.Entries))
	for _, e := range got.Entries {
		kinds = append(kinds, e.Kind)
	}
	if d := cmp.Diff([]string{"match", "content", "size-mismatch", "missing-file", "load-error"}, kinds); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
	if len(got.Entries[1].Regions) != 1 {
		t.Errorf("Expected one region, got %v", got.Entries[1].Regions)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    report.Format
		wantErr bool
	}{
		{"", report.FormatHTML, false},
		{"HTML", report.FormatHTML, false},
		{"md", report.FormatMarkdown, false},
		{"json", report.FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := report.ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if got := report.FormatFromPath("out/report.MD"); got != report.FormatMarkdown {
		t.Errorf("Expected markdown, got %s", got)
	}
}

func TestWriteFile(t *testing.T) {
	r, err := report.New(report.DefaultConfig(), results(t))
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "nested", "report.json")
	if err := r.WriteFile(p, report.FormatJSON); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Error(err)
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
	if err != nil {
		t.Fatal(err)
	}
	r, err := report.New(report.DefaultConfig(), results(t))
	if err != nil {
		t.Fatal(err)
	}

	published, err := r.Publish(ctx, s, report.FormatHTML)
	if err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(dir, r.RunID, "report.html"); published.Report != want {
		t.Errorf("Expected %s, got %s", want, published.Report)
	}
	want := map[string]string{
		"changed.png": filepath.Join(dir, r.RunID, "diff", "changed.png"),
	}
	if d := cmp.Diff(want, published.Diffs); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	html, err := s.Get(ctx, published.Report)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(html), "left.png") {
		t.Error("Expected published report to embed images")
	}
}
