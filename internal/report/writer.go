package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"snapshot-compare/internal/storage"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", xerrors.Errorf("unknown report format: %q", s)
	}
}

// FormatFromPath guesses the format from the file extension of path.
func FormatFromPath(p string) Format {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	default:
		return FormatHTML
	}
}

func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return xerrors.Errorf("failed to render JSON report: %w", err)
	}
	return nil
}

func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatHTML:
		return r.WriteHTML(w)
	case FormatMarkdown:
		return r.WriteMarkdown(w)
	case FormatJSON:
		return r.WriteJSON(w)
	default:
		return xerrors.Errorf("unknown report format: %q", format)
	}
}

// WriteFile renders the report into the file at p, creating parent
// directories as needed.
func (r *Report) WriteFile(p string, format Format) error {
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return xerrors.Errorf("failed to create report directory: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := r.Write(&buf, format); err != nil {
		return err
	}
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return xerrors.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Published lists the storage URLs of a published report.
type Published struct {
	Report string            `json:"report"`
	Diffs  map[string]string `json:"diffs"`
}

// Publish uploads the difference images and the rendered report under
// <RunID>/. Left and right images are embedded into HTML reports since
// their local paths are meaningless to readers of the storage.
func (r *Report) Publish(ctx context.Context, s storage.Storage, format Format) (*Published, error) {
	published := &Published{
		Diffs: make(map[string]string),
	}

	type upload struct {
		title string
		url   string
	}
	uploads := make([]upload, len(r.Entries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, e := range r.Entries {
		if len(e.DiffPNG) == 0 {
			continue
		}
		eg.Go(func() error {
			key := path.Join(r.RunID, "diff", diffKey(e.Title))
			url, err := s.Put(egCtx, key, e.DiffPNG)
			if err != nil {
				return xerrors.Errorf("failed to publish difference of %s: %w", e.Title, err)
			}
			uploads[i] = upload{title: e.Title, url: url}
			return nil
		})
	}

	var buf bytes.Buffer
	eg.Go(func() error {
		rendered := *r
		rendered.config.EmbedImages = true
		return rendered.Write(&buf, format)
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, u := range uploads {
		if u.url != "" {
			published.Diffs[u.title] = u.url
		}
	}

	url, err := s.Put(ctx, path.Join(r.RunID, "report."+format.Extension()), buf.Bytes())
	if err != nil {
		return nil, xerrors.Errorf("failed to publish report: %w", err)
	}
	published.Report = url
	return published, nil
}

func diffKey(title string) string {
	name := strings.TrimSuffix(title, filepath.Ext(title))
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + ".png"
}
