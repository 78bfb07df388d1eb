package report

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/png"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/diff/image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

// RegionMergeDistance is the distance in pixels under which changed regions
// are merged into one.
const RegionMergeDistance = 10

type Config struct {
	LeftTitle  string
	RightTitle string
	// EmbedImages inlines the left and right images as data URLs instead of
	// referencing their paths.
	EmbedImages bool
}

func DefaultConfig() Config {
	return Config{
		LeftTitle:  "Left image",
		RightTitle: "Right image",
	}
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Stats are the figures shown next to a pair.
type Stats struct {
	Status      Status `json:"status"`
	Description string `json:"description"`

	LeftSize  string `json:"leftSize,omitempty"`
	RightSize string `json:"rightSize,omitempty"`

	DifferentPixels  uint64  `json:"differentPixels,omitempty"`
	Percent          float64 `json:"percent,omitempty"`
	ColorDistance    float64 `json:"colorDistance,omitempty"`
	AvgColorDistance float64 `json:"avgColorDistance,omitempty"`
}

func NewStats(result diff.PairResult) Stats {
	switch d := result.Difference.(type) {
	case diff.None:
		return Stats{Status: StatusOK, Description: "Match"}
	case diff.LoadError:
		return Stats{Status: StatusError, Description: "Loading error"}
	case diff.MissingFile:
		return Stats{Status: StatusError, Description: "Missing file"}
	case diff.SizeMismatch:
		s := Stats{Status: StatusError, Description: "Size mismatch"}
		if info, ok := diff.Info(result.LeftInfo); ok {
			s.LeftSize = info.String()
		}
		if info, ok := diff.Info(result.RightInfo); ok {
			s.RightSize = info.String()
		}
		return s
	case diff.Content:
		s := Stats{
			Status:          StatusWarning,
			Description:     "Different pixels",
			DifferentPixels: d.DifferentPixels,
			ColorDistance:   float64(d.DistanceSum) / 255,
		}
		if info, ok := diff.Info(result.LeftInfo); ok && info.Pixels() > 0 {
			pixels := float64(info.Pixels())
			s.Percent = float64(d.DifferentPixels) / pixels * 100
			s.AvgColorDistance = s.ColorDistance / pixels
		}
		return s
	default:
		return Stats{Status: StatusError, Description: fmt.Sprintf("Unknown difference %T", d)}
	}
}

func (s Stats) DifferentPixelsText() string {
	return fmt.Sprintf("%d (%.1f%%)", s.DifferentPixels, s.Percent)
}

func (s Stats) ColorDistanceText() string {
	return fmt.Sprintf("%.3f", s.ColorDistance)
}

func (s Stats) AvgColorDistanceText() string {
	return fmt.Sprintf("%.4f", s.AvgColorDistance)
}

type Side struct {
	Path  string `json:"path"`
	Info  string `json:"info"`
	Error string `json:"error,omitempty"`

	loaded bool
	width  uint32
	height uint32
}

func newSide(path string, result diff.ImageInfoResult) Side {
	s := Side{Path: path}
	switch r := result.(type) {
	case diff.InfoLoaded:
		s.loaded = true
		s.width, s.height = r.Info.Width, r.Info.Height
		s.Info = r.Info.String()
	case diff.InfoMissing:
		s.Info = "missing"
	case diff.InfoError:
		s.Info = "error"
		s.Error = r.Message
	}
	return s
}

type Entry struct {
	Title   string            `json:"title"`
	Kind    diff.Kind         `json:"kind"`
	Left    Side              `json:"left"`
	Right   Side              `json:"right"`
	Stats   Stats             `json:"stats"`
	Regions []image.Rectangle `json:"regions,omitempty"`

	// DiffPNG is the encoded difference image of a Content result.
	DiffPNG []byte `json:"-"`
	diff    *stdimage.RGBA
}

// DiffImage returns the difference image of a Content entry.
func (e Entry) DiffImage() *stdimage.RGBA {
	return e.diff
}

// Report is a rendered-ready view of a session.
type Report struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	LeftTitle   string    `json:"leftTitle"`
	RightTitle  string    `json:"rightTitle"`
	Entries     []Entry   `json:"entries"`

	config Config
}

// New builds a report from the results in order.
func New(config Config, results []diff.PairResult) (*Report, error) {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().Truncate(time.Second),
		LeftTitle:   config.LeftTitle,
		RightTitle:  config.RightTitle,
		Entries:     make([]Entry, 0, len(results)),
		config:      config,
	}
	for _, result := range results {
		entry, err := newEntry(result)
		if err != nil {
			return nil, xerrors.Errorf("failed to build report entry %s: %w", result.Pair.Title, err)
		}
		r.Entries = append(r.Entries, entry)
	}
	return r, nil
}

func newEntry(result diff.PairResult) (Entry, error) {
	e := Entry{
		Title: result.Pair.Title,
		Kind:  result.Difference.Kind(),
		Left:  newSide(result.Pair.Left, result.LeftInfo),
		Right: newSide(result.Pair.Right, result.RightInfo),
		Stats: NewStats(result),
	}
	if content, ok := result.Difference.(diff.Content); ok && content.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, content.Image); err != nil {
			return Entry{}, xerrors.Errorf("failed to encode difference image: %w", err)
		}
		e.DiffPNG = buf.Bytes()
		e.diff = content.Image
		e.Regions = image.FindRegions(content.Image, RegionMergeDistance)
	}
	return e, nil
}

func (r *Report) Len() int {
	return len(r.Entries)
}

// Find returns the entry with the given title.
func (r *Report) Find(title string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Title == title {
			return e, true
		}
	}
	return Entry{}, false
}

// Summary counts entries per difference kind.
func (r *Report) Summary() map[diff.Kind]int {
	summary := make(map[diff.Kind]int)
	for _, e := range r.Entries {
		summary[e.Kind]++
	}
	return summary
}
