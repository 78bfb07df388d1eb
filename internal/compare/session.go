package compare

import (
	"context"
	"slices"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/pair"

	"golang.org/x/xerrors"
)

// Config selects which results of a single CompareDirectories call are kept.
type Config struct {
	IgnoreMatch        bool   `yaml:"ignore_match"`
	IgnoreLeftMissing  bool   `yaml:"ignore_left_missing"`
	IgnoreRightMissing bool   `yaml:"ignore_right_missing"`
	FilterName         string `yaml:"filter_name"`
}

// Session accumulates pair results across CompareDirectories calls.
// It is not safe for concurrent use.
type Session struct {
	engine  *diff.Engine
	results []diff.PairResult
}

func NewSession(engine *diff.Engine) *Session {
	if engine == nil {
		engine = diff.NewEngine()
	}
	return &Session{
		engine: engine,
	}
}

func (s *Session) CompareDirectories(ctx context.Context, config Config, left string, right string) error {
	pairs, err := pair.FromPaths(left, right, config.FilterName)
	if err != nil {
		return xerrors.Errorf("failed to pair images: %w", err)
	}

	results, err := s.engine.ComputeDifferences(ctx, pairs)
	if err != nil {
		return xerrors.Errorf("failed to compute differences: %w", err)
	}

	s.results = append(s.results, config.apply(results)...)
	return nil
}

// Results returns the accumulated results in comparison order.
// The slice must not be modified.
func (s *Session) Results() []diff.PairResult {
	return s.results
}

func (s *Session) Len() int {
	return len(s.results)
}

func (c Config) apply(results []diff.PairResult) []diff.PairResult {
	if c.IgnoreMatch {
		results = slices.DeleteFunc(results, func(r diff.PairResult) bool {
			return r.Difference.Kind() == diff.KindNone
		})
	}
	if c.IgnoreLeftMissing {
		results = slices.DeleteFunc(results, func(r diff.PairResult) bool {
			return diff.IsMissing(r.LeftInfo)
		})
	}
	if c.IgnoreRightMissing {
		results = slices.DeleteFunc(results, func(r diff.PairResult) bool {
			return diff.IsMissing(r.RightInfo)
		})
	}
	return results
}
