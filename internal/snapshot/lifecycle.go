package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"snapshot-compare/internal/compare"
	"snapshot-compare/internal/imagefs"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

const (
	// GenerateEnv is the environment variable a test suite reads to decide
	// whether every snapshot test writes its current image.
	GenerateEnv = "SNAPSHOT_TEST"
	// GenerateAllMode is the GenerateEnv value that requests generate-all.
	GenerateAllMode = "generate-all"
)

// TestRunner regenerates every current image by running the test suite in
// generate-all mode. It blocks until the suite has finished.
type TestRunner interface {
	GenerateAllTests(ctx context.Context) error
}

type TestRunnerFunc func(ctx context.Context) error

func (f TestRunnerFunc) GenerateAllTests(ctx context.Context) error {
	return f(ctx)
}

// Manager tracks which snapshots are still produced by the test suite.
// It assumes exclusive access to both directories.
type Manager struct {
	CurrentDir  string
	SnapshotDir string
	Runner      TestRunner
	Log         logr.Logger
	// Out receives the human readable listing; nil discards it.
	Out io.Writer
}

// CleanImageDir removes every image file in dir.
func CleanImageDir(dir string) error {
	paths, err := imagefs.ListImageDir(dir)
	if err != nil {
		return err
	}
	for path := range paths {
		if err := os.Remove(path); err != nil {
			return xerrors.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

func (m *Manager) Clean() error {
	m.Log.V(1).Info("cleaning current images", "dir", m.CurrentDir)
	if err := CleanImageDir(m.CurrentDir); err != nil {
		return xerrors.Errorf("failed to clean current images: %w", err)
	}
	return nil
}

// FindDeadSnapshots regenerates the current images and returns the snapshots
// that have no current counterpart. Paths are resolved under CurrentDir.
// A runner failure is returned wrapped, and CurrentDir keeps whatever the
// failed run wrote.
func (m *Manager) FindDeadSnapshots(ctx context.Context) ([]string, error) {
	if err := m.Clean(); err != nil {
		return nil, err
	}

	m.Log.Info("generating all test images")
	if err := m.Runner.GenerateAllTests(ctx); err != nil {
		return nil, xerrors.Errorf("failed to generate tests: %w", err)
	}

	currentNames, err := imagefs.ListImageDirNames(m.CurrentDir)
	if err != nil {
		return nil, xerrors.Errorf("failed to list current images: %w", err)
	}
	live := make(map[string]struct{})
	for name := range currentNames {
		live[name] = struct{}{}
	}

	snapshotNames, err := imagefs.ListImageDirNames(m.SnapshotDir)
	if err != nil {
		return nil, xerrors.Errorf("failed to list snapshots: %w", err)
	}

	var dead []string
	for name := range snapshotNames {
		if _, ok := live[name]; !ok {
			dead = append(dead, filepath.Join(m.CurrentDir, name))
		}
	}
	slices.Sort(dead)

	m.Log.Info("dead snapshot scan finished", "live", len(live), "dead", len(dead))
	return dead, nil
}

// ProcessDeadSnapshots lists the dead snapshots, removes them from
// SnapshotDir when removeFiles is set and cleans CurrentDir afterwards.
func (m *Manager) ProcessDeadSnapshots(ctx context.Context, removeFiles bool) ([]string, error) {
	dead, err := m.FindDeadSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	out := m.Out
	if out == nil {
		out = io.Discard
	}

	if len(dead) == 0 {
		fmt.Fprintln(out, "No dead snapshots detected")
	} else {
		fmt.Fprintln(out, "========== DEAD SNAPSHOTS ==========")
		for _, path := range dead {
			fmt.Fprintln(out, path)
		}
		fmt.Fprintln(out, "====================================")
		if removeFiles {
			for _, path := range dead {
				target := filepath.Join(m.SnapshotDir, filepath.Base(path))
				m.Log.V(1).Info("removing dead snapshot", "path", target)
				if err := os.Remove(target); err != nil {
					return nil, xerrors.Errorf("failed to remove dead snapshot: %w", err)
				}
			}
			fmt.Fprintln(out, "Dead snapshots removed")
		} else {
			fmt.Fprintln(out, "Run the command with '-remove-files' to remove the files")
		}
	}

	if err := m.Clean(); err != nil {
		return nil, err
	}
	return dead, nil
}

// Compare checks the current images against the snapshots. Snapshots without
// a current image are not reported since their tests passed.
func (m *Manager) Compare(ctx context.Context, session *compare.Session, filter string) error {
	config := compare.Config{
		IgnoreLeftMissing: true,
		FilterName:        filter,
	}
	if err := session.CompareDirectories(ctx, config, m.CurrentDir, m.SnapshotDir); err != nil {
		return xerrors.Errorf("failed to compare current images with snapshots: %w", err)
	}
	return nil
}
