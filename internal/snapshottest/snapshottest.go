// Package snapshottest checks images produced by tests against blessed
// snapshots. Tests write their current image into the current directory
// whenever it differs from the snapshot, and always in generate-all mode,
// which is what the snapshots tool relies on to find dead snapshots.
package snapshottest

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/snapshot"
	"strings"
	"testing"

	"golang.org/x/xerrors"
)

type Checker struct {
	CurrentDir  string
	SnapshotDir string
	// EnvName defaults to snapshot.GenerateEnv.
	EnvName string
	Engine  *diff.Engine
}

// Default reads its directories from SNAPSHOT_CURRENT_DIR and
// SNAPSHOT_DIR, relative to the package under test.
func Default() *Checker {
	return &Checker{
		CurrentDir:  config.EnvOrDefault("SNAPSHOT_CURRENT_DIR", filepath.Join("testdata", config.DefaultCurrentDir)),
		SnapshotDir: config.EnvOrDefault("SNAPSHOT_DIR", filepath.Join("testdata", config.DefaultSnapshotDir)),
	}
}

func Check(t testing.TB, img image.Image, name string) {
	t.Helper()
	Default().Check(t, img, name)
}

func (c *Checker) GenerateAll() bool {
	envName := c.EnvName
	if envName == "" {
		envName = snapshot.GenerateEnv
	}
	return strings.EqualFold(os.Getenv(envName), snapshot.GenerateAllMode)
}

// Check compares img with the snapshot called name. A missing or different
// snapshot fails t and leaves img in the current directory.
func (c *Checker) Check(t testing.TB, img image.Image, name string) {
	t.Helper()

	engine := c.Engine
	if engine == nil {
		engine = diff.NewEngine()
	}

	b := img.Bounds()
	info := diff.InfoLoaded{Info: diff.ImageInfo{Width: uint32(b.Dx()), Height: uint32(b.Dy())}}
	snap, snapInfo := diff.LoadImage(filepath.Join(c.SnapshotDir, name))

	var failure string
	switch r := snapInfo.(type) {
	case diff.InfoMissing:
		failure = "snapshot " + name + " does not exist"
	case diff.InfoError:
		failure = "failed to load snapshot " + name + ": " + r.Message
	default:
		if d := engine.ComputeImageDiff(img, info, snap, snapInfo); d.Kind() != diff.KindNone {
			failure = "snapshot " + name + " is different (" + string(d.Kind()) + "); run 'snapshots report' for a report"
		}
	}

	if failure != "" || c.GenerateAll() {
		path, err := c.save(img, name)
		if err != nil {
			t.Errorf("%v", err)
		} else if failure != "" {
			t.Logf("current image written to %s", path)
		}
	}
	if failure != "" {
		t.Errorf("%s", failure)
	}
}

func (c *Checker) save(img image.Image, name string) (string, error) {
	if err := os.MkdirAll(c.CurrentDir, 0755); err != nil {
		return "", xerrors.Errorf("failed to create current directory: %w", err)
	}
	path := filepath.Join(c.CurrentDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", xerrors.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", xerrors.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", xerrors.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
