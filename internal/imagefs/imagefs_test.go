package imagefs_test

import (
	"os"
	"path/filepath"
	"slices"
	"snapshot-compare/internal/imagefs"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.png", true},
		{"A.PNG", true},
		{"b.PnG", true},
		{"c.jpg", false},
		{"png", false},
		{"d.png.bak", false},
		{".png", true},
		{"", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := imagefs.IsImageFile(tt.name); got != tt.want {
				t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestListImageDirNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.png", "a.PNG", "notes.txt", "c.jpeg")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	names, err := imagefs.ListImageDirNames(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := slices.Sorted(names)
	if diff := cmp.Diff([]string{"a.PNG", "b.png"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestListImageDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "x.png", "y.txt")

	paths, err := imagefs.ListImageDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := slices.Collect(paths)
	if diff := cmp.Diff([]string{filepath.Join(dir, "x.png")}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestListImageDirMissing(t *testing.T) {
	if _, err := imagefs.ListImageDirNames(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestListImageDirNotDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "file.png")
	path := filepath.Join(dir, "file.png")

	if _, err := imagefs.ListImageDirNames(path); err == nil {
		t.Error("expected error for a regular file")
	}
	if _, err := imagefs.ListImageDir(path); err == nil {
		t.Error("expected error for a regular file")
	}
}

func TestListImageDirEarlyStop(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1.png", "2.png", "3.png")

	names, err := imagefs.ListImageDirNames(dir)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for range names {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("expected to stop after 2 names, got %d", count)
	}
}
