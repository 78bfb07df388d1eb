package imagefs

import (
	"iter"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// Extension is the raster format handled by the comparison tools.
const Extension = "png"

// IsImageFile reports whether name carries the image extension, ignoring case.
func IsImageFile(name string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	return strings.EqualFold(ext[1:], Extension)
}

// ListImageDir yields the full paths of the image files in dir.
// Only a failure to list dir is reported; entries that cannot be read are skipped.
func ListImageDir(dir string) (iter.Seq[string], error) {
	names, err := ListImageDirNames(dir)
	if err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		for name := range names {
			if !yield(filepath.Join(dir, name)) {
				return
			}
		}
	}, nil
}

// ListImageDirNames yields the bare file names of the image files in dir.
// The directory is read before it returns; only the filtering is lazy.
// A path that cannot be listed at all, such as a regular file, is an error.
func ListImageDirNames(dir string) (iter.Seq[string], error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, xerrors.Errorf("failed to open image directory: %w", err)
	}
	entries, err := f.ReadDir(-1)
	// A read error part way through keeps whatever entries were returned.
	if err != nil && len(entries) == 0 {
		f.Close()
		return nil, xerrors.Errorf("failed to read image directory: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, xerrors.Errorf("failed to close image directory: %w", err)
	}

	return func(yield func(string) bool) {
		for _, entry := range entries {
			if entry == nil || !IsImageFile(entry.Name()) {
				continue
			}
			if !yield(entry.Name()) {
				return
			}
		}
	}, nil
}
