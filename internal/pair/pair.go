package pair

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"snapshot-compare/internal/imagefs"
	"strings"
	"unicode/utf8"

	"golang.org/x/xerrors"
)

// Pair is one file name matched between the left and right directories.
type Pair struct {
	Title string
	Left  string
	Right string
}

var ErrNotDirectory = errors.New("not a directory")

type NotDirectoryError struct {
	Path string
}

func (e *NotDirectoryError) Error() string {
	return "path is not a directory: `" + e.Path + "`"
}

func (e *NotDirectoryError) Is(target error) bool {
	return target == ErrNotDirectory
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FromPaths returns one Pair per image name present in either directory,
// sorted by name. When filter is non-empty only names containing it are kept.
func FromPaths(left string, right string, filter string) ([]Pair, error) {
	if !isDir(left) {
		return nil, &NotDirectoryError{Path: left}
	}
	if !isDir(right) {
		return nil, &NotDirectoryError{Path: right}
	}

	leftNames, err := imagefs.ListImageDirNames(left)
	if err != nil {
		return nil, xerrors.Errorf("failed to list %s: %w", left, err)
	}
	rightNames, err := imagefs.ListImageDirNames(right)
	if err != nil {
		return nil, xerrors.Errorf("failed to list %s: %w", right, err)
	}

	names := slices.Collect(leftNames)
	names = slices.AppendSeq(names, rightNames)
	names = slices.DeleteFunc(names, func(name string) bool {
		return filter != "" && !strings.Contains(name, filter)
	})
	slices.Sort(names)
	names = slices.Compact(names)

	pairs := make([]Pair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, Pair{
			Title: title(name),
			Left:  filepath.Join(left, name),
			Right: filepath.Join(right, name),
		})
	}
	return pairs, nil
}

func title(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	return strings.ToValidUTF8(name, string(utf8.RuneError))
}
