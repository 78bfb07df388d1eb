package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"snapshot-compare/internal/capture"
	"snapshot-compare/internal/snapshot"
	"snapshot-compare/internal/storage"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

const (
	AppName         = "snapshot-compare"
	DefaultFileName = AppName + ".yaml"

	DefaultCurrentDir  = "current"
	DefaultSnapshotDir = "snapshots"
	DefaultGenerateEnv = snapshot.GenerateEnv
)

var ErrConfigNotFound = errors.New("configuration file not found")

type Report struct {
	LeftTitle   string `yaml:"left_title"`
	RightTitle  string `yaml:"right_title"`
	Output      string `yaml:"output"`
	EmbedImages bool   `yaml:"embed_images"`
	Format      string `yaml:"format"`
}

type Target struct {
	Name                   string `yaml:"name"`
	URL                    string `yaml:"url"`
	capture.CaptureOptions `yaml:",inline"`
}

// Project describes a snapshot tested project.
type Project struct {
	CurrentDir  string         `yaml:"current_dir"`
	SnapshotDir string         `yaml:"snapshot_dir"`
	TestCommand []string       `yaml:"test_command"`
	GenerateEnv string         `yaml:"generate_env"`
	Report      Report         `yaml:"report"`
	Storage     storage.Config `yaml:"storage"`
	Targets     []Target       `yaml:"targets"`
	// Schedule is a cron expression for the diff server refresh.
	Schedule string `yaml:"schedule"`
}

func DefaultProject() *Project {
	return &Project{
		CurrentDir:  DefaultCurrentDir,
		SnapshotDir: DefaultSnapshotDir,
		TestCommand: []string{"go", "test", "./..."},
		GenerateEnv: DefaultGenerateEnv,
		Report: Report{
			LeftTitle:  "Current test",
			RightTitle: "Snapshot",
			Output:     "report.html",
			Format:     "html",
		},
	}
}

// LoadEnv reads .env from the working directory when it exists.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return xerrors.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// FindConfigFile returns path when given, otherwise the first existing
// snapshot-compare.yaml in the working directory or the XDG config directory.
// It returns an empty string when nothing is found.
func FindConfigFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}

	if found, err := xdg.SearchConfigFile(filepath.Join(AppName, DefaultFileName)); err == nil {
		return found
	}
	return ""
}

// LoadProject reads a project file on top of DefaultProject. Relative
// directories are resolved against the directory of the file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, xerrors.Errorf("failed to read %s: %w", path, err)
	}

	p := DefaultProject()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, xerrors.Errorf("failed to parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	p.CurrentDir = resolve(base, p.CurrentDir)
	p.SnapshotDir = resolve(base, p.SnapshotDir)
	if p.Storage.Directory != "" {
		p.Storage.Directory = resolve(base, p.Storage.Directory)
	}
	return p, p.Validate()
}

// FindProject loads the project file found by FindConfigFile, or
// DefaultProject when there is none and path is empty.
func FindProject(path string) (*Project, error) {
	found := FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, xerrors.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return DefaultProject(), nil
	}
	return LoadProject(found)
}

func (p *Project) Validate() error {
	if p.CurrentDir == "" || p.SnapshotDir == "" {
		return xerrors.New("current_dir and snapshot_dir must be set")
	}
	if filepath.Clean(p.CurrentDir) == filepath.Clean(p.SnapshotDir) {
		return xerrors.Errorf("current_dir and snapshot_dir must differ: %s", p.CurrentDir)
	}
	if strings.TrimSpace(p.GenerateEnv) == "" {
		return xerrors.New("generate_env must be set")
	}
	for i, t := range p.Targets {
		if t.Name == "" || t.URL == "" {
			return xerrors.Errorf("target %d needs a name and a url", i)
		}
	}
	return nil
}

func resolve(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
