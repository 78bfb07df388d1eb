package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"snapshot-compare/internal/capture"
	"snapshot-compare/internal/config"
	"snapshot-compare/internal/storage"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	writeFile(t, path, `
current_dir: out/current
snapshot_dir: /abs/snapshots
test_command: ["make", "test"]
report:
  output: out/report.md
  format: markdown
storage:
  backend: file
  directory: published
targets:
  - name: home
    url: http://localhost:8080/
    mask_selectors: [".clock"]
    headers:
      Authorization: Bearer token
schedule: "@every 5m"
`)

	got, err := config.LoadProject(path)
	if err != nil {
		t.Fatal(err)
	}

	want := &config.Project{
		CurrentDir:  filepath.Join(dir, "out", "current"),
		SnapshotDir: "/abs/snapshots",
		TestCommand: []string{"make", "test"},
		GenerateEnv: config.DefaultGenerateEnv,
		Report: config.Report{
			LeftTitle:  "Current test",
			RightTitle: "Snapshot",
			Output:     "out/report.md",
			Format:     "markdown",
		},
		Storage: storage.Config{
			Backend:   "file",
			Directory: filepath.Join(dir, "published"),
		},
		Targets: []config.Target{
			{
				Name: "home",
				URL:  "http://localhost:8080/",
				CaptureOptions: capture.CaptureOptions{
					MaskSelectors: []string{".clock"},
					Headers:       map[string]string{"Authorization": "Bearer token"},
				},
			},
		},
		Schedule: "@every 5m",
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestLoadProjectInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"SameDirs", "current_dir: x\nsnapshot_dir: x\n"},
		{"TargetWithoutURL", "targets:\n  - name: home\n"},
		{"EmptyGenerateEnv", "generate_env: ' '\n"},
		{"Malformed", "current_dir: [\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), config.DefaultFileName)
			writeFile(t, path, tt.content)
			if _, err := config.LoadProject(path); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := config.LoadProject(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestFindProject(t *testing.T) {
	t.Run("ExplicitMissing", func(t *testing.T) {
		_, err := config.FindProject(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("Explicit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		writeFile(t, path, "generate_env: UPDATE_SNAPSHOTS\n")
		got, err := config.FindProject(path)
		if err != nil {
			t.Fatal(err)
		}
		if got.GenerateEnv != "UPDATE_SNAPSHOTS" {
			t.Errorf("Expected UPDATE_SNAPSHOTS, got %s", got.GenerateEnv)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := config.LoadEnv(); err != nil {
		t.Fatalf("Expected missing .env to be ignored, got %v", err)
	}

	writeFile(t, filepath.Join(dir, ".env"), "SC_FROM_DOTENV=loaded\n")
	t.Cleanup(func() { os.Unsetenv("SC_FROM_DOTENV") })
	if err := config.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("SC_FROM_DOTENV"); got != "loaded" {
		t.Errorf("Expected loaded, got %q", got)
	}
}
