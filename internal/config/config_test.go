package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"CODEINTEL_ROOT",
	"CODEINTEL_WORKERS",
	"CODEINTEL_GITIGNORE",
	"CODEINTEL_MAX_FILE_SIZE",
	"CODEINTEL_WATCH",
	"CODEINTEL_DEBOUNCE_MS",
	"CODEINTEL_EXPORT_PATH",
}

// clearEnv blanks every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codeintel.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workspace.Root != "." {
		t.Errorf("Root = %q, want \".\"", cfg.Workspace.Root)
	}
	if cfg.Workspace.RespectGitignore {
		t.Error("RespectGitignore should default to false")
	}
	if !cfg.Watch.Enabled || cfg.Debounce() != 500*time.Millisecond {
		t.Errorf("watch = %+v, want enabled with 500ms debounce", cfg.Watch)
	}
	if !cfg.Server.IndexOnInitialize {
		t.Error("IndexOnInitialize should default to true")
	}
	if cfg.Export.Path != "codeintel.db" {
		t.Errorf("Export.Path = %q", cfg.Export.Path)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[workspace]
root = "/srv/project"
respect_gitignore = true
extra_skip_dirs = ["vendor", "dist"]
max_file_size = 1048576
workers = 4

[watch]
enabled = false
debounce_ms = 250

[server]
index_on_initialize = false

[export]
path = "out/snapshot.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	walk := cfg.WalkOptions()
	if !walk.RespectGitignore || walk.MaxFileSize != 1048576 || walk.Workers != 4 {
		t.Errorf("WalkOptions() = %+v", walk)
	}
	if len(walk.ExtraSkipDirs) != 2 || walk.ExtraSkipDirs[0] != "vendor" || walk.ExtraSkipDirs[1] != "dist" {
		t.Errorf("ExtraSkipDirs = %v", walk.ExtraSkipDirs)
	}
	if cfg.Workspace.Root != "/srv/project" {
		t.Errorf("Root = %q", cfg.Workspace.Root)
	}
	if cfg.Watch.Enabled || cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("watch = %+v", cfg.Watch)
	}
	if cfg.Server.IndexOnInitialize {
		t.Error("IndexOnInitialize should be false")
	}
	if cfg.Export.Path != "out/snapshot.db" {
		t.Errorf("Export.Path = %q", cfg.Export.Path)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[watch]\ndebounce_ms = 100\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Watch.Enabled {
		t.Error("Watch.Enabled should keep its default")
	}
	if cfg.Workspace.Root != "." || cfg.Workspace.Workers <= 0 {
		t.Errorf("workspace defaults lost: %+v", cfg.Workspace)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed toml",
			content: "[workspace\nroot = ",
			wantErr: "failed to parse config",
		},
		{
			name:    "unknown key",
			content: "[workspace]\nroots = \"x\"\n",
			wantErr: "unknown config keys: workspace.roots",
		},
		{
			name:    "negative workers",
			content: "[workspace]\nworkers = -1\n",
			wantErr: "workspace.workers=-1",
		},
		{
			name:    "debounce too large",
			content: "[watch]\ndebounce_ms = 120000\n",
			wantErr: "watch.debounce_ms=120000",
		},
		{
			name:    "skip dir with separator",
			content: "[workspace]\nextra_skip_dirs = [\"a/b\"]\n",
			wantErr: "must be a plain directory name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[workspace]\nroot = \"/from/file\"\nworkers = 2\n")

	t.Setenv("CODEINTEL_ROOT", "/from/env")
	t.Setenv("CODEINTEL_WORKERS", "8")
	t.Setenv("CODEINTEL_GITIGNORE", "yes")
	t.Setenv("CODEINTEL_MAX_FILE_SIZE", "2048")
	t.Setenv("CODEINTEL_WATCH", "off")
	t.Setenv("CODEINTEL_DEBOUNCE_MS", "50")
	t.Setenv("CODEINTEL_EXPORT_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workspace.Root != "/from/env" || cfg.Workspace.Workers != 8 {
		t.Errorf("workspace = %+v, env should win over file", cfg.Workspace)
	}
	if !cfg.Workspace.RespectGitignore || cfg.Workspace.MaxFileSize != 2048 {
		t.Errorf("workspace = %+v", cfg.Workspace)
	}
	if cfg.Watch.Enabled || cfg.Watch.DebounceMs != 50 {
		t.Errorf("watch = %+v", cfg.Watch)
	}
	if cfg.Export.Path != "/tmp/x.db" {
		t.Errorf("Export.Path = %q", cfg.Export.Path)
	}
}

func TestEnvOverridesInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("CODEINTEL_WORKERS", "many")
	t.Setenv("CODEINTEL_WATCH", "maybe")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() should fail on invalid overrides")
	}
	for _, want := range []string{"CODEINTEL_WORKERS", "CODEINTEL_WATCH"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Workspace.Root = ""
	cfg.Workspace.MaxFileSize = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"workspace.root is required", "workspace.max_file_size=-5"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q should contain %q", err, want)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
