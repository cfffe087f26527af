// Package config handles configuration loading from TOML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"codeintel/internal/workspace"
)

// Config is the root configuration structure.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Watch     WatchConfig     `toml:"watch"`
	Server    ServerConfig    `toml:"server"`
	Export    ExportConfig    `toml:"export"`
}

// WorkspaceConfig controls which files are indexed.
type WorkspaceConfig struct {
	Root             string   `toml:"root"`
	RespectGitignore bool     `toml:"respect_gitignore"`
	ExtraSkipDirs    []string `toml:"extra_skip_dirs"`
	MaxFileSize      int64    `toml:"max_file_size"`
	Workers          int      `toml:"workers"`
}

// WatchConfig controls file watching.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// ServerConfig controls the language server.
type ServerConfig struct {
	IndexOnInitialize bool `toml:"index_on_initialize"`
}

// ExportConfig controls snapshot export.
type ExportConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:    ".",
			Workers: runtime.GOMAXPROCS(0),
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 500,
		},
		Server: ServerConfig{
			IndexOnInitialize: true,
		},
		Export: ExportConfig{
			Path: "codeintel.db",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path if
// path is non-empty, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}

		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Workspace.Root == "" {
		errs = append(errs, errors.New("workspace.root is required"))
	}
	if c.Workspace.Workers < 0 {
		errs = append(errs, fmt.Errorf("workspace.workers=%d must not be negative", c.Workspace.Workers))
	}
	if c.Workspace.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("workspace.max_file_size=%d must not be negative", c.Workspace.MaxFileSize))
	}
	for _, d := range c.Workspace.ExtraSkipDirs {
		if d == "" || strings.ContainsAny(d, `/\`) {
			errs = append(errs, fmt.Errorf("workspace.extra_skip_dirs entry %q must be a plain directory name", d))
		}
	}
	if c.Watch.DebounceMs < 0 || c.Watch.DebounceMs > 60000 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms=%d must be between 0 and 60000", c.Watch.DebounceMs))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WalkOptions converts the workspace section into walk options.
func (c *Config) WalkOptions() workspace.WalkOptions {
	return workspace.WalkOptions{
		ExtraSkipDirs:    c.Workspace.ExtraSkipDirs,
		RespectGitignore: c.Workspace.RespectGitignore,
		MaxFileSize:      c.Workspace.MaxFileSize,
		Workers:          c.Workspace.Workers,
	}
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}
