package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides applies environment variable overrides to the
// configuration. Supported variables:
//   - CODEINTEL_ROOT: workspace root
//   - CODEINTEL_WORKERS: concurrent file reads during walks
//   - CODEINTEL_GITIGNORE: honour the root .gitignore ("true"/"false")
//   - CODEINTEL_MAX_FILE_SIZE: skip files larger than this many bytes
//   - CODEINTEL_WATCH: enable file watching ("true"/"false")
//   - CODEINTEL_DEBOUNCE_MS: watch debounce in milliseconds
//   - CODEINTEL_EXPORT_PATH: snapshot database path
//
// Unset or empty variables leave the configuration unchanged.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	for _, setter := range []struct {
		env   string
		apply func(string) error
	}{
		{"CODEINTEL_ROOT", func(v string) error {
			cfg.Workspace.Root = v
			return nil
		}},
		{"CODEINTEL_WORKERS", func(v string) error {
			return parseInt(v, &cfg.Workspace.Workers)
		}},
		{"CODEINTEL_GITIGNORE", func(v string) error {
			return parseBool(v, &cfg.Workspace.RespectGitignore)
		}},
		{"CODEINTEL_MAX_FILE_SIZE", func(v string) error {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return err
			}
			cfg.Workspace.MaxFileSize = n
			return nil
		}},
		{"CODEINTEL_WATCH", func(v string) error {
			return parseBool(v, &cfg.Watch.Enabled)
		}},
		{"CODEINTEL_DEBOUNCE_MS", func(v string) error {
			return parseInt(v, &cfg.Watch.DebounceMs)
		}},
		{"CODEINTEL_EXPORT_PATH", func(v string) error {
			cfg.Export.Path = v
			return nil
		}},
	} {
		v := os.Getenv(setter.env)
		if v == "" {
			continue
		}
		if err := setter.apply(v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", setter.env, v, err))
		}
	}

	return errors.Join(errs...)
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseBool(v string, dst *bool) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("not a boolean")
	}
	return nil
}
