package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// defaultSkipDirs are never descended into.
var defaultSkipDirs = []string{"node_modules", "target", ".git", "dist", "build"}

// WalkOptions configures IndexDirectory.
type WalkOptions struct {
	// ExtraSkipDirs are directory names skipped in addition to the defaults.
	ExtraSkipDirs []string

	// RespectGitignore filters entries matched by the root's .gitignore.
	RespectGitignore bool

	// MaxFileSize skips files larger than this many bytes. Zero means no limit.
	MaxFileSize int64

	// Workers bounds concurrent file reads. Zero means GOMAXPROCS.
	Workers int
}

// DefaultWalkOptions returns the options used when none are configured.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{Workers: runtime.GOMAXPROCS(0)}
}

// WalkStats summarizes one IndexDirectory run.
type WalkStats struct {
	Dirs    int `json:"dirs"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// IndexDirectory indexes every eligible file under root. Hidden entries and
// the default skip directories are ignored. A file or directory that cannot
// be read is logged and counted, and the walk moves on; IndexDirectory itself
// never fails. Only regular files are read; FIFOs, sockets and devices are
// counted as skipped. Directories are processed from an explicit stack: the
// files of a directory are dispatched before its subdirectories are visited.
//
// Cancelling ctx stops new work from being dispatched; files already handed
// to workers finish.
func (idx *Index) IndexDirectory(ctx context.Context, root string, opts WalkOptions) WalkStats {
	var stats WalkStats
	var indexed, failed, skipped atomic.Int64

	absRoot, err := filepath.Abs(root)
	if err != nil {
		idx.logger.Warn("resolving walk root failed", "root", root, "error", err)
		stats.Failed = 1
		return stats
	}

	ig := NewIgnorer(absRoot, opts)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)

	stack := []string{absRoot}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			idx.logger.Info("walk cancelled", "root", absRoot, "error", ctx.Err())
			break
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			idx.logger.Warn("reading directory failed", "dir", dir, "error", err)
			failed.Add(1)
			continue
		}
		stats.Dirs++

		var subdirs []string
		for _, entry := range entries {
			name := entry.Name()
			if isHidden(name) {
				continue
			}
			path := filepath.Join(dir, name)

			isDir := entry.IsDir()
			mode := entry.Type()
			if mode&fs.ModeSymlink != 0 {
				info, err := os.Stat(path)
				if err != nil {
					idx.logger.Warn("resolving symlink failed", "path", path, "error", err)
					failed.Add(1)
					continue
				}
				// Symlinked directories are not followed to avoid cycles.
				if info.IsDir() {
					skipped.Add(1)
					continue
				}
				mode = info.Mode().Type()
			}

			if isDir {
				if ig.SkipDir(path) {
					continue
				}
				subdirs = append(subdirs, path)
				continue
			}

			if !mode.IsRegular() || ig.SkipFile(path) {
				skipped.Add(1)
				continue
			}
			if opts.MaxFileSize > 0 {
				if info, err := entry.Info(); err == nil && info.Size() > opts.MaxFileSize {
					skipped.Add(1)
					continue
				}
			}
			if ctx.Err() != nil {
				break
			}

			g.Go(func() error {
				if err := idx.IndexFile(path); err != nil {
					idx.logger.Warn("indexing file failed", "path", path, "error", err)
					failed.Add(1)
					return nil
				}
				indexed.Add(1)
				return nil
			})
		}

		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	_ = g.Wait()

	stats.Indexed = int(indexed.Load())
	stats.Failed += int(failed.Load())
	stats.Skipped = int(skipped.Load())

	idx.logger.Debug("walk finished", "root", absRoot,
		"dirs", stats.Dirs, "indexed", stats.Indexed, "failed", stats.Failed, "skipped", stats.Skipped)
	return stats
}

// Ignorer applies the walk's exclusion rules to paths under one root.
type Ignorer struct {
	root string
	skip map[string]bool
	gi   *ignore.GitIgnore
}

// NewIgnorer builds the rules for root from opts. root should be absolute.
func NewIgnorer(root string, opts WalkOptions) *Ignorer {
	skip := make(map[string]bool, len(defaultSkipDirs)+len(opts.ExtraSkipDirs))
	for _, d := range defaultSkipDirs {
		skip[d] = true
	}
	for _, d := range opts.ExtraSkipDirs {
		skip[d] = true
	}

	ig := &Ignorer{root: root, skip: skip}
	if opts.RespectGitignore {
		ig.gi = LoadGitignore(root)
	}
	return ig
}

// SkipDir reports whether the directory at path is excluded: hidden, in
// the skip set, or matched by .gitignore. The root itself is never skipped.
func (ig *Ignorer) SkipDir(path string) bool {
	if path == ig.root {
		return false
	}
	name := filepath.Base(path)
	return isHidden(name) || ig.skip[name] || ig.matches(path, true)
}

// SkipFile reports whether the file at path is excluded: hidden or matched
// by .gitignore.
func (ig *Ignorer) SkipFile(path string) bool {
	return isHidden(filepath.Base(path)) || ig.matches(path, false)
}

func (ig *Ignorer) matches(path string, isDir bool) bool {
	if ig.gi == nil {
		return false
	}
	rel, err := filepath.Rel(ig.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir {
		rel += "/"
	}
	return ig.gi.MatchesPath(rel)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// LoadGitignore compiles the root's .gitignore, or returns nil when there is
// none or it has no patterns.
func LoadGitignore(root string) *ignore.GitIgnore {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}
