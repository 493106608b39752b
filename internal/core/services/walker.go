package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// DefaultIgnorePatterns are directories and files never ingested.
var DefaultIgnorePatterns = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"__pycache__",
	".venv",
	".cache",
	".idea",
	".vscode",
	".DS_Store",
}

// WalkStats counts what a walk saw and why files were left out.
type WalkStats struct {
	Seen              int
	SkippedKnown      int
	SkippedDuplicates int
	Unsupported       int
	Errors            int
}

// WalkerOptions configures a FileWalker.
type WalkerOptions struct {
	// IgnorePatterns are gitignore-style patterns added to the defaults.
	IgnorePatterns []string
}

// FileWalker enumerates supported files and drops known or repeated content.
type FileWalker struct {
	registry  driven.ExtractorRegistry
	fileStore driven.FileStore
	opts      WalkerOptions

	mu    sync.Mutex
	stats WalkStats
}

// NewFileWalker creates a walker that admits files the registry supports
// and whose hash fileStore has not indexed.
func NewFileWalker(registry driven.ExtractorRegistry, fileStore driven.FileStore, opts WalkerOptions) *FileWalker {
	return &FileWalker{
		registry:  registry,
		fileStore: fileStore,
		opts:      opts,
	}
}

// Stats returns the counters of the most recent walk.
func (w *FileWalker) Stats() WalkStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Walk streams the admitted files under root in lexical order. The error
// channel carries at most one fatal error and is closed after the file channel.
func (w *FileWalker) Walk(ctx context.Context, root string, force bool) (<-chan domain.SourceFile, <-chan error) {
	out := make(chan domain.SourceFile)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		info, err := os.Stat(root)
		if err != nil {
			errs <- fmt.Errorf("walk %s: %w", root, err)
			return
		}
		if !info.IsDir() {
			errs <- fmt.Errorf("walk %s: %w: not a directory", root, domain.ErrInvalidInput)
			return
		}

		matcher := w.compileIgnore(root)
		run := w.newRun(force)

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("Cannot read %s: %v", path, err)
				run.stats.Errors++
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if path == root {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				run.stats.Errors++
				return nil
			}
			if matcher.MatchesPath(filepath.ToSlash(rel)) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			return run.admit(ctx, path, out)
		})

		w.finish(run.stats)

		if walkErr != nil {
			errs <- walkErr
		}
	}()

	return out, errs
}

// WalkPaths applies the same admission rules to an explicit list of files.
func (w *FileWalker) WalkPaths(ctx context.Context, paths []string, force bool) (<-chan domain.SourceFile, <-chan error) {
	out := make(chan domain.SourceFile)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(out)

		run := w.newRun(force)
		for _, path := range paths {
			if err := run.admit(ctx, path, out); err != nil {
				w.finish(run.stats)
				errs <- err
				return
			}
		}
		w.finish(run.stats)
	}()

	return out, errs
}

func (w *FileWalker) newRun(force bool) *walkRun {
	return &walkRun{
		walker: w,
		force:  force,
		seen:   make(map[string]string),
	}
}

func (w *FileWalker) finish(stats WalkStats) {
	w.mu.Lock()
	w.stats = stats
	w.mu.Unlock()
	logger.Debug("Walk: seen=%d known=%d duplicates=%d unsupported=%d errors=%d",
		stats.Seen, stats.SkippedKnown, stats.SkippedDuplicates, stats.Unsupported, stats.Errors)
}

func (w *FileWalker) compileIgnore(root string) *gitignore.GitIgnore {
	patterns := make([]string, 0, len(DefaultIgnorePatterns)+len(w.opts.IgnorePatterns))
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, w.opts.IgnorePatterns...)
	if lines, err := readIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		patterns = append(patterns, lines...)
	}
	return gitignore.CompileIgnoreLines(patterns...)
}

// walkRun holds the state of one walk: the hashes admitted so far.
type walkRun struct {
	walker *FileWalker
	force  bool
	seen   map[string]string
	stats  WalkStats
}

func (r *walkRun) admit(ctx context.Context, path string, out chan<- domain.SourceFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, ok := r.walker.registry.Lookup(path); !ok {
		r.stats.Unsupported++
		return nil
	}
	r.stats.Seen++

	hash, err := HashFile(path)
	if err != nil {
		logger.Warn("Skipping unreadable file %s: %v", path, err)
		r.stats.Errors++
		return nil
	}

	if first, dup := r.seen[hash]; dup {
		logger.Info("Skipping %s: same content as %s", path, first)
		r.stats.SkippedDuplicates++
		return nil
	}

	if !r.force {
		known, err := r.isIndexed(ctx, hash)
		if err != nil {
			return err
		}
		if known {
			logger.Info("Skipping already ingested file: %s", path)
			r.stats.SkippedKnown++
			return nil
		}
	}
	r.seen[hash] = path

	file := domain.SourceFile{
		Path: path,
		Hash: hash,
		Ext:  strings.ToLower(filepath.Ext(path)),
	}
	select {
	case out <- file:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isIndexed reports whether hash belongs to a fully indexed file. A record
// left unindexed by an interrupted run does not count.
func (r *walkRun) isIndexed(ctx context.Context, hash string) (bool, error) {
	exists, err := r.walker.fileStore.FileExists(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check known file: %w", err)
	}
	if !exists {
		return false, nil
	}

	rec, err := r.walker.fileStore.GetByHash(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load known file: %w", err)
	}
	if !rec.Indexed {
		logger.Info("Resuming partially ingested file: %s", rec.Path)
	}
	return rec.Indexed, nil
}

// readIgnoreFile reads patterns from a .gitignore file.
func readIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
