package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driven"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// Ensure DirectoryWatcher implements the interface.
var _ driving.WatchService = (*DirectoryWatcher)(nil)

// DefaultDebounce is how long the watcher waits after the last event
// before ingesting.
const DefaultDebounce = 500 * time.Millisecond

// DirectoryWatcher re-ingests files as they are created or modified.
type DirectoryWatcher struct {
	ingest   driving.IngestService
	walker   *FileWalker
	registry driven.ExtractorRegistry
	debounce time.Duration

	// ready is called once every directory is watched.
	ready func()
}

// NewDirectoryWatcher creates a watcher. The walker supplies the ignore
// rules. A non-positive debounce uses DefaultDebounce.
func NewDirectoryWatcher(
	ingest driving.IngestService, walker *FileWalker, registry driven.ExtractorRegistry, debounce time.Duration,
) *DirectoryWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &DirectoryWatcher{
		ingest:   ingest,
		walker:   walker,
		registry: registry,
		debounce: debounce,
	}
}

// Watch blocks until ctx is cancelled. Deletions are ignored; points of
// removed files stay in the collection.
func (w *DirectoryWatcher) Watch(
	ctx context.Context, root string, opts domain.IngestOptions, onResult func(*domain.IngestResult, error),
) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	t := &watchTree{fw: fw, root: root, registry: w.registry, matcher: w.walker.compileIgnore(root)}
	dirs, err := t.addTree(root)
	if err != nil {
		return err
	}
	logger.Info("Watching %s (%d directories)", root, dirs)
	if w.ready != nil {
		w.ready()
	}

	pending := make(map[string]struct{})
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if path, ok := t.handle(ev); ok {
				pending[path] = struct{}{}
				fire = time.After(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			logger.Info("Detected %d changed files", len(paths))
			res, err := w.ingest.IngestFiles(ctx, paths, opts)
			if onResult != nil {
				onResult(res, err)
			}
			if err != nil && ctx.Err() != nil {
				return nil
			}
		}
	}
}

type watchTree struct {
	fw       *fsnotify.Watcher
	root     string
	registry driven.ExtractorRegistry
	matcher  interface{ MatchesPath(string) bool }
}

func (t *watchTree) ignored(path string) bool {
	rel, err := filepath.Rel(t.root, path)
	if err != nil || rel == "." {
		return false
	}
	return t.matcher.MatchesPath(filepath.ToSlash(rel))
}

// addTree watches dir and every non-ignored directory below it.
func (t *watchTree) addTree(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if t.ignored(path) {
			return filepath.SkipDir
		}
		if err := t.fw.Add(path); err != nil {
			logger.Warn("Failed to watch %s: %v", path, err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("watch %s: %w", dir, err)
	}
	return count, nil
}

// handle returns the file path to ingest for ev, if any. New directories
// are watched and their files queued by the events that follow.
func (t *watchTree) handle(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	if t.ignored(ev.Name) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if _, err := t.addTree(ev.Name); err != nil {
				logger.Warn("%v", err)
			}
		}
		return "", false
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	if _, ok := t.registry.Lookup(ev.Name); !ok {
		return "", false
	}
	return ev.Name, true
}
