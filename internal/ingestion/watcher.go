package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period before a batch of changes is loaded.
const DefaultDebounce = 2 * time.Second

// Watcher reloads dataset files when they change and drops the records
// of files that go away.
type Watcher struct {
	root     string
	file     string
	loader   *Loader
	log      *logrus.Logger
	debounce time.Duration
	matcher  gitignore.Matcher
	fs       *fsnotify.Watcher

	// owned maps each dataset file to the identifiers it holds. Only the
	// Run goroutine touches it after NewWatcher returns.
	owned map[string][]string
}

// NewWatcher registers root and every non-ignored directory below it. A
// root that is a file is watched through its parent directory. Run must be
// called to start processing events.
func NewWatcher(root string, loader *Loader, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	dir, file := root, ""
	if !info.IsDir() {
		dir, file = filepath.Dir(root), filepath.Clean(root)
	}

	matcher, err := loadIgnoreMatcher(dir)
	if err != nil {
		return nil, fmt.Errorf("loading .gitignore: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if file != "" {
		err = fsw.Add(dir)
	} else {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != dir && shouldSkipDir(path, dir, matcher) {
				return filepath.SkipDir
			}
			return fsw.Add(path)
		})
	}
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("setting up watcher: %w", err)
	}

	w := &Watcher{
		root:     dir,
		file:     file,
		loader:   loader,
		log:      loader.log,
		debounce: debounce,
		matcher:  matcher,
		fs:       fsw,
		owned:    make(map[string][]string),
	}
	w.indexExisting(root)
	return w, nil
}

// indexExisting records which identifiers the files present at startup
// hold, so that later removals can be applied to the store.
func (w *Watcher) indexExisting(root string) {
	files, err := WalkDataset(root)
	if err != nil {
		w.log.WithError(err).Warn("indexing dataset files")
		return
	}
	for _, path := range files {
		records, err := ReadFile(path)
		if err != nil {
			continue
		}
		w.owned[filepath.Clean(path)] = identifiers(records)
	}
}

// tracks reports whether events on path concern the watched dataset.
func (w *Watcher) tracks(path string) bool {
	if w.file != "" {
		return filepath.Clean(path) == w.file
	}
	return shouldLoadFile(path, w.root, w.matcher)
}

// Run processes events until ctx is cancelled. It closes the underlying
// watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(w.debounce)
	batchTimer.Stop()

	w.log.WithField("root", w.root).Info("watching dataset for changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && w.file == "" {
				w.watchNewDir(event.Name)
			}
			if !w.tracks(event.Name) {
				continue
			}
			changed[event.Name] = true
			batchTimer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")

		case <-batchTimer.C:
			if len(changed) == 0 {
				continue
			}
			w.processChangedFiles(ctx, changed)
			changed = make(map[string]bool)
		}
	}
}

// watchNewDir adds a directory created after startup.
func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || shouldSkipDir(path, w.root, w.matcher) {
		return
	}
	if err := w.fs.Add(path); err != nil {
		w.log.WithError(err).WithField("dir", path).Warn("cannot watch directory")
	}
}

// processChangedFiles reloads the files that still exist and removes the
// records that a deleted or edited file no longer holds.
func (w *Watcher) processChangedFiles(ctx context.Context, changed map[string]bool) {
	files := make([]string, 0, len(changed))
	for path := range changed {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			w.log.WithField("file", path).Info("dataset file removed")
			w.replaceOwned(ctx, path, nil)
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return
	}

	result, err := w.loader.LoadFiles(ctx, files, nil)
	if err != nil {
		w.log.WithError(err).Error("reloading changed files")
		return
	}
	for _, path := range files {
		w.replaceOwned(ctx, path, result.Sources[path])
	}

	w.log.WithFields(logrus.Fields{
		"files":   result.Files,
		"stored":  result.Stored,
		"invalid": result.Invalid,
	}).Info("reloaded changed files")
}

// replaceOwned sets the identifiers held by path and deletes the ones it
// dropped, unless another file still holds them.
func (w *Watcher) replaceOwned(ctx context.Context, path string, ids []string) {
	key := filepath.Clean(path)
	previous := w.owned[key]
	if ids == nil {
		delete(w.owned, key)
	} else {
		w.owned[key] = ids
	}

	keep := make(map[string]bool)
	for _, held := range w.owned {
		for _, id := range held {
			keep[id] = true
		}
	}

	for _, id := range previous {
		if keep[id] {
			continue
		}
		removed, err := w.loader.store.DeleteRecord(ctx, id)
		if err != nil {
			w.log.WithError(err).WithField("identifier", id).Warn("deleting stale scene")
			continue
		}
		if removed {
			w.log.WithFields(logrus.Fields{"file": path, "identifier": id}).Debug("deleted stale scene")
		}
	}
}

// WatchDataset monitors root and reloads changed dataset files until ctx
// is cancelled.
func WatchDataset(ctx context.Context, root string, loader *Loader, debounce time.Duration) error {
	w, err := NewWatcher(root, loader, debounce)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
