// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches the served directory, skips VCS, editor and dependency
// paths, and debounces rapid events (editors often trigger several writes per save).
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Directories to ignore when watching.
var ignoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
}

// Editor and OS droppings that never count as asset changes.
var ignoreSuffixes = []string{
	".DS_Store",
	".swp",
	".swx",
	".tmp",
	"~",
}

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

// Watch starts monitoring root recursively.
// onChange is called with the absolute path of each changed file.
func (w *Watcher) Watch(root string, onChange func(filePath string)) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if ignoreDirs[info.Name()] && path != absRoot {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.loop(absRoot, onChange)
	return nil
}

func (w *Watcher) loop(root string, onChange func(filePath string)) {
	// Only touched by this goroutine.
	d := newDebouncer(debounceInterval)

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			path := event.Name

			// New directories join the watch list.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(path); err == nil && info.IsDir() && !ignoreDirs[info.Name()] {
					if err := w.fw.Add(path); err != nil {
						log.WithError(err).WithField("path", path).Debug("watch new directory")
					}
				}
			}

			if shouldIgnorePath(root, path) {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}

			if !d.allow(path, time.Now()) {
				continue
			}

			select {
			case <-w.done:
				return
			default:
			}
			onChange(path)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			// fsnotify recovers on its own; surface it for debugging only.
			log.WithError(err).Debug("watcher error")

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// shouldIgnorePath returns true if path should not trigger onChange. Only the
// part of path below root is checked, so a root that itself lives under an
// ignored directory (say ~/.cache/site) is still watched.
func shouldIgnorePath(root, path string) bool {
	base := filepath.Base(path)
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if ignoreDirs[part] {
			return true
		}
	}
	return false
}

// pruneThreshold bounds the debounce map between sweeps.
const pruneThreshold = 256

// debouncer drops repeat events for a path seen within interval.
type debouncer struct {
	interval time.Duration
	seen     map[string]time.Time
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval, seen: make(map[string]time.Time)}
}

// allow records an event for path at now and reports whether it should fire.
func (d *debouncer) allow(path string, now time.Time) bool {
	if last, ok := d.seen[path]; ok && now.Sub(last) < d.interval {
		return false
	}
	if len(d.seen) >= pruneThreshold {
		d.prune(now)
	}
	d.seen[path] = now
	return true
}

// prune forgets paths whose last event is older than the interval.
func (d *debouncer) prune(now time.Time) {
	for path, last := range d.seen {
		if now.Sub(last) >= d.interval {
			delete(d.seen, path)
		}
	}
}
