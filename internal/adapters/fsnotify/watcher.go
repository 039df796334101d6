// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches a single inbox directory for keyword exports, filters out editor and
// download temp files, and debounces bursts of events (spreadsheet apps write a file
// several times per save) so the callback fires once the file has settled.
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before onChange fires.
const DefaultDebounce = 200 * time.Millisecond

// File names to ignore.
var ignoreFiles = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
}

// Suffixes of partial or temporary files.
var ignoreSuffixes = []string{
	".swp",
	".tmp",
	".part",
	".crdownload",
	".download",
}

// Prefixes of office lock files ("~$export.xlsx", ".~lock.export.xlsx#").
var ignorePrefixes = []string{
	"~$",
	".~lock.",
}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	accept   func(name string) bool
	debounce time.Duration
	done     chan struct{}
	stopped  bool
	mu       sync.Mutex

	pmu     sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher that reports files whose name passes accept
// (nil accepts every file). A zero debounce uses DefaultDebounce.
func NewWatcher(accept func(name string) bool, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fw:       fw,
		accept:   accept,
		debounce: debounce,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Watch starts monitoring dir (not recursive), creating it if needed.
// onChange is called with the absolute path of each created or rewritten file.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return err
	}
	if err := w.fw.Add(absPath); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if shouldIgnorePath(event.Name) {
					continue
				}
				if w.accept != nil && !w.accept(event.Name) {
					continue
				}
				w.schedule(event.Name, onChange)

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed: fsnotify recovers automatically

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(path string, onChange func(string)) {
	w.pmu.Lock()
	defer w.pmu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.pmu.Lock()
		delete(w.pending, path)
		w.pmu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}
		// Skip files removed during the quiet period.
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		onChange(path)
	})
}

// Stop ends monitoring and releases all resources. Pending callbacks are
// dropped. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)

	w.pmu.Lock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
	w.pmu.Unlock()

	return w.fw.Close()
}

// shouldIgnorePath returns true if the file should not trigger onChange.
func shouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	if ignoreFiles[base] {
		return true
	}
	for _, s := range ignoreSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	for _, p := range ignorePrefixes {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}
