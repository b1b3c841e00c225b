// Package watch reports PDF documents dropped into an inbox directory.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultPattern matches PDFs anywhere below the inbox.
	DefaultPattern = "**/*.pdf"

	// DefaultDebounce is how long a file must stay quiet before it is reported.
	DefaultDebounce = 2 * time.Second

	eventBuffer = 64
)

// Options configures a Watcher.
type Options struct {
	// Pattern is a doublestar glob relative to the inbox directory.
	Pattern string
	// Debounce delays reporting until writes have settled.
	Debounce time.Duration
	// Existing also reports files already present when Start is called.
	Existing bool
}

// Event is a document ready for ingestion.
type Event struct {
	Path    string // absolute
	RelPath string // relative to the inbox
	Content []byte
}

// Watcher watches an inbox directory tree and emits each matching document
// once per distinct content.
type Watcher struct {
	dir     string
	opts    Options
	fsw     *fsnotify.Watcher
	events  chan Event
	mu      sync.Mutex
	pending map[string]time.Time
	hashes  map[string]string
}

// New creates a watcher for dir.
func New(dir string, opts Options) (*Watcher, error) {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q", opts.Pattern)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		dir:     abs,
		opts:    opts,
		fsw:     fsw,
		events:  make(chan Event, eventBuffer),
		pending: make(map[string]time.Time),
		hashes:  make(map[string]string),
	}, nil
}

// Events returns the channel of ready documents. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds watches for the inbox tree and begins processing in the
// background until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.dir); err != nil {
		_ = w.fsw.Close()
		return err
	}

	if w.opts.Existing {
		matches, err := doublestar.Glob(os.DirFS(w.dir), w.opts.Pattern, doublestar.WithFilesOnly())
		if err != nil {
			_ = w.fsw.Close()
			return fmt.Errorf("glob %s: %w", w.opts.Pattern, err)
		}
		now := time.Now()
		for _, rel := range matches {
			w.pending[filepath.Join(w.dir, filepath.FromSlash(rel))] = now
		}
	}

	go w.loop(ctx)
	slog.Info("watching inbox", "dir", w.dir, "pattern", w.opts.Pattern, "debounce", w.opts.Debounce)
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.events)
	defer w.fsw.Close()

	ticker := time.NewTicker(w.opts.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !w.matches(ev.Name) {
		return
	}

	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.PathMatch(filepath.FromSlash(w.opts.Pattern), rel)
	return err == nil && ok
}

// flush emits pending files that have been quiet for the debounce period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("skipping vanished file", "path", path, "error", err)
			continue
		}

		sum := sha256.Sum256(content)
		hash := hex.EncodeToString(sum[:])
		if w.hashes[path] == hash {
			continue
		}
		w.hashes[path] = hash

		rel, _ := filepath.Rel(w.dir, path)
		select {
		case w.events <- Event{Path: path, RelPath: rel, Content: content}:
		case <-ctx.Done():
			return
		}
	}
}
