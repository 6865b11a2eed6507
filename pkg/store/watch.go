package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// EventKind says how much of the store a change touches.
type EventKind int

const (
	// CollectionChanged means entries of Event.Collection were written or
	// removed.
	CollectionChanged EventKind = iota

	// StoreReset means the change spans more than one collection, or its
	// collection is unknown. Reload everything.
	StoreReset
)

// Event is a change notification from Persistence.Watch.
type Event struct {
	Kind       EventKind
	Collection string
}

// coalesceWindow bounds how often a burst of writes reaches the caller.
const coalesceWindow = 100 * time.Millisecond

// Watch reports changes below the store directory until ctx is done, then
// closes the channel. Events are dropped while the channel is full.
func (p *persistence) Watch(ctx context.Context) (<-chan Event, error) {
	if err := os.MkdirAll(p.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	w := &dirWatcher{p: p, fs: fw, seen: map[string]bool{}}
	if err := w.addTree(p.basePath); err != nil {
		w.close()
		return nil, err
	}

	out := make(chan Event, 64)
	go w.run(ctx, out)
	return out, nil
}

// dirWatcher follows every directory diskv creates under the store root.
type dirWatcher struct {
	p    *persistence
	fs   *fsnotify.Watcher
	seen map[string]bool
	once sync.Once
}

func (w *dirWatcher) close() {
	w.once.Do(func() {
		if err := w.fs.Close(); err != nil {
			w.p.log.Warn("watcher close", zap.Error(err))
		}
	})
}

func (w *dirWatcher) run(ctx context.Context, out chan<- Event) {
	defer close(out)
	defer w.close()

	c := newCoalescer(coalesceWindow, func(ev Event) {
		select {
		case out <- ev:
		default:
		}
	})
	defer c.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.p.log.Warn("watcher error", zap.Error(err))
			c.note(Event{Kind: StoreReset})
		case fe, ok := <-w.fs.Events:
			if !ok {
				return
			}
			c.note(w.classify(fe))
		}
	}
}

// classify turns a filesystem event into a store event. New directories
// are followed before anything is reported for them.
func (w *dirWatcher) classify(fe fsnotify.Event) Event {
	if fe.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(fe.Name); err == nil && info.IsDir() {
			if err := w.addTree(fe.Name); err != nil {
				w.p.log.Warn("watch directory", zap.String("dir", fe.Name), zap.Error(err))
			}
			return Event{Kind: StoreReset}
		}
	}
	if name, ok := w.p.collectionOf(fe.Name); ok {
		return Event{Kind: CollectionChanged, Collection: name}
	}
	return Event{Kind: StoreReset}
}

// addTree watches root and any directory beneath it not yet watched.
func (w *dirWatcher) addTree(root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return fmt.Errorf("store: walk %s: %w", path, err)
		case !d.IsDir() || w.seen[path]:
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("store: watch %s: %w", path, err)
		}
		w.seen[path] = true
		return nil
	})
}

// collectionOf maps a file below the store root to its collection name.
func (p *persistence) collectionOf(path string) (string, bool) {
	rel, err := filepath.Rel(p.basePath, path)
	if err != nil || rel == "." {
		return "", false
	}
	top, _, _ := strings.Cut(rel, string(os.PathSeparator))
	if top == "" || strings.HasPrefix(top, ".") {
		return "", false
	}
	if _, err := collectionEncoding.DecodeString(top); err != nil {
		return "", false
	}
	return fromCollection(top), true
}

// coalescer gathers events for one window and then emits each changed
// collection once. A reset in the window replaces them all.
type coalescer struct {
	window time.Duration
	emit   func(Event)

	mu      sync.Mutex
	timer   *time.Timer
	reset   bool
	changed map[string]struct{}
}

func newCoalescer(window time.Duration, emit func(Event)) *coalescer {
	return &coalescer{window: window, emit: emit, changed: map[string]struct{}{}}
}

func (c *coalescer) note(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ev.Kind == StoreReset {
		c.reset = true
	} else {
		c.changed[ev.Collection] = struct{}{}
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.fire)
	}
}

func (c *coalescer) fire() {
	c.mu.Lock()
	reset, changed := c.reset, c.changed
	c.reset, c.changed, c.timer = false, map[string]struct{}{}, nil
	c.mu.Unlock()

	if reset {
		c.emit(Event{Kind: StoreReset})
		return
	}
	for name := range changed {
		c.emit(Event{Kind: CollectionChanged, Collection: name})
	}
}

func (c *coalescer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
