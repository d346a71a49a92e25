// Package watcher reports changes to definition files so a running server
// can reload its layers. Bursts of events, as editors produce when saving,
// are coalesced into a single notification.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported.
const DefaultDebounce = 500 * time.Millisecond

// Config holds watcher configuration options.
type Config struct {
	// Paths are directories or single files. Directories are watched
	// together with all of their subdirectories.
	Paths []string
	// Extension selects relevant files, e.g. ".hcl".
	Extension   string
	DebounceDur time.Duration
}

// Watcher monitors definition files and signals when they change.
type Watcher struct {
	logger    *slog.Logger
	fsWatcher *fsnotify.Watcher
	cfg       Config
	onChange  chan struct{}
	done      chan struct{}
}

// New creates a watcher. It does not watch anything until Start is called.
func New(ctx context.Context, cfg Config) (*Watcher, error) {
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:    ctxlog.FromContext(ctx),
		fsWatcher: fsw,
		cfg:       cfg,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives a signal after
// relevant files changed.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for _, p := range w.cfg.Paths {
		if err := w.addTree(p); err != nil {
			return nil, err
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	// Single files are watched through their directory; editors often
	// replace a file instead of writing it in place.
	if !info.IsDir() {
		dir := filepath.Dir(root)
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
		return nil
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		w.logger.Debug("Watching directory.", "path", path)
		return nil
	})
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// New subdirectories are not covered by fsnotify automatically.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if !w.isRelevantEvent(event) {
				continue
			}
			w.logger.Debug("Definition file changed.", "file", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.cfg.DebounceDur)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.DebounceDur)
			}
			pending = true

		case <-timerC():
			if pending {
				// Drop the signal if one is already queued.
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error.", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a reload.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.cfg.Extension == "" {
		return true
	}
	return strings.EqualFold(filepath.Ext(event.Name), w.cfg.Extension)
}
