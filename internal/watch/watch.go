// Package watch reports changes to a directory of voice models.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the directory must be quiet before a change is
// reported.
const DefaultDelay = 500 * time.Millisecond

var modelSuffixes = []string{".onnx", ".onnx.json"}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher calls onChange once a burst of model file changes in a directory
// settles.
type Watcher struct {
	dir      string
	delay    time.Duration
	onChange func()
	logger   *log.Logger
	watcher  *fsnotify.Watcher
}

// New starts watching dir. Run must be called to deliver changes.
func New(dir string, onChange func(), opts ...Option) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		delay:    DefaultDelay,
		onChange: onChange,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(w)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("error watching %s: %w", dir, err)
	}
	w.watcher = fw
	w.logger.Info("fsnotify watching dir", "dir", dir)
	return w, nil
}

// Run delivers changes until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug("voice models changed", "dir", w.dir)
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Debug("fsnotify error", "dir", w.dir, "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := strings.ToLower(filepath.Base(event.Name))
	for _, suffix := range modelSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
