// Package watcher detects out-of-band writes to the beads storage by polling
// a small set of signal files.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
)

// DefaultPollInterval is how often the signal files are stat'ed.
const DefaultPollInterval = 500 * time.Millisecond

// ForcePollEnvVar disables fsnotify hints when set to a truthy value.
const ForcePollEnvVar = "BDUI_FORCE_POLL"

var (
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("watcher needs at least one signal path")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithDebounceDuration sets the quiet period between the last detected
// change and the OnChange callback.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithOnChange sets the callback invoked after a debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.onChange = fn
		}
	}
}

// WithHints enables fsnotify events as a hint to poll early. Polling stays
// authoritative; hints are skipped on remote filesystems.
func WithHints(enabled bool) Option {
	return func(w *Watcher) {
		w.hints = enabled
	}
}

type fileState struct {
	size  int64
	mtime time.Time
}

// Watcher polls signal files and reports debounced changes. A file counts as
// changed when its size differs or its mtime advances. Stat failures are
// treated as no change and retried on the next tick.
type Watcher struct {
	paths            []string
	pollInterval     time.Duration
	debounceDuration time.Duration
	onChange         func()
	hints            bool

	debouncer *Debouncer
	fsType    FilesystemType

	mu       sync.Mutex
	state    map[string]fileState
	started  bool
	hinted   bool
	cancel   context.CancelFunc
	done     chan struct{}
	fsw      *fsnotify.Watcher
	changeCh chan struct{}
}

// New creates a watcher over the given signal paths.
func New(paths []string, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		abs = append(abs, a)
	}

	w := &Watcher{
		paths:            abs,
		pollInterval:     DefaultPollInterval,
		debounceDuration: DefaultDebounceDuration,
		onChange:         func() {},
		state:            make(map[string]fileState, len(abs)),
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start records the current state of every signal file and begins polling.
// The loop ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	for _, p := range w.paths {
		if info, err := os.Stat(p); err == nil {
			w.state[p] = fileState{size: info.Size(), mtime: info.ModTime()}
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.fsType = DetectFilesystemType(filepath.Dir(w.paths[0]))
	w.hinted = false

	if w.hints && !envBool(ForcePollEnvVar) && !isRemoteFilesystem(w.fsType) {
		if err := w.startHintsLocked(); err != nil {
			debug.Event(debug.LevelWarn, "watcher", "hints_unavailable", map[string]any{"error": err.Error()})
		}
	}

	w.started = true
	go w.loop(ctx, w.done, w.fsw)

	debug.Event(debug.LevelInfo, "watcher", "started", map[string]any{
		"paths":    len(w.paths),
		"interval": w.pollInterval.String(),
		"fs":       w.fsType.String(),
		"hints":    w.hinted,
	})
	return nil
}

func (w *Watcher) startHintsLocked() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := map[string]bool{}
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.hinted = true
	return nil
}

// Stop ends polling and drops any pending debounced change. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	cancel, done, fsw := w.cancel, w.done, w.fsw
	w.fsw = nil
	w.mu.Unlock()

	cancel()
	<-done
	if fsw != nil {
		fsw.Close()
	}
	w.debouncer.Cancel()
}

// Poll stats every signal file once and triggers the debouncer when any of
// them changed. It reports whether a change was seen.
func (w *Watcher) Poll() bool {
	changed := false
	w.mu.Lock()
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		next := fileState{size: info.Size(), mtime: info.ModTime()}
		prev, seen := w.state[p]
		if !seen || next.size != prev.size || next.mtime.After(prev.mtime) {
			w.state[p] = next
			changed = true
		}
	}
	w.mu.Unlock()

	if changed {
		w.debouncer.Trigger(w.notifyChange)
	}
	return changed
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}, fsw *fsnotify.Watcher) {
	defer close(done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if fsw != nil {
		events, errs = fsw.Events, fsw.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if w.isSignal(ev.Name) {
				w.Poll()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			debug.Event(debug.LevelWarn, "watcher", "hint_error", map[string]any{"error": err.Error()})
		}
	}
}

func (w *Watcher) isSignal(name string) bool {
	for _, p := range w.paths {
		if filepath.Clean(name) == p {
			return true
		}
	}
	return false
}

func (w *Watcher) notifyChange() {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}

// Changed returns a channel that receives after each debounced change. It
// is an alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Paths returns the absolute signal paths.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// PollInterval returns the configured polling interval.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

// IsStarted reports whether the poll loop is running.
func (w *Watcher) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// HintsActive reports whether fsnotify hints are feeding the poll loop.
func (w *Watcher) HintsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started && w.hinted
}

// FilesystemType returns the classification made at Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsType
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
