// Package reload keeps an in-memory issue graph in sync with storage. It runs
// the change watcher, serializes reloads, and fans results out to
// subscribers.
package reload

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	bdebug "github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/loader"
	"github.com/elmateo487/bdui-compact-kanban/pkg/metrics"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/watcher"
)

// ErrStopped is returned by operations on a stopped service.
var ErrStopped = errors.New("reload service stopped")

// LoadFunc produces a fresh graph from storage.
type LoadFunc func(ctx context.Context) (*model.Graph, error)

// SourceLoader returns a LoadFunc reading from src.
func SourceLoader(src datasource.DataSource) LoadFunc {
	return func(ctx context.Context) (*model.Graph, error) {
		return loader.Load(ctx, src)
	}
}

// Update is the result of one reload. Exactly one of Graph and Err is set.
type Update struct {
	Graph      *model.Graph
	Err        error
	Generation uint64
	Manual     bool
	Duration   time.Duration
	At         time.Time
}

// SubscriberPanic describes a subscriber callback that panicked.
type SubscriberPanic struct {
	Subscriber uint64
	Value      any
	Stack      []byte
}

func (p *SubscriberPanic) Error() string {
	return fmt.Sprintf("subscriber %d panicked: %v", p.Subscriber, p.Value)
}

// State is the lifecycle state of watcher-driven reloads.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Option configures a Service.
type Option func(*Service)

// WithWatchPaths sets the signal files polled for changes. Without paths the
// service only reloads on demand.
func WithWatchPaths(paths ...string) Option {
	return func(s *Service) { s.paths = append([]string(nil), paths...) }
}

// WithPollInterval sets the watcher polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithDebounce sets the watcher debounce duration.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// WithHints enables fsnotify hints in the watcher.
func WithHints(enabled bool) Option {
	return func(s *Service) { s.hints = enabled }
}

// WithPanicHandler is called for every recovered subscriber panic, after it
// has been logged.
func WithPanicHandler(fn func(*SubscriberPanic)) Option {
	return func(s *Service) { s.onPanic = fn }
}

type subscriber struct {
	id uint64
	fn func(Update)
}

// Service owns watcher-driven and manual reloads. Loads never overlap: a
// change seen while a load is running marks the service dirty and exactly
// one follow-up load runs afterwards.
type Service struct {
	load         LoadFunc
	paths        []string
	pollInterval time.Duration
	debounce     time.Duration
	hints        bool
	onPanic      func(*SubscriberPanic)

	mu         sync.Mutex
	state      State
	started    bool
	dirty      bool
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	watcher    *watcher.Watcher
	subs       []subscriber
	nextSubID  uint64
	last       Update

	// loadMu serializes loads and the dispatch of their results.
	loadMu   sync.Mutex
	inflight sync.WaitGroup
	group    singleflight.Group
}

// New creates a service around load. It does nothing until Start or Reload.
func New(load LoadFunc, opts ...Option) *Service {
	s := &Service{
		load:         load,
		pollInterval: watcher.DefaultPollInterval,
		debounce:     watcher.DefaultDebounceDuration,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins watching. Calling Start again is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	if len(s.paths) > 0 {
		w, err := watcher.New(s.paths,
			watcher.WithPollInterval(s.pollInterval),
			watcher.WithDebounceDuration(s.debounce),
			watcher.WithHints(s.hints),
			watcher.WithOnChange(s.Trigger),
		)
		if err != nil {
			s.cancel()
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Start(s.ctx); err != nil {
			s.cancel()
			return fmt.Errorf("start watcher: %w", err)
		}
		s.watcher = w
	}
	s.started = true
	bdebug.Event(bdebug.LevelInfo, "reload", "started", map[string]any{"paths": len(s.paths)})
	return nil
}

// Stop cancels polling, any pending debounce and any in-flight load. Results
// of loads that finish after Stop are discarded. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	s.generation++
	cancel, w := s.cancel, s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if cancel != nil {
		cancel()
	}
	s.inflight.Wait()
	bdebug.Event(bdebug.LevelInfo, "reload", "stopped", nil)
}

// Subscribe registers fn for every published Update. The returned function
// removes the subscription; calling it more than once is harmless.
// Callbacks run on the loading goroutine and must not call Reload.
func (s *Service) Subscribe(fn func(Update)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Trigger requests a watcher-style reload. While a load is running the
// request is folded into one follow-up load.
func (s *Service) Trigger() {
	s.mu.Lock()
	if !s.started || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	if s.state == StateLoading {
		s.dirty = true
		s.mu.Unlock()
		bdebug.Event(bdebug.LevelDebug, "reload", "coalesced", nil)
		return
	}
	s.state = StateLoading
	s.dirty = false
	ctx := s.ctx
	s.inflight.Add(1)
	s.mu.Unlock()

	go s.process(ctx)
}

func (s *Service) process(ctx context.Context) {
	defer s.inflight.Done()
	for {
		s.run(ctx, false)

		s.mu.Lock()
		if s.state == StateStopped {
			s.mu.Unlock()
			return
		}
		if s.dirty {
			s.dirty = false
			s.mu.Unlock()
			continue
		}
		s.state = StateIdle
		s.mu.Unlock()
		return
	}
}

// Reload loads immediately, bypassing polling and debounce. Concurrent
// calls share one load. It still waits for any load already running.
func (s *Service) Reload(ctx context.Context) (Update, error) {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return Update{}, ErrStopped
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	v, err, shared := s.group.Do("reload", func() (any, error) {
		upd, ok := s.run(ctx, true)
		if !ok {
			return Update{}, ErrStopped
		}
		return upd, upd.Err
	})
	if shared {
		bdebug.Event(bdebug.LevelDebug, "reload", "manual_shared", nil)
	}
	return v.(Update), err
}

// run performs one load and publishes it. It reports false when the result
// was discarded because the service stopped meanwhile.
func (s *Service) run(ctx context.Context, manual bool) (Update, bool) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	start := time.Now()
	g, err := s.safeLoad(ctx)
	dur := time.Since(start)
	metrics.GraphLoad.Record(dur)

	if err != nil && !errors.Is(err, datasource.ErrStorageUnavailable) {
		err = fmt.Errorf("%w: %w", datasource.ErrStorageUnavailable, err)
	}
	if err != nil {
		g = nil
	}

	s.mu.Lock()
	if s.generation != gen || s.state == StateStopped {
		s.mu.Unlock()
		bdebug.Event(bdebug.LevelDebug, "reload", "discarded", map[string]any{"generation": gen})
		return Update{}, false
	}
	s.generation++
	upd := Update{
		Graph:      g,
		Err:        err,
		Generation: s.generation,
		Manual:     manual,
		Duration:   dur,
		At:         time.Now(),
	}
	s.last = upd
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	fields := map[string]any{
		"generation": upd.Generation,
		"manual":     manual,
		"ms":         float64(dur.Microseconds()) / 1000.0,
	}
	if err != nil {
		fields["error"] = err.Error()
		bdebug.Event(bdebug.LevelWarn, "reload", "load_failed", fields)
	} else {
		fields["issues"] = g.Len()
		bdebug.Event(bdebug.LevelInfo, "reload", "loaded", fields)
	}

	for _, sub := range subs {
		s.dispatch(sub, upd)
	}
	return upd, true
}

func (s *Service) safeLoad(ctx context.Context) (g *model.Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, fmt.Errorf("load panicked: %v", r)
		}
	}()
	return s.load(ctx)
}

func (s *Service) dispatch(sub subscriber, upd Update) {
	defer func() {
		if r := recover(); r != nil {
			p := &SubscriberPanic{Subscriber: sub.id, Value: r, Stack: debug.Stack()}
			bdebug.Event(bdebug.LevelError, "reload", "subscriber_panic", map[string]any{
				"subscriber": sub.id,
				"panic":      fmt.Sprintf("%v", r),
				"stack":      string(p.Stack),
			})
			if s.onPanic != nil {
				s.onPanic(p)
			}
		}
	}()
	sub.fn(upd)
}

// State returns the watcher-driven reload state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the generation of the last published update.
func (s *Service) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Generation
}

// Last returns the most recently published update.
func (s *Service) Last() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Watching reports whether a watcher is polling storage.
func (s *Service) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil
}
