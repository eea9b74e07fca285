// Package state holds the navigation, filter and drill-down state of the
// dashboard. A Store has a single logical writer, the UI event loop, and is
// not safe for concurrent use.
package state

import (
	"fmt"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/pkg/loader"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

const (
	DefaultPageSize      = 5
	DefaultToastDuration = 3 * time.Second
	DefaultUndoCapacity  = 10

	// Layout figures used to derive the page size from the terminal height.
	UIOverhead = 17
	CardHeight = 5
)

// Options configures a Store. Zero values select the defaults.
type Options struct {
	// PageSize fixes the number of cards per page. Zero derives it from the
	// terminal height.
	PageSize      int
	DefaultFilter Filter
	ToastDuration time.Duration
	UndoCapacity  int
	Notifications bool
	HideBlocked   bool
	Theme         string
	Now           func() time.Time
}

// Cursor is the selection and scroll position inside one bucket.
type Cursor struct {
	Selected int
	Offset   int
}

// Store is the dashboard state machine.
type Store struct {
	graph   *model.Graph
	prev    *model.Graph
	loadErr error

	defaultFilter Filter
	filter        Filter
	search        string
	cached        *view

	active        model.Bucket
	cursors       [model.BucketCount]Cursor
	pageSize      int
	fixedPageSize bool
	width, height int

	drill drillState

	toast         *Toast
	toastDuration time.Duration
	undo          []UndoEntry
	undoCapacity  int
	confirm       *Confirm

	view     ViewMode
	previous ViewMode
	editID   string
	overlays Overlays
	theme    string

	now func() time.Time
}

// New returns a Store in kanban view with no graph loaded.
func New(opts Options) *Store {
	s := &Store{
		defaultFilter: opts.DefaultFilter.Clone(),
		filter:        opts.DefaultFilter.Clone(),
		pageSize:      DefaultPageSize,
		toastDuration: opts.ToastDuration,
		undoCapacity:  opts.UndoCapacity,
		view:          ViewKanban,
		previous:      ViewKanban,
		theme:         opts.Theme,
		now:           opts.Now,
	}
	if opts.PageSize > 0 {
		s.pageSize = opts.PageSize
		s.fixedPageSize = true
	}
	if s.toastDuration <= 0 {
		s.toastDuration = DefaultToastDuration
	}
	if s.undoCapacity <= 0 {
		s.undoCapacity = DefaultUndoCapacity
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.overlays.Notifications = opts.Notifications
	s.overlays.BlockedColumn = !opts.HideBlocked
	s.drill.descPageSize = defaultDescPageSize
	return s
}

// SetGraph swaps in a freshly loaded graph and reconciles all dependent
// state in the same call: the load error is cleared, cursors are clamped,
// drill-down frames whose issue disappeared are dropped and the frame's
// scroll state is reset. With notifications on, status changes against
// the previous graph raise an info toast. The changes are returned.
func (s *Store) SetGraph(g *model.Graph) []loader.StatusChange {
	var changes []loader.StatusChange
	if s.overlays.Notifications {
		changes = loader.DiffStatuses(s.prev, g)
	}

	s.graph = g
	s.prev = g
	s.loadErr = nil
	s.invalidate()
	s.clampCursors()
	s.reconcileDrillDown()

	if len(changes) > 0 {
		msg := changes[0].String()
		if len(changes) > 1 {
			msg = fmt.Sprintf("%s (+%d more)", msg, len(changes)-1)
		}
		s.ShowToast(msg, SeverityInfo)
	}
	return changes
}

// SetLoadError records a failed load. No graph is exposed until the next
// successful SetGraph.
func (s *Store) SetLoadError(err error) {
	s.loadErr = err
	s.graph = nil
	s.invalidate()
	s.clampCursors()
	s.ExitDrillDown()
}

// Graph returns the loaded graph, or nil before the first successful load
// and after a failed one.
func (s *Store) Graph() *model.Graph { return s.graph }

// LoadError returns the error of the last load, if it failed.
func (s *Store) LoadError() error { return s.loadErr }

// Issue looks up an issue in the loaded graph.
func (s *Store) Issue(id string) *model.Issue { return s.graph.Issue(id) }

// Theme returns the current theme name.
func (s *Store) Theme() string { return s.theme }

// SetTheme changes the current theme name.
func (s *Store) SetTheme(name string) { s.theme = name }
