package state

import "github.com/elmateo487/bdui-compact-kanban/pkg/model"

const defaultDescPageSize = 10

// Section is a focusable region of the drill-down view.
type Section int

const (
	SectionNone Section = iota
	SectionBlockedBy
	SectionBlocks
	SectionDescription
	SectionSubtasks
)

func (s Section) String() string {
	switch s {
	case SectionBlockedBy:
		return "blocked-by"
	case SectionBlocks:
		return "blocks"
	case SectionDescription:
		return "description"
	case SectionSubtasks:
		return "subtasks"
	}
	return "none"
}

var sectionOrder = [...]Section{SectionBlockedBy, SectionBlocks, SectionDescription, SectionSubtasks}

type drillState struct {
	stack []string

	section Section
	index   int

	descScroll    int
	descMaxScroll int
	descPageSize  int
}

// Focus is the cursor inside the top drill-down frame.
type Focus struct {
	Section Section
	Index   int
	Scroll  int
}

// InDrillDown reports whether the drill-down view is open.
func (s *Store) InDrillDown() bool { return len(s.drill.stack) > 0 }

// DrillDownStack returns a copy of the breadcrumb trail, root first.
func (s *Store) DrillDownStack() []string {
	return append([]string(nil), s.drill.stack...)
}

// DrillDownIssue returns the issue of the top frame.
func (s *Store) DrillDownIssue() *model.Issue {
	if len(s.drill.stack) == 0 {
		return nil
	}
	return s.graph.Issue(s.drill.stack[len(s.drill.stack)-1])
}

// OpenDrillDown starts a drill-down on the selected issue. It does nothing
// when no issue is selected.
func (s *Store) OpenDrillDown() {
	is := s.SelectedIssue()
	if is == nil {
		return
	}
	s.drill.stack = []string{is.ID}
	s.resetFrame()
}

// ToggleDrillDown opens the drill-down on the selection or closes it.
func (s *Store) ToggleDrillDown() {
	if s.InDrillDown() {
		s.ExitDrillDown()
		return
	}
	s.OpenDrillDown()
}

// PushDrillDown opens a new frame for id on top of the stack.
func (s *Store) PushDrillDown(id string) {
	if s.graph.Issue(id) == nil {
		return
	}
	s.drill.stack = append(s.drill.stack, id)
	s.resetFrame()
}

// PopDrillDown returns to the previous frame. Popping the last frame exits
// the drill-down view.
func (s *Store) PopDrillDown() {
	if len(s.drill.stack) <= 1 {
		s.ExitDrillDown()
		return
	}
	s.drill.stack = s.drill.stack[:len(s.drill.stack)-1]
	s.resetFrame()
}

// ExitDrillDown closes the drill-down view.
func (s *Store) ExitDrillDown() {
	s.drill.stack = nil
	s.resetFrame()
}

// SetDescriptionViewport records the rendered description geometry. The
// scroll offset is clamped to the new maximum.
func (s *Store) SetDescriptionViewport(pageSize, maxScroll int) {
	s.drill.descPageSize = max(1, pageSize)
	s.drill.descMaxScroll = max(0, maxScroll)
	s.drill.descScroll = min(s.drill.descScroll, s.drill.descMaxScroll)
	if s.drill.section == SectionNone || !s.sectionNonEmpty(s.drill.section) {
		s.drill.section, s.drill.index = s.firstSection(), 0
	}
}

// DrillDownFocus returns the focus inside the top frame.
func (s *Store) DrillDownFocus() Focus {
	return Focus{Section: s.drill.section, Index: s.drill.index, Scroll: s.drill.descScroll}
}

// DescriptionScroll returns the description scroll offset and its maximum.
func (s *Store) DescriptionScroll() (offset, maxScroll int) {
	return s.drill.descScroll, s.drill.descMaxScroll
}

// FocusedChild returns the id under the cursor of a list section, or "".
func (s *Store) FocusedChild() string {
	ids := s.sectionIDs(s.drill.section)
	if s.drill.index < 0 || s.drill.index >= len(ids) {
		return ""
	}
	return ids[s.drill.index]
}

// DrillDownDown moves focus forward: down a list, or a page down the
// description, then into the next non-empty section.
func (s *Store) DrillDownDown() {
	d := &s.drill
	switch d.section {
	case SectionNone:
		return
	case SectionDescription:
		if d.descScroll < d.descMaxScroll {
			d.descScroll = min(d.descMaxScroll, d.descScroll+s.descStep())
			return
		}
	default:
		if d.index < len(s.sectionIDs(d.section))-1 {
			d.index++
			return
		}
	}
	if next := s.nextSection(d.section); next != SectionNone {
		d.section, d.index = next, 0
		if next == SectionDescription {
			d.descScroll = 0
		}
	}
}

// DrillDownUp moves focus backward, entering the previous non-empty section
// at its end.
func (s *Store) DrillDownUp() {
	d := &s.drill
	switch d.section {
	case SectionNone:
		return
	case SectionDescription:
		if d.descScroll > 0 {
			d.descScroll = max(0, d.descScroll-s.descStep())
			return
		}
	default:
		if d.index > 0 {
			d.index--
			return
		}
	}
	prev := s.prevSection(d.section)
	switch prev {
	case SectionNone:
	case SectionDescription:
		d.section, d.index = prev, 0
		d.descScroll = d.descMaxScroll
	default:
		d.section, d.index = prev, max(0, len(s.sectionIDs(prev))-1)
	}
}

// descStep is one description page, keeping one line of overlap.
func (s *Store) descStep() int {
	return max(1, s.drill.descPageSize-1)
}

func (s *Store) resetFrame() {
	s.drill.descScroll = 0
	s.drill.descMaxScroll = 0
	s.drill.index = 0
	s.drill.section = s.firstSection()
}

// reconcileDrillDown drops every frame whose issue vanished from the graph,
// keeping the order of the rest. The focus survives when the top frame is
// unchanged and still points at something.
func (s *Store) reconcileDrillDown() {
	if len(s.drill.stack) == 0 {
		return
	}
	top := s.drill.stack[len(s.drill.stack)-1]
	var st []string
	for _, id := range s.drill.stack {
		if s.graph.Issue(id) != nil {
			st = append(st, id)
		}
	}
	s.drill.stack = st
	if len(st) == 0 || st[len(st)-1] != top {
		s.resetFrame()
		return
	}
	if !s.sectionNonEmpty(s.drill.section) {
		s.drill.section, s.drill.index, s.drill.descScroll = s.firstSection(), 0, 0
		return
	}
	if ids := s.sectionIDs(s.drill.section); len(ids) > 0 {
		s.drill.index = min(s.drill.index, len(ids)-1)
	}
}

func (s *Store) sectionIDs(sec Section) []string {
	is := s.DrillDownIssue()
	if is == nil {
		return nil
	}
	switch sec {
	case SectionBlockedBy:
		return is.BlockedBy
	case SectionBlocks:
		return is.Blocks
	case SectionSubtasks:
		return is.Children
	}
	return nil
}

func (s *Store) sectionNonEmpty(sec Section) bool {
	if sec == SectionDescription {
		is := s.DrillDownIssue()
		return is != nil && (is.Description != "" || s.drill.descMaxScroll > 0)
	}
	return len(s.sectionIDs(sec)) > 0
}

func (s *Store) firstSection() Section {
	for _, sec := range sectionOrder {
		if s.sectionNonEmpty(sec) {
			return sec
		}
	}
	return SectionNone
}

func (s *Store) nextSection(cur Section) Section {
	for _, sec := range sectionOrder {
		if sec > cur && s.sectionNonEmpty(sec) {
			return sec
		}
	}
	return SectionNone
}

func (s *Store) prevSection(cur Section) Section {
	for i := len(sectionOrder) - 1; i >= 0; i-- {
		if sec := sectionOrder[i]; sec < cur && s.sectionNonEmpty(sec) {
			return sec
		}
	}
	return SectionNone
}
