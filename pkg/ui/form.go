package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
	"github.com/elmateo487/bdui-compact-kanban/pkg/writer"
)

// issueForm backs the create and edit views. Field values live outside the
// huh.Form so a failed submit can rebuild the form without losing input.
type issueForm struct {
	form *huh.Form

	// editID is empty for the create form.
	editID string

	title       string
	description string
	priority    int
	issueType   string
	status      string
	assignee    string
	labels      string
	parent      string

	// err is the last submit failure, shown above the fields.
	err        string
	submitting bool
}

func newCreateForm(parent string) *issueForm {
	return &issueForm{
		priority:  2,
		issueType: string(model.TypeTask),
		parent:    parent,
	}
}

func newEditForm(is *model.Issue) *issueForm {
	v := writer.ValuesOf(is)
	return &issueForm{
		editID:      is.ID,
		title:       v.Title,
		description: v.Description,
		priority:    v.Priority,
		status:      string(v.Status),
		assignee:    v.Assignee,
		labels:      v.Labels,
	}
}

func (f *issueForm) isCreate() bool { return f.editID == "" }

// build (re)creates the huh form over the current values and returns its
// init command.
func (f *issueForm) build(width int, assignees []string) tea.Cmd {
	fields := []huh.Field{
		huh.NewInput().
			Key("title").
			Title("Title").
			CharLimit(writer.MaxTitleLength).
			Validate(writer.ValidateTitle).
			Value(&f.title),
		huh.NewText().
			Key("description").
			Title("Description").
			CharLimit(writer.MaxDescriptionLength).
			Lines(5).
			Value(&f.description),
		huh.NewSelect[int]().
			Key("priority").
			Title("Priority").
			Options(priorityOptions()...).
			Value(&f.priority),
	}
	if f.isCreate() {
		fields = append(fields, huh.NewSelect[string]().
			Key("type").
			Title("Type").
			Options(typeOptions()...).
			Value(&f.issueType))
	} else {
		fields = append(fields, huh.NewSelect[string]().
			Key("status").
			Title("Status").
			Options(statusOptions()...).
			Value(&f.status))
	}
	fields = append(fields,
		huh.NewInput().
			Key("assignee").
			Title("Assignee").
			CharLimit(writer.MaxAssigneeLength).
			Suggestions(assignees).
			Value(&f.assignee),
		huh.NewInput().
			Key("labels").
			Title("Labels").
			Description("comma separated").
			CharLimit(writer.MaxLabelsLength).
			Value(&f.labels),
	)
	if f.isCreate() {
		fields = append(fields, huh.NewInput().
			Key("parent").
			Title("Parent").
			Placeholder("issue id").
			Value(&f.parent))
	}

	f.form = huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeDracula()).
		WithShowHelp(true).
		WithWidth(width)
	f.submitting = false
	return f.form.Init()
}

func (f *issueForm) setWidth(width int) {
	if f.form != nil {
		f.form = f.form.WithWidth(width)
	}
}

func (f *issueForm) fail(err error) {
	f.err = err.Error()
	f.submitting = false
}

func (f *issueForm) update(msg tea.Msg) tea.Cmd {
	m, cmd := f.form.Update(msg)
	if hf, ok := m.(*huh.Form); ok {
		f.form = hf
	}
	return cmd
}

func (f *issueForm) values() writer.FormValues {
	return writer.FormValues{
		Title:       strings.TrimSpace(f.title),
		Description: f.description,
		Priority:    f.priority,
		Status:      model.Status(f.status),
		Assignee:    strings.TrimSpace(f.assignee),
		Labels:      f.labels,
	}
}

func (f *issueForm) createParams() writer.CreateParams {
	p := f.priority
	return writer.CreateParams{
		Title:       strings.TrimSpace(f.title),
		Description: f.description,
		Priority:    &p,
		Type:        model.IssueType(f.issueType),
		Assignee:    strings.TrimSpace(f.assignee),
		Labels:      writer.ParseLabels(f.labels),
		Parent:      strings.TrimSpace(f.parent),
	}
}

func (f *issueForm) view(t Theme) string {
	var b strings.Builder
	title := "New Issue"
	if !f.isCreate() {
		title = "Edit " + f.editID
	}
	b.WriteString(t.Title.Render(title))
	b.WriteString("\n\n")
	if f.err != "" {
		b.WriteString(t.Fg(t.Error).Render("✗ " + f.err))
		b.WriteString("\n\n")
	}
	if f.submitting {
		b.WriteString(t.Dim.Render("Saving…"))
		b.WriteString("\n\n")
	}
	b.WriteString(f.form.View())
	b.WriteString("\n")
	b.WriteString(t.Dim.Render("esc cancel"))
	return b.String()
}

func priorityOptions() []huh.Option[int] {
	opts := make([]huh.Option[int], 0, model.MaxPriority+1)
	for p := model.MinPriority; p <= model.MaxPriority; p++ {
		opts = append(opts, huh.NewOption(fmt.Sprintf("P%d %s", p, model.PriorityLabel(p)), p))
	}
	return opts
}

func typeOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(model.KnownTypes))
	for _, t := range model.KnownTypes {
		opts = append(opts, huh.NewOption(string(t), string(t)))
	}
	return opts
}

func statusOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(model.Buckets))
	for _, b := range model.Buckets {
		s := b.Status()
		opts = append(opts, huh.NewOption(s.Label(), string(s)))
	}
	return opts
}

// updateForm routes every message to the open form. esc always cancels.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.store.ReturnToPreviousView()
		m.form = nil
		return m, nil
	}
	if m.form.submitting {
		return m, nil
	}
	cmd := m.form.update(msg)
	switch m.form.form.State {
	case huh.StateCompleted:
		return m.submitForm()
	case huh.StateAborted:
		m.store.ReturnToPreviousView()
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	rebuild := func(err error) (tea.Model, tea.Cmd) {
		f.fail(err)
		return m, f.build(m.formWidth(), m.assigneeSuggestions())
	}
	if m.writer == nil {
		return rebuild(fmt.Errorf("bd is not available"))
	}

	if f.isCreate() {
		p := f.createParams()
		if err := writer.ValidateTitle(p.Title); err != nil {
			return rebuild(err)
		}
		f.submitting = true
		return m, createCmd(m.writer, p)
	}

	is := m.store.Issue(f.editID)
	if is == nil {
		return rebuild(fmt.Errorf("issue %s no longer exists", f.editID))
	}
	p := writer.Diff(is, f.values())
	if p.IsEmpty() {
		m.store.ReturnToPreviousView()
		m.form = nil
		return m, m.toast("No changes", state.SeverityInfo)
	}
	f.submitting = true
	return m, updateCmd(m.writer, p, writer.Previous(is, p))
}
