// Package writer applies mutations by shelling out to the bd CLI. It never
// touches the loaded graph; callers trigger a reload after a successful
// command and let the change flow back through the snapshot.
package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// DefaultCommand is the bd executable looked up on PATH.
const DefaultCommand = "bd"

// DefaultTimeout bounds a single bd invocation.
const DefaultTimeout = 30 * time.Second

// Runner executes one command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Dir, when set, is the working
// directory so bd resolves the same beads directory the dashboard reads.
type ExecRunner struct {
	Dir string
}

// Run implements Runner. A non-zero exit is returned as *CommandError with
// the command's stderr attached.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // name comes from user config
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{
			Args:   append([]string{name}, args...),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// CommandError is a failed bd invocation.
type CommandError struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString("failed to ")
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Stderr != "":
		b.WriteString(e.Stderr)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("command failed")
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// CreateParams are the fields of a new issue. Zero values are omitted from
// the command line, except Priority which is sent when non-nil.
type CreateParams struct {
	Title       string
	Description string
	Priority    *int
	Type        model.IssueType
	Assignee    string
	Labels      []string
	Parent      string
}

// UpdateParams carries only the fields that changed. A nil pointer leaves
// the field untouched; a pointer to "" clears it.
type UpdateParams struct {
	ID          string
	Title       *string
	Description *string
	Priority    *int
	Status      *model.Status
	Assignee    *string
	Labels      []string
	// SetLabels distinguishes "replace with none" from "unchanged".
	SetLabels bool
}

// IsEmpty reports whether the update changes nothing.
func (p UpdateParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.Assignee == nil && !p.SetLabels
}

// Option configures an IssueWriter.
type Option func(*IssueWriter)

// WithRunner replaces the os/exec runner.
func WithRunner(r Runner) Option {
	return func(w *IssueWriter) { w.runner = r }
}

// WithCommand sets the bd executable.
func WithCommand(name string) Option {
	return func(w *IssueWriter) {
		if name != "" {
			w.command = name
		}
	}
}

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(w *IssueWriter) { w.timeout = d }
}

// IssueWriter creates, edits and deletes issues through bd.
type IssueWriter struct {
	runner  Runner
	command string
	timeout time.Duration
}

// New returns a writer that runs DefaultCommand in dir.
func New(dir string, opts ...Option) *IssueWriter {
	w := &IssueWriter{
		runner:  ExecRunner{Dir: dir},
		command: DefaultCommand,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Command returns the configured bd executable.
func (w *IssueWriter) Command() string { return w.command }

func (w *IssueWriter) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := w.runner.Run(ctx, w.command, args...)
	debug.Event(debug.LevelInfo, "writer", op, map[string]any{
		"args":     len(args),
		"duration": time.Since(start),
		"ok":       err == nil,
	})
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) {
			ce.Op = op
			return nil, ce
		}
		return nil, &CommandError{Op: op, Args: append([]string{w.command}, args...), Err: err}
	}
	return out, nil
}

// Create runs `bd new` and returns the new issue id.
func (w *IssueWriter) Create(ctx context.Context, p CreateParams) (string, error) {
	if err := ValidateTitle(p.Title); err != nil {
		return "", err
	}
	if err := validateFields(p.Description, p.Assignee, p.Labels); err != nil {
		return "", err
	}
	out, err := w.run(ctx, "create issue", CreateArgs(p)...)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", &CommandError{Op: "create issue", Stderr: "bd printed no issue id"}
	}
	return id, nil
}

// CreateArgs builds the argument list for `bd new`.
func CreateArgs(p CreateParams) []string {
	args := []string{"new", strings.TrimSpace(p.Title)}
	if p.Description != "" {
		args = append(args, "-d", p.Description)
	}
	if p.Priority != nil {
		args = append(args, "-p", strconv.Itoa(*p.Priority))
	}
	if p.Type != "" {
		args = append(args, "-t", string(p.Type))
	}
	if p.Assignee != "" {
		args = append(args, "-a", p.Assignee)
	}
	if len(p.Labels) > 0 {
		args = append(args, "-l", strings.Join(p.Labels, ","))
	}
	if p.Parent != "" {
		args = append(args, "--parent", p.Parent)
	}
	return args
}

// Update runs `bd edit` with the changed fields. An empty update is a no-op.
func (w *IssueWriter) Update(ctx context.Context, p UpdateParams) error {
	if p.ID == "" {
		return errors.New("update: issue id is required")
	}
	if p.IsEmpty() {
		return nil
	}
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	var desc, assignee string
	if p.Description != nil {
		desc = *p.Description
	}
	if p.Assignee != nil {
		assignee = *p.Assignee
	}
	if err := validateFields(desc, assignee, p.Labels); err != nil {
		return err
	}
	_, err := w.run(ctx, "update issue", UpdateArgs(p)...)
	return err
}

// UpdateArgs builds the argument list for `bd edit`.
func UpdateArgs(p UpdateParams) []string {
	args := []string{"edit", p.ID}
	if p.Title != nil {
		args = append(args, "-t", strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		args = append(args, "-d", *p.Description)
	}
	if p.Priority != nil {
		args = append(args, "-p", strconv.Itoa(*p.Priority))
	}
	if p.Status != nil {
		args = append(args, "-s", string(*p.Status))
	}
	if p.Assignee != nil {
		args = append(args, "-a", *p.Assignee)
	}
	if p.SetLabels {
		args = append(args, "-l", strings.Join(p.Labels, ","))
	}
	return args
}

// Delete runs `bd delete` permanently, cascading to children.
func (w *IssueWriter) Delete(ctx context.Context, id, reason string) error {
	if id == "" {
		return errors.New("delete: issue id is required")
	}
	_, err := w.run(ctx, "delete issue", DeleteArgs(id, reason)...)
	return err
}

// DeleteArgs builds the argument list for `bd delete`.
func DeleteArgs(id, reason string) []string {
	args := []string{"delete", id, "--hard", "--force", "--cascade"}
	if reason != "" {
		args = append(args, "--reason", reason)
	}
	return args
}

type listedIssue struct {
	Assignee string   `json:"assignee"`
	Labels   []string `json:"labels"`
}

// Known lists every assignee and label bd knows about, sorted and
// deduplicated.
func (w *IssueWriter) Known(ctx context.Context) (assignees, labels []string, err error) {
	out, err := w.run(ctx, "list issues", "list", "--format", "json")
	if err != nil {
		return nil, nil, err
	}
	var issues []listedIssue
	if err := json.Unmarshal(out, &issues); err != nil {
		return nil, nil, fmt.Errorf("decode bd list output: %w", err)
	}
	for _, is := range issues {
		if is.Assignee != "" {
			assignees = append(assignees, is.Assignee)
		}
		for _, l := range is.Labels {
			if l != "" {
				labels = append(labels, l)
			}
		}
	}
	slices.Sort(assignees)
	slices.Sort(labels)
	return slices.Compact(assignees), slices.Compact(labels), nil
}
