// Package debug provides conditional debug logging for bdui.
//
// Debug logging is enabled by setting the BDUI_DEBUG environment variable:
//
//	BDUI_DEBUG=1 bdui
//
// The TUI owns the terminal while it runs, so debug output usually goes to a
// file instead of stderr:
//
//	BDUI_DEBUG=1 BDUI_DEBUG_FILE=/tmp/bdui.log bdui
//
// When disabled (default), all debug functions are no-ops.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Level orders structured events by severity.
type Level int

const (
	LevelError Level = iota + 1
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("BDUI_DEBUG") == "" {
		return
	}
	out := io.Writer(os.Stderr)
	if path := os.Getenv("BDUI_DEBUG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	enabled = true
	logger = newLogger(out)
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[BDUI_DEBUG] ", log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects debug output. Tests use it to capture events.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return logger
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if l := current(); l != nil {
		l.Printf(format, args...)
	}
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if l := current(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogFunc returns a function that logs a debug message when called.
//
//	defer debug.LogFunc("reload done")()
func LogFunc(msg string) func() {
	l := current()
	if l == nil {
		return func() {}
	}
	return func() {
		l.Print(msg)
	}
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	if l := current(); l != nil {
		l.Printf("=== %s ===", name)
	}
}

// Event writes one JSON line describing a background event. Components use
// it for anything that happens off the UI goroutine (polls, reloads,
// subscriber faults).
func Event(level Level, component, event string, fields map[string]any) {
	l := current()
	if l == nil {
		return
	}
	payload := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"component": component,
		"event":     event,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		l.Printf("%s: failed to marshal event %s: %v", component, event, err)
		return
	}
	l.Printf("%s", b)
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if l := current(); l != nil {
		l.Printf("%s: %T = %s", name, v, fmt.Sprintf("%+v", v))
	}
}
