package datasource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// DefaultMaxLineSize bounds a single JSONL record (10MB).
const DefaultMaxLineSize = 10 * 1024 * 1024

// jsonlRecord is one line of the bd JSONL export: an issue with its labels
// and outgoing dependency edges inlined.
type jsonlRecord struct {
	model.Issue
	Dependencies []model.Dependency `json:"dependencies,omitempty"`
}

// ReadJSONL reads the JSONL export behind source. A line that is not JSON,
// such as the cut-off tail of an export still being written, fails the whole
// read. Well-formed records that fail validation are skipped and reported
// through warn (or the debug log when warn is nil).
func ReadJSONL(source DataSource, warn func(string)) (*Snapshot, error) {
	f, err := os.Open(source.Path)
	if err != nil {
		return nil, unavailable("open "+source.Path, err)
	}
	defer f.Close()

	snap, err := ParseJSONL(f, warn)
	if err != nil {
		return nil, err
	}
	snap.Source = source
	return snap, nil
}

// ParseJSONL parses JSONL content into a snapshot.
func ParseJSONL(r io.Reader, warn func(string)) (*Snapshot, error) {
	if warn == nil {
		warn = func(msg string) { debug.Log("datasource: %s", msg) }
	}

	snap := &Snapshot{ReadAt: time.Now()}
	reader := bufio.NewReaderSize(r, 64*1024)

	lineNum := 0
	for {
		lineNum++
		line, err := readLine(reader, DefaultMaxLineSize)
		if errors.Is(err, errLineTooLong) {
			return nil, unavailable(fmt.Sprintf("line %d", lineNum), fmt.Errorf("exceeds %d bytes", DefaultMaxLineSize))
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, unavailable(fmt.Sprintf("read line %d", lineNum), err)
		}
		if lineNum == 1 {
			line = bytes.TrimPrefix(line, []byte{0xEF, 0xBB, 0xBF})
		}
		if len(bytes.TrimSpace(line)) > 0 {
			if err := parseRecord(snap, line, lineNum, warn); err != nil {
				return nil, err
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return snap, nil
}

func parseRecord(snap *Snapshot, line []byte, lineNum int, warn func(string)) error {
	var rec jsonlRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return unavailable(fmt.Sprintf("malformed JSON on line %d", lineNum), err)
	}

	issue := rec.Issue
	issue.Status = model.Status(strings.ToLower(strings.TrimSpace(string(issue.Status))))
	if issue.Status == model.StatusTombstone {
		return nil
	}
	if err := issue.Validate(); err != nil {
		warn(fmt.Sprintf("skipping invalid issue on line %d: %v", lineNum, err))
		return nil
	}

	for _, l := range issue.Labels {
		snap.Labels = append(snap.Labels, model.Label{IssueID: issue.ID, Label: l})
	}
	issue.Labels = nil

	for _, d := range rec.Dependencies {
		if d.IssueID == "" {
			d.IssueID = issue.ID
		}
		snap.Dependencies = append(snap.Dependencies, d)
	}
	snap.Issues = append(snap.Issues, issue)
	return nil
}

var errLineTooLong = errors.New("line too long")

// readLine returns the next line without its terminator. Lines longer than
// max are drained and reported as errLineTooLong.
func readLine(r *bufio.Reader, max int) ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return buf, err
		}
		if len(buf)+len(chunk) > max {
			for isPrefix {
				if _, isPrefix, err = r.ReadLine(); err != nil {
					return nil, err
				}
			}
			return nil, errLineTooLong
		}
		buf = append(buf, chunk...)
		if !isPrefix {
			return buf, nil
		}
	}
}
