// Package report turns an execution snapshot into a serializable
// report and renders it as JSON or human-readable text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unbound-force/mimic/internal/engine"
	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// Version is the report format version.
const Version = "0.1.0"

// Source is anything that can produce an execution snapshot.
type Source interface {
	Snapshot() engine.Snapshot
}

// Report is the top-level report structure.
type Report struct {
	Version      string        `json:"version"`
	ExecutionID  string        `json:"execution_id"`
	Test         string        `json:"test,omitempty"`
	Phase        string        `json:"phase"`
	Expectations []Expectation `json:"expectations"`
	History      []Call        `json:"history"`
	Errors       []Failure     `json:"errors"`
}

// Expectation is one recorded expectation.
type Expectation struct {
	Index     int    `json:"index"`
	Owner     string `json:"owner"`
	Method    string `json:"method"`
	Arguments string `json:"arguments"`
	Strict    bool   `json:"strict"`
	Block     int    `json:"block"`

	// Max is -1 when unbounded.
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
	Times string `json:"times"`

	Results []string `json:"results"`
}

// Call is one replay history entry.
type Call struct {
	Position  int    `json:"position"`
	Owner     string `json:"owner"`
	Method    string `json:"method"`
	Arguments string `json:"arguments"`
	Thread    uint64 `json:"thread"`

	// Expectation is the index of the matched expectation, -1 for
	// none.
	Expectation int  `json:"expectation"`
	Verified    bool `json:"verified"`
}

// Failure is a mocking error and the errors chained behind it.
type Failure struct {
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
	Invocation string   `json:"invocation,omitempty"`
	Details    []string `json:"details,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Cause      *Failure `json:"cause,omitempty"`
}

// Build snapshots src into a report.
func Build(src Source) *Report {
	s := src.Snapshot()
	r := &Report{
		Version:      Version,
		ExecutionID:  s.ID,
		Phase:        string(s.Phase),
		Expectations: []Expectation{},
		History:      []Call{},
		Errors:       []Failure{},
	}
	for _, x := range s.Expectations {
		r.Expectations = append(r.Expectations, Expectation{
			Index:     x.Index,
			Owner:     x.Owner,
			Method:    x.Method,
			Arguments: x.Arguments,
			Strict:    x.Strict,
			Block:     x.Block,
			Min:       x.Constraints.Min,
			Max:       x.Constraints.Max,
			Count:     x.Constraints.Count,
			Times:     x.Constraints.String(),
			Results:   resultNames(x.Results),
		})
	}
	for _, c := range s.History {
		r.History = append(r.History, Call{
			Position:    c.Position,
			Owner:       c.Owner,
			Method:      c.Method,
			Arguments:   c.Arguments,
			Thread:      c.Thread,
			Expectation: c.Expectation,
			Verified:    c.Verified,
		})
	}
	for _, err := range s.Errors {
		if f := failureOf(err); f != nil {
			r.Errors = append(r.Errors, *f)
		}
	}
	return r
}

func resultNames(kinds []expectation.ResultKind) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return names
}

func failureOf(err *taxonomy.Error) *Failure {
	if err == nil {
		return nil
	}
	f := &Failure{
		Kind:       string(err.Kind),
		Message:    err.Message,
		Invocation: err.Invocation,
		Details:    err.Details,
		Cause:      failureOf(err.Cause),
	}
	if err.Reason != nil {
		f.Reason = err.Reason.Error()
	}
	return f
}

// Read decodes a report written by WriteJSON.
func Read(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	if rep.Version == "" {
		return nil, fmt.Errorf("decoding report: missing version")
	}
	return &rep, nil
}

// ReadFile decodes the report stored at path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes r into dir in the given format ("json" or "text")
// and returns the file path. The name is derived from the test name
// and the execution ID.
func WriteFile(dir, format string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	ext := ".json"
	write := WriteJSON
	if format == "text" {
		ext = ".txt"
		write = WriteText
	}
	path := filepath.Join(dir, FileName(r)+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}
	if err := write(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}
	return path, nil
}

// FileName returns the base name, without extension, used by
// WriteFile.
func FileName(r *Report) string {
	id := r.ExecutionID
	if len(id) > 8 {
		id = id[:8]
	}
	if r.Test == "" {
		return "mimic-" + id
	}
	name := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			return c
		default:
			return '_'
		}
	}, r.Test)
	return name + "-" + id
}

// Failed reports whether the report carries any error.
func (r *Report) Failed() bool { return len(r.Errors) > 0 }
