package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteText writes the report as human-readable styled text to the
// writer. Output uses lipgloss for color and formatting when the
// output is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, r *Report) error {
	s := DefaultStyles()

	title := r.ExecutionID
	if r.Test != "" {
		title = r.Test
	}
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", title)))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    execution %s, phase %s", r.ExecutionID, r.Phase)))

	fmt.Fprintln(w)
	writeExpectations(w, r.Expectations, s)
	fmt.Fprintln(w)
	writeHistory(w, r.History, s)
	fmt.Fprintln(w)
	writeFailures(w, r.Errors, s)

	status := s.Pass.Render("PASS")
	if r.Failed() {
		status = s.Fail.Render("FAIL")
	}
	fmt.Fprintf(w, "\n%s %s\n", status,
		s.Header.Render(fmt.Sprintf(
			"%d expectation(s), %d call(s), %d failure(s)",
			len(r.Expectations), len(r.History), len(r.Errors))))
	return nil
}

// Budget: 80 cols total. Borders and padding take about 15 columns
// across 5 columns; the member column gets what is left.
const maxMember = 36

func writeExpectations(w io.Writer, xs []Expectation, s Styles) {
	if len(xs) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No expectations recorded."))
		return
	}
	rows := make([][]string, 0, len(xs))
	for _, x := range xs {
		strict := ""
		if x.Strict {
			strict = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(x.Index),
			truncate(member(x.Owner, x.Method, x.Arguments), maxMember),
			truncate(x.Times, 20),
			strconv.Itoa(x.Count),
			strict,
		})
	}
	fmt.Fprintln(w, newTable(s).
		Headers("#", "EXPECTATION", "TIMES", "CALLS", "STRICT").
		Rows(rows...))
}

func writeHistory(w io.Writer, calls []Call, s Styles) {
	if len(calls) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No calls replayed."))
		return
	}
	rows := make([][]string, 0, len(calls))
	for _, c := range calls {
		exp := "-"
		if c.Expectation >= 0 {
			exp = strconv.Itoa(c.Expectation)
		}
		verified := ""
		if c.Verified {
			verified = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Position),
			truncate(member(c.Owner, c.Method, c.Arguments), maxMember+6),
			exp,
			verified,
		})
	}
	fmt.Fprintln(w, newTable(s).
		Headers("POS", "CALL", "EXP", "VERIFIED").
		Rows(rows...))
}

func writeFailures(w io.Writer, fs []Failure, s Styles) {
	if len(fs) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No mocking failures."))
		return
	}
	for i := range fs {
		depth := 0
		for c := &fs[i]; c != nil; c = c.Cause {
			indent := strings.Repeat("  ", depth+2)
			fmt.Fprintf(w, "%s%s %s\n", indent,
				s.KindStyle(c.Kind).Render(c.Kind),
				truncate(c.Message, 70-len(indent)-len(c.Kind)))
			if c.Invocation != "" {
				for _, line := range strings.Split(c.Invocation, "\n") {
					fmt.Fprintf(w, "%s  %s\n", indent, truncate(line, 76-len(indent)))
				}
			}
			for _, d := range c.Details {
				fmt.Fprintf(w, "%s  %s\n", indent, s.Muted.Render(truncate(d, 76-len(indent))))
			}
			depth++
		}
	}
}

func newTable(s Styles) *table.Table {
	return table.New().
		Width(76). // Leave 4 chars for left indent.
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return s.TableCell
		})
}

func member(owner, method, args string) string {
	name := method
	if i := strings.IndexByte(method, '('); i >= 0 {
		name = method[:i]
	}
	return fmt.Sprintf("%s#%s(%s)", owner, name, args)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
