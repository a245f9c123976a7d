package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/youpower/greenbutton/internal/model"
)

// Writer writes run reports in one output format.
type Writer interface {
	// Write outputs the report of a single run.
	Write(run *model.Run) (int, error)

	// WriteHistory outputs a run history listing, newest first.
	WriteHistory(runs []model.RunSummary) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run report to all configured Writers.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(run) })
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []model.RunSummary) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(runs) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for every timestamp in text and Markdown reports.
const timeLayout = "2006-01-02 15:04:05 MST"

var titleCaser = cases.Title(language.English)

// stageTitle returns a display title such as "Export Panel Open".
func stageTitle(s model.Stage) string {
	return titleCaser.String(strings.ReplaceAll(s.String(), "_", " "))
}

// stepTitle returns a display title for a step name such as
// "green_button".
func stepTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// outcome returns "Success" or "Failed".
func outcome(success bool) string {
	if success {
		return "Success"
	}
	return "Failed"
}

// finishedAt formats the finish time, or "-" while running.
func finishedAt(run *model.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return run.FinishedAt.Format(timeLayout)
}

// humanSize formats a byte count with a binary unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
