package report

import (
	"encoding/json"
	"io"

	"github.com/youpower/greenbutton/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version is included in the run report wrapper when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the program version in run reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run with output metadata.
type JSONReport struct {
	// Version is the greenbutton version that produced the report.
	Version string `json:"version,omitempty"`

	// Summary is the history view of the run.
	Summary model.RunSummary `json:"summary"`

	// Run is the full run record.
	Run *model.Run `json:"run"`
}

// JSONHistory wraps a history listing.
type JSONHistory struct {
	Version string             `json:"version,omitempty"`
	Count   int                `json:"count"`
	Runs    []model.RunSummary `json:"runs"`
}

// Write outputs the run wrapped in a JSONReport.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(JSONReport{
		Version: w.version,
		Summary: run.Summary(),
		Run:     run,
	})
}

// WriteHistory outputs the listing wrapped in a JSONHistory.
func (w *JSONWriter) WriteHistory(runs []model.RunSummary) (int, error) {
	if runs == nil {
		runs = []model.RunSummary{}
	}
	return w.writeJSON(JSONHistory{Version: w.version, Count: len(runs), Runs: runs})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
