package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/youpower/greenbutton/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds stage transitions and step timings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "GREEN BUTTON DOWNLOAD REPORT")
	w.writeSummary(&sb, run)
	w.writeSteps(&sb, run)
	w.writeDownloads(&sb, run)
	if w.verbose {
		w.writeStages(&sb, run)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs one line per run.
func (w *SimpleWriter) WriteHistory(runs []model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "DOWNLOAD HISTORY")
	if len(runs) == 0 {
		sb.WriteString("  No runs recorded\n\n")
	}
	for _, r := range runs {
		fmt.Fprintf(&sb, "  [%s] %s  %s  %-7s  %d file(s)  %s\n",
			indicator(r.Success),
			r.StartedAt.Format(timeLayout),
			r.Range,
			outcome(r.Success),
			r.Files,
			r.ID,
		)
		if !r.Success {
			fmt.Fprintf(&sb, "        stopped at %s: %s\n", stageTitle(r.Stage), r.Message)
		}
	}
	sb.WriteString("\n")
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%*s\n", 35+len(title)/2, title)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, run *model.Run) {
	fmt.Fprintf(sb, "Run:            %s\n", run.ID)
	fmt.Fprintf(sb, "Flow:           %s\n", run.Flow)
	fmt.Fprintf(sb, "Date Range:     %s to %s\n", run.Range.FormatStart(), run.Range.FormatEnd())
	fmt.Fprintf(sb, "Started:        %s\n", run.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Finished:       %s\n", finishedAt(run))
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:       %s\n", d.Round(100*time.Millisecond))
	}
	fmt.Fprintf(sb, "Progress:       %d%%\n", run.Progress.Percent())
	fmt.Fprintf(sb, "Furthest Stage: %s\n", stageTitle(run.Stage))
	fmt.Fprintf(sb, "Status:         %s\n", outcome(run.Success))
	if run.Message != "" {
		fmt.Fprintf(sb, "Message:        %s\n", run.Message)
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(sb, "Error:          %s\n", run.ErrorMessage)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSteps(sb *strings.Builder, run *model.Run) {
	if len(run.Steps) == 0 {
		return
	}

	w.writeSection(sb, "STEPS")
	for _, s := range run.Steps {
		fmt.Fprintf(sb, "  [%s] %-16s %s", stepIndicator(s.Status), stepTitle(s.Name), s.Status)
		if w.verbose {
			fmt.Fprintf(sb, " (%s)", s.Duration.Round(time.Millisecond))
		}
		sb.WriteString("\n")
		if s.Locator != "" {
			fmt.Fprintf(sb, "      Matched: %s\n", s.Locator)
		}
		if s.Detail != "" {
			fmt.Fprintf(sb, "      Detail:  %s\n", s.Detail)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDownloads(sb *strings.Builder, run *model.Run) {
	if len(run.Downloads) == 0 && len(run.Screenshots) == 0 {
		return
	}

	w.writeSection(sb, "FILES")
	for _, f := range run.Downloads {
		fmt.Fprintf(sb, "  [+] %s (%s)\n", f.Path, humanSize(f.Size))
		if f.SHA3 != "" {
			fmt.Fprintf(sb, "      SHA3-256: %s\n", f.SHA3)
		}
	}
	for _, s := range run.Screenshots {
		fmt.Fprintf(sb, "  [screenshot] %s\n", s)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeStages(sb *strings.Builder, run *model.Run) {
	if len(run.Transitions) == 0 {
		return
	}

	w.writeSection(sb, "STAGES")
	for _, t := range run.Transitions {
		fmt.Fprintf(sb, "  %s  %s\n", t.At.Format("15:04:05.000"), stageTitle(t.Stage))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func indicator(success bool) string {
	if success {
		return "+"
	}
	return "!"
}

func stepIndicator(s model.StepStatus) string {
	switch s {
	case model.StepOK:
		return "+"
	case model.StepFallback:
		return "~"
	case model.StepSkipped:
		return "-"
	case model.StepFailed:
		return "!"
	default:
		return "?"
	}
}
