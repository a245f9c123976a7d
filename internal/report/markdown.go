package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/youpower/greenbutton/internal/model"
)

// MarkdownWriter outputs reports in GitHub flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeAlert(md, run)
	w.writeSteps(md, run)
	w.writeFiles(md, run)
	w.writeStages(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the run history as a table with an outcome chart.
func (w *MarkdownWriter) WriteHistory(runs []model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Green Button Download History")
	md.PlainText("")

	if len(runs) == 0 {
		md.Note("No runs recorded yet.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	var succeeded uint64
	for i, r := range runs {
		if r.Success {
			succeeded++
		}
		rows[i] = []string{
			r.StartedAt.Format(timeLayout),
			r.Range.String(),
			statusText(r.Success),
			stageTitle(r.Stage),
			strconv.Itoa(r.Files),
			"`" + r.ID + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Range", "Status", "Furthest Stage", "Files", "Run"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Run Outcomes"),
		piechart.WithShowData(true),
	)
	if succeeded > 0 {
		chart.LabelAndIntValue("Success", succeeded)
	}
	if failed := uint64(len(runs)) - succeeded; failed > 0 {
		chart.LabelAndIntValue("Failed", failed)
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Green Button Download Report")
	md.PlainText("")

	rows := [][]string{
		{"Run", "`" + run.ID + "`"},
		{"Flow", run.Flow},
		{"Date Range", run.Range.FormatStart() + " to " + run.Range.FormatEnd()},
		{"Download Directory", "`" + run.DownloadDir + "`"},
		{"Started", run.StartedAt.Format(timeLayout)},
		{"Finished", finishedAt(run)},
		{"Progress", strconv.Itoa(run.Progress.Percent()) + "%"},
		{"Furthest Stage", stageTitle(run.Stage)},
		{"Status", statusText(run.Success)},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch {
	case run.Success && len(run.Downloads) == 0:
		md.Warningf("%s No file appeared in the download directory before the timeout.", run.Message)
	case run.Success:
		md.Tip(run.Message)
	case run.ErrorMessage != "":
		md.Cautionf("%s (%s)", run.Message, run.ErrorMessage)
	default:
		md.Cautionf("%s", orDash(run.Message))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, run *model.Run) {
	md.H2("Steps")
	md.PlainText("")

	if len(run.Steps) == 0 {
		md.PlainText("No steps were executed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		rows[i] = []string{
			stepTitle(s.Name),
			string(s.Status),
			orDash(truncateString(s.Locator, 60)),
			orDash(truncateString(s.Detail, 60)),
			s.Duration.String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Status", "Matched", "Detail", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, run *model.Run) {
	if len(run.Downloads) == 0 && len(run.Screenshots) == 0 {
		return
	}

	md.H2("Files")
	md.PlainText("")

	if len(run.Downloads) > 0 {
		rows := make([][]string, len(run.Downloads))
		for i, f := range run.Downloads {
			rows[i] = []string{"`" + f.Name + "`", humanSize(f.Size), orDash(f.SHA3)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"File", "Size", "SHA3-256"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(run.Screenshots) > 0 {
		md.PlainText("Screenshots:")
		md.PlainText("")
		md.BulletList(run.Screenshots...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeStages(md *markdown.Markdown, run *model.Run) {
	if len(run.Transitions) == 0 {
		return
	}

	items := make([]string, len(run.Transitions))
	for i, t := range run.Transitions {
		items[i] = t.At.Format("15:04:05.000") + " " + stageTitle(t.Stage)
	}
	md.PlainText("")
	md.Details("Stage transitions", strings.Join(items, "<br>"))
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by greenbutton*")
}

func statusText(success bool) string {
	if success {
		return "✅ Success"
	}
	return "❌ Failed"
}
