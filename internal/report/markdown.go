package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/torctl/internal/model"
)

// MarkdownWriter renders a status snapshot as Markdown, for
// documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the snapshot as Markdown.
func (w *MarkdownWriter) Write(report *model.StatusReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Tor Daemon Status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Control port", "`" + report.ControlAddress + "`"},
			{"Version", report.TorVersion},
			{"Network liveness", report.Liveness},
			{"Bytes read", strconv.FormatInt(report.TrafficRead, 10)},
			{"Bytes written", strconv.FormatInt(report.TrafficWritten, 10)},
			{"Gathered at", report.GatheredAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	if report.SocksStatus != "" {
		md.H2("SOCKS Proxy")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Address", "Status"},
			Rows: [][]string{
				{"`" + report.SocksAddress + "`", report.SocksStatus},
			},
		})
		md.PlainText("")
	}

	md.H2("Circuits")
	md.PlainText("")
	if len(report.Circuits) == 0 {
		md.PlainText("No circuits are currently open.")
	} else {
		rows := make([][]string, 0, len(report.Circuits))
		for _, c := range report.Circuits {
			rows = append(rows, []string{c.ID, c.Status, c.Path})
		}
		md.Table(markdown.TableSet{
			Header: []string{"ID", "Status", "Path"},
			Rows:   rows,
		})
	}

	return len(md.String()), md.Build()
}
