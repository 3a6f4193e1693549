package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/torctl/internal/model"
)

// SimpleWriter renders a status snapshot as plain text for terminal
// display. Plain ASCII keeps the output pipeable and readable in any
// terminal.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given
// writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the snapshot as plain text.
func (w *SimpleWriter) Write(report *model.StatusReport) (int, error) {
	var b strings.Builder

	b.WriteString("Tor daemon status\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Control port:  %s\n", report.ControlAddress)
	fmt.Fprintf(&b, "Version:       %s\n", report.TorVersion)
	fmt.Fprintf(&b, "Network:       %s\n", report.Liveness)
	fmt.Fprintf(&b, "Traffic:       %d bytes read, %d bytes written\n",
		report.TrafficRead, report.TrafficWritten)
	if report.SocksStatus != "" {
		fmt.Fprintf(&b, "SOCKS (%s): %s\n", report.SocksAddress, report.SocksStatus)
	}

	b.WriteString("\nCircuits:\n")
	if len(report.Circuits) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range report.Circuits {
		if c.Path == "" {
			fmt.Fprintf(&b, "  %-4s %-10s\n", c.ID, c.Status)
			continue
		}
		fmt.Fprintf(&b, "  %-4s %-10s %s\n", c.ID, c.Status, c.Path)
	}
	fmt.Fprintf(&b, "\nGathered at %s\n", report.GatheredAt.Format("2006-01-02 15:04:05 MST"))

	return io.WriteString(w.output, b.String())
}
