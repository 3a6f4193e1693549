package report

import (
	"io"

	"github.com/nao1215/torctl/internal/model"
)

// Writer renders a status snapshot to some destination.
type Writer interface {
	// Write outputs the report. It returns the number of bytes
	// written and any error encountered.
	Write(report *model.StatusReport) (int, error)
}

// baseWriter provides the output destination shared by the writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter wraps the destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
