// Package report delivers the results of a run: the elapsed time to a primary
// channel and the ordered log lines to a secondary one.
package report

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/snapbench/eventlog"
)

// A Sink receives the results of a run.
type Sink interface {
	// WriteElapsed reports the total wall-clock time of the run.
	WriteElapsed(elapsed time.Duration) error

	// WriteLines reports the log lines, already in their final order.
	WriteLines(lines []string) error
}

// WriterSink writes the elapsed seconds to Primary and the lines to
// Secondary, one per line.
type WriterSink struct {
	Primary   io.Writer
	Secondary io.Writer
}

// WriteElapsed prints the elapsed seconds followed by a newline.
func (s WriterSink) WriteElapsed(elapsed time.Duration) error {
	_, err := io.WriteString(s.Primary, eventlog.FormatSeconds(elapsed)+"\n")

	return errors.Wrap(err, "writing elapsed time")
}

// WriteLines prints every line followed by a newline.
func (s WriterSink) WriteLines(lines []string) error {
	w := bufio.NewWriter(s.Secondary)

	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return errors.Wrap(err, "writing log lines")
		}

		if err := w.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "writing log lines")
		}
	}

	return errors.Wrap(w.Flush(), "writing log lines")
}

// FileSink is a WriterSink whose secondary channel is a file.
type FileSink struct {
	WriterSink

	file *os.File
}

// NewFileSink creates, or truncates, the file at path.
func NewFileSink(primary io.Writer, path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating output file %s", path)
	}

	return &FileSink{
		WriterSink: WriterSink{Primary: primary, Secondary: f},
		file:       f,
	}, nil
}

// Close closes the output file.
func (s *FileSink) Close() error {
	return s.file.Close()
}
