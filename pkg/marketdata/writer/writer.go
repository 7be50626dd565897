package writer

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-dataset/internal/frame"
	"github.com/rxtech-lab/argo-dataset/internal/types"
)

// DateColumn is the name of the leading date column in every output.
const DateColumn = "Date"

// DatasetWriter defines the interface for writing an aligned dataset to a destination.
type DatasetWriter interface {
	// Initialize sets up the writer for the given value columns, creating tables or files.
	Initialize(columns []string) error
	// Write persists a single row. cells are in the column order given to Initialize.
	Write(date time.Time, cells []frame.Cell) error
	// Finalize completes the writing process (e.g., flushes buffers, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// WriteFrame drives a writer through its whole lifecycle for one frame.
// The writer is always closed; a close error is reported only if nothing else failed.
func WriteFrame(w DatasetWriter, f *frame.Frame) (outputPath string, err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing writer: %w", cerr)
		}
	}()

	if err = w.Initialize(f.Columns()); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	dates := f.Dates()
	for i, date := range dates {
		if err = w.Write(date, f.Row(i)); err != nil {
			return "", fmt.Errorf("failed to write row %s: %w", date.Format(types.DateLayout), err)
		}
	}

	return w.Finalize()
}
