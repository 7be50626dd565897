package writer

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/frame"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/shopspring/decimal"
)

// CSVWriter writes the dataset as comma separated text with a header row.
// Absent cells are written as empty fields.
type CSVWriter struct {
	outputPath string
	precision  optional.Option[int32]
	columns    int
	file       *os.File
	csv        *csv.Writer
}

// NewCSVWriter creates a CSVWriter. When precision is set values are rounded to that
// many decimal places, otherwise the shortest exact representation is used.
func NewCSVWriter(outputPath string, precision optional.Option[int32]) DatasetWriter {
	return &CSVWriter{
		outputPath: outputPath,
		precision:  precision,
	}
}

// Initialize creates (or truncates) the output file and writes the header.
func (w *CSVWriter) Initialize(columns []string) error {
	if dir := filepath.Dir(w.outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(w.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w.file = file
	w.csv = csv.NewWriter(file)
	w.columns = len(columns)

	header := append([]string{DateColumn}, columns...)
	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// Write appends one row.
func (w *CSVWriter) Write(date time.Time, cells []frame.Cell) error {
	if w.csv == nil {
		return fmt.Errorf("writer not initialized")
	}

	if len(cells) != w.columns {
		return fmt.Errorf("expected %d cells, got %d", w.columns, len(cells))
	}

	record := make([]string, 0, len(cells)+1)
	record = append(record, date.Format(types.DateLayout))

	for i, cell := range cells {
		if cell.IsSome() && (math.IsNaN(cell.Unwrap()) || math.IsInf(cell.Unwrap(), 0)) {
			return fmt.Errorf("non-finite value in column %d on %s", i, date.Format(types.DateLayout))
		}

		record = append(record, w.format(cell))
	}

	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Finalize flushes buffered records to disk.
func (w *CSVWriter) Finalize() (string, error) {
	if w.csv == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return w.outputPath, nil
}

// Close closes the output file.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	w.csv = nil

	return err
}

func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}

func (w *CSVWriter) format(cell frame.Cell) string {
	if cell.IsNone() {
		return ""
	}

	value := decimal.NewFromFloat(cell.Unwrap())
	if w.precision.IsSome() {
		return value.StringFixed(w.precision.Unwrap())
	}

	return value.String()
}
