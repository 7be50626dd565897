package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-dataset/internal/frame"
)

const datasetTable = "dataset"

// DuckDBWriter loads the dataset into an in-memory DuckDB table and exports it as Parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	sq         squirrel.StatementBuilderType
	columns    []string
	outputPath string // Path of the final Parquet file
}

// NewDuckDBWriter creates a new DuckDBWriter.
// outputPath specifies where the final Parquet file will be saved.
func NewDuckDBWriter(outputPath string) DatasetWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Initialize opens an in-memory database, creates the dataset table with one DOUBLE
// column per series and begins a transaction.
func (w *DuckDBWriter) Initialize(columns []string) (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	definitions := make([]string, 0, len(columns)+1)
	definitions = append(definitions, quoteIdent(DateColumn)+" DATE")

	w.columns = make([]string, 0, len(columns)+1)
	w.columns = append(w.columns, quoteIdent(DateColumn))

	for _, column := range columns {
		definitions = append(definitions, quoteIdent(column)+" DOUBLE")
		w.columns = append(w.columns, quoteIdent(column))
	}

	_, err = w.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", datasetTable, strings.Join(definitions, ", ")))
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to create table: %w", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	return nil
}

// Write inserts one row inside the open transaction. Absent cells become NULL.
func (w *DuckDBWriter) Write(date time.Time, cells []frame.Cell) error {
	if w.tx == nil {
		return fmt.Errorf("writer not initialized or transaction is nil")
	}

	if len(cells)+1 != len(w.columns) {
		return fmt.Errorf("expected %d cells, got %d", len(w.columns)-1, len(cells))
	}

	values := make([]interface{}, 0, len(w.columns))
	values = append(values, date)

	for _, cell := range cells {
		if cell.IsNone() {
			values = append(values, nil)

			continue
		}

		values = append(values, cell.Unwrap())
	}

	_, err := w.sq.Insert(datasetTable).
		Columns(w.columns...).
		Values(values...).
		RunWith(w.tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the table to a Parquet file.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", fmt.Errorf("writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		_ = w.tx.Rollback()
		w.tx = nil

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil // Transaction is finished

	if dir := filepath.Dir(w.outputPath); dir != "" {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := strings.ReplaceAll(w.outputPath, "'", "''")

	_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM %s ORDER BY %s) TO '%s' (FORMAT PARQUET)`, datasetTable, quoteIdent(DateColumn), path))
	if err != nil {
		return "", fmt.Errorf("failed to export to Parquet: %w", err)
	}

	return w.outputPath, nil
}

// Close rolls back any open transaction and closes the database connection.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	// If transaction is still active (e.g., Finalize wasn't called or failed), rollback
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to rollback transaction: %w", err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close db connection: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		errMsg := "errors occurred during close:"
		for _, e := range closeErrors {
			errMsg += fmt.Sprintf("\n- %v", e)
		}

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
