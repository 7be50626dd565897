package frame

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dataset/internal/types"
	"github.com/rxtech-lab/argo-dataset/pkg/errors"
)

// Cell is one value of the table. None means the series reported nothing for that date.
type Cell = optional.Option[float64]

// Frame is a date-indexed table with one column per series.
// Rows are sorted by ascending date and every date appears once.
// Operations never mutate their receiver; they return a new Frame.
type Frame struct {
	dates   []time.Time
	columns []string
	// cells[row][column]
	cells [][]Cell
	// index maps a column name to its position in columns
	index map[string]int
}

// ColumnCount pairs a column with a count, used for missing-value summaries.
type ColumnCount struct {
	Column string
	Count  int
}

// Empty returns a frame with no rows and no columns.
func Empty() *Frame {
	return &Frame{
		dates:   nil,
		columns: nil,
		cells:   nil,
		index:   map[string]int{},
	}
}

// FromSeries builds a one-column frame named after the series.
func FromSeries(series types.Series) *Frame {
	f := &Frame{
		dates:   make([]time.Time, 0, len(series.Observations)),
		columns: []string{series.Name},
		cells:   make([][]Cell, 0, len(series.Observations)),
		index:   map[string]int{series.Name: 0},
	}

	normalized := types.NewSeries(series.Name, series.Observations)
	for _, obs := range normalized.Observations {
		f.dates = append(f.dates, obs.Date)
		f.cells = append(f.cells, []Cell{obs.Value})
	}

	return f
}

// Join outer-joins frames on date. The resulting rows are the union of all input
// dates and the columns are the input columns in argument order. Cells for dates a
// frame does not cover are None. A column name that appears in more than one input
// is rejected.
func Join(frames ...*Frame) (*Frame, error) {
	out := Empty()

	for _, f := range frames {
		for _, column := range f.columns {
			if _, exists := out.index[column]; exists {
				return nil, errors.NewColumnError(errors.ErrCodeDuplicateColumn, column, "column appears in more than one joined frame")
			}

			out.index[column] = len(out.columns)
			out.columns = append(out.columns, column)
		}
	}

	rowOf := make(map[time.Time]int)

	for _, f := range frames {
		for _, date := range f.dates {
			if _, ok := rowOf[date]; !ok {
				rowOf[date] = len(out.dates)
				out.dates = append(out.dates, date)
			}
		}
	}

	sort.Slice(out.dates, func(i, j int) bool {
		return out.dates[i].Before(out.dates[j])
	})

	for i, date := range out.dates {
		rowOf[date] = i
	}

	out.cells = make([][]Cell, len(out.dates))
	for i := range out.cells {
		out.cells[i] = make([]Cell, len(out.columns))
	}

	for _, f := range frames {
		for r, date := range f.dates {
			row := rowOf[date]
			for c, column := range f.columns {
				out.cells[row][out.index[column]] = f.cells[r][c]
			}
		}
	}

	return out, nil
}

// Rename changes the name of a column.
func (f *Frame) Rename(from, to string) (*Frame, error) {
	idx, ok := f.index[from]
	if !ok {
		return nil, errors.NewColumnError(errors.ErrCodeColumnNotFound, from, "cannot rename unknown column")
	}

	if from == to {
		return f.clone(), nil
	}

	if _, exists := f.index[to]; exists {
		return nil, errors.NewColumnError(errors.ErrCodeDuplicateColumn, to, "rename target already exists")
	}

	out := f.clone()
	out.columns[idx] = to
	delete(out.index, from)
	out.index[to] = idx

	return out, nil
}

// DropMissing keeps only the rows where column has a value.
func (f *Frame) DropMissing(column string) (*Frame, error) {
	idx, ok := f.index[column]
	if !ok {
		return nil, errors.NewColumnError(errors.ErrCodeColumnNotFound, column, "cannot filter on unknown column")
	}

	out := f.shell()

	for r, row := range f.cells {
		if row[idx].IsNone() {
			continue
		}

		out.dates = append(out.dates, f.dates[r])
		out.cells = append(out.cells, copyRow(row))
	}

	return out, nil
}

// ForwardFill replaces each None cell with the most recent earlier value of the same
// column. Cells before the first value of a column stay None.
func (f *Frame) ForwardFill() *Frame {
	out := f.clone()
	last := make([]Cell, len(out.columns))

	for _, row := range out.cells {
		for c := range row {
			if row[c].IsSome() {
				last[c] = row[c]

				continue
			}

			if last[c].IsSome() {
				row[c] = last[c]
			}
		}
	}

	return out
}

// MissingCounts returns the number of None cells per column, in column order.
func (f *Frame) MissingCounts() []ColumnCount {
	counts := make([]ColumnCount, len(f.columns))
	for c, column := range f.columns {
		counts[c].Column = column
	}

	for _, row := range f.cells {
		for c, cell := range row {
			if cell.IsNone() {
				counts[c].Count++
			}
		}
	}

	return counts
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.dates)
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Dates returns a copy of the row dates in order.
func (f *Frame) Dates() []time.Time {
	return append([]time.Time(nil), f.dates...)
}

// HasColumn reports whether the frame has the named column.
func (f *Frame) HasColumn(column string) bool {
	_, ok := f.index[column]

	return ok
}

// Row returns a copy of the cells of row i in column order.
func (f *Frame) Row(i int) []Cell {
	return copyRow(f.cells[i])
}

// Value returns the cell at row i of the named column.
func (f *Frame) Value(i int, column string) (Cell, error) {
	idx, ok := f.index[column]
	if !ok {
		return nil, errors.NewColumnError(errors.ErrCodeColumnNotFound, column, "unknown column")
	}

	return f.cells[i][idx], nil
}

// Column returns the column as a series. Rows without a value are kept as None
// observations.
func (f *Frame) Column(column string) (types.Series, error) {
	idx, ok := f.index[column]
	if !ok {
		return types.Series{}, errors.NewColumnError(errors.ErrCodeColumnNotFound, column, "unknown column")
	}

	observations := make([]types.Observation, len(f.dates))
	for r, date := range f.dates {
		observations[r] = types.Observation{Date: date, Value: f.cells[r][idx]}
	}

	return types.Series{Name: column, Observations: observations}, nil
}

// shell copies the column layout without any rows.
func (f *Frame) shell() *Frame {
	index := make(map[string]int, len(f.index))
	for k, v := range f.index {
		index[k] = v
	}

	return &Frame{
		dates:   make([]time.Time, 0, len(f.dates)),
		columns: append([]string(nil), f.columns...),
		cells:   make([][]Cell, 0, len(f.cells)),
		index:   index,
	}
}

func (f *Frame) clone() *Frame {
	out := f.shell()
	out.dates = append(out.dates, f.dates...)

	for _, row := range f.cells {
		out.cells = append(out.cells, copyRow(row))
	}

	return out
}

func copyRow(row []Cell) []Cell {
	// Option is a slice, so each present cell is copied to avoid sharing backing arrays.
	out := make([]Cell, len(row))
	for i, cell := range row {
		if cell.IsSome() {
			out[i] = optional.Some(cell.Unwrap())
		}
	}

	return out
}
