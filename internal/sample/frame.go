package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ToMatrix stacks the value series of every variable, in problem order, into
// a dense matrix. Axis 0 gives one row per variable (num_vars x n_sample);
// axis 1, or -1, gives one row per set (n_sample x num_vars).
func (b *Batch) ToMatrix(axis int) (*mat.Dense, error) {
	if b.nSample == 0 {
		return nil, &RangeError{Op: "to_matrix", Reason: "batch is empty"}
	}

	nv := len(b.series)
	switch axis {
	case 0:
		m := mat.NewDense(nv, b.nSample, nil)
		for v, s := range b.series {
			m.SetRow(v, s.Values)
		}
		return m, nil
	case 1, -1:
		m := mat.NewDense(b.nSample, nv, nil)
		for v, s := range b.series {
			m.SetCol(v, s.Values)
		}
		return m, nil
	}
	return nil, &RangeError{Op: "to_matrix", Reason: fmt.Sprintf("axis %d out of range for a 2-dimensional result", axis)}
}

// Frame is a row-per-set, column-per-variable view of a batch.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// ToFrame returns the tabular view of the batch, columns in problem order.
func (b *Batch) ToFrame() *Frame {
	f := &Frame{
		Columns: b.problem.Names(),
		Rows:    make([][]float64, b.nSample),
	}
	for k := range b.nSample {
		row := make([]float64, len(b.series))
		for v, s := range b.series {
			row[v] = s.Values[k]
		}
		f.Rows[k] = row
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	j := slices.Index(f.Columns, name)
	if j < 0 {
		return nil, false
	}
	col := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		col[i] = row[j]
	}
	return col, true
}

// WriteCSV writes the frame with a header row and a leading index column.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, f.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(f.Columns)+1)
	for i, row := range f.Rows {
		record[0] = strconv.Itoa(i)
		for j, v := range row {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
