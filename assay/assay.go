// Package assay holds a single quantitative matrix together with the
// metadata describing its rows (features) and columns (samples).
package assay

import (
	"math"

	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
	"gonum.org/v1/gonum/mat"
)

// Assay is immutable. Missing quantitations are NaN.
type Assay struct {
	rowIDs   []string
	colIDs   []string
	rowIndex map[string]int
	colIndex map[string]int

	// Row-major, len(rowIDs)*len(colIDs). gonum refuses zero-sized dense
	// matrices, and filtered assays may legitimately have no rows.
	values []float64

	rowData *table.Table
	colData *table.Table
}

// New builds an assay from one slice per row. rowData and colData may be nil,
// in which case empty tables of the right height are used.
func New(rowIDs, colIDs []string, rows [][]float64, rowData, colData *table.Table) (*Assay, error) {
	if len(rows) != len(rowIDs) {
		return nil, &errs.ShapeMismatchError{What: "matrix rows", Got: len(rows), Want: len(rowIDs)}
	}
	values := make([]float64, 0, len(rowIDs)*len(colIDs))
	for _, row := range rows {
		if len(row) != len(colIDs) {
			return nil, &errs.ShapeMismatchError{What: "matrix columns", Got: len(row), Want: len(colIDs)}
		}
		values = append(values, row...)
	}
	return build(rowIDs, colIDs, values, rowData, colData)
}

// FromMatrix builds an assay from a gonum matrix.
func FromMatrix(rowIDs, colIDs []string, m mat.Matrix, rowData, colData *table.Table) (*Assay, error) {
	r, c := m.Dims()
	if r != len(rowIDs) {
		return nil, &errs.ShapeMismatchError{What: "matrix rows", Got: r, Want: len(rowIDs)}
	}
	if c != len(colIDs) {
		return nil, &errs.ShapeMismatchError{What: "matrix columns", Got: c, Want: len(colIDs)}
	}
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			values = append(values, m.At(i, j))
		}
	}
	return build(rowIDs, colIDs, values, rowData, colData)
}

func build(rowIDs, colIDs []string, values []float64, rowData, colData *table.Table) (*Assay, error) {
	if rowData == nil {
		rowData = table.Empty(len(rowIDs))
	}
	if colData == nil {
		colData = table.Empty(len(colIDs))
	}
	if rowData.NRow() != len(rowIDs) {
		return nil, &errs.ShapeMismatchError{What: "row metadata", Got: rowData.NRow(), Want: len(rowIDs)}
	}
	if colData.NRow() != len(colIDs) {
		return nil, &errs.ShapeMismatchError{What: "column metadata", Got: colData.NRow(), Want: len(colIDs)}
	}

	rowIndex, err := indexOf("row", rowIDs)
	if err != nil {
		return nil, err
	}
	colIndex, err := indexOf("sample", colIDs)
	if err != nil {
		return nil, err
	}

	return &Assay{
		rowIDs:   append([]string(nil), rowIDs...),
		colIDs:   append([]string(nil), colIDs...),
		rowIndex: rowIndex,
		colIndex: colIndex,
		values:   values,
		rowData:  rowData,
		colData:  colData,
	}, nil
}

func indexOf(kind string, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, exists := out[id]; exists {
			return nil, &errs.DuplicateNameError{Kind: kind, Name: id}
		}
		out[id] = i
	}
	return out, nil
}

func (a *Assay) Dims() (rows, cols int) { return len(a.rowIDs), len(a.colIDs) }
func (a *Assay) NRow() int              { return len(a.rowIDs) }
func (a *Assay) NCol() int              { return len(a.colIDs) }

func (a *Assay) RowIDs() []string { return append([]string(nil), a.rowIDs...) }
func (a *Assay) ColIDs() []string { return append([]string(nil), a.colIDs...) }
func (a *Assay) RowID(i int) string {
	return a.rowIDs[i]
}

func (a *Assay) RowIndex(id string) (int, bool) {
	i, ok := a.rowIndex[id]
	return i, ok
}

func (a *Assay) ColIndex(id string) (int, bool) {
	j, ok := a.colIndex[id]
	return j, ok
}

func (a *Assay) RowData() *table.Table { return a.rowData }
func (a *Assay) ColData() *table.Table { return a.colData }

func (a *Assay) At(i, j int) float64 {
	return a.values[i*len(a.colIDs)+j]
}

// Row returns a copy of row i.
func (a *Assay) Row(i int) []float64 {
	n := len(a.colIDs)
	return append([]float64(nil), a.values[i*n:(i+1)*n]...)
}

// Col returns a copy of column j.
func (a *Assay) Col(j int) []float64 {
	out := make([]float64, len(a.rowIDs))
	for i := range out {
		out[i] = a.At(i, j)
	}
	return out
}

// Values returns a copy of every quantitation in row-major order.
func (a *Assay) Values() []float64 {
	return append([]float64(nil), a.values...)
}

// Matrix returns a copy of the quantitations as a gonum matrix, or nil when
// the assay has no rows or no columns.
func (a *Assay) Matrix() *mat.Dense {
	if len(a.rowIDs) == 0 || len(a.colIDs) == 0 {
		return nil
	}
	return mat.NewDense(len(a.rowIDs), len(a.colIDs), a.Values())
}

// Subset returns a new assay with the rows at idx, in that order.
func (a *Assay) Subset(idx []int) *Assay {
	n := len(a.colIDs)
	ids := make([]string, len(idx))
	values := make([]float64, 0, len(idx)*n)
	for k, i := range idx {
		ids[k] = a.rowIDs[i]
		values = append(values, a.values[i*n:(i+1)*n]...)
	}

	rowIndex := make(map[string]int, len(ids))
	for k, id := range ids {
		rowIndex[id] = k
	}

	return &Assay{
		rowIDs:   ids,
		colIDs:   a.colIDs,
		rowIndex: rowIndex,
		colIndex: a.colIndex,
		values:   values,
		rowData:  a.rowData.Subset(idx),
		colData:  a.colData,
	}
}

// WithValues returns a copy of a carrying new quantitations of the same
// shape. A nil matrix is accepted only for an empty assay.
func (a *Assay) WithValues(m mat.Matrix) (*Assay, error) {
	if m == nil {
		if len(a.values) != 0 {
			return nil, &errs.ShapeMismatchError{What: "matrix rows", Got: 0, Want: len(a.rowIDs)}
		}
		return a, nil
	}
	return FromMatrix(a.rowIDs, a.colIDs, m, a.rowData, a.colData)
}

// WithRowData returns a copy of a with its row metadata replaced.
func (a *Assay) WithRowData(t *table.Table) (*Assay, error) {
	if t.NRow() != len(a.rowIDs) {
		return nil, &errs.ShapeMismatchError{What: "row metadata", Got: t.NRow(), Want: len(a.rowIDs)}
	}
	out := *a
	out.rowData = t
	return &out, nil
}

// WithColData returns a copy of a with its column metadata replaced.
func (a *Assay) WithColData(t *table.Table) (*Assay, error) {
	if t.NRow() != len(a.colIDs) {
		return nil, &errs.ShapeMismatchError{What: "column metadata", Got: t.NRow(), Want: len(a.colIDs)}
	}
	out := *a
	out.colData = t
	return &out, nil
}

// CountNaN returns the number of missing quantitations.
func (a *Assay) CountNaN() int {
	n := 0
	for _, v := range a.values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
