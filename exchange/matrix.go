package exchange

import "github.com/pkg/errors"

// Matrix is a row-major grid: Rows follows the server's x dimension and
// Cols its y dimension.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

func NewMatrix(rows, cols int, data []float64) (Matrix, error) {
	if rows < 0 || cols < 0 {
		return Matrix{}, errors.Errorf("negative matrix shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return Matrix{}, errors.Errorf("matrix %dx%d needs %d values, got %d", rows, cols, rows*cols, len(data))
	}
	return Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

func (m Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

func (m Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}
