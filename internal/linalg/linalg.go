// Package linalg provides the small dense matrix routines the compensate
// and gates packages share. Matrices are row-major [][]float64 and small
// (one row per detector or gate dimension), so a plain Gauss-Jordan
// elimination with partial pivoting is all that is needed.
package linalg

import (
	"fmt"
	"math"
)

// Invert returns the inverse of the square matrix a. The input is not
// modified. A non-square or singular matrix is an error.
func Invert(a [][]float64) ([][]float64, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("linalg: empty matrix")
	}

	// Augmented [a | I] working copy.
	work := make([][]float64, n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("linalg: matrix is %dx%d, must be square", n, len(row))
		}
		work[i] = make([]float64, 2*n)
		copy(work[i], row)
		work[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		// Partial pivot: largest magnitude entry in this column.
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(work[row][col]) > math.Abs(work[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(work[pivot][col]) == 0 {
			return nil, fmt.Errorf("linalg: singular matrix")
		}
		work[col], work[pivot] = work[pivot], work[col]

		p := work[col][col]
		for j := 0; j < 2*n; j++ {
			work[col][j] /= p
		}
		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			f := work[row][col]
			if f == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				work[row][j] -= f * work[col][j]
			}
		}
	}

	inv := make([][]float64, n)
	for i := range inv {
		inv[i] = make([]float64, n)
		copy(inv[i], work[i][n:])
	}
	return inv, nil
}

// MulVec returns a * x for a square or rectangular matrix a.
func MulVec(a [][]float64, x []float64) ([]float64, error) {
	out := make([]float64, len(a))
	for i, row := range a {
		if len(row) != len(x) {
			return nil, fmt.Errorf("linalg: dimension mismatch: row %d has %d columns, vector has %d", i, len(row), len(x))
		}
		var sum float64
		for j, v := range row {
			sum += v * x[j]
		}
		out[i] = sum
	}
	return out, nil
}
