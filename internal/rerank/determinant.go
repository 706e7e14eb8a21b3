package rerank

import "math"

// Determinant computes the determinant of a square matrix via LU
// decomposition with partial pivoting. The regularization term is added to
// the diagonal of an internal copy, never to the caller's matrix. Singular
// matrices yield 0 and non-finite results are guarded to 0, so callers
// always receive a finite value.
func Determinant(matrix [][]float64, regularization float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 1.0
	}

	lu := make([][]float64, n)
	for i := range matrix {
		if len(matrix[i]) != n {
			return 0.0
		}
		lu[i] = make([]float64, n)
		copy(lu[i], matrix[i])
		lu[i][i] += regularization
	}

	det := 1.0
	for col := 0; col < n; col++ {
		// Partial pivot: largest absolute value in the column.
		pivot := col
		maxAbs := math.Abs(lu[col][col])
		for row := col + 1; row < n; row++ {
			if a := math.Abs(lu[row][col]); a > maxAbs {
				maxAbs = a
				pivot = row
			}
		}
		if maxAbs == 0 {
			return 0.0
		}
		if pivot != col {
			lu[pivot], lu[col] = lu[col], lu[pivot]
			det = -det
		}

		det *= lu[col][col]
		for row := col + 1; row < n; row++ {
			factor := lu[row][col] / lu[col][col]
			for c := col; c < n; c++ {
				lu[row][c] -= factor * lu[col][c]
			}
		}
	}

	if math.IsNaN(det) || math.IsInf(det, 0) {
		return 0.0
	}
	return det
}
