package reduce

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

const (
	medianPolishMaxIter = 10
	medianPolishEps     = 0.01
)

// MedianPolish fits Tukey's additive model (overall + row + column effects)
// to the group by alternately sweeping out row and column medians, and
// returns overall + column effect for each sample. This is the usual robust
// summary of peptide intensities into a protein row. With naRm, NaN cells are
// ignored while computing medians; otherwise any NaN makes the whole result
// NaN.
func MedianPolish(naRm bool) Func {
	return func(rows [][]float64) ([]float64, error) {
		if len(rows) == 0 {
			return nil, fmt.Errorf("cannot reduce an empty group")
		}
		nr, nc := len(rows), len(rows[0])

		z := make([][]float64, nr)
		for i, row := range rows {
			if len(row) != nc {
				return nil, fmt.Errorf("ragged group: row has %d values, expected %d", len(row), nc)
			}
			for _, v := range row {
				if math.IsNaN(v) && !naRm {
					return nanRow(nc), nil
				}
			}
			z[i] = append([]float64(nil), row...)
		}

		t := 0.0
		r := make([]float64, nr)
		c := make([]float64, nc)
		oldsum := 0.0

		for iter := 0; iter < medianPolishMaxIter; iter++ {
			// Rows
			for i := range z {
				delta := medianOf(z[i])
				if math.IsNaN(delta) {
					continue
				}
				for j := range z[i] {
					z[i][j] -= delta
				}
				r[i] += delta
			}
			if delta := medianOf(c); !math.IsNaN(delta) {
				for j := range c {
					c[j] -= delta
				}
				t += delta
			}

			// Columns
			col := make([]float64, nr)
			for j := 0; j < nc; j++ {
				for i := range z {
					col[i] = z[i][j]
				}
				delta := medianOf(col)
				if math.IsNaN(delta) {
					continue
				}
				for i := range z {
					z[i][j] -= delta
				}
				c[j] += delta
			}
			if delta := medianOf(r); !math.IsNaN(delta) {
				for i := range r {
					r[i] -= delta
				}
				t += delta
			}

			newsum := 0.0
			for i := range z {
				for _, v := range z[i] {
					if !math.IsNaN(v) {
						newsum += math.Abs(v)
					}
				}
			}
			converged := newsum == 0 || math.Abs(newsum-oldsum) < medianPolishEps*newsum
			oldsum = newsum
			if converged {
				break
			}
		}

		out := make([]float64, nc)
		for j := range out {
			out[j] = t + c[j]
			if allNaN(rows, j) {
				out[j] = math.NaN()
			}
		}
		return out, nil
	}
}

// medianOf ignores NaN and returns NaN when nothing remains.
func medianOf(x []float64) float64 {
	clean := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	m, err := stats.Median(clean)
	if err != nil {
		return math.NaN()
	}
	return m
}

func allNaN(rows [][]float64, j int) bool {
	for _, row := range rows {
		if !math.IsNaN(row[j]) {
			return false
		}
	}
	return true
}

func nanRow(n int) []float64 {
	out := make([]float64, n)
	for j := range out {
		out[j] = math.NaN()
	}
	return out
}
