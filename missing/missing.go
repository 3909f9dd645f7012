// Package missing counts, filters and imputes missing quantitations. Missing
// values are NaN throughout.
package missing

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/assay"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ZeroIsNA replaces exact zeros with NaN. Many search engines report an
// absent quantitation as 0.
func ZeroIsNA(a *assay.Assay) (*mat.Dense, error) {
	return mapValues(a, func(v float64) float64 {
		if v == 0 {
			return math.NaN()
		}
		return v
	})
}

func mapValues(a *assay.Assay, f func(float64) float64) (*mat.Dense, error) {
	m := a.Matrix()
	if m == nil {
		return nil, nil
	}
	m.Apply(func(i, j int, v float64) float64 { return f(v) }, m)
	return m, nil
}

// Counts summarises the missing values of one assay.
type Counts struct {
	Total  int
	Rows   []int // per feature
	Cols   []int // per sample
	Values int   // total cells
}

// Proportion is the share of all cells that are missing.
func (c Counts) Proportion() float64 {
	if c.Values == 0 {
		return 0
	}
	return float64(c.Total) / float64(c.Values)
}

func CountNA(a *assay.Assay) Counts {
	nr, nc := a.Dims()
	out := Counts{Rows: make([]int, nr), Cols: make([]int, nc), Values: nr * nc}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if math.IsNaN(a.At(i, j)) {
				out.Total++
				out.Rows[i]++
				out.Cols[j]++
			}
		}
	}
	return out
}

// FilterNA keeps the features of the named assay whose proportion of missing
// samples is at most pNA. pNA of 0 keeps only complete features.
func FilterNA(c *qfeatures.Container, name string, pNA float64) (*qfeatures.Container, error) {
	if pNA < 0 || pNA > 1 {
		return nil, fmt.Errorf("pNA must be between 0 and 1, got %v", pNA)
	}
	a, err := c.Assay(name)
	if err != nil {
		return nil, err
	}

	counts := CountNA(a)
	keep := make([]string, 0, a.NRow())
	for i, n := range counts.Rows {
		if a.NCol() == 0 || float64(n)/float64(a.NCol()) <= pNA {
			keep = append(keep, a.RowID(i))
		}
	}
	if len(keep) == a.NRow() {
		return c, nil
	}

	return c.SubsetRows(name, keep...)
}

// Method fills in missing values of an assay.
type Method func(a *assay.Assay) (*mat.Dense, error)

// Zero replaces missing values with 0.
func Zero(a *assay.Assay) (*mat.Dense, error) {
	return mapValues(a, func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return v
	})
}

// Min replaces missing values with the smallest value in the whole assay.
func Min(a *assay.Assay) (*mat.Dense, error) {
	lo := math.Inf(1)
	for _, v := range a.Values() {
		if !math.IsNaN(v) && v < lo {
			lo = v
		}
	}
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("assay has no values to impute from")
	}
	return mapValues(a, func(v float64) float64 {
		if math.IsNaN(v) {
			return lo
		}
		return v
	})
}

// MinDet replaces the missing values of each sample with the q'th quantile
// of that sample's observed values.
func MinDet(q float64) Method {
	return func(a *assay.Assay) (*mat.Dense, error) {
		if q < 0 || q > 1 {
			return nil, fmt.Errorf("quantile must be between 0 and 1, got %v", q)
		}
		m := a.Matrix()
		if m == nil {
			return nil, nil
		}

		fill := make([]float64, a.NCol())
		for j := range fill {
			var obs []float64
			for _, v := range a.Col(j) {
				if !math.IsNaN(v) {
					obs = append(obs, v)
				}
			}
			if len(obs) == 0 {
				fill[j] = math.NaN()
				continue
			}
			sort.Float64s(obs)
			fill[j] = stat.Quantile(q, stat.Empirical, obs, nil)
		}

		m.Apply(func(i, j int, v float64) float64 {
			if math.IsNaN(v) {
				return fill[j]
			}
			return v
		}, m)
		return m, nil
	}
}

// Methods maps command-line names to imputation methods.
var Methods = map[string]Method{
	"zero":   Zero,
	"min":    Min,
	"mindet": MinDet(0.01),
}

// Impute returns a container in which the named assay has had its missing
// values filled in by method. The assay keeps its name and links.
func Impute(c *qfeatures.Container, name string, method Method) (*qfeatures.Container, error) {
	return c.Replace(name, qfeatures.TransformFunc(method))
}
