// Package normalize holds per-sample transformations of assay quantitations,
// for use with Container.Transform. NaN values are carried through and are
// ignored when computing sample statistics.
package normalize

import (
	"fmt"
	"math"

	"github.com/carbocation/qfeatures/assay"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Log takes the logarithm of every value in the given base. Values that are
// zero or negative become NaN.
func Log(base float64) func(*assay.Assay) (*mat.Dense, error) {
	return func(a *assay.Assay) (*mat.Dense, error) {
		if base <= 0 || base == 1 {
			return nil, fmt.Errorf("invalid log base %v", base)
		}
		m := a.Matrix()
		if m == nil {
			return nil, nil
		}
		div := math.Log(base)
		m.Apply(func(i, j int, v float64) float64 {
			if math.IsNaN(v) || v <= 0 {
				return math.NaN()
			}
			return math.Log(v) / div
		}, m)
		return m, nil
	}
}

func observed(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Sweep applies op(value, stats[j]) to every value of sample j, where stats
// holds one statistic per sample.
func Sweep(a *assay.Assay, stats []float64, op func(v, s float64) float64) (*mat.Dense, error) {
	if len(stats) != a.NCol() {
		return nil, fmt.Errorf("sweep needs %d statistics, got %d", a.NCol(), len(stats))
	}
	m := a.Matrix()
	if m == nil {
		return nil, nil
	}
	m.Apply(func(i, j int, v float64) float64 { return op(v, stats[j]) }, m)
	return m, nil
}

func perSample(a *assay.Assay, f func(x []float64) float64) []float64 {
	out := make([]float64, a.NCol())
	for j := range out {
		x := observed(a.Col(j))
		if len(x) == 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = f(x)
	}
	return out
}

func subtract(v, s float64) float64 { return v - s }
func divide(v, s float64) float64   { return v / s }

func median(x []float64) float64 {
	m, err := stats.Median(x)
	if err != nil {
		return math.NaN()
	}
	return m
}

// CenterMedian subtracts each sample's median.
func CenterMedian(a *assay.Assay) (*mat.Dense, error) {
	return Sweep(a, perSample(a, median), subtract)
}

// CenterMean subtracts each sample's mean.
func CenterMean(a *assay.Assay) (*mat.Dense, error) {
	return Sweep(a, perSample(a, func(x []float64) float64 { return stat.Mean(x, nil) }), subtract)
}

// Scale divides each sample by its standard deviation.
func Scale(a *assay.Assay) (*mat.Dense, error) {
	return Sweep(a, perSample(a, func(x []float64) float64 { return stat.StdDev(x, nil) }), divide)
}

// Total divides each sample by the sum of its values, so that each sample's
// observed values sum to 1.
func Total(a *assay.Assay) (*mat.Dense, error) {
	return Sweep(a, perSample(a, floats.Sum), divide)
}

// Methods maps command-line names to normalisations.
var Methods = map[string]func(*assay.Assay) (*mat.Dense, error){
	"log2":          Log(2),
	"log10":         Log(10),
	"center.median": CenterMedian,
	"center.mean":   CenterMean,
	"scale":         Scale,
	"div.total":     Total,
}
