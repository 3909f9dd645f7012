// Package reduce provides the functions that collapse a group of feature rows
// into a single aggregated row.
package reduce

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// Func maps a non-empty, ordered group of rows (each one value per sample)
// onto a single row of the same width. How NaN is treated is up to the
// function.
type Func func(rows [][]float64) ([]float64, error)

// ColumnWise lifts a function over one sample's values into a Func applied
// independently to every sample column. When naRm is true, NaN values are
// dropped before f sees them and a column with no remaining values yields
// NaN; otherwise any NaN in a column makes the result NaN.
func ColumnWise(f func([]float64) (float64, error), naRm bool) Func {
	return func(rows [][]float64) ([]float64, error) {
		if len(rows) == 0 {
			return nil, fmt.Errorf("cannot reduce an empty group")
		}
		width := len(rows[0])
		out := make([]float64, width)
		col := make([]float64, 0, len(rows))

	Columns:
		for j := 0; j < width; j++ {
			col = col[:0]
			for _, row := range rows {
				if len(row) != width {
					return nil, fmt.Errorf("ragged group: row has %d values, expected %d", len(row), width)
				}
				v := row[j]
				if math.IsNaN(v) {
					if naRm {
						continue
					}
					out[j] = math.NaN()
					continue Columns
				}
				col = append(col, v)
			}

			if len(col) == 0 {
				out[j] = math.NaN()
				continue
			}

			v, err := f(col)
			if err != nil {
				return nil, err
			}
			out[j] = v
		}

		return out, nil
	}
}

func Sum(naRm bool) Func {
	return ColumnWise(func(x []float64) (float64, error) { return stats.Sum(x) }, naRm)
}

func Mean(naRm bool) Func {
	return ColumnWise(func(x []float64) (float64, error) { return stats.Mean(x) }, naRm)
}

func Median(naRm bool) Func {
	return ColumnWise(func(x []float64) (float64, error) { return stats.Median(x) }, naRm)
}

func Max(naRm bool) Func {
	return ColumnWise(func(x []float64) (float64, error) { return stats.Max(x) }, naRm)
}

func Min(naRm bool) Func {
	return ColumnWise(func(x []float64) (float64, error) { return stats.Min(x) }, naRm)
}

// Names maps the reductions a user can request by name to their
// constructors.
var Names = map[string]func(naRm bool) Func{
	"sum":          Sum,
	"mean":         Mean,
	"median":       Median,
	"max":          Max,
	"min":          Min,
	"medianpolish": MedianPolish,
}

// NameList renders the known reduction names, sorted, for help text.
func NameList() string {
	names := make([]string, 0, len(Names))
	for m := range Names {
		names = append(names, m)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Lookup returns the named reduction.
func Lookup(name string, naRm bool) (Func, error) {
	f, exists := Names[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("reduction %s is not found. Valid reduction names include: %s", name, NameList())
	}
	return f(naRm), nil
}
