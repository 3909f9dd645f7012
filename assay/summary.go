package assay

import (
	"math"

	"github.com/carbocation/runningvariance"
)

// Summary describes the non-missing quantitations of one sample.
type Summary struct {
	Sample  string
	N       int
	Missing int
	Mean    float64
	SD      float64
	Min     float64
	Max     float64
}

// ColumnSummaries computes one Summary per sample in a single pass over the
// matrix. Samples with no observed values report NaN for every statistic.
func (a *Assay) ColumnSummaries() []Summary {
	ncol := len(a.colIDs)
	rs := make([]*runningvariance.RunningStat, ncol)
	out := make([]Summary, ncol)
	for j := range out {
		rs[j] = runningvariance.NewRunningStat()
		out[j] = Summary{Sample: a.colIDs[j], Min: math.Inf(1), Max: math.Inf(-1)}
	}

	for i := range a.rowIDs {
		for j := 0; j < ncol; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) {
				out[j].Missing++
				continue
			}
			rs[j].Push(v)
			out[j].N++
			if v < out[j].Min {
				out[j].Min = v
			}
			if v > out[j].Max {
				out[j].Max = v
			}
		}
	}

	for j := range out {
		if out[j].N == 0 {
			out[j].Mean, out[j].SD, out[j].Min, out[j].Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			continue
		}
		out[j].Mean = rs[j].Mean()
		out[j].SD = rs[j].StandardDeviation()
	}

	return out
}
