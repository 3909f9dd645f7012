package table

import (
	"strconv"
	"time"
)

// Cell is a single metadata value together with its kind. Only the field
// matching Kind is meaningful, and only when Valid is true.
type Cell struct {
	Kind  Kind
	Valid bool

	S string
	F float64
	I int64
	B bool
	T time.Time
}

// Number returns the numeric value of Int and Float cells.
func (c Cell) Number() (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	switch c.Kind {
	case KindFloat:
		return c.F, true
	case KindInt:
		return float64(c.I), true
	}
	return 0, false
}

func (c Cell) String() string {
	if !c.Valid {
		return NA
	}
	switch c.Kind {
	case KindFloat:
		return strconv.FormatFloat(c.F, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(c.I, 10)
	case KindBool:
		if c.B {
			return "TRUE"
		}
		return "FALSE"
	case KindTime:
		return c.T.Format(time.RFC3339Nano)
	}
	return c.S
}
