package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/guregu/null.v3"
)

// Kind is the storage type of a Column.
type Kind byte

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
	KindTime
)

var kindNames = map[Kind]string{
	KindString: "string",
	KindFloat:  "float",
	KindInt:    "int",
	KindBool:   "bool",
	KindTime:   "time",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindString, fmt.Errorf("unknown column kind %q", s)
}

// Numeric reports whether cells of this kind can be compared as numbers.
func (k Kind) Numeric() bool {
	return k == KindFloat || k == KindInt
}

// NA is the rendering of a null cell, and the grouping key that null cells
// share.
const NA = "NA"

// Column is a named, typed, nullable vector. Columns are immutable; every
// transformation returns a new Column.
type Column struct {
	name string
	kind Kind

	strs   []null.String
	floats []null.Float
	ints   []null.Int
	bools  []null.Bool
	times  []null.Time
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

func (c *Column) Len() int {
	switch c.kind {
	case KindFloat:
		return len(c.floats)
	case KindInt:
		return len(c.ints)
	case KindBool:
		return len(c.bools)
	case KindTime:
		return len(c.times)
	}
	return len(c.strs)
}

// Cell returns the i'th value.
func (c *Column) Cell(i int) Cell {
	out := Cell{Kind: c.kind}
	switch c.kind {
	case KindFloat:
		out.Valid, out.F = c.floats[i].Valid, c.floats[i].Float64
	case KindInt:
		out.Valid, out.I = c.ints[i].Valid, c.ints[i].Int64
	case KindBool:
		out.Valid, out.B = c.bools[i].Valid, c.bools[i].Bool
	case KindTime:
		out.Valid, out.T = c.times[i].Valid, c.times[i].Time
	default:
		out.Valid, out.S = c.strs[i].Valid, c.strs[i].String
	}
	return out
}

// Key renders the i'th value as a string suitable for grouping. Null cells
// all map to NA, as does a valid string cell holding "NA"; use Valid to tell
// them apart.
func (c *Column) Key(i int) string {
	return c.Cell(i).String()
}

// Renamed returns the same data under a different name.
func (c *Column) Renamed(name string) *Column {
	out := *c
	out.name = name
	return &out
}

// Subset returns a new column holding the rows at idx, in that order. A
// negative index yields a null cell.
func (c *Column) Subset(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindFloat:
		out.floats = make([]null.Float, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.floats[i] = c.floats[j]
			}
		}
	case KindInt:
		out.ints = make([]null.Int, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.ints[i] = c.ints[j]
			}
		}
	case KindBool:
		out.bools = make([]null.Bool, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.bools[i] = c.bools[j]
			}
		}
	case KindTime:
		out.times = make([]null.Time, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.times[i] = c.times[j]
			}
		}
	default:
		out.strs = make([]null.String, len(idx))
		for i, j := range idx {
			if j >= 0 {
				out.strs[i] = c.strs[j]
			}
		}
	}
	return out
}

// ConstantWithin reports whether every row in idx carries the same value
// (nulls compare equal to each other).
func (c *Column) ConstantWithin(idx []int) bool {
	if len(idx) < 2 {
		return true
	}
	first, valid := c.Key(idx[0]), c.Valid(idx[0])
	for _, j := range idx[1:] {
		if c.Valid(j) != valid || c.Key(j) != first {
			return false
		}
	}
	return true
}

// Valid reports whether the i'th cell is non-null.
func (c *Column) Valid(i int) bool { return c.Cell(i).Valid }

// Raw renders every cell as a nullable string. Times use RFC3339Nano so that
// FromRaw restores them exactly.
func (c *Column) Raw() []null.String {
	out := make([]null.String, c.Len())
	for i := range out {
		cell := c.Cell(i)
		if !cell.Valid {
			continue
		}
		if cell.Kind == KindTime {
			out[i] = null.StringFrom(cell.T.Format(time.RFC3339Nano))
			continue
		}
		out[i] = null.StringFrom(cell.String())
	}
	return out
}

// FromRaw rebuilds a column of a known kind from the output of Raw.
func FromRaw(name string, kind Kind, raw []null.String) (*Column, error) {
	c := &Column{name: name, kind: kind}
	switch kind {
	case KindFloat:
		c.floats = make([]null.Float, len(raw))
	case KindInt:
		c.ints = make([]null.Int, len(raw))
	case KindBool:
		c.bools = make([]null.Bool, len(raw))
	case KindTime:
		c.times = make([]null.Time, len(raw))
	default:
		c.strs = raw
		return c, nil
	}

	for i, v := range raw {
		if !v.Valid {
			continue
		}
		switch kind {
		case KindFloat:
			f, err := strconv.ParseFloat(v.String, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
			}
			c.floats[i] = null.FloatFrom(f)
		case KindInt:
			n, err := strconv.ParseInt(v.String, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
			}
			c.ints[i] = null.IntFrom(n)
		case KindBool:
			b, err := strconv.ParseBool(v.String)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
			}
			c.bools[i] = null.BoolFrom(b)
		case KindTime:
			t, err := time.Parse(time.RFC3339Nano, v.String)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
			}
			c.times[i] = null.TimeFrom(t)
		}
	}
	return c, nil
}

func StringColumn(name string, values []string) *Column {
	c := &Column{name: name, kind: KindString, strs: make([]null.String, len(values))}
	for i, v := range values {
		c.strs[i] = null.StringFrom(v)
	}
	return c
}

func NullStringColumn(name string, values []null.String) *Column {
	return &Column{name: name, kind: KindString, strs: append([]null.String(nil), values...)}
}

// FloatColumn stores NaN as null.
func FloatColumn(name string, values []float64) *Column {
	c := &Column{name: name, kind: KindFloat, floats: make([]null.Float, len(values))}
	for i, v := range values {
		c.floats[i] = null.NewFloat(v, !math.IsNaN(v))
	}
	return c
}

func IntColumn(name string, values []int64) *Column {
	c := &Column{name: name, kind: KindInt, ints: make([]null.Int, len(values))}
	for i, v := range values {
		c.ints[i] = null.IntFrom(v)
	}
	return c
}

func BoolColumn(name string, values []bool) *Column {
	c := &Column{name: name, kind: KindBool, bools: make([]null.Bool, len(values))}
	for i, v := range values {
		c.bools[i] = null.BoolFrom(v)
	}
	return c
}

func TimeColumn(name string, values []time.Time) *Column {
	c := &Column{name: name, kind: KindTime, times: make([]null.Time, len(values))}
	for i, v := range values {
		c.times[i] = null.TimeFrom(v)
	}
	return c
}

// IsNA reports whether a raw text cell denotes a missing value.
func IsNA(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "NULL", "null", "#N/A":
		return true
	}
	return false
}

// InferColumn picks the narrowest kind that every non-missing value parses
// as, trying int, float, bool and time in that order, and falls back to
// string.
func InferColumn(name string, raw []string) *Column {
	values := make([]string, len(raw))
	present := 0
	for i, v := range raw {
		values[i] = strings.TrimSpace(v)
		if !IsNA(v) {
			present++
		}
	}

	if present > 0 {
		if c, ok := inferInt(name, values); ok {
			return c
		}
		if c, ok := inferFloat(name, values); ok {
			return c
		}
		if c, ok := inferBool(name, values); ok {
			return c
		}
		if c, ok := inferTime(name, values); ok {
			return c
		}
	}

	c := &Column{name: name, kind: KindString, strs: make([]null.String, len(raw))}
	for i, v := range raw {
		c.strs[i] = null.NewString(v, !IsNA(v))
	}
	return c
}

func inferInt(name string, values []string) (*Column, bool) {
	out := make([]null.Int, len(values))
	for i, v := range values {
		if IsNA(v) {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = null.IntFrom(n)
	}
	return &Column{name: name, kind: KindInt, ints: out}, true
}

func inferFloat(name string, values []string) (*Column, bool) {
	out := make([]null.Float, len(values))
	for i, v := range values {
		if IsNA(v) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		out[i] = null.FloatFrom(f)
	}
	return &Column{name: name, kind: KindFloat, floats: out}, true
}

func inferBool(name string, values []string) (*Column, bool) {
	out := make([]null.Bool, len(values))
	for i, v := range values {
		if IsNA(v) {
			continue
		}
		switch v {
		case "TRUE", "true", "True":
			out[i] = null.BoolFrom(true)
		case "FALSE", "false", "False":
			out[i] = null.BoolFrom(false)
		default:
			return nil, false
		}
	}
	return &Column{name: name, kind: KindBool, bools: out}, true
}

func inferTime(name string, values []string) (*Column, bool) {
	out := make([]null.Time, len(values))
	for i, v := range values {
		if IsNA(v) {
			continue
		}
		t, err := dateparse.ParseStrict(v)
		if err != nil {
			return nil, false
		}
		out[i] = null.TimeFrom(t)
	}
	return &Column{name: name, kind: KindTime, times: out}, true
}
