package predicate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/qfeatures/table"
)

// Op is a comparison operator.
type Op int

const (
	LT Op = iota
	LE
	GT
	GE
	EQ
	NE
)

var opSymbols = [...]string{LT: "<", LE: "<=", GT: ">", GE: ">=", EQ: "==", NE: "!="}

func (o Op) String() string { return opSymbols[o] }

// flip returns the operator that gives the same answer with operands swapped.
func (o Op) flip() Op {
	switch o {
	case LT:
		return GT
	case LE:
		return GE
	case GT:
		return LT
	case GE:
		return LE
	}
	return o
}

func (o Op) holds(cmp int) bool {
	switch o {
	case LT:
		return cmp < 0
	case LE:
		return cmp <= 0
	case GT:
		return cmp > 0
	case GE:
		return cmp >= 0
	case EQ:
		return cmp == 0
	}
	return cmp != 0
}

type litKind int

const (
	litNumber litKind = iota
	litString
	litBool
)

// Literal is the constant side of a comparison.
type Literal struct {
	kind litKind
	num  float64
	str  string
	b    bool
}

func Number(f float64) Literal { return Literal{kind: litNumber, num: f} }
func String(s string) Literal  { return Literal{kind: litString, str: s} }
func Bool(b bool) Literal      { return Literal{kind: litBool, b: b} }

func (l Literal) String() string {
	switch l.kind {
	case litNumber:
		return strconv.FormatFloat(l.num, 'g', -1, 64)
	case litBool:
		if l.b {
			return "TRUE"
		}
		return "FALSE"
	}
	return strconv.Quote(l.str)
}

func (l Literal) time() (time.Time, bool) {
	if l.kind != litString {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(l.str)
	return t, err == nil
}

// compatible reports whether a column of kind k can be compared with l
// using op.
func (l Literal) compatible(k table.Kind, op Op) bool {
	switch {
	case k.Numeric():
		return l.kind == litNumber
	case k == table.KindBool:
		return l.kind == litBool && (op == EQ || op == NE)
	case k == table.KindTime:
		_, ok := l.time()
		return ok
	}
	return l.kind == litString
}

// compare orders a valid cell against l. Callers must have checked
// compatibility.
func (l Literal) compare(c table.Cell) (int, error) {
	switch c.Kind {
	case table.KindFloat, table.KindInt:
		if l.kind != litNumber {
			break
		}
		v, _ := c.Number()
		switch {
		case v < l.num:
			return -1, nil
		case v > l.num:
			return 1, nil
		}
		return 0, nil
	case table.KindBool:
		if l.kind != litBool {
			break
		}
		if c.B == l.b {
			return 0, nil
		}
		return 1, nil
	case table.KindTime:
		t, ok := l.time()
		if !ok {
			break
		}
		switch {
		case c.T.Before(t):
			return -1, nil
		case c.T.After(t):
			return 1, nil
		}
		return 0, nil
	case table.KindString:
		if l.kind != litString {
			break
		}
		return strings.Compare(c.S, l.str), nil
	}
	return 0, fmt.Errorf("cannot compare %s value with %s", c.Kind, l)
}

type compare struct {
	column string
	op     Op
	lit    Literal
}

// Compare tests column op literal, e.g. Compare("pval", LT, Number(0.05)).
func Compare(column string, op Op, lit Literal) Predicate {
	return compare{column: column, op: op, lit: lit}
}

func (p compare) Columns() []string { return []string{p.column} }

func (p compare) String() string {
	return fmt.Sprintf("%s %s %s", quoteIdent(p.column), p.op, p.lit)
}

func (p compare) Check(kindOf func(string) (table.Kind, bool)) error {
	k, ok := kindOf(p.column)
	if !ok {
		return invalid(p, "column %q not found", p.column)
	}
	if !p.lit.compatible(k, p.op) {
		return invalid(p, "%s column %q cannot be compared with %s using %s", k, p.column, p.lit, p.op)
	}
	return nil
}

func (p compare) Eval(row Row) (Truth, error) {
	c, ok := row(p.column)
	if !ok {
		return False, invalid(p, "column %q not found", p.column)
	}
	if !c.Valid {
		return Missing, nil
	}
	cmp, err := p.lit.compare(c)
	if err != nil {
		return False, invalid(p, "%v", err)
	}
	return truth(p.op.holds(cmp)), nil
}

type in struct {
	column string
	set    []Literal
}

// In is true when the column equals any of the literals (R's %in%).
func In(column string, set ...Literal) Predicate {
	return in{column: column, set: set}
}

func (p in) Columns() []string { return []string{p.column} }

func (p in) String() string {
	parts := make([]string, len(p.set))
	for i, l := range p.set {
		parts[i] = l.String()
	}
	return fmt.Sprintf("%s in (%s)", quoteIdent(p.column), strings.Join(parts, ", "))
}

func (p in) Check(kindOf func(string) (table.Kind, bool)) error {
	k, ok := kindOf(p.column)
	if !ok {
		return invalid(p, "column %q not found", p.column)
	}
	for _, l := range p.set {
		if !l.compatible(k, EQ) {
			return invalid(p, "%s column %q cannot be compared with %s", k, p.column, l)
		}
	}
	return nil
}

func (p in) Eval(row Row) (Truth, error) {
	c, ok := row(p.column)
	if !ok {
		return False, invalid(p, "column %q not found", p.column)
	}
	if !c.Valid {
		return Missing, nil
	}
	for _, l := range p.set {
		cmp, err := l.compare(c)
		if err != nil {
			return False, invalid(p, "%v", err)
		}
		if cmp == 0 {
			return True, nil
		}
	}
	return False, nil
}

func quoteIdent(s string) string {
	for i, r := range s {
		if !(r == '_' || r == '.' || isLetter(r) || (i > 0 && isDigit(r))) {
			return "`" + s + "`"
		}
	}
	return s
}
