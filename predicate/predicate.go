// Package predicate implements boolean expressions over row metadata columns,
// used to filter the features of a container.
//
// Expressions use three-valued logic: a comparison against a missing cell is
// Missing rather than false, and Missing propagates through And, Or and Not
// the way SQL NULL does. Callers decide whether Missing rows are kept.
package predicate

import (
	"fmt"
	"strings"

	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
)

// Truth is the result of evaluating a predicate against one row.
type Truth int8

const (
	False Truth = iota
	True
	Missing
)

func (t Truth) String() string {
	switch t {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	}
	return "NA"
}

func truth(b bool) Truth {
	if b {
		return True
	}
	return False
}

// Row fetches the named metadata cell of the row being tested.
type Row func(column string) (table.Cell, bool)

// Predicate is a boolean expression over named columns.
type Predicate interface {
	// Columns lists every referenced column once, in the order they appear.
	Columns() []string
	// Check verifies that each comparison is meaningful for the kinds of the
	// referenced columns.
	Check(kindOf func(column string) (table.Kind, bool)) error
	Eval(row Row) (Truth, error)
	String() string
}

type and struct{ terms []Predicate }
type or struct{ terms []Predicate }
type not struct{ term Predicate }

// And is true when every term is true.
func And(terms ...Predicate) Predicate { return and{terms} }

// Or is true when any term is true.
func Or(terms ...Predicate) Predicate { return or{terms} }

func Not(p Predicate) Predicate { return not{p} }

func columnsOf(terms []Predicate) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range terms {
		for _, c := range t.Columns() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func checkAll(terms []Predicate, kindOf func(string) (table.Kind, bool)) error {
	for _, t := range terms {
		if err := t.Check(kindOf); err != nil {
			return err
		}
	}
	return nil
}

func joinTerms(terms []Predicate, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (p and) Columns() []string                                { return columnsOf(p.terms) }
func (p and) Check(kindOf func(string) (table.Kind, bool)) error { return checkAll(p.terms, kindOf) }
func (p and) String() string                                   { return joinTerms(p.terms, " & ") }

func (p and) Eval(row Row) (Truth, error) {
	out := True
	for _, t := range p.terms {
		v, err := t.Eval(row)
		if err != nil {
			return False, err
		}
		if v == False {
			return False, nil
		}
		if v == Missing {
			out = Missing
		}
	}
	return out, nil
}

func (p or) Columns() []string                                { return columnsOf(p.terms) }
func (p or) Check(kindOf func(string) (table.Kind, bool)) error { return checkAll(p.terms, kindOf) }
func (p or) String() string                                   { return joinTerms(p.terms, " | ") }

func (p or) Eval(row Row) (Truth, error) {
	out := False
	for _, t := range p.terms {
		v, err := t.Eval(row)
		if err != nil {
			return False, err
		}
		if v == True {
			return True, nil
		}
		if v == Missing {
			out = Missing
		}
	}
	return out, nil
}

func (p not) Columns() []string                                { return p.term.Columns() }
func (p not) Check(kindOf func(string) (table.Kind, bool)) error { return p.term.Check(kindOf) }
func (p not) String() string                                   { return "!" + p.term.String() }

func (p not) Eval(row Row) (Truth, error) {
	v, err := p.term.Eval(row)
	if err != nil {
		return False, err
	}
	switch v {
	case True:
		return False, nil
	case False:
		return True, nil
	}
	return Missing, nil
}

func invalid(p Predicate, format string, args ...interface{}) error {
	return &errs.InvalidPredicateError{Expr: p.String(), Reason: fmt.Sprintf(format, args...)}
}
