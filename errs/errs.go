// Package errs holds the error kinds returned across qfeatures. Callers
// match them with errors.As.
package errs

import (
	"fmt"
	"strings"
)

// DuplicateNameError is returned when a name that must be unique (an assay
// name, a row or sample identifier) is already taken.
type DuplicateNameError struct {
	Kind string // "assay", "row", "sample", ...
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// NotFoundError is returned when a named or indexed item is absent.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ShapeMismatchError is returned when two dimensions that must agree do not.
type ShapeMismatchError struct {
	What string
	Got  int
	Want int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: got %d, want %d", e.What, e.Got, e.Want)
}

// MissingColumnError is returned when a metadata column is required but
// absent.
type MissingColumnError struct {
	Assay  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Assay == "" {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	return fmt.Sprintf("column %q not found in assay %q", e.Column, e.Assay)
}

// InvalidPredicateError is returned when a filter expression cannot be
// parsed, references a column that exists nowhere, could apply to no assay,
// or compares a column against a literal of an incompatible type.
type InvalidPredicateError struct {
	Expr   string
	Reason string
}

func (e *InvalidPredicateError) Error() string {
	if e.Expr == "" {
		return "invalid predicate: " + e.Reason
	}
	return fmt.Sprintf("invalid predicate %q: %s", e.Expr, e.Reason)
}

// HasDependentsError is returned when removing an assay that other assays
// were derived from.
type HasDependentsError struct {
	Assay      string
	Dependents []string
}

func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("assay %q has derived assays (%s); remove them first or cascade", e.Assay, strings.Join(e.Dependents, ", "))
}
