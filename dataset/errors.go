package dataset

import (
	"fmt"
)

type ErrorKind int

const (
	StatementNotExecuted ErrorKind = iota + 1
	TooManyColumns
	MissingColumn
)

func (ek ErrorKind) String() string {
	switch ek {
	case StatementNotExecuted:
		return "statement not executed"
	case TooManyColumns:
		return "too many columns"
	case MissingColumn:
		return "missing column"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(ek))
}

// Error is returned by New when a cursor and mapping can not be resolved into a dataset. Column
// is set for MissingColumn; NumColumns is set for TooManyColumns.
type Error struct {
	Kind       ErrorKind
	Column     string
	NumColumns int
}

var (
	ErrStatementNotExecuted = &Error{Kind: StatementNotExecuted}
	ErrTooManyColumns       = &Error{Kind: TooManyColumns}
	ErrMissingColumn        = &Error{Kind: MissingColumn}
)

func (e *Error) Error() string {
	switch e.Kind {
	case StatementNotExecuted:
		return "dataset: statement has not been executed"
	case TooManyColumns:
		return fmt.Sprintf("dataset: can not resolve key and value from %d columns; "+
			"use a mapping", e.NumColumns)
	case MissingColumn:
		if e.Column == "" {
			return "dataset: mapping is missing a value column"
		}
		return fmt.Sprintf("dataset: column %s not found", e.Column)
	}
	return fmt.Sprintf("dataset: %s", e.Kind)
}

// Is matches any *Error of the same kind, so that errors.Is(err, ErrMissingColumn) works
// regardless of which column was missing.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
