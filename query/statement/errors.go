package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLimit is returned for a negative offset or row count.
	ErrInvalidLimit = errors.New("invalid limit value")
	// ErrEmptyStatement is returned when a write statement has nothing to write.
	ErrEmptyStatement = errors.New("statement has no fields")
	// ErrMissingFilter is returned for an unfiltered delete that was not explicitly allowed.
	ErrMissingFilter = errors.New("delete without a filter")
	// ErrHavingWithoutGroup is returned for a count with a HAVING filter but no grouping.
	ErrHavingWithoutGroup = errors.New("having without group by")
)

// InvalidLimitError names the rejected paging value.
type InvalidLimitError struct {
	Field string
	Value int
}

func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("invalid limit value: %s must not be negative, got %d", e.Field, e.Value)
}

func (e *InvalidLimitError) Is(target error) bool {
	return target == ErrInvalidLimit
}

// RenderError reports a statement that could not be rendered.
type RenderError struct {
	Kind  Kind
	Table string
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Kind, e.Table, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
