package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedExpression is matched by every UnsupportedExpressionError.
	ErrUnsupportedExpression = errors.New("unsupported expression")
	// ErrDanglingParameter reports text that still references a removed parameter.
	ErrDanglingParameter = errors.New("removed parameter is still referenced")
	ErrEvaluation        = errors.New("cannot evaluate expression")
)

// UnsupportedExpressionError names a construct that has no SQL form and cannot be folded.
type UnsupportedExpressionError struct {
	Construct string
	Reason    string
}

func (e *UnsupportedExpressionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported expression %s: %s", e.Construct, e.Reason)
	}
	return fmt.Sprintf("unsupported expression %s", e.Construct)
}

func (e *UnsupportedExpressionError) Is(target error) bool {
	return target == ErrUnsupportedExpression
}

func unsupported(construct, format string, args ...any) error {
	return &UnsupportedExpressionError{Construct: construct, Reason: fmt.Sprintf(format, args...)}
}
