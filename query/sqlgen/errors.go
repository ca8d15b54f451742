package sqlgen

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperator is matched by every UnsupportedError.
	ErrUnsupportedOperator = errors.New("not supported on this engine")
	ErrUnknownDialect      = errors.New("unknown dialect")
)

// UnsupportedError reports an operator or function the active engine cannot express.
type UnsupportedError struct {
	Feature string
	Dialect string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Feature, e.Dialect)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}
