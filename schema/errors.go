package schema

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnresolvedColumn is returned when a member name has no mapped field.
	ErrUnresolvedColumn = errors.New("unresolved column")

	// ErrModelNotFound is returned when a model is not registered.
	ErrModelNotFound = errors.New("model not found")

	// ErrNilInstance is returned when a nil pointer is passed as an instance.
	ErrNilInstance = errors.New("nil model instance")

	// ErrInvalidEnumValue is returned when a value has no enum member.
	ErrInvalidEnumValue = errors.New("invalid enum value")
)

// UnresolvedColumnError names the member and model that failed to resolve.
type UnresolvedColumnError struct {
	Member string
	Model  string
}

// Error implements the error interface.
func (e *UnresolvedColumnError) Error() string {
	return fmt.Sprintf("unresolved column: %s has no member %q", e.Model, e.Member)
}

// Is reports whether target is ErrUnresolvedColumn.
func (e *UnresolvedColumnError) Is(target error) bool {
	return target == ErrUnresolvedColumn
}

// NotStructError is returned when a type cannot be described as a model.
type NotStructError struct {
	Type reflect.Type
}

// Error implements the error interface.
func (e *NotStructError) Error() string {
	return fmt.Sprintf("schema: %v is not a struct type", e.Type)
}
