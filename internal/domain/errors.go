package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the entity is not in a state that allows the operation.
	ErrConflict = errors.New("conflict")
)

type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func (e validationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid returns a validation error carrying msg that matches ErrInvalidInput.
func Invalid(msg string) error {
	return validationError{msg: msg}
}
