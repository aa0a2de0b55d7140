package model

import (
	"errors"
	"fmt"
)

// ValidationError reports a single malformed field on an entity.
type ValidationError struct {
	Entity  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Message)
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// fieldErrors collects validation failures for one entity.
type fieldErrors struct {
	entity string
	errs   []error
}

func (f *fieldErrors) add(field, format string, args ...any) {
	f.errs = append(f.errs, &ValidationError{
		Entity:  f.entity,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (f *fieldErrors) err() error {
	return errors.Join(f.errs...)
}
