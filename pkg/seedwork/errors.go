// Package seedwork provides the domain-agnostic building blocks shared by every
// catalog aggregate: identifiers, the entity base, fluent validation rules,
// normalized search parameters and results, and the repository contracts with
// their in-memory reference implementation.
package seedwork

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors returned by the seedwork layer.
var (
	ErrInvalidIdentifier    = errors.New("ID must be a valid UUID")
	ErrValidation           = errors.New("validation error")
	ErrLoadEntity           = errors.New("load entity error")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrMissingParameter     = errors.New("missing parameter")
	ErrInvalidSortableField = errors.New("invalid sortable field")
)

// RuleViolationError reports the first failed rule of a validation chain.
type RuleViolationError struct {
	Property string
	Message  string
}

func (e *RuleViolationError) Error() string {
	return e.Message
}

// ValidationError aggregates per-field messages for an entity.
type ValidationError struct {
	Errors map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Errors[field], "; ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records msg for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[field] = append(e.Errors[field], msg)
}

// NotFoundError names the entity kind that could not be found.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MissingParameter returns an error wrapping ErrMissingParameter for name.
func MissingParameter(name string) error {
	return fmt.Errorf("%w %s", ErrMissingParameter, name)
}
