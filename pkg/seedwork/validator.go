package seedwork

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Rules is a fluent validation chain for a single property value. The first
// failing rule is kept and every later rule becomes a no-op, so chains read
// like Values(name, "name").Required().String().MaxLength(255).
type Rules struct {
	value    any
	property string
	err      *RuleViolationError
}

// Values starts a rule chain for value, reporting failures against property.
// Nil pointers to strings and bools are treated as nil.
func Values(value any, property string) *Rules {
	switch v := value.(type) {
	case *string:
		if v == nil {
			value = nil
		} else {
			value = *v
		}
	case *bool:
		if v == nil {
			value = nil
		} else {
			value = *v
		}
	}
	return &Rules{value: value, property: property}
}

// Required fails when the value is nil or the empty string.
func (r *Rules) Required() *Rules {
	if r.err != nil {
		return r
	}
	if r.value == nil || r.value == "" {
		r.fail("The %s is required", r.property)
	}
	return r
}

// String fails when the value is set and is not a string.
func (r *Rules) String() *Rules {
	if r.err != nil {
		return r
	}
	if r.value == nil {
		return r
	}
	if _, ok := r.value.(string); !ok {
		r.fail("The %s must be a string", r.property)
	}
	return r
}

// MaxLength fails when a string value has more than size characters.
func (r *Rules) MaxLength(size int) *Rules {
	if r.err != nil {
		return r
	}
	s, ok := r.value.(string)
	if !ok {
		return r
	}
	if utf8.RuneCountInString(s) > size {
		r.fail("The %s length must be equal or lower than %d", r.property, size)
	}
	return r
}

// Boolean fails unless the value is nil, true or false.
func (r *Rules) Boolean() *Rules {
	if r.err != nil {
		return r
	}
	switch r.value.(type) {
	case nil, bool:
	default:
		r.fail("The %s must be a boolean", r.property)
	}
	return r
}

// Err returns the first violation, or nil when every rule passed.
func (r *Rules) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

func (r *Rules) fail(format string, args ...any) {
	r.err = &RuleViolationError{
		Property: r.property,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Collect runs every chain and gathers their violations into a single
// *ValidationError keyed by property. It returns nil when all chains pass.
func Collect(chains ...*Rules) error {
	var verr ValidationError
	for _, chain := range chains {
		err := chain.Err()
		if err == nil {
			continue
		}
		var violation *RuleViolationError
		if errors.As(err, &violation) {
			verr.Add(violation.Property, violation.Message)
		}
	}
	if len(verr.Errors) == 0 {
		return nil
	}
	return &verr
}
