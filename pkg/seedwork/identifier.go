package seedwork

import (
	"fmt"

	"github.com/google/uuid"
)

// UniqueEntityID is the identity value carried by every entity. The zero
// value is not a valid identifier; use one of the constructors.
type UniqueEntityID struct {
	value string
}

// NewUniqueEntityID returns a freshly generated random identifier.
func NewUniqueEntityID() UniqueEntityID {
	return UniqueEntityID{value: uuid.NewString()}
}

// ParseUniqueEntityID validates seed and returns it in canonical UUID form.
func ParseUniqueEntityID(seed string) (UniqueEntityID, error) {
	u, err := uuid.Parse(seed)
	if err != nil {
		return UniqueEntityID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, seed)
	}
	return UniqueEntityID{value: u.String()}, nil
}

// MustParseUniqueEntityID is like ParseUniqueEntityID but panics on error.
// Intended for fixtures and constants.
func MustParseUniqueEntityID(seed string) UniqueEntityID {
	id, err := ParseUniqueEntityID(seed)
	if err != nil {
		panic(err)
	}
	return id
}

// UniqueEntityIDFromUUID wraps an existing UUID.
func UniqueEntityIDFromUUID(u uuid.UUID) UniqueEntityID {
	return UniqueEntityID{value: u.String()}
}

func (id UniqueEntityID) String() string {
	return id.value
}

// UUID returns the parsed form. It returns uuid.Nil for the zero value.
func (id UniqueEntityID) UUID() uuid.UUID {
	u, err := uuid.Parse(id.value)
	if err != nil {
		return uuid.Nil
	}
	return u
}

// IsZero reports whether id was never constructed.
func (id UniqueEntityID) IsZero() bool {
	return id.value == ""
}

// Equal compares identifiers by value.
func (id UniqueEntityID) Equal(other UniqueEntityID) bool {
	return id.value == other.value
}

func (id UniqueEntityID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

func (id *UniqueEntityID) UnmarshalText(text []byte) error {
	parsed, err := ParseUniqueEntityID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
