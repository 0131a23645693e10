package seedwork

// Entity is anything with a stable identity that can be projected to a plain
// map for serialization. Repositories match entities by ID only.
type Entity interface {
	ID() string
	ToMap() map[string]any
}

// Base carries the identifier of an entity. Embed it by value; it exposes no
// setters so the identity cannot change after construction.
type Base struct {
	uniqueEntityID UniqueEntityID
}

// NewBase returns a Base for id, generating a new identifier when id is zero.
func NewBase(id UniqueEntityID) Base {
	if id.IsZero() {
		id = NewUniqueEntityID()
	}
	return Base{uniqueEntityID: id}
}

// ID returns the identifier in its string form.
func (b Base) ID() string {
	return b.uniqueEntityID.String()
}

// UniqueEntityID returns the identifier value.
func (b Base) UniqueEntityID() UniqueEntityID {
	return b.uniqueEntityID
}

// SameIdentity reports whether a and b refer to the same entity.
func SameIdentity(a, b Entity) bool {
	return a.ID() == b.ID()
}
