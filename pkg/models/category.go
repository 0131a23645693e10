package models

import (
	"encoding/json"
	"time"

	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// CategoryNameMaxLength is the longest name a category accepts, in characters.
const CategoryNameMaxLength = 255

// CategoryProps holds the values a Category is built from. A zero ID is
// replaced by a generated one; a nil IsActive means active; a zero CreatedAt
// means now.
type CategoryProps struct {
	ID          seedwork.UniqueEntityID
	Name        string
	Description *string
	IsActive    *bool
	CreatedAt   time.Time
}

// Category groups videos in the catalog. Values are immutable: the mutators
// return a new Category and leave the receiver untouched.
type Category struct {
	seedwork.Base
	name        string
	description *string
	isActive    bool
	createdAt   time.Time
}

// NewCategory validates props and builds a Category. Validation failures are
// reported as a *seedwork.ValidationError.
func NewCategory(props CategoryProps) (Category, error) {
	if err := validateCategory(props.Name, props.Description, props.IsActive); err != nil {
		return Category{}, err
	}

	isActive := true
	if props.IsActive != nil {
		isActive = *props.IsActive
	}
	createdAt := props.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return Category{
		Base:        seedwork.NewBase(props.ID),
		name:        props.Name,
		description: cloneString(props.Description),
		isActive:    isActive,
		createdAt:   createdAt.UTC(),
	}, nil
}

// RestoreCategory rebuilds a stored category. id must be a UUID.
func RestoreCategory(id string, props CategoryProps) (Category, error) {
	uid, err := seedwork.ParseUniqueEntityID(id)
	if err != nil {
		return Category{}, err
	}
	props.ID = uid
	return NewCategory(props)
}

func (c Category) Name() string { return c.name }

// Description returns nil when the category has none.
func (c Category) Description() *string { return cloneString(c.description) }

func (c Category) IsActive() bool { return c.isActive }

func (c Category) CreatedAt() time.Time { return c.createdAt }

// Update returns a copy with the new name and description after validating
// them. The receiver is unchanged on error.
func (c Category) Update(name string, description *string) (Category, error) {
	active := c.isActive
	if err := validateCategory(name, description, &active); err != nil {
		return c, err
	}
	c.name = name
	c.description = cloneString(description)
	return c, nil
}

// Activate returns an active copy.
func (c Category) Activate() Category {
	c.isActive = true
	return c
}

// Deactivate returns an inactive copy.
func (c Category) Deactivate() Category {
	c.isActive = false
	return c
}

// ToMap projects the category for serialization. A missing description is nil.
func (c Category) ToMap() map[string]any {
	var description any
	if c.description != nil {
		description = *c.description
	}
	return map[string]any{
		"id":          c.ID(),
		"name":        c.name,
		"description": description,
		"is_active":   c.isActive,
		"created_at":  c.createdAt,
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMap())
}

func validateCategory(name string, description *string, isActive *bool) error {
	return seedwork.Collect(
		seedwork.Values(name, "name").Required().String().MaxLength(CategoryNameMaxLength),
		seedwork.Values(description, "description").String(),
		seedwork.Values(isActive, "is_active").Boolean(),
	)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
