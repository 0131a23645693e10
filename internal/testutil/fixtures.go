package testutil

import (
	"time"

	"github.com/HerbHall/videocatalog/pkg/models"
	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// CategoryOption adjusts the props of a fixture category.
type CategoryOption func(*models.CategoryProps)

// NewCategory returns a valid active Category named "Movie", suitable for
// test fixtures. Options override individual props. It panics if the options
// produce an invalid category.
func NewCategory(opts ...CategoryOption) models.Category {
	props := models.CategoryProps{
		Name:      "Movie",
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&props)
	}
	c, err := models.NewCategory(props)
	if err != nil {
		panic("testutil.NewCategory: " + err.Error())
	}
	return c
}

// WithID sets the category identifier.
func WithID(id string) CategoryOption {
	return func(p *models.CategoryProps) { p.ID = seedwork.MustParseUniqueEntityID(id) }
}

// WithName sets the category name.
func WithName(name string) CategoryOption {
	return func(p *models.CategoryProps) { p.Name = name }
}

// WithDescription sets the category description.
func WithDescription(desc string) CategoryOption {
	return func(p *models.CategoryProps) { p.Description = &desc }
}

// WithActive sets the active flag.
func WithActive(active bool) CategoryOption {
	return func(p *models.CategoryProps) { p.IsActive = &active }
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(t time.Time) CategoryOption {
	return func(p *models.CategoryProps) { p.CreatedAt = t }
}

// NamedCategories returns one fixture per name, in order, with creation
// times one second apart starting at clock's current time.
func NamedCategories(clock *Clock, names ...string) []models.Category {
	out := make([]models.Category, len(names))
	for i, name := range names {
		out[i] = NewCategory(WithName(name), WithCreatedAt(clock.Tick()))
	}
	return out
}
