// Package services provides the category repositories and the application
// service built on them. The repositories satisfy the generic seedwork
// contract, so the in-memory and SQLite adapters are interchangeable.
package services

import (
	"github.com/HerbHall/videocatalog/pkg/models"
	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// CategoryRepository is the storage contract for categories.
type CategoryRepository = seedwork.SearchableRepository[models.Category]

// Sentinel errors re-exported for callers that only import services.
var (
	ErrNotFound         = seedwork.ErrNotFound
	ErrAlreadyExists    = seedwork.ErrAlreadyExists
	ErrMissingParameter = seedwork.ErrMissingParameter
)

// Sort keys accepted by every category repository.
const (
	SortByName      = "name"
	SortByCreatedAt = "created_at"
)

// CategorySortableFields lists the allow-listed sort keys in the order they
// are reported by SortableFields.
var CategorySortableFields = []string{SortByName, SortByCreatedAt}
