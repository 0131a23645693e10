package services

import (
	"github.com/HerbHall/videocatalog/pkg/models"
	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// Compile-time interface guard.
var _ CategoryRepository = (*InMemoryCategoryRepository)(nil)

// InMemoryCategoryRepository keeps categories in process memory. Filtering
// matches the filter text anywhere in the name, ignoring case.
type InMemoryCategoryRepository struct {
	*seedwork.InMemorySearchableRepository[models.Category]
}

// NewInMemoryCategoryRepository returns a repository seeded with items.
func NewInMemoryCategoryRepository(items ...models.Category) *InMemoryCategoryRepository {
	engine, err := seedwork.NewInMemorySearchableRepository(categorySearchConfig(), items...)
	if err != nil {
		// The sortable fields below are static; a failure here is a programming error.
		panic("services: category search config: " + err.Error())
	}
	return &InMemoryCategoryRepository{InMemorySearchableRepository: engine}
}

func categorySearchConfig() seedwork.SearchConfig[models.Category] {
	return seedwork.SearchConfig[models.Category]{
		Filter: seedwork.FilterByText(models.Category.Name),
		SortableFields: []seedwork.SortableField[models.Category]{
			{Name: SortByName, Compare: seedwork.CompareBy(models.Category.Name)},
			{Name: SortByCreatedAt, Compare: func(a, b models.Category) int {
				return a.CreatedAt().Compare(b.CreatedAt())
			}},
		},
	}
}
