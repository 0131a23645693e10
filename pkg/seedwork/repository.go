package seedwork

import "context"

// Repository is the CRUD contract every storage adapter implements. Entities
// are matched by ID. Update and Delete report whether a stored entity matched;
// a miss is not an error. FindByID uses the comma-ok form for the same reason:
// whether absence is a failure is up to the caller.
type Repository[E Entity] interface {
	// Insert stores a new entity. Adapters reject an ID that is already
	// stored with ErrAlreadyExists.
	Insert(ctx context.Context, entity E) error

	// Update replaces the stored entity with the same ID, keeping its position.
	Update(ctx context.Context, entity E) (bool, error)

	// Delete removes the stored entity with the same ID.
	Delete(ctx context.Context, entity E) (bool, error)

	// FindByID returns the entity with the given ID.
	FindByID(ctx context.Context, id string) (E, bool, error)

	// FindAll returns every stored entity in insertion order.
	FindAll(ctx context.Context) ([]E, error)
}

// SearchableRepository adds filtered, sorted and paginated search.
type SearchableRepository[E Entity] interface {
	Repository[E]

	// SortableFields lists the sort keys Search honors. Any other sort key
	// is ignored.
	SortableFields() []string

	// Search runs filter, sort and paginate over the stored entities.
	Search(ctx context.Context, params SearchParams) (SearchResult[E], error)
}
