package seedwork

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

// FilterFunc narrows items to those matching filter. It must keep the input
// order and must not modify items. It is never called with an empty filter.
type FilterFunc[E Entity] func(items []E, filter string) []E

// CompareFunc orders two entities the way cmp.Compare does.
type CompareFunc[E Entity] func(a, b E) int

// SortableField names a sort key and how to order by it.
type SortableField[E Entity] struct {
	Name    string
	Compare CompareFunc[E]
}

// SearchConfig is the per-entity-type part of a searchable repository.
type SearchConfig[E Entity] struct {
	Filter         FilterFunc[E]
	SortableFields []SortableField[E]
}

// Compile-time interface guard.
var _ SearchableRepository[Entity] = (*InMemorySearchableRepository[Entity])(nil)

// InMemorySearchableRepository runs the filter, sort and paginate pipeline
// over an InMemoryRepository.
type InMemorySearchableRepository[E Entity] struct {
	*InMemoryRepository[E]

	filter   FilterFunc[E]
	fields   []string
	compares map[string]CompareFunc[E]
}

// NewInMemorySearchableRepository validates cfg and returns a repository
// seeded with items. A nil cfg.Filter disables filtering.
func NewInMemorySearchableRepository[E Entity](cfg SearchConfig[E], items ...E) (*InMemorySearchableRepository[E], error) {
	r := &InMemorySearchableRepository[E]{
		InMemoryRepository: NewInMemoryRepository(items...),
		filter:             cfg.Filter,
		fields:             make([]string, 0, len(cfg.SortableFields)),
		compares:           make(map[string]CompareFunc[E], len(cfg.SortableFields)),
	}
	for _, f := range cfg.SortableFields {
		switch {
		case f.Name == "":
			return nil, fmt.Errorf("%w: empty name", ErrInvalidSortableField)
		case f.Compare == nil:
			return nil, fmt.Errorf("%w: %q has no comparator", ErrInvalidSortableField, f.Name)
		}
		if _, dup := r.compares[f.Name]; dup {
			return nil, fmt.Errorf("%w: %q declared twice", ErrInvalidSortableField, f.Name)
		}
		r.compares[f.Name] = f.Compare
		r.fields = append(r.fields, f.Name)
	}
	return r, nil
}

// SortableFields returns the allow-listed sort keys in declaration order.
func (r *InMemorySearchableRepository[E]) SortableFields() []string {
	return slices.Clone(r.fields)
}

// Search filters the stored entities, sorts them when params names an
// allow-listed field, and slices out the requested page. Total counts the
// filtered entities before pagination.
func (r *InMemorySearchableRepository[E]) Search(_ context.Context, params SearchParams) (SearchResult[E], error) {
	r.mu.RLock()
	items := r.snapshot()
	r.mu.RUnlock()

	filtered := r.applyFilter(items, params.Filter())
	sorted := r.applySort(filtered, params.Sort(), params.SortDir())
	page := applyPaginate(sorted, params.Page(), params.PerPage())

	return NewSearchResult(page, len(filtered), params), nil
}

func (r *InMemorySearchableRepository[E]) applyFilter(items []E, filter string) []E {
	if filter == "" || r.filter == nil {
		return items
	}
	return r.filter(items, filter)
}

// applySort returns a stably sorted copy, or items unchanged when sort is
// empty or not allow-listed.
func (r *InMemorySearchableRepository[E]) applySort(items []E, sort string, dir SortDirection) []E {
	compare, ok := r.compares[sort]
	if sort == "" || !ok {
		return items
	}
	sorted := slices.Clone(items)
	if dir == SortDesc {
		slices.SortStableFunc(sorted, func(a, b E) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(sorted, compare)
	}
	return sorted
}

func applyPaginate[E any](items []E, page, perPage int) []E {
	if len(items) == 0 || page < 1 || perPage < 1 || page-1 > (len(items)-1)/perPage {
		return []E{}
	}
	start := (page - 1) * perPage
	end := start + min(perPage, len(items)-start)
	return items[start:end]
}

// FilterByText builds a FilterFunc keeping entities whose text contains the
// filter, ignoring case.
func FilterByText[E Entity](text func(E) string) FilterFunc[E] {
	return func(items []E, filter string) []E {
		needle := strings.ToLower(filter)
		out := make([]E, 0, len(items))
		for _, item := range items {
			if strings.Contains(strings.ToLower(text(item)), needle) {
				out = append(out, item)
			}
		}
		return out
	}
}

// CompareBy builds a CompareFunc from an ordered key.
func CompareBy[E Entity, K cmp.Ordered](key func(E) K) CompareFunc[E] {
	return func(a, b E) int {
		return cmp.Compare(key(a), key(b))
	}
}
