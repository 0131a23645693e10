package metrics

import (
	"context"
	"time"

	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// Compile-time interface guard.
var _ seedwork.SearchableRepository[seedwork.Entity] = (*InstrumentedRepository[seedwork.Entity])(nil)

// InstrumentedRepository decorates a searchable repository with operation
// counters and latency histograms. Behavior is otherwise unchanged.
type InstrumentedRepository[E seedwork.Entity] struct {
	next    seedwork.SearchableRepository[E]
	name    string
	metrics *Metrics
}

// InstrumentRepository wraps next, labeling its metrics with name.
func InstrumentRepository[E seedwork.Entity](next seedwork.SearchableRepository[E], name string, m *Metrics) *InstrumentedRepository[E] {
	return &InstrumentedRepository[E]{next: next, name: name, metrics: m}
}

func (r *InstrumentedRepository[E]) Insert(ctx context.Context, entity E) (err error) {
	defer r.observe("insert", time.Now(), &err)
	return r.next.Insert(ctx, entity)
}

func (r *InstrumentedRepository[E]) Update(ctx context.Context, entity E) (found bool, err error) {
	defer r.observe("update", time.Now(), &err)
	return r.next.Update(ctx, entity)
}

func (r *InstrumentedRepository[E]) Delete(ctx context.Context, entity E) (found bool, err error) {
	defer r.observe("delete", time.Now(), &err)
	return r.next.Delete(ctx, entity)
}

func (r *InstrumentedRepository[E]) FindByID(ctx context.Context, id string) (entity E, found bool, err error) {
	defer r.observe("find_by_id", time.Now(), &err)
	return r.next.FindByID(ctx, id)
}

func (r *InstrumentedRepository[E]) FindAll(ctx context.Context) (entities []E, err error) {
	defer r.observe("find_all", time.Now(), &err)
	return r.next.FindAll(ctx)
}

func (r *InstrumentedRepository[E]) SortableFields() []string {
	return r.next.SortableFields()
}

func (r *InstrumentedRepository[E]) Search(ctx context.Context, params seedwork.SearchParams) (result seedwork.SearchResult[E], err error) {
	defer r.observe("search", time.Now(), &err)
	return r.next.Search(ctx, params)
}

func (r *InstrumentedRepository[E]) observe(op string, start time.Time, err *error) {
	r.metrics.ObserveRepository(r.name, op, start, *err)
}
