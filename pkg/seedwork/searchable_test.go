package seedwork_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

func stubConfig() seedwork.SearchConfig[stubEntity] {
	return seedwork.SearchConfig[stubEntity]{
		Filter: seedwork.FilterByText(func(e stubEntity) string { return e.name }),
		SortableFields: []seedwork.SortableField[stubEntity]{
			{Name: "name", Compare: seedwork.CompareBy(func(e stubEntity) string { return e.name })},
			{Name: "price", Compare: seedwork.CompareBy(func(e stubEntity) float64 { return e.price })},
		},
	}
}

func newSearchRepo(t *testing.T, items ...stubEntity) *seedwork.InMemorySearchableRepository[stubEntity] {
	t.Helper()
	repo, err := seedwork.NewInMemorySearchableRepository(stubConfig(), items...)
	if err != nil {
		t.Fatalf("NewInMemorySearchableRepository: %v", err)
	}
	return repo
}

func search(t *testing.T, repo seedwork.SearchableRepository[stubEntity], in seedwork.SearchInput) seedwork.SearchResult[stubEntity] {
	t.Helper()
	r, err := repo.Search(context.Background(), seedwork.NewSearchParams(in))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	return r
}

func TestNewInMemorySearchableRepository_ValidatesFields(t *testing.T) {
	byName := seedwork.CompareBy(func(e stubEntity) string { return e.name })
	tests := []struct {
		name   string
		fields []seedwork.SortableField[stubEntity]
	}{
		{name: "empty name", fields: []seedwork.SortableField[stubEntity]{{Name: "", Compare: byName}}},
		{name: "nil comparator", fields: []seedwork.SortableField[stubEntity]{{Name: "name"}}},
		{name: "duplicate", fields: []seedwork.SortableField[stubEntity]{{Name: "name", Compare: byName}, {Name: "name", Compare: byName}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seedwork.NewInMemorySearchableRepository(seedwork.SearchConfig[stubEntity]{SortableFields: tt.fields})
			if !errors.Is(err, seedwork.ErrInvalidSortableField) {
				t.Errorf("err = %v, want ErrInvalidSortableField", err)
			}
		})
	}
}

func TestSearchableRepository_SortableFields(t *testing.T) {
	repo := newSearchRepo(t)
	want := []string{"name", "price"}
	fields := repo.SortableFields()
	if !slices.Equal(fields, want) {
		t.Fatalf("SortableFields() = %v, want %v", fields, want)
	}

	fields[0] = "changed"
	if got := repo.SortableFields(); !slices.Equal(got, want) {
		t.Errorf("SortableFields() after mutating copy = %v, want %v", got, want)
	}
}

func TestSearchableRepository_DefaultParams(t *testing.T) {
	items := make([]stubEntity, 16)
	for i := range items {
		items[i] = newStub("some value", 5)
	}
	repo := newSearchRepo(t, items...)

	r := search(t, repo, seedwork.SearchInput{})

	if got := ids(r.Items()); !slices.Equal(got, ids(items[:15])) {
		t.Errorf("items = %d ids, want the first 15 in insertion order", len(got))
	}
	if r.Total() != 16 || r.CurrentPage() != 1 || r.PerPage() != 15 || r.LastPage() != 2 {
		t.Errorf("total/page/per_page/last_page = %d/%d/%d/%d, want 16/1/15/2",
			r.Total(), r.CurrentPage(), r.PerPage(), r.LastPage())
	}
}

func TestSearchableRepository_FilterIsCaseInsensitive(t *testing.T) {
	items := []stubEntity{newStub("test", 5), newStub("a", 5), newStub("TEST", 5), newStub("TeSt", 5)}
	repo := newSearchRepo(t, items...)

	r := search(t, repo, seedwork.SearchInput{Page: 1, PerPage: 2, Filter: "TEST"})
	if got := names(r.Items()); !slices.Equal(got, []string{"test", "TEST"}) {
		t.Errorf("page 1 = %v, want [test TEST]", got)
	}
	if r.Total() != 3 || r.LastPage() != 2 {
		t.Errorf("total/last_page = %d/%d, want 3/2", r.Total(), r.LastPage())
	}
	if r.Filter() != "TEST" {
		t.Errorf("Filter() = %q, want TEST", r.Filter())
	}

	r = search(t, repo, seedwork.SearchInput{Page: 2, PerPage: 2, Filter: "TEST"})
	if got := names(r.Items()); !slices.Equal(got, []string{"TeSt"}) {
		t.Errorf("page 2 = %v, want [TeSt]", got)
	}
	if r.Total() != 3 {
		t.Errorf("page 2 total = %d, want 3", r.Total())
	}
}

func TestSearchableRepository_NoFilterKeepsInsertionOrder(t *testing.T) {
	items := []stubEntity{newStub("c", 1), newStub("a", 2), newStub("b", 3)}
	repo := newSearchRepo(t, items...)

	r := search(t, repo, seedwork.SearchInput{})
	if got := names(r.Items()); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("items = %v, want [c a b]", got)
	}
	if r.Total() != 3 {
		t.Errorf("total = %d, want 3", r.Total())
	}
}

func TestSearchableRepository_Sort(t *testing.T) {
	items := []stubEntity{
		newStub("b", 1), newStub("a", 2), newStub("d", 3), newStub("e", 4), newStub("c", 5),
	}
	repo := newSearchRepo(t, items...)

	tests := []struct {
		name string
		in   seedwork.SearchInput
		want []string
	}{
		{
			name: "asc page 1",
			in:   seedwork.SearchInput{Page: 1, PerPage: 2, Sort: "name"},
			want: []string{"a", "b"},
		},
		{
			name: "asc page 2",
			in:   seedwork.SearchInput{Page: 2, PerPage: 2, Sort: "name", SortDir: "asc"},
			want: []string{"c", "d"},
		},
		{
			name: "asc page 3",
			in:   seedwork.SearchInput{Page: 3, PerPage: 2, Sort: "name"},
			want: []string{"e"},
		},
		{
			name: "desc page 1",
			in:   seedwork.SearchInput{Page: 1, PerPage: 2, Sort: "name", SortDir: "desc"},
			want: []string{"e", "d"},
		},
		{
			name: "desc page 2",
			in:   seedwork.SearchInput{Page: 2, PerPage: 2, Sort: "name", SortDir: "DESC"},
			want: []string{"c", "b"},
		},
		{
			name: "by price desc",
			in:   seedwork.SearchInput{Sort: "price", SortDir: "desc"},
			want: []string{"c", "e", "d", "a", "b"},
		},
		{
			name: "field not allow-listed is ignored",
			in:   seedwork.SearchInput{Sort: "id", SortDir: "desc"},
			want: []string{"b", "a", "d", "e", "c"},
		},
		{
			name: "page past the end is empty",
			in:   seedwork.SearchInput{Page: 4, PerPage: 2, Sort: "name"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := search(t, repo, tt.in)
			if got := names(r.Items()); !slices.Equal(got, tt.want) {
				t.Errorf("items = %v, want %v", got, tt.want)
			}
			if r.Total() != 5 {
				t.Errorf("total = %d, want 5", r.Total())
			}
		})
	}
}

func TestSearchableRepository_HugePageIsEmpty(t *testing.T) {
	repo := newSearchRepo(t, newStub("a", 1), newStub("b", 2), newStub("c", 3))

	tests := []struct {
		page    string
		perPage string
	}{
		{page: "6917529027641081857", perPage: "2"},
		{page: "4611686018427387905", perPage: "4"},
		{page: "9223372036854775807", perPage: "9223372036854775807"},
		{page: "2", perPage: "9223372036854775807"},
	}
	for _, tt := range tests {
		r := search(t, repo, seedwork.SearchInput{Page: tt.page, PerPage: tt.perPage, Sort: "name"})
		if got := names(r.Items()); len(got) != 0 {
			t.Errorf("page %s per_page %s = %v, want no items", tt.page, tt.perPage, got)
		}
		if r.Total() != 3 {
			t.Errorf("page %s per_page %s total = %d, want 3", tt.page, tt.perPage, r.Total())
		}
	}

	r := search(t, repo, seedwork.SearchInput{Page: 1, PerPage: "9223372036854775807"})
	if got := names(r.Items()); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("page 1 with max per_page = %v, want [a b c]", got)
	}
}

func TestSearchableRepository_ZeroParamsReturnsNoItems(t *testing.T) {
	repo := newSearchRepo(t, newStub("a", 1))

	r, err := repo.Search(context.Background(), seedwork.SearchParams{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(r.Items()) != 0 || r.Total() != 1 {
		t.Errorf("items/total = %d/%d, want 0/1", len(r.Items()), r.Total())
	}
}

func TestSearchableRepository_FilterThenSort(t *testing.T) {
	items := []stubEntity{
		newStub("test", 1), newStub("a", 2), newStub("TEST", 3), newStub("e", 4), newStub("TeSt", 5),
	}
	repo := newSearchRepo(t, items...)

	r := search(t, repo, seedwork.SearchInput{Page: 1, PerPage: 2, Sort: "name", Filter: "TEST"})
	if got := names(r.Items()); !slices.Equal(got, []string{"TEST", "TeSt"}) {
		t.Errorf("page 1 = %v, want [TEST TeSt]", got)
	}
	if r.Total() != 3 {
		t.Errorf("total = %d, want 3", r.Total())
	}

	r = search(t, repo, seedwork.SearchInput{Page: 2, PerPage: 2, Sort: "name", Filter: "TEST"})
	if got := names(r.Items()); !slices.Equal(got, []string{"test"}) {
		t.Errorf("page 2 = %v, want [test]", got)
	}
}

func TestSearchableRepository_SortIsStable(t *testing.T) {
	items := []stubEntity{
		newStub("x", 2), newStub("y", 1), newStub("z", 2), newStub("w", 1), newStub("v", 2),
	}
	repo := newSearchRepo(t, items...)

	asc := search(t, repo, seedwork.SearchInput{Sort: "price"})
	if got := names(asc.Items()); !slices.Equal(got, []string{"y", "w", "x", "z", "v"}) {
		t.Errorf("asc = %v, want [y w x z v]", got)
	}

	desc := search(t, repo, seedwork.SearchInput{Sort: "price", SortDir: "desc"})
	if got := names(desc.Items()); !slices.Equal(got, []string{"x", "z", "v", "y", "w"}) {
		t.Errorf("desc = %v, want [x z v y w]", got)
	}
}

func TestSearchableRepository_PagesConcatenateToFilteredSet(t *testing.T) {
	var items []stubEntity
	for i := range 23 {
		name := fmt.Sprintf("item-%02d", i)
		if i%3 == 0 {
			name = "MATCH-" + name
		}
		items = append(items, newStub(name, float64(i%4)))
	}
	repo := newSearchRepo(t, items...)

	var want []string
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.name), "match") {
			want = append(want, item.ID())
		}
	}

	for _, perPage := range []int{1, 2, 3, 5, 8, 100} {
		first := search(t, repo, seedwork.SearchInput{PerPage: perPage, Filter: "match"})
		var got []string
		for page := 1; page <= first.LastPage(); page++ {
			r := search(t, repo, seedwork.SearchInput{Page: page, PerPage: perPage, Filter: "match"})
			got = append(got, ids(r.Items())...)
		}
		if !slices.Equal(got, want) {
			t.Errorf("per_page %d: pages concatenate to %d ids, want %d in filter order", perPage, len(got), len(want))
		}
	}
}

func TestSearchableRepository_SearchDoesNotMutateStore(t *testing.T) {
	items := []stubEntity{newStub("b", 1), newStub("a", 2)}
	repo := newSearchRepo(t, items...)

	search(t, repo, seedwork.SearchInput{Sort: "name"})

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if got := names(all); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("FindAll after sorted search = %v, want [b a]", got)
	}
}

func TestSearchableRepository_UpdateMissingLeavesSearchUnchanged(t *testing.T) {
	items := []stubEntity{newStub("a", 1), newStub("b", 2)}
	repo := newSearchRepo(t, items...)

	found, err := repo.Update(context.Background(), newStub("ghost", 3))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if found {
		t.Error("Update found = true, want false")
	}

	r := search(t, repo, seedwork.SearchInput{})
	if got := ids(r.Items()); !slices.Equal(got, ids(items)) {
		t.Errorf("ids = %v, want %v", got, ids(items))
	}
	if r.Total() != 2 {
		t.Errorf("total = %d, want 2", r.Total())
	}
}

func TestSearchableRepository_NilFilterFuncMatchesAll(t *testing.T) {
	repo, err := seedwork.NewInMemorySearchableRepository(seedwork.SearchConfig[stubEntity]{}, newStub("a", 1))
	if err != nil {
		t.Fatalf("NewInMemorySearchableRepository: %v", err)
	}

	r := search(t, repo, seedwork.SearchInput{Filter: "zzz"})
	if r.Total() != 1 {
		t.Errorf("total = %d, want 1", r.Total())
	}
	if fields := repo.SortableFields(); len(fields) != 0 {
		t.Errorf("SortableFields() = %v, want none", fields)
	}
}

func TestSearchableRepository_ParamsAreEchoed(t *testing.T) {
	repo := newSearchRepo(t, newStub("a", 1))
	params := seedwork.NewSearchParams(seedwork.SearchInput{Page: 3, PerPage: 7, Sort: "unknown", SortDir: "desc", Filter: "q"})

	r, err := repo.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if r.Params() != params {
		t.Errorf("Params() = %+v, want %+v", r.Params(), params)
	}
	if len(r.Items()) != 0 || r.Total() != 0 || r.LastPage() != 0 {
		t.Errorf("items/total/last_page = %d/%d/%d, want 0/0/0", len(r.Items()), r.Total(), r.LastPage())
	}
}
