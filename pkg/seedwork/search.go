package seedwork

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Defaults applied when page or per_page cannot be normalized.
const (
	DefaultPage    = 1
	DefaultPerPage = 15
)

// SortDirection is the ordering applied to the sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SearchInput carries raw, untrusted search values, typically straight from
// a query string or a decoded JSON body. Any field may be nil.
type SearchInput struct {
	Page    any
	PerPage any
	Sort    any
	SortDir any
	Filter  any
}

// SearchParams is the normalized form of SearchInput. It can only be built
// through NewSearchParams, so page and per_page are always >= 1 and the sort
// direction is empty exactly when no sort field is set. The empty string
// stands for "not set" on Sort, SortDir and Filter.
type SearchParams struct {
	page    int
	perPage int
	sort    string
	sortDir SortDirection
	filter  string
}

// NewSearchParams normalizes in. It never fails: invalid values fall back to
// their defaults.
func NewSearchParams(in SearchInput) SearchParams {
	p := SearchParams{
		page:    positiveInt(in.Page, DefaultPage),
		perPage: positiveInt(in.PerPage, DefaultPerPage),
	}

	if !isFalsy(in.Sort) {
		p.sort = textOf(in.Sort)
	}

	if p.sort != "" {
		p.sortDir = SortAsc
		if dir := SortDirection(strings.ToLower(textOf(in.SortDir))); dir == SortDesc {
			p.sortDir = SortDesc
		}
	}

	// Unlike sort, only nil and "" mean "no filter": 0 and false are kept.
	if !isNil(in.Filter) && in.Filter != "" {
		p.filter = textOf(in.Filter)
	}

	return p
}

// DefaultSearchParams returns the parameters produced by an empty input.
func DefaultSearchParams() SearchParams {
	return NewSearchParams(SearchInput{})
}

func (p SearchParams) Page() int              { return p.page }
func (p SearchParams) PerPage() int           { return p.perPage }
func (p SearchParams) Sort() string           { return p.sort }
func (p SearchParams) SortDir() SortDirection { return p.sortDir }
func (p SearchParams) Filter() string         { return p.filter }

// HasSort reports whether a sort field was supplied.
func (p SearchParams) HasSort() bool { return p.sort != "" }

// HasFilter reports whether a filter was supplied.
func (p SearchParams) HasFilter() bool { return p.filter != "" }

// Offset is the index of the first item on the requested page. It saturates
// at math.MaxInt when the page lies beyond any addressable item.
func (p SearchParams) Offset() int {
	if p.page < 1 || p.perPage < 1 {
		return 0
	}
	if p.page-1 > math.MaxInt/p.perPage {
		return math.MaxInt
	}
	return (p.page - 1) * p.perPage
}

// ToMap projects the parameters, with unset values as nil.
func (p SearchParams) ToMap() map[string]any {
	return map[string]any{
		"page":     p.page,
		"per_page": p.perPage,
		"sort":     nullable(p.sort),
		"sort_dir": nullable(string(p.sortDir)),
		"filter":   nullable(p.filter),
	}
}

// SearchResult is one page of a search together with the total number of
// matches and the parameters that produced it.
type SearchResult[E any] struct {
	items  []E
	total  int
	params SearchParams
}

// NewSearchResult builds a result. Items beyond params.PerPage are dropped so
// a page never exceeds its size.
func NewSearchResult[E any](items []E, total int, params SearchParams) SearchResult[E] {
	if len(items) > params.perPage {
		items = items[:params.perPage]
	}
	cp := make([]E, len(items))
	copy(cp, items)
	return SearchResult[E]{items: cp, total: total, params: params}
}

// Items returns a copy of the page items.
func (r SearchResult[E]) Items() []E {
	cp := make([]E, len(r.items))
	copy(cp, r.items)
	return cp
}

func (r SearchResult[E]) Total() int             { return r.total }
func (r SearchResult[E]) Params() SearchParams   { return r.params }
func (r SearchResult[E]) CurrentPage() int       { return r.params.page }
func (r SearchResult[E]) PerPage() int           { return r.params.perPage }
func (r SearchResult[E]) Sort() string           { return r.params.sort }
func (r SearchResult[E]) SortDir() SortDirection { return r.params.sortDir }
func (r SearchResult[E]) Filter() string         { return r.params.filter }

// LastPage is ceil(total / per_page); zero when there are no matches.
func (r SearchResult[E]) LastPage() int {
	if r.total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(r.total) / float64(r.params.perPage)))
}

// ToMap returns the canonical shape consumed by presentation adapters.
func (r SearchResult[E]) ToMap() map[string]any {
	return map[string]any{
		"items":        r.Items(),
		"total":        r.total,
		"current_page": r.params.page,
		"per_page":     r.params.perPage,
		"last_page":    r.LastPage(),
		"sort":         nullable(r.params.sort),
		"sort_dir":     nullable(string(r.params.sortDir)),
		"filter":       nullable(r.params.filter),
	}
}

func (r SearchResult[E]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

// MapResult converts the items of r with fn, keeping total and parameters.
func MapResult[E, O any](r SearchResult[E], fn func(E) O) SearchResult[O] {
	out := make([]O, len(r.items))
	for i, item := range r.items {
		out[i] = fn(item)
	}
	return SearchResult[O]{items: out, total: r.total, params: r.params}
}

// positiveInt converts raw to an integer greater than zero, or returns def.
// Strings must hold a plain base-10 integer; other kinds go through cast,
// which truncates floats toward zero.
func positiveInt(raw any, def int) int {
	var (
		n   int
		err error
	)
	if s, ok := raw.(string); ok {
		n, err = strconv.Atoi(strings.TrimSpace(s))
	} else {
		n, err = cast.ToIntE(raw)
	}
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// textOf renders raw in its textual form. Composite values that cast cannot
// handle are encoded as compact JSON.
func textOf(raw any) string {
	if s, err := cast.ToStringE(raw); err == nil {
		return s
	}
	if b, err := json.Marshal(raw); err == nil {
		return string(b)
	}
	return fmt.Sprint(raw)
}

func isNil(raw any) bool {
	if raw == nil {
		return true
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// isFalsy treats nil, false, numeric zero, "" and empty collections as unset.
func isFalsy(raw any) bool {
	if isNil(raw) {
		return true
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return isFalsy(rv.Elem().Interface())
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
