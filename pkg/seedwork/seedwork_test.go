package seedwork_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/HerbHall/videocatalog/pkg/seedwork"
)

// stubEntity is a minimal entity used across the seedwork tests.
type stubEntity struct {
	seedwork.Base
	name  string
	price float64
}

func newStub(name string, price float64) stubEntity {
	return stubEntity{
		Base:  seedwork.NewBase(seedwork.UniqueEntityID{}),
		name:  name,
		price: price,
	}
}

func (s stubEntity) ToMap() map[string]any {
	return map[string]any{
		"id":    s.ID(),
		"name":  s.name,
		"price": s.price,
	}
}

func (s stubEntity) withName(name string) stubEntity {
	s.name = name
	return s
}

func names(items []stubEntity) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.name
	}
	return out
}

func ids(items []stubEntity) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID()
	}
	return out
}

func assertJSONEqual(t *testing.T, got, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("unmarshal got: %v\n%s", err, got)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("unmarshal want: %v\n%s", err, want)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("JSON mismatch\n got: %s\nwant: %s", got, want)
	}
}
