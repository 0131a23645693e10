package testutil

import (
	"context"
	"testing"
	"time"
)

func TestLogger_NotNil(t *testing.T) {
	if Logger() == nil {
		t.Fatal("expected non-nil logger")
	}
	if NopLogger() == nil {
		t.Fatal("expected non-nil nop logger")
	}
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if db == nil {
		t.Fatal("expected non-nil store")
	}
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(5 * time.Minute)
	if got := c.Now().Sub(start); got != 5*time.Minute {
		t.Errorf("Advance: elapsed = %v, want 5m", got)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestClock_Tick(t *testing.T) {
	c := NewClock()
	start := c.Now()

	first := c.Tick()
	second := c.Tick()
	if !first.Equal(start) {
		t.Errorf("first Tick = %v, want %v", first, start)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("Tick step = %v, want 1s", got)
	}

	c.SetStep(time.Minute)
	third := c.Tick()
	if got := c.Now().Sub(third); got != time.Minute {
		t.Errorf("Tick after SetStep advanced %v, want 1m", got)
	}
}

func TestNewCategory_Defaults(t *testing.T) {
	c := NewCategory()
	if c.ID() == "" {
		t.Error("expected non-empty ID")
	}
	if c.Name() != "Movie" {
		t.Errorf("Name = %q, want Movie", c.Name())
	}
	if !c.IsActive() {
		t.Error("expected active category")
	}
}

func TestNewCategory_WithOptions(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCategory(
		WithID("5490020a-e866-4229-9adc-aa44b83234c4"),
		WithName("Series"),
		WithDescription("episodic"),
		WithActive(false),
		WithCreatedAt(created),
	)
	if c.ID() != "5490020a-e866-4229-9adc-aa44b83234c4" {
		t.Errorf("ID = %q", c.ID())
	}
	if c.Name() != "Series" {
		t.Errorf("Name = %q, want Series", c.Name())
	}
	if d := c.Description(); d == nil || *d != "episodic" {
		t.Errorf("Description = %v, want episodic", d)
	}
	if c.IsActive() {
		t.Error("expected inactive category")
	}
	if !c.CreatedAt().Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt(), created)
	}
}

func TestNewCategory_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for empty name")
		}
	}()
	NewCategory(WithName(""))
}

func TestNamedCategories(t *testing.T) {
	clock := NewClock()
	cats := NamedCategories(clock, "a", "b", "c")
	if len(cats) != 3 {
		t.Fatalf("len = %d, want 3", len(cats))
	}
	for i := 1; i < len(cats); i++ {
		if !cats[i].CreatedAt().After(cats[i-1].CreatedAt()) {
			t.Errorf("cats[%d].CreatedAt not after cats[%d]", i, i-1)
		}
	}
	if cats[2].Name() != "c" {
		t.Errorf("cats[2].Name = %q, want c", cats[2].Name())
	}
}
