package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ayusman/signcoach/internal/gesture"
)

func TestSymbolRepository_Upsert(t *testing.T) {
	s := newTestStore(t)
	repo := s.Symbols()
	ctx := context.Background()

	sym := &Symbol{Name: "A", Type: gesture.TypeStatic}
	if err := repo.Upsert(ctx, sym); err != nil {
		t.Fatalf("failed to upsert symbol: %v", err)
	}
	if sym.CreatedAt.IsZero() || sym.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after upsert")
	}

	got, err := repo.Get(ctx, "A")
	if err != nil {
		t.Fatalf("failed to get symbol: %v", err)
	}
	if got.Type != gesture.TypeStatic {
		t.Errorf("expected static, got %q", got.Type)
	}

	// Upserting again changes the type without duplicating the row.
	if err := repo.Upsert(ctx, &Symbol{Name: "A", Type: gesture.TypeDynamic}); err != nil {
		t.Fatalf("failed to upsert symbol again: %v", err)
	}

	got, err = repo.Get(ctx, "A")
	if err != nil {
		t.Fatalf("failed to get symbol: %v", err)
	}
	if got.Type != gesture.TypeDynamic {
		t.Errorf("expected dynamic after update, got %q", got.Type)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list symbols: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 symbol, got %d", len(all))
	}
}

func TestSymbolRepository_RejectsUnknownType(t *testing.T) {
	s := newTestStore(t)

	err := s.Symbols().Upsert(context.Background(), &Symbol{Name: "A", Type: "wave"})
	if err == nil {
		t.Error("expected CHECK constraint to reject unknown type")
	}
}

func TestSymbolRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Symbols().Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSymbolRepository_ListOrdered(t *testing.T) {
	s := newTestStore(t)
	repo := s.Symbols()
	ctx := context.Background()

	for _, name := range []string{"RR", "A", "J"} {
		if err := repo.Upsert(ctx, &Symbol{Name: name, Type: gesture.TypeStatic}); err != nil {
			t.Fatalf("failed to upsert %s: %v", name, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list symbols: %v", err)
	}

	want := []string{"A", "J", "RR"}
	if len(all) != len(want) {
		t.Fatalf("expected %d symbols, got %d", len(want), len(all))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, all[i].Name)
		}
	}
}

func TestSymbolRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Symbols().Upsert(ctx, &Symbol{Name: "A", Type: gesture.TypeStatic}); err != nil {
		t.Fatalf("failed to upsert symbol: %v", err)
	}
	if _, err := s.Templates().Put(ctx, "A", "1.json", []byte(`[]`)); err != nil {
		t.Fatalf("failed to put template: %v", err)
	}
	if _, err := s.Samples().Create(ctx, "A", []byte(`[]`)); err != nil {
		t.Fatalf("failed to create sample: %v", err)
	}

	if err := s.Symbols().Delete(ctx, "A"); err != nil {
		t.Fatalf("failed to delete symbol: %v", err)
	}

	if _, err := s.Templates().Get(ctx, "A", "1.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected template to be deleted with its symbol, got %v", err)
	}
	samples, err := s.Samples().ListBySymbol(ctx, "A")
	if err != nil {
		t.Fatalf("failed to list samples: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("expected samples to be deleted with their symbol, got %d", len(samples))
	}

	if err := s.Symbols().Delete(ctx, "A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
