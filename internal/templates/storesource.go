package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/signcoach/internal/store"
)

// StoreSource serves templates kept in the SQLite library. The manifest is
// derived from the stored rows.
type StoreSource struct {
	repo *store.TemplateRepository
}

// NewStoreSource returns a Source reading from s.
func NewStoreSource(s *store.Store) *StoreSource {
	return &StoreSource{repo: s.Templates()}
}

// Manifest lists every stored template. An empty library has no manifest.
func (s *StoreSource) Manifest(ctx context.Context) (Manifest, error) {
	m, err := s.repo.Manifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored templates: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrNotExist
	}
	return Manifest(m), nil
}

// Open returns the stored JSON of <symbol>/<name>.
func (s *StoreSource) Open(ctx context.Context, symbol, name string) ([]byte, error) {
	rec, err := s.repo.Get(ctx, symbol, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotExist, symbol, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stored template %s/%s: %w", symbol, name, err)
	}
	return rec.Data, nil
}
