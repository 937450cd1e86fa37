package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/signcoach/internal/gesture"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Symbol is a practicable sign stored in the database.
type Symbol struct {
	Name      string
	Type      gesture.SignType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SymbolRepository provides CRUD operations for symbols.
type SymbolRepository struct {
	db *sql.DB
}

// Symbols returns the symbol repository for this store.
func (s *Store) Symbols() *SymbolRepository {
	return &SymbolRepository{db: s.db}
}

// Upsert inserts a symbol or updates the type of an existing one.
func (r *SymbolRepository) Upsert(ctx context.Context, sym *Symbol) error {
	now := time.Now()
	if sym.CreatedAt.IsZero() {
		sym.CreatedAt = now
	}
	sym.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO symbols (name, type, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET type = excluded.type, updated_at = excluded.updated_at`,
		sym.Name, string(sym.Type), sym.CreatedAt, sym.UpdatedAt,
	)
	return err
}

// Get retrieves a symbol by its name.
func (r *SymbolRepository) Get(ctx context.Context, name string) (*Symbol, error) {
	sym := &Symbol{}
	var signType string

	err := r.db.QueryRowContext(ctx,
		`SELECT name, type, created_at, updated_at FROM symbols WHERE name = ?`,
		name,
	).Scan(&sym.Name, &signType, &sym.CreatedAt, &sym.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sym.Type = gesture.SignType(signType)
	return sym, nil
}

// List retrieves all symbols ordered by name.
func (r *SymbolRepository) List(ctx context.Context) ([]*Symbol, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, type, created_at, updated_at FROM symbols ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []*Symbol
	for rows.Next() {
		sym := &Symbol{}
		var signType string

		if err := rows.Scan(&sym.Name, &signType, &sym.CreatedAt, &sym.UpdatedAt); err != nil {
			return nil, err
		}

		sym.Type = gesture.SignType(signType)
		symbols = append(symbols, sym)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return symbols, nil
}

// Delete removes a symbol together with its templates and samples.
func (r *SymbolRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM symbols WHERE name = ?`, name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
