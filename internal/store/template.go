package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TemplateRecord is one stored template file.
type TemplateRecord struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// TemplateRepository stores raw template JSON per symbol.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

// Put stores data as <symbol>/<name>, replacing any previous content. The
// symbol must already exist.
func (r *TemplateRepository) Put(ctx context.Context, symbol, name string, data json.RawMessage) (*TemplateRecord, error) {
	rec := &TemplateRecord{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Name:      name,
		Data:      data,
		CreatedAt: time.Now(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (id, symbol, name, data, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, name) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		rec.ID, rec.Symbol, rec.Name, string(rec.Data), rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, symbol, name)
}

// Get retrieves the template stored as <symbol>/<name>.
func (r *TemplateRepository) Get(ctx context.Context, symbol, name string) (*TemplateRecord, error) {
	rec := &TemplateRecord{}
	var data string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, symbol, name, data, created_at FROM templates WHERE symbol = ? AND name = ?`,
		symbol, name,
	).Scan(&rec.ID, &rec.Symbol, &rec.Name, &data, &rec.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.Data = json.RawMessage(data)
	return rec, nil
}

// ListNames returns the template names of symbol in sorted order.
func (r *TemplateRepository) ListNames(ctx context.Context, symbol string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM templates WHERE symbol = ? ORDER BY name`,
		symbol,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return names, nil
}

// Manifest returns every symbol's template names, sorted.
func (r *TemplateRepository) Manifest(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, name FROM templates ORDER BY symbol, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	manifest := map[string][]string{}
	for rows.Next() {
		var symbol, name string
		if err := rows.Scan(&symbol, &name); err != nil {
			return nil, err
		}
		manifest[symbol] = append(manifest[symbol], name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return manifest, nil
}

// DeleteBySymbol removes all templates of symbol and reports how many were removed.
func (r *TemplateRepository) DeleteBySymbol(ctx context.Context, symbol string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE symbol = ?`, symbol)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
