package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Sample is a recorded demonstration of a symbol kept for training.
type Sample struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// SampleRepository provides operations for recorded samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create stores one sample for symbol and returns its ID.
func (r *SampleRepository) Create(ctx context.Context, symbol string, data json.RawMessage) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO samples (symbol, data, created_at) VALUES (?, ?, ?)`,
		symbol, string(data), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListBySymbol retrieves all samples for a symbol in recording order.
func (r *SampleRepository) ListBySymbol(ctx context.Context, symbol string) ([]Sample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, symbol, data, created_at
		 FROM samples
		 WHERE symbol = ?
		 ORDER BY id`,
		symbol,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.Symbol, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// DeleteBySymbol removes all samples for a symbol.
func (r *SampleRepository) DeleteBySymbol(ctx context.Context, symbol string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE symbol = ?`, symbol)
	return err
}
