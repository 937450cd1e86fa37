package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayusman/signcoach/internal/store"
)

// ImportReport summarizes an Import run.
type ImportReport struct {
	Symbols  int
	Imported int
	Skipped  int
}

// Import copies every readable, well-formed template of vocab from src into
// the store. Symbols are registered with their vocabulary type. Files are
// validated with ParseTemplateJSON and stored as read, so the stored shape
// matches the source.
func Import(ctx context.Context, src Source, st *store.Store, vocab Vocabulary, maxCount int, logger *slog.Logger) (ImportReport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var report ImportReport

	manifest, err := src.Manifest(ctx)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return report, fmt.Errorf("failed to load manifest: %w", err)
	}

	for _, symbol := range vocab.Symbols() {
		typ := vocab[symbol]
		imported := 0

		for _, file := range filesFor(manifest, symbol, maxCount) {
			raw, err := src.Open(ctx, symbol, file.name)
			if errors.Is(err, ErrNotExist) {
				continue
			}
			if err != nil {
				return report, err
			}

			if _, err := ParseTemplateJSON(raw, symbol, typ, file.id); err != nil {
				logger.Warn("skipping malformed template", "symbol", symbol, "file", file.name, "error", err)
				report.Skipped++
				continue
			}

			if imported == 0 {
				if err := st.Symbols().Upsert(ctx, &store.Symbol{Name: symbol, Type: typ}); err != nil {
					return report, fmt.Errorf("failed to register symbol %s: %w", symbol, err)
				}
				report.Symbols++
			}
			if _, err := st.Templates().Put(ctx, symbol, file.name, raw); err != nil {
				return report, fmt.Errorf("failed to store %s/%s: %w", symbol, file.name, err)
			}
			imported++
			report.Imported++
		}

		if imported > 0 {
			logger.Info("imported templates", "symbol", symbol, "count", imported)
		}
	}

	return report, nil
}
