package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ayusman/signcoach/internal/gesture"
)

// DefaultFallbackCount is how many numbered files are probed when a symbol
// is absent from the manifest and no maximum is given.
const DefaultFallbackCount = 3

type templateFile struct {
	name string
	id   string
}

// filesFor lists the files to try for symbol: the manifest entries when
// present, numbered files otherwise.
func filesFor(manifest Manifest, symbol string, maxCount int) []templateFile {
	if names := manifest[symbol]; len(names) > 0 {
		if maxCount > 0 && len(names) > maxCount {
			names = names[:maxCount]
		}
		files := make([]templateFile, len(names))
		for i, name := range names {
			files[i] = templateFile{name: name, id: strings.TrimSuffix(name, ".json")}
		}
		return files
	}

	count := maxCount
	if count <= 0 {
		count = DefaultFallbackCount
	}
	files := make([]templateFile, count)
	for i := range files {
		n := strconv.Itoa(i + 1)
		files[i] = templateFile{name: n + ".json", id: symbol + "_" + n}
	}
	return files
}

// LoadTemplatesForSymbol loads up to maxCount templates of symbol from src.
// A maxCount of 0 loads every manifest entry, or DefaultFallbackCount
// numbered files. Missing and malformed files are logged and skipped, so the
// result may be empty. Errors are returned only for unknown symbols and
// cancellation.
func LoadTemplatesForSymbol(ctx context.Context, src Source, manifest Manifest, vocab Vocabulary, symbol string, maxCount int, logger *slog.Logger) ([]*gesture.Template, error) {
	typ, err := vocab.Type(symbol)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var templates []*gesture.Template
	for _, file := range filesFor(manifest, symbol, maxCount) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := src.Open(ctx, symbol, file.name)
		if errors.Is(err, ErrNotExist) {
			logger.Debug("template file not found", "symbol", symbol, "file", file.name)
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("failed to read template", "symbol", symbol, "file", file.name, "error", err)
			continue
		}

		tpl, err := ParseTemplateJSON(raw, symbol, typ, file.id)
		if err != nil {
			logger.Warn("skipping malformed template", "symbol", symbol, "file", file.name, "error", err)
			continue
		}
		templates = append(templates, tpl)
	}

	return templates, nil
}

// LoadAll loads every symbol of vocab into a TemplateDict. Symbols without
// usable templates are left out.
func LoadAll(ctx context.Context, src Source, vocab Vocabulary, maxCount int, logger *slog.Logger) (TemplateDict, error) {
	manifest, err := src.Manifest(ctx)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	dict := TemplateDict{}
	for _, symbol := range vocab.Symbols() {
		templates, err := LoadTemplatesForSymbol(ctx, src, manifest, vocab, symbol, maxCount, logger)
		if err != nil {
			return nil, err
		}
		if len(templates) > 0 {
			dict[symbol] = templates
		}
	}
	return dict, nil
}
