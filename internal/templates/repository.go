package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ayusman/signcoach/internal/gesture"
)

// ErrNoTemplates is returned when a symbol has no usable templates.
var ErrNoTemplates = errors.New("no usable templates")

// Load outcomes reported to a LoadRecorder.
const (
	LoadHit   = "hit"
	LoadMiss  = "miss"
	LoadError = "error"
)

const (
	manifestKey     = "\x00manifest"
	prefetchWorkers = 4
	tracerName      = "github.com/ayusman/signcoach/internal/templates"
)

// LoadRecorder receives one observation per Templates call.
type LoadRecorder interface {
	ObserveTemplateLoad(result string)
}

// Repository serves templates per symbol, loading each symbol from its
// Source once and keeping it in memory. Concurrent requests for a symbol
// that is not cached yet share one load.
type Repository struct {
	src      Source
	vocab    Vocabulary
	maxCount int
	logger   *slog.Logger
	recorder LoadRecorder
	tracer   trace.Tracer

	group singleflight.Group

	mu             sync.RWMutex
	cache          TemplateDict
	manifest       Manifest
	manifestLoaded bool
	// Forget bumps these so loads started before it do not cache stale data.
	generations map[string]uint64
	manifestGen uint64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Repository.
type Option func(*Repository)

// WithVocabulary replaces DefaultVocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(r *Repository) {
		r.vocab = v
	}
}

// WithMaxCount limits how many templates are loaded per symbol. 0 means no
// limit for manifest entries and DefaultFallbackCount numbered files.
func WithMaxCount(n int) Option {
	return func(r *Repository) {
		r.maxCount = n
	}
}

// WithLogger sets the logger for the repository.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the sink for cache hit and miss observations.
func WithRecorder(rec LoadRecorder) Option {
	return func(r *Repository) {
		r.recorder = rec
	}
}

// WithRand sets the random source used for impostor sampling.
func WithRand(rng *rand.Rand) Option {
	return func(r *Repository) {
		r.rng = rng
	}
}

// WithTracerProvider sets the provider for template load spans. The
// default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Repository) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a Repository reading from src.
func New(src Source, opts ...Option) *Repository {
	r := &Repository{
		src:         src,
		vocab:       DefaultVocabulary(),
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
		cache:       TemplateDict{},
		generations: map[string]uint64{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Vocabulary returns the symbols this repository serves.
func (r *Repository) Vocabulary() Vocabulary {
	return r.vocab
}

// Templates returns the templates of symbol, loading them on first use.
// It returns ErrUnknownSymbol for symbols outside the vocabulary and
// ErrNoTemplates when none could be loaded; the latter is not cached.
func (r *Repository) Templates(ctx context.Context, symbol string) ([]*gesture.Template, error) {
	if _, err := r.vocab.Type(symbol); err != nil {
		return nil, err
	}

	if ts, ok := r.Cached(symbol); ok {
		r.observe(LoadHit)
		return ts, nil
	}

	r.mu.RLock()
	gen := r.generations[symbol]
	r.mu.RUnlock()

	// The shared load outlives any single caller; each caller only stops
	// waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(fmt.Sprintf("%s\x00%d", symbol, gen), func() (any, error) {
		if ts, ok := r.Cached(symbol); ok {
			return ts, nil
		}
		return r.load(loadCtx, symbol, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			r.observe(LoadError)
			return nil, res.Err
		}
		r.observe(LoadMiss)
		return res.Val.([]*gesture.Template), nil
	}
}

// Cached returns the templates of symbol if they are already loaded.
func (r *Repository) Cached(symbol string) ([]*gesture.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.cache[symbol]
	return ts, ok
}

// load fetches symbol and caches it unless Forget ran since gen was read.
func (r *Repository) load(ctx context.Context, symbol string, gen uint64) (ts []*gesture.Template, err error) {
	ctx, span := r.tracer.Start(ctx, "templates.load", trace.WithAttributes(attribute.String("symbol", symbol)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	manifest := r.loadManifest(ctx)

	ts, err = LoadTemplatesForSymbol(ctx, r.src, manifest, r.vocab, symbol, r.maxCount, r.logger)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w for symbol %s", ErrNoTemplates, symbol)
	}
	span.SetAttributes(attribute.Int("templates", len(ts)))

	r.mu.Lock()
	current := r.generations[symbol] == gen
	if current {
		r.cache[symbol] = ts
	}
	r.mu.Unlock()

	if !current {
		r.logger.Debug("templates forgotten during load, not cached", "symbol", symbol)
		return ts, nil
	}
	r.logger.Debug("templates cached", "symbol", symbol, "count", len(ts))
	return ts, nil
}

// loadManifest fetches the manifest once. A missing or unreadable manifest
// is remembered as empty so later loads go straight to numbered files.
func (r *Repository) loadManifest(ctx context.Context) Manifest {
	r.mu.RLock()
	if r.manifestLoaded {
		m := r.manifest
		r.mu.RUnlock()
		return m
	}
	gen := r.manifestGen
	r.mu.RUnlock()

	ctx = context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(fmt.Sprintf("%s\x00%d", manifestKey, gen), func() (any, error) {
		r.mu.RLock()
		if r.manifestLoaded {
			m := r.manifest
			r.mu.RUnlock()
			return m, nil
		}
		r.mu.RUnlock()

		m, err := r.src.Manifest(ctx)
		switch {
		case errors.Is(err, ErrNotExist):
			r.logger.Info("no template manifest, using numbered files")
		case err != nil:
			r.logger.Warn("failed to load template manifest, using numbered files", "error", err)
		}

		r.mu.Lock()
		if r.manifestGen == gen {
			r.manifest = m
			r.manifestLoaded = true
		}
		r.mu.Unlock()
		return m, nil
	})
	return v.(Manifest)
}

// Prefetch loads several symbols concurrently. Symbols without templates are
// logged and skipped; other failures are returned.
func (r *Repository) Prefetch(ctx context.Context, symbols ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchWorkers)

	for _, symbol := range symbols {
		g.Go(func() error {
			_, err := r.Templates(ctx, symbol)
			if errors.Is(err, ErrNoTemplates) {
				r.logger.Warn("no templates to prefetch", "symbol", symbol)
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Forget drops symbol from the cache, and the manifest with it, so the next
// request reloads both from the source. Loads already in flight still
// answer their callers but no longer fill the cache.
func (r *Repository) Forget(symbol string) {
	r.mu.Lock()
	delete(r.cache, symbol)
	r.generations[symbol]++
	r.manifest = nil
	r.manifestLoaded = false
	r.manifestGen++
	r.mu.Unlock()
}

// Snapshot returns a copy of the loaded templates.
func (r *Repository) Snapshot() TemplateDict {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.cache)
}

// Impostors samples count templates of other loaded symbols.
func (r *Repository) Impostors(exclude string, count int) []*gesture.Template {
	dict := r.Snapshot()

	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return SelectImpostorTemplates(dict, exclude, count, r.rng)
}

func (r *Repository) observe(result string) {
	if r.recorder != nil {
		r.recorder.ObserveTemplateLoad(result)
	}
}
