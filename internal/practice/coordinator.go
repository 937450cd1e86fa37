package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/templates"
)

// Coordinator owns the live practice sessions and evaluates their attempts.
type Coordinator struct {
	repo    *templates.Repository
	matcher *gesture.Matcher
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	loads sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for the coordinator.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a Coordinator matching against templates from repo.
func NewCoordinator(repo *templates.Repository, matcher *gesture.Matcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:     repo,
		matcher:  matcher,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a capturing session for symbol and loads its templates in the
// background so they are cached by the time the attempt is evaluated.
func (c *Coordinator) Start(ctx context.Context, symbol string) (*Session, error) {
	if _, err := c.repo.Vocabulary().Type(symbol); err != nil {
		return nil, err
	}

	s := newSession(symbol)
	if err := s.Begin(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	c.loads.Add(1)
	go func() {
		defer c.loads.Done()
		if _, err := c.repo.Templates(loadCtx, symbol); err != nil {
			c.logger.Warn("background template load failed", "symbol", symbol, "error", err)
		}
	}()

	c.logger.Debug("practice session started", "session", s.ID, "symbol", symbol)
	return s, nil
}

// Prefetch loads the templates of symbols, or of the whole vocabulary when
// none are given. Impostors are only drawn from loaded symbols.
func (c *Coordinator) Prefetch(ctx context.Context, symbols ...string) error {
	if len(symbols) == 0 {
		symbols = c.repo.Vocabulary().Symbols()
	}
	return c.repo.Prefetch(ctx, symbols...)
}

// Evaluate ends the capture of session id and matches its frames against the
// session's symbol. A symbol without templates yields a rejected result.
func (c *Coordinator) Evaluate(ctx context.Context, id string) (gesture.Result, error) {
	s, err := c.Get(id)
	if err != nil {
		return gesture.Result{}, err
	}

	frames, err := s.stopCapture()
	if err != nil {
		return gesture.Result{}, err
	}

	result, err := c.Match(ctx, s.Symbol, frames)
	if err != nil {
		s.fail()
		return gesture.Result{}, err
	}
	s.complete(result)

	c.logger.Info("attempt evaluated",
		"session", s.ID,
		"symbol", s.Symbol,
		"frames", len(frames),
		"decision", result.Decision,
		"score", result.Score)
	return result, nil
}

// Match evaluates frames as an attempt at symbol outside any session. The
// symbol's templates are loaded on demand; impostors are drawn from the
// symbols already loaded. A symbol without templates yields a rejected result.
func (c *Coordinator) Match(ctx context.Context, symbol string, frames landmark.Sequence) (gesture.Result, error) {
	targets, err := c.repo.Templates(ctx, symbol)
	switch {
	case errors.Is(err, templates.ErrNoTemplates):
		c.logger.Warn("no usable templates, attempt will be rejected", "symbol", symbol)
	case err != nil:
		return gesture.Result{}, fmt.Errorf("failed to load templates for %s: %w", symbol, err)
	}

	var impostors []*gesture.Template
	if cfg := c.matcher.Config(); cfg.EnableImpostorCheck {
		impostors = c.repo.Impostors(symbol, cfg.ImpostorCount)
	}

	return c.matcher.Match(frames, targets, impostors), nil
}

// Get returns the session with the given id.
func (c *Coordinator) Get(id string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove forgets the session with the given id.
func (c *Coordinator) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// Len returns the number of live sessions.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Wait blocks until background template loads have finished.
func (c *Coordinator) Wait() {
	c.loads.Wait()
}
