package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/templates"
)

// MatchHandler evaluates one-shot attempts posted as landmark frames.
type MatchHandler struct {
	practice *practice.Coordinator
	logger   *slog.Logger
}

// NewMatchHandler creates a MatchHandler evaluating through c.
func NewMatchHandler(c *practice.Coordinator, logger *slog.Logger) *MatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchHandler{practice: c, logger: logger}
}

// Register mounts the match endpoint on the router.
func (h *MatchHandler) Register(r chi.Router) {
	r.Post("/match", h.HandleMatch)
}

// MatchRequest is the body of POST /api/match.
type MatchRequest struct {
	Symbol string                `json:"symbol"`
	Frames [][]landmark.RawPoint `json:"frames"`
}

// HandleMatch handles POST /api/match.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req MatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	frames, err := landmark.ParseSequence(req.Frames)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.practice.Match(ctx, req.Symbol, frames)
	if err != nil {
		if errors.Is(err, templates.ErrUnknownSymbol) {
			writeError(w, http.StatusNotFound, "Unknown symbol")
			return
		}
		h.logger.ErrorContext(ctx, "match failed", "symbol", req.Symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to match")
		return
	}

	h.logger.InfoContext(ctx, "attempt matched",
		"symbol", req.Symbol,
		"frames", len(frames),
		"decision", result.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, NewResultResponse(result))
}
