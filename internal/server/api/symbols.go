package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/templates"
)

// SymbolHandler exposes the vocabulary and the reference templates.
type SymbolHandler struct {
	repo *templates.Repository
}

// NewSymbolHandler creates a SymbolHandler serving repo.
func NewSymbolHandler(repo *templates.Repository) *SymbolHandler {
	return &SymbolHandler{repo: repo}
}

// Register mounts the symbol endpoints on the router.
func (h *SymbolHandler) Register(r chi.Router) {
	r.Get("/symbols", h.list)
	r.Get("/symbols/{symbol}/templates", h.templates)
}

type symbolResponse struct {
	Symbol    string           `json:"symbol"`
	Type      gesture.SignType `json:"type"`
	Templates int              `json:"templates"`
	Loaded    bool             `json:"loaded"`
}

type listSymbolsResponse struct {
	Symbols []symbolResponse `json:"symbols"`
}

type templateResponse struct {
	ID     string `json:"id"`
	Frames int    `json:"frames"`
}

type listTemplatesResponse struct {
	Symbol    string             `json:"symbol"`
	Type      gesture.SignType   `json:"type"`
	Templates []templateResponse `json:"templates"`
}

// list handles GET /api/symbols. Template counts cover loaded symbols only.
func (h *SymbolHandler) list(w http.ResponseWriter, r *http.Request) {
	vocab := h.repo.Vocabulary()
	loaded := h.repo.Snapshot()

	response := listSymbolsResponse{
		Symbols: make([]symbolResponse, 0, len(vocab)),
	}
	for _, symbol := range vocab.Symbols() {
		ts, ok := loaded[symbol]
		response.Symbols = append(response.Symbols, symbolResponse{
			Symbol:    symbol,
			Type:      vocab[symbol],
			Templates: len(ts),
			Loaded:    ok,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// templates handles GET /api/symbols/{symbol}/templates, loading the
// symbol's templates if needed.
func (h *SymbolHandler) templates(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	ts, err := h.repo.Templates(r.Context(), symbol)
	switch {
	case errors.Is(err, templates.ErrUnknownSymbol):
		writeError(w, http.StatusNotFound, "Unknown symbol")
		return
	case errors.Is(err, templates.ErrNoTemplates):
		ts = nil
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to load templates")
		return
	}

	response := listTemplatesResponse{
		Symbol:    symbol,
		Type:      h.repo.Vocabulary()[symbol],
		Templates: make([]templateResponse, 0, len(ts)),
	}
	for _, t := range ts {
		response.Templates = append(response.Templates, templateResponse{ID: t.ID, Frames: len(t.Frames)})
	}

	writeJSON(w, http.StatusOK, response)
}
