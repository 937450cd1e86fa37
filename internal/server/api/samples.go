package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/store"
	"github.com/ayusman/signcoach/internal/templates"
)

// SamplesHandler records demonstrations of a symbol and trains reference
// templates from them.
type SamplesHandler struct {
	store   *store.Store
	repo    *templates.Repository
	trainer *gesture.Trainer
	logger  *slog.Logger
}

// NewSamplesHandler creates a SamplesHandler. Trained templates are written
// to s and dropped from repo's cache.
func NewSamplesHandler(s *store.Store, repo *templates.Repository, trainer *gesture.Trainer, logger *slog.Logger) *SamplesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SamplesHandler{store: s, repo: repo, trainer: trainer, logger: logger}
}

// Register mounts the sample and training endpoints on the router.
func (h *SamplesHandler) Register(r chi.Router) {
	r.Route("/symbols/{symbol}", func(r chi.Router) {
		r.Get("/samples", h.list)
		r.Post("/samples", h.create)
		r.Delete("/samples", h.deleteAll)
		r.Post("/train", h.train)
	})
}

// Request types

type createSamplesRequest struct {
	Samples [][][]landmark.RawPoint `json:"samples"`
}

type trainRequest struct {
	Name string `json:"name"`
}

// Response types

type sampleResponse struct {
	ID        int64  `json:"id"`
	Symbol    string `json:"symbol"`
	Frames    int    `json:"frames"`
	CreatedAt string `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type trainResponse struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Samples int    `json:"samples"`
	Frames  int    `json:"frames"`
}

// symbolType resolves the path symbol, writing a 404 for unknown symbols.
func (h *SamplesHandler) symbolType(w http.ResponseWriter, r *http.Request) (string, gesture.SignType, bool) {
	symbol := chi.URLParam(r, "symbol")
	typ, err := h.repo.Vocabulary().Type(symbol)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown symbol")
		return "", "", false
	}
	return symbol, typ, true
}

// list handles GET /api/symbols/{symbol}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request) {
	symbol, _, ok := h.symbolType(w, r)
	if !ok {
		return
	}

	samples, err := h.store.Samples().ListBySymbol(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		var frames []json.RawMessage
		json.Unmarshal(s.Data, &frames)
		response.Samples = append(response.Samples, sampleResponse{
			ID:        s.ID,
			Symbol:    s.Symbol,
			Frames:    len(frames),
			CreatedAt: formatTime(s.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/symbols/{symbol}/samples
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol, typ, ok := h.symbolType(w, r)
	if !ok {
		return
	}

	var req createSamplesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	sequences := make([]landmark.Sequence, len(req.Samples))
	for i, raw := range req.Samples {
		seq, err := landmark.ParseSequence(raw)
		if err == nil {
			err = landmark.ValidateSequence(seq, 1)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("sample %d: %v", i, err))
			return
		}
		sequences[i] = seq
	}

	if err := h.store.Symbols().Upsert(ctx, &store.Symbol{Name: symbol, Type: typ}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register symbol")
		return
	}

	for _, seq := range sequences {
		data, err := json.Marshal(seq)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode sample")
			return
		}
		if _, err := h.store.Samples().Create(ctx, symbol, data); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save samples")
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]int{"created": len(sequences)})
}

// deleteAll handles DELETE /api/symbols/{symbol}/samples
func (h *SamplesHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	symbol, _, ok := h.symbolType(w, r)
	if !ok {
		return
	}

	if err := h.store.Samples().DeleteBySymbol(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/symbols/{symbol}/train. It averages the recorded
// samples into one template stored as <name>.json.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol, typ, ok := h.symbolType(w, r)
	if !ok {
		return
	}

	var req trainRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = "trained-" + time.Now().UTC().Format("20060102T150405")
	}
	if strings.ContainsAny(req.Name, `/\.`) {
		writeError(w, http.StatusBadRequest, "Invalid template name")
		return
	}

	stored, err := h.store.Samples().ListBySymbol(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	samples := make([]landmark.Sequence, 0, len(stored))
	for _, s := range stored {
		var seq landmark.Sequence
		if err := json.Unmarshal(s.Data, &seq); err != nil {
			h.logger.WarnContext(ctx, "skipping unreadable sample", "symbol", symbol, "sample", s.ID, "error", err)
			continue
		}
		samples = append(samples, seq)
	}

	tpl, err := h.trainer.Train(symbol, req.Name, typ, samples)
	if err != nil {
		if errors.Is(err, gesture.ErrNoSamples) {
			writeError(w, http.StatusConflict, "No samples recorded")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := templates.EncodeTemplateJSON(tpl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode template")
		return
	}
	if _, err := h.store.Templates().Put(ctx, symbol, req.Name+".json", data); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save template")
		return
	}
	h.repo.Forget(symbol)

	h.logger.InfoContext(ctx, "template trained", "symbol", symbol, "name", req.Name, "samples", len(samples))

	writeJSON(w, http.StatusCreated, trainResponse{
		Symbol:  symbol,
		Name:    req.Name,
		Samples: len(samples),
		Frames:  len(tpl.Frames),
	})
}
