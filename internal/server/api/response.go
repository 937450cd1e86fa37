// Package api provides the JSON HTTP handlers of the signcoach server.
package api

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/ayusman/signcoach/internal/gesture"
)

// maxBodySize bounds request bodies carrying landmark frames.
const maxBodySize = 8 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// CandidateResponse is the wire form of a gesture.Candidate.
type CandidateResponse struct {
	TemplateID string   `json:"templateId"`
	Symbol     string   `json:"symbol"`
	Distance   *float64 `json:"distance"`
}

// ResultResponse is the wire form of a gesture.Result. Infinite distances
// are encoded as null.
type ResultResponse struct {
	Score             float64             `json:"score"`
	Distance          *float64            `json:"distance"`
	MatchedTemplateID string              `json:"matchedTemplateId"`
	Decision          gesture.Decision    `json:"decision"`
	Inflated          bool                `json:"inflated"`
	TopCandidates     []CandidateResponse `json:"topCandidates"`
}

// NewResultResponse converts r for encoding.
func NewResultResponse(r gesture.Result) ResultResponse {
	resp := ResultResponse{
		Score:             r.Score,
		Distance:          finite(r.Distance),
		MatchedTemplateID: r.MatchedTemplateID,
		Decision:          r.Decision,
		Inflated:          r.Inflated,
		TopCandidates:     make([]CandidateResponse, 0, len(r.TopCandidates)),
	}
	for _, c := range r.TopCandidates {
		resp.TopCandidates = append(resp.TopCandidates, CandidateResponse{
			TemplateID: c.TemplateID,
			Symbol:     c.Symbol,
			Distance:   finite(c.Distance),
		})
	}
	return resp
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON decodes a bounded request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}
