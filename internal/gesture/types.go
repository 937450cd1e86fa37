// Package gesture compares captured landmark sequences against reference
// templates and decides whether a sign was performed.
package gesture

import (
	"fmt"

	"github.com/ayusman/signcoach/internal/landmark"
)

// SignType represents the type of sign (static or dynamic).
type SignType string

const (
	// TypeStatic is a sign recognized from a single held pose.
	TypeStatic SignType = "static"
	// TypeDynamic is a sign recognized from a motion trajectory.
	TypeDynamic SignType = "dynamic"
)

// Valid reports whether t is a known sign type.
func (t SignType) Valid() bool {
	return t == TypeStatic || t == TypeDynamic
}

// Template is one reference demonstration of a symbol.
type Template struct {
	ID     string            `json:"id"`
	Symbol string            `json:"symbol"`
	Type   SignType          `json:"type"`
	Frames landmark.Sequence `json:"frames"`
}

// Validate checks the frame-count invariant for the template's type.
func (t *Template) Validate() error {
	switch t.Type {
	case TypeStatic:
		if len(t.Frames) != 1 {
			return fmt.Errorf("static template %s has %d frames, expected 1", t.ID, len(t.Frames))
		}
	case TypeDynamic:
		if len(t.Frames) == 0 {
			return fmt.Errorf("dynamic template %s has no frames", t.ID)
		}
	default:
		return fmt.Errorf("template %s has unknown type %q", t.ID, t.Type)
	}
	return landmark.ValidateSequence(t.Frames, 1)
}

// Decision is the three-valued outcome of a match.
type Decision string

const (
	DecisionAccepted  Decision = "accepted"
	DecisionRejected  Decision = "rejected"
	DecisionAmbiguous Decision = "ambiguous"
)

// Candidate is one template's distance, reported for diagnostics.
type Candidate struct {
	TemplateID string  `json:"templateId"`
	Symbol     string  `json:"symbol"`
	Distance   float64 `json:"distance"`
}

// Result is the output of one matching call.
type Result struct {
	Score             float64     `json:"score"`    // 0-100
	Distance          float64     `json:"distance"` // true best distance, +Inf when nothing was compared
	MatchedTemplateID string      `json:"matchedTemplateId"`
	Decision          Decision    `json:"decision"`
	TopCandidates     []Candidate `json:"topCandidates,omitempty"`

	// Inflated is set when Score was computed from an artificial distance
	// (ambiguity or impostor rejection) instead of Distance.
	Inflated bool `json:"inflated"`
}
