package gesture

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/signcoach/internal/landmark"
)

const (
	// topCandidateCount is the number of candidates attached to a Result.
	topCandidateCount = 3
	// ambiguousPosition places the degraded ambiguity score 80% of the way
	// from the accept threshold to the reject threshold.
	ambiguousPosition = 0.8
	// impostorPenalty multiplies the reject threshold to score impostor rejections.
	impostorPenalty = 2.0
)

// Recorder receives one observation per completed match.
type Recorder interface {
	ObserveMatch(signType string, decision string, elapsed time.Duration)
}

// Matcher scores captured sequences against templates of one symbol.
// A Matcher is safe for concurrent use when its Jitter is.
type Matcher struct {
	cfg      Config
	jitter   Jitter
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithJitter enables cosmetic score noise. The default is no noise.
func WithJitter(j Jitter) Option {
	return func(m *Matcher) {
		m.jitter = j
	}
}

// WithLogger sets the logger for the matcher.
func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRecorder sets the sink for match observations.
func WithRecorder(r Recorder) Option {
	return func(m *Matcher) {
		m.recorder = r
	}
}

// NewMatcher validates cfg and returns a Matcher using it.
func NewMatcher(cfg Config, opts ...Option) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the matcher's configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// MatchSequence validates cfg and matches captured against templates with a
// deterministic matcher.
func MatchSequence(captured landmark.Sequence, templates []*Template, cfg Config, impostors []*Template) (Result, error) {
	m, err := NewMatcher(cfg)
	if err != nil {
		return Result{}, err
	}
	return m.Match(captured, templates, impostors), nil
}

// Match compares a raw captured sequence against every template of one
// symbol and decides whether the symbol was performed. Impostors are
// templates of other symbols; they may be nil.
//
// Not recognizing a sign is never an error: it is reported through
// Result.Decision.
func (m *Matcher) Match(captured landmark.Sequence, templates []*Template, impostors []*Template) Result {
	start := time.Now()

	if len(templates) == 0 {
		return m.finish(start, "", unmatched())
	}

	signType := templates[0].Type
	if len(captured) == 0 || len(captured) < m.cfg.MinFramesRequired {
		m.logger.Debug("insufficient capture",
			"symbol", templates[0].Symbol,
			"frames", len(captured),
			"required", m.cfg.MinFramesRequired)
		return m.finish(start, signType, unmatched())
	}

	preprocessed := m.preprocess(captured)

	distances := make([]float64, len(templates))
	for i, t := range templates {
		distances[i] = m.compare(signType, preprocessed, t)
	}

	bestIdx := BestMatchIndex(distances)
	best := distances[bestIdx]
	accept, reject := m.cfg.Thresholds(signType)

	result := Result{
		Distance:          best,
		MatchedTemplateID: templates[bestIdx].ID,
		TopCandidates:     topCandidates(templates, distances, topCandidateCount),
	}

	// Hard rejection.
	if best >= reject {
		result.Decision = DecisionRejected
		result.Score = m.score(best, accept, reject)
		return m.finish(start, signType, result)
	}

	// Near-ties never read as confident matches.
	if TopTwoMargin(distances) < m.cfg.Top2MarginThreshold {
		result.Decision = DecisionAmbiguous
		result.Score = m.score(accept+(reject-accept)*ambiguousPosition, accept, reject)
		result.Inflated = true
		return m.finish(start, signType, result)
	}

	if m.cfg.EnableImpostorCheck && len(impostors) > 0 && m.impostorWins(signType, preprocessed, impostors, best, accept) {
		result.Decision = DecisionRejected
		result.Score = m.score(reject*impostorPenalty, accept, reject)
		result.Inflated = true
		return m.finish(start, signType, result)
	}

	switch {
	case best <= accept:
		result.Decision = DecisionAccepted
	case best >= reject:
		result.Decision = DecisionRejected
	default:
		result.Decision = DecisionAmbiguous
	}
	result.Score = m.score(best, accept, reject)

	return m.finish(start, signType, result)
}

// impostorWins reports whether the capture is better explained by another
// symbol, or is too generic to tell apart from other symbols.
func (m *Matcher) impostorWins(signType SignType, captured landmark.Sequence, impostors []*Template, best, accept float64) bool {
	distances := make([]float64, len(impostors))
	for i, t := range impostors {
		distances[i] = m.compare(signType, captured, t)
	}

	closest := slices.Min(distances)
	if closest < best-m.cfg.ImpostorMargin {
		m.logger.Debug("impostor closer than target",
			"impostor", impostors[BestMatchIndex(distances)].Symbol,
			"impostor_distance", closest,
			"target_distance", best)
		return true
	}

	if !m.cfg.EnableDistinctivenessCheck || math.IsInf(closest, 1) {
		return false
	}

	mean := stat.Mean(distances, nil)
	if best <= accept && mean <= accept && mean-best < m.cfg.DistinctivenessMargin {
		m.logger.Debug("pose not distinctive",
			"mean_impostor_distance", mean,
			"target_distance", best)
		return true
	}
	return false
}

// preprocess normalizes every captured frame and smooths the result.
func (m *Matcher) preprocess(seq landmark.Sequence) landmark.Sequence {
	normalized := landmark.NormalizeSequence(seq, m.cfg.normalizeOptions())
	return landmark.SmoothSequence(normalized, m.cfg.SmoothingWindow)
}

// compare dispatches on the target sign type. Templates are normalized with
// the capture's options so raw and pre-normalized libraries compare alike.
func (m *Matcher) compare(signType SignType, captured landmark.Sequence, t *Template) float64 {
	if len(t.Frames) == 0 {
		return math.Inf(1)
	}
	tpl := landmark.NormalizeSequence(t.Frames, m.cfg.normalizeOptions())

	if signType == TypeDynamic {
		return m.compareDynamic(captured, tpl)
	}
	return m.compareStatic(captured, tpl[0])
}

// compareStatic averages the frame distance of the last StaticWindowSize
// captured frames to the template pose.
func (m *Matcher) compareStatic(captured landmark.Sequence, pose landmark.Frame) float64 {
	size := min(m.cfg.StaticWindowSize, len(captured))
	if size == 0 {
		return math.Inf(1)
	}
	window := captured[len(captured)-size:]

	d, err := SeqL2Distance(window, landmark.Repeat(pose, size))
	if err != nil {
		return math.Inf(1)
	}
	return d
}

// compareDynamic resamples both trajectories to a common length and aligns
// them with DTW.
func (m *Matcher) compareDynamic(captured, tpl landmark.Sequence) float64 {
	if len(captured) == 0 || len(tpl) == 0 {
		return math.Inf(1)
	}
	n := m.cfg.DynamicResampleLength
	return DTWDistanceBand(
		landmark.ResampleSequence(captured, n),
		landmark.ResampleSequence(tpl, n),
		m.cfg.DTWBand,
	)
}

func (m *Matcher) score(distance, accept, reject float64) float64 {
	return DistanceToScore(distance, accept, reject, m.cfg.StrictnessFactor, m.jitter)
}

func (m *Matcher) finish(start time.Time, signType SignType, r Result) Result {
	if m.recorder != nil {
		m.recorder.ObserveMatch(string(signType), string(r.Decision), time.Since(start))
	}
	return r
}

// unmatched is the result for a capture that could not be compared at all.
func unmatched() Result {
	return Result{
		Score:    0,
		Distance: math.Inf(1),
		Decision: DecisionRejected,
	}
}

// topCandidates returns the n templates with the smallest distances.
func topCandidates(templates []*Template, distances []float64, n int) []Candidate {
	candidates := make([]Candidate, len(templates))
	for i, t := range templates {
		candidates[i] = Candidate{
			TemplateID: t.ID,
			Symbol:     t.Symbol,
			Distance:   distances[i],
		}
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
