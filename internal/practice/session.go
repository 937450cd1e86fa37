// Package practice runs practice attempts: it buffers the frames captured
// while a learner performs a sign and evaluates them against the reference
// templates of that sign.
package practice

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/landmark"
)

var (
	// ErrNotCapturing is returned when an attempt is evaluated without an
	// active capture.
	ErrNotCapturing = errors.New("session is not capturing")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
)

// maxFrames caps the capture buffer of one attempt, about 20 seconds at 30 FPS.
const maxFrames = 600

// State is the lifecycle position of a Session.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateEvaluating State = "evaluating"
	StateDone       State = "done"
)

// Session is one learner practicing one symbol. Each Begin starts a new
// attempt; the frames of the previous attempt are discarded.
type Session struct {
	ID        string
	Symbol    string
	CreatedAt time.Time

	mu     sync.Mutex
	state  State
	frames landmark.Sequence
	result *gesture.Result
}

func newSession(symbol string) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		CreatedAt: time.Now(),
		state:     StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin starts a new capture. It fails while an evaluation is running.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEvaluating {
		return errors.New("session is evaluating")
	}
	s.state = StateCapturing
	s.frames = make(landmark.Sequence, 0, 64)
	s.result = nil
	return nil
}

// AddFrame appends f to the capture buffer. Frames that arrive outside a
// capture, or beyond the buffer limit, are ignored and reported as false.
func (s *Session) AddFrame(f landmark.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing || len(s.frames) >= maxFrames {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

// Abandon drops the current attempt without evaluating it.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEvaluating {
		return
	}
	s.state = StateIdle
	s.frames = nil
}

// Frames returns a copy of the captured frames.
func (s *Session) Frames() landmark.Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frames)
}

// Result returns the outcome of the last evaluated attempt.
func (s *Session) Result() (gesture.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return gesture.Result{}, false
	}
	return *s.result, true
}

// stopCapture moves a capturing session to evaluating and hands over its frames.
func (s *Session) stopCapture() (landmark.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing {
		return nil, ErrNotCapturing
	}
	s.state = StateEvaluating
	frames := s.frames
	s.frames = nil
	return frames, nil
}

func (s *Session) complete(r gesture.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDone
	s.result = &r
}

// fail returns an evaluating session to idle.
func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
}
