package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/signcoach/internal/landmark"
)

// ErrNoSamples is returned when a Trainer is given nothing to learn from.
var ErrNoSamples = errors.New("no samples provided")

// Trainer turns recorded demonstrations into templates. Samples are
// normalized with the same options the Matcher uses.
type Trainer struct {
	cfg Config
}

// NewTrainer creates a Trainer using cfg's preprocessing settings.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{cfg: cfg}
}

// Train builds a template of the given type from one or more samples.
func (t *Trainer) Train(symbol, id string, typ SignType, samples []landmark.Sequence) (*Template, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	for i, s := range samples {
		if err := landmark.ValidateSequence(s, 1); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	var frames landmark.Sequence
	switch typ {
	case TypeStatic:
		frames = landmark.Sequence{t.trainStatic(samples)}
	case TypeDynamic:
		frames = t.trainDynamic(samples)
	default:
		return nil, fmt.Errorf("unknown sign type %q", typ)
	}

	return &Template{
		ID:     id,
		Symbol: symbol,
		Type:   typ,
		Frames: frames,
	}, nil
}

// trainStatic averages the held pose of every sample: the last
// StaticWindowSize normalized frames of each.
func (t *Trainer) trainStatic(samples []landmark.Sequence) landmark.Frame {
	opts := t.cfg.normalizeOptions()

	var pose []landmark.Frame
	for _, s := range samples {
		size := min(t.cfg.StaticWindowSize, len(s))
		for _, f := range s[len(s)-size:] {
			pose = append(pose, landmark.NormalizeFrame(f, opts))
		}
	}
	return average(pose)
}

// trainDynamic resamples every sample to DynamicResampleLength and averages
// them frame by frame.
func (t *Trainer) trainDynamic(samples []landmark.Sequence) landmark.Sequence {
	opts := t.cfg.normalizeOptions()
	n := t.cfg.DynamicResampleLength

	resampled := make([]landmark.Sequence, len(samples))
	for i, s := range samples {
		resampled[i] = landmark.ResampleSequence(landmark.NormalizeSequence(s, opts), n)
	}

	out := make(landmark.Sequence, n)
	column := make([]landmark.Frame, len(resampled))
	for i := range out {
		for j, s := range resampled {
			column[j] = s[i]
		}
		out[i] = average(column)
	}
	return out
}

func average(frames []landmark.Frame) landmark.Frame {
	var avg landmark.Frame
	for _, f := range frames {
		for i, p := range f {
			avg[i].X += p.X
			avg[i].Y += p.Y
			avg[i].Z += p.Z
		}
	}
	n := float64(len(frames))
	for i := range avg {
		avg[i].X /= n
		avg[i].Y /= n
		avg[i].Z /= n
	}
	return avg
}
