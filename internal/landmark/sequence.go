package landmark

import (
	"errors"
	"fmt"
	"math"
)

// SmoothSequence applies a centered moving average over windowSize frames,
// clipping the window at the sequence boundaries. A window of 1 or less, or
// an empty sequence, returns the input unchanged.
func SmoothSequence(seq Sequence, windowSize int) Sequence {
	if windowSize <= 1 || len(seq) == 0 {
		return seq
	}

	half := windowSize / 2
	ahead := (windowSize + 1) / 2

	smoothed := make(Sequence, len(seq))
	for i := range seq {
		start := max(0, i-half)
		end := min(len(seq), i+ahead)
		count := float64(end - start)

		var avg Frame
		for _, f := range seq[start:end] {
			for j, p := range f {
				avg[j].X += p.X
				avg[j].Y += p.Y
				avg[j].Z += p.Z
			}
		}
		for j := range avg {
			avg[j].X /= count
			avg[j].Y /= count
			avg[j].Z /= count
		}
		smoothed[i] = avg
	}

	return smoothed
}

// ResampleSequence linearly interpolates the sequence in time to exactly
// targetLength frames.
func ResampleSequence(seq Sequence, targetLength int) Sequence {
	if len(seq) == 0 || targetLength <= 0 {
		return Sequence{}
	}
	if len(seq) == targetLength {
		return seq
	}
	if targetLength == 1 {
		return Sequence{seq[0]}
	}

	result := make(Sequence, targetLength)
	ratio := float64(len(seq)-1) / float64(targetLength-1)

	for i := range result {
		pos := float64(i) * ratio
		lo := int(pos)
		hi := min(lo+1, len(seq)-1)
		t := pos - float64(lo)

		a, b := seq[lo], seq[hi]
		for j := range result[i] {
			result[i][j] = Point3D{
				X: a[j].X*(1-t) + b[j].X*t,
				Y: a[j].Y*(1-t) + b[j].Y*t,
				Z: a[j].Z*(1-t) + b[j].Z*t,
			}
		}
	}

	return result
}

// ErrInvalidFrame is returned when a frame does not hold 21 finite points.
var ErrInvalidFrame = errors.New("invalid landmark frame")

// ValidatePoints checks that raw tracker output has exactly 21 points.
func ValidatePoints(raw []RawPoint) error {
	if len(raw) != NumLandmarks {
		return fmt.Errorf("%w: expected %d points, got %d", ErrInvalidFrame, NumLandmarks, len(raw))
	}
	return nil
}

// ValidateFrame checks that every coordinate is a finite number.
func ValidateFrame(f Frame) error {
	for i, p := range f {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: point %d is not finite", ErrInvalidFrame, i)
		}
	}
	return nil
}

// ValidateSequence checks the sequence has at least minFrames frames and that
// every frame validates.
func ValidateSequence(seq Sequence, minFrames int) error {
	if len(seq) < minFrames {
		return fmt.Errorf("%w: %d frames, need at least %d", ErrInvalidFrame, len(seq), minFrames)
	}
	for i, f := range seq {
		if err := ValidateFrame(f); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
