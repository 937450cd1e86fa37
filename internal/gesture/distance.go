package gesture

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/signcoach/internal/landmark"
)

// ErrLengthMismatch is returned by SeqL2Distance when the sequences differ in length.
var ErrLengthMismatch = errors.New("sequence length mismatch")

// FrameDistance is the root mean square of the per-landmark 3D Euclidean
// distances between two frames.
func FrameDistance(a, b *landmark.Frame) float64 {
	var sumSq float64
	for i := range a {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		sumSq += dx*dx + dy*dy + dz*dz
	}
	return math.Sqrt(sumSq / landmark.NumLandmarks)
}

// SeqL2Distance is the mean FrameDistance over paired frames of two
// equal-length sequences. Empty sequences are infinitely far apart.
func SeqL2Distance(a, b landmark.Sequence) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return math.Inf(1), nil
	}

	var sum float64
	for i := range a {
		sum += FrameDistance(&a[i], &b[i])
	}
	return sum / float64(len(a)), nil
}

// TopTwoMargin returns the relative gap (d2-d1)/d1 between the two smallest
// distances. Fewer than two candidates, or a perfect best match with a
// nonzero runner-up, is unambiguous (1.0); two perfect matches are fully
// ambiguous (0.0).
func TopTwoMargin(distances []float64) float64 {
	if len(distances) < 2 {
		return 1.0
	}

	sorted := slices.Clone(distances)
	slices.Sort(sorted)
	best, second := sorted[0], sorted[1]

	if best == 0 {
		if second > 0 {
			return 1.0
		}
		return 0.0
	}
	return (second - best) / best
}

// BestMatchIndex returns the index of the smallest distance, or -1 when empty.
func BestMatchIndex(distances []float64) int {
	if len(distances) == 0 {
		return -1
	}
	return floats.MinIdx(distances)
}
