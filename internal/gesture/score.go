package gesture

import (
	"math"
	"math/rand/v2"
)

// Score band edges.
const (
	acceptBandTop    = 98.0
	acceptBandSpan   = 13.0
	acceptBandFloor  = 85.0
	middleBandTop    = 84.0
	middleBandBottom = 26.0
	rejectBandTop    = 25.0
	rejectBandSlope  = 2.0

	acceptJitter = 2.0
	rejectJitter = 3.0
)

// Jitter returns a perturbation in [-amplitude, +amplitude].
type Jitter func(amplitude float64) float64

// RandomJitter returns a Jitter drawing uniformly from r. A nil r uses the
// global source, which is safe for concurrent use; a non-nil r is not.
func RandomJitter(r *rand.Rand) Jitter {
	float64n := rand.Float64
	if r != nil {
		float64n = r.Float64
	}
	return func(amplitude float64) float64 {
		return (float64n() - 0.5) * 2 * amplitude
	}
}

// DistanceToScore maps a distance to a 0-100 score in three bands:
//
//	distance <= accept           -> [85, 100]
//	accept < distance < reject   -> linear from 84 down to 26
//	distance >= reject           -> [0, 25]
//
// The distance is multiplied by strictness first. A nil jitter yields a
// deterministic score; otherwise the outer bands receive up to ±2 and ±3
// points of noise respectively.
func DistanceToScore(distance, acceptThreshold, rejectThreshold, strictness float64, jitter Jitter) float64 {
	d := distance * strictness

	if d <= acceptThreshold {
		ratio := d / acceptThreshold
		score := acceptBandTop - acceptBandSpan*ratio
		if jitter != nil {
			score += jitter(acceptJitter)
		}
		return clamp(score, acceptBandFloor, 100)
	}

	if d >= rejectThreshold {
		score := math.Max(0, rejectBandTop-rejectBandSlope*(d-rejectThreshold))
		if jitter != nil {
			score += jitter(rejectJitter)
		}
		return clamp(score, 0, rejectBandTop)
	}

	ratio := (d - acceptThreshold) / (rejectThreshold - acceptThreshold)
	score := middleBandTop - (middleBandTop-middleBandBottom)*ratio
	return clamp(score, middleBandBottom, middleBandTop)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
