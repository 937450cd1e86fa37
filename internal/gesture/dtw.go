package gesture

import (
	"math"

	"github.com/ayusman/signcoach/internal/landmark"
)

// DTWDistance calculates the Dynamic Time Warping distance between two
// sequences using FrameDistance as the local cost.
// Returns infinity if either sequence is empty.
// The accumulated cost is normalized by len(a)+len(b).
func DTWDistance(a, b landmark.Sequence) float64 {
	return DTWDistanceBand(a, b, 0)
}

// DTWDistanceBand is DTWDistance restricted to a Sakoe-Chiba band of the
// given half-width. A band of 0 or less disables the restriction. The band is
// widened to |len(a)-len(b)| so the end cell stays reachable.
func DTWDistanceBand(a, b landmark.Sequence, band int) float64 {
	m := len(a)
	n := len(b)

	if m == 0 || n == 0 {
		return math.Inf(1)
	}

	if band > 0 {
		band = max(band, abs(m-n))
	}

	// (m+1) x (n+1) cost table, row-major
	width := n + 1
	dp := make([]float64, (m+1)*width)
	for i := range dp {
		dp[i] = math.Inf(1)
	}
	dp[0] = 0

	for i := 1; i <= m; i++ {
		lo, hi := 1, n
		if band > 0 {
			lo = max(1, i-band)
			hi = min(n, i+band)
		}

		row := i * width
		prev := row - width
		for j := lo; j <= hi; j++ {
			cost := FrameDistance(&a[i-1], &b[j-1])
			dp[row+j] = cost + min3(
				dp[prev+j],   // insertion
				dp[row+j-1],  // deletion
				dp[prev+j-1], // match
			)
		}
	}

	return dp[m*width+n] / float64(m+n)
}

// min3 returns the minimum of three float64 values.
func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
