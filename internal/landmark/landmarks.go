// Package landmark provides hand landmark types and the geometric transforms
// applied to them before gesture comparison.
package landmark

import (
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// fingertips are the four non-thumb fingertip indices used by ScaleByTips.
var fingertips = [...]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame is one hand pose at one instant. The array length carries the
// 21-landmark invariant.
type Frame [NumLandmarks]Point3D

// Sequence is an ordered list of frames forming a performed gesture.
type Sequence []Frame

// RawPoint is a single landmark as emitted by the hand tracker. Z is optional.
type RawPoint struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// ParseLandmarks converts tracker output into a Frame. A missing Z defaults to 0.
func ParseLandmarks(raw []RawPoint) (Frame, error) {
	var f Frame
	if err := ValidatePoints(raw); err != nil {
		return f, err
	}
	for i, p := range raw {
		f[i] = Point3D{X: p.X, Y: p.Y}
		if p.Z != nil {
			f[i].Z = *p.Z
		}
	}
	return f, nil
}

// ParseSequence converts a list of tracker frames into a Sequence, preserving order.
func ParseSequence(raw [][]RawPoint) (Sequence, error) {
	seq := make(Sequence, 0, len(raw))
	for i, frame := range raw {
		f, err := ParseLandmarks(frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		seq = append(seq, f)
	}
	return seq, nil
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
