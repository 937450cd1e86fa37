package landmark

import "math"

// minScale floors scale factors so degenerate frames do not divide by zero.
const minScale = 1e-6

// ScaleMode selects how a frame is scaled after centering.
type ScaleMode string

const (
	// ScaleBBox divides by the diagonal of the 2D bounding box.
	ScaleBBox ScaleMode = "bbox"
	// ScaleTips divides by the mean wrist-to-fingertip distance.
	ScaleTips ScaleMode = "tips"
)

// NormalizeOptions controls NormalizeFrame.
type NormalizeOptions struct {
	ScaleMode      ScaleMode
	EnableRotation bool
}

// CenterOnWrist translates the frame so the wrist sits at the origin.
func CenterOnWrist(f Frame) Frame {
	wrist := f[Wrist]
	var out Frame
	for i, p := range f {
		out[i] = Point3D{
			X: p.X - wrist.X,
			Y: p.Y - wrist.Y,
			Z: p.Z - wrist.Z,
		}
	}
	return out
}

// ScaleByBBox divides every coordinate by the diagonal of the frame's XY
// bounding box.
func ScaleByBBox(f Frame) Frame {
	minX, maxX := f[0].X, f[0].X
	minY, maxY := f[0].Y, f[0].Y

	for _, p := range f[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	return scale(f, math.Max(minScale, math.Hypot(maxX-minX, maxY-minY)))
}

// ScaleByTips divides every coordinate by the mean 3D distance from the wrist
// to the four non-thumb fingertips. It is steadier than ScaleByBBox when a
// single extended finger stretches the bounding box.
func ScaleByTips(f Frame) Frame {
	var sum float64
	for _, idx := range fingertips {
		sum += distance3D(f[Wrist], f[idx])
	}
	avg := sum / float64(len(fingertips))
	return scale(f, math.Max(minScale, avg))
}

func scale(f Frame, s float64) Frame {
	var out Frame
	for i, p := range f {
		out[i] = Point3D{X: p.X / s, Y: p.Y / s, Z: p.Z / s}
	}
	return out
}

// RotateCanonical rotates the frame in the XY plane so the wrist to middle
// finger MCP vector points along +X. Z is left untouched.
func RotateCanonical(f Frame) Frame {
	dx := f[MiddleMCP].X - f[Wrist].X
	dy := f[MiddleMCP].Y - f[Wrist].Y
	angle := math.Atan2(dy, dx)

	cos := math.Cos(-angle)
	sin := math.Sin(-angle)

	var out Frame
	for i, p := range f {
		out[i] = Point3D{
			X: p.X*cos - p.Y*sin,
			Y: p.X*sin + p.Y*cos,
			Z: p.Z,
		}
	}
	return out
}

// NormalizeFrame centers on the wrist, scales, then optionally rotates.
// An empty ScaleMode means ScaleBBox.
func NormalizeFrame(f Frame, opts NormalizeOptions) Frame {
	out := CenterOnWrist(f)

	if opts.ScaleMode == ScaleTips {
		out = ScaleByTips(out)
	} else {
		out = ScaleByBBox(out)
	}

	if opts.EnableRotation {
		out = RotateCanonical(out)
	}
	return out
}

// NormalizeSequence applies NormalizeFrame to every frame.
func NormalizeSequence(seq Sequence, opts NormalizeOptions) Sequence {
	out := make(Sequence, len(seq))
	for i, f := range seq {
		out[i] = NormalizeFrame(f, opts)
	}
	return out
}
