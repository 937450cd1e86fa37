package landmark

// ThumbsUp returns a preset frame with the thumb extended upward and the
// other fingers curled, in raw image coordinates.
func ThumbsUp() Frame {
	var f Frame

	f[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (Y decreases going up)
	f[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	f[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	f[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	f[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	f[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	f[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	f[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	f[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	f[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	f[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	f[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	f[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	f[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	f[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	f[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	f[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	f[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	f[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	f[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	f[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return f
}

// OpenPalm returns a preset frame with all fingers extended.
func OpenPalm() Frame {
	var f Frame

	f[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	f[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	f[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	f[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	f[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	f[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	f[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	f[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	f[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	f[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	f[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	f[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	f[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	f[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	f[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	f[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	f[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	f[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	f[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	f[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	f[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return f
}

// Repeat returns a sequence holding n copies of f.
func Repeat(f Frame, n int) Sequence {
	seq := make(Sequence, n)
	for i := range seq {
		seq[i] = f
	}
	return seq
}

// Translate returns f shifted by (dx, dy, dz).
func Translate(f Frame, dx, dy, dz float64) Frame {
	var out Frame
	for i, p := range f {
		out[i] = Point3D{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
	}
	return out
}

// Scale returns f with every coordinate multiplied by k.
func Scale(f Frame, k float64) Frame {
	var out Frame
	for i, p := range f {
		out[i] = Point3D{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
	}
	return out
}

// Interpolate returns the frame (1-t)*a + t*b.
func Interpolate(a, b Frame, t float64) Frame {
	var out Frame
	for i := range out {
		out[i] = Point3D{
			X: a[i].X*(1-t) + b[i].X*t,
			Y: a[i].Y*(1-t) + b[i].Y*t,
			Z: a[i].Z*(1-t) + b[i].Z*t,
		}
	}
	return out
}
