package landmark

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func framesClose(a, b Frame, tol float64) bool {
	for i := range a {
		if math.Abs(a[i].X-b[i].X) > tol || math.Abs(a[i].Y-b[i].Y) > tol || math.Abs(a[i].Z-b[i].Z) > tol {
			return false
		}
	}
	return true
}

func TestNormalizeFrame(t *testing.T) {
	t.Run("wrist at origin after normalization", func(t *testing.T) {
		for _, opts := range []NormalizeOptions{
			{ScaleMode: ScaleBBox},
			{ScaleMode: ScaleTips},
			{ScaleMode: ScaleBBox, EnableRotation: true},
		} {
			normalized := NormalizeFrame(Translate(OpenPalm(), 100, 200, 50), opts)
			if normalized[Wrist] != (Point3D{}) {
				t.Errorf("opts %+v: expected wrist at origin, got %+v", opts, normalized[Wrist])
			}
		}
	})

	t.Run("uniform scale is removed", func(t *testing.T) {
		base := NormalizeFrame(ThumbsUp(), NormalizeOptions{})
		for _, k := range []float64{0.01, 0.5, 3, 250} {
			scaled := NormalizeFrame(Scale(ThumbsUp(), k), NormalizeOptions{})
			if !framesClose(base, scaled, 1e-9) {
				t.Errorf("k=%v: normalized frame differs from unscaled frame", k)
			}
		}
	})

	t.Run("bbox diagonal is one", func(t *testing.T) {
		f := NormalizeFrame(OpenPalm(), NormalizeOptions{ScaleMode: ScaleBBox})
		minX, maxX, minY, maxY := f[0].X, f[0].X, f[0].Y, f[0].Y
		for _, p := range f {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
		if d := math.Hypot(maxX-minX, maxY-minY); math.Abs(d-1) > epsilon {
			t.Errorf("expected bbox diagonal 1, got %f", d)
		}
	})

	t.Run("tips scale gives unit mean fingertip distance", func(t *testing.T) {
		f := NormalizeFrame(OpenPalm(), NormalizeOptions{ScaleMode: ScaleTips})
		var sum float64
		for _, idx := range fingertips {
			sum += distance3D(f[Wrist], f[idx])
		}
		if mean := sum / 4; math.Abs(mean-1) > epsilon {
			t.Errorf("expected mean fingertip distance 1, got %f", mean)
		}
	})

	t.Run("degenerate frame does not divide by zero", func(t *testing.T) {
		var f Frame
		for i := range f {
			f[i] = Point3D{X: 0.3, Y: 0.3, Z: 0.1}
		}
		normalized := NormalizeFrame(f, NormalizeOptions{})
		if err := ValidateFrame(normalized); err != nil {
			t.Errorf("expected finite frame, got %v", err)
		}
	})
}

func TestRotateCanonical(t *testing.T) {
	f := RotateCanonical(CenterOnWrist(OpenPalm()))

	mcp := f[MiddleMCP]
	if math.Abs(mcp.Y) > epsilon || mcp.X <= 0 {
		t.Errorf("expected middle MCP on +X axis, got (%f, %f)", mcp.X, mcp.Y)
	}

	// Rotation preserves distances from the wrist
	orig := CenterOnWrist(OpenPalm())
	for i := range f {
		if math.Abs(distance3D(Point3D{}, f[i])-distance3D(Point3D{}, orig[i])) > epsilon {
			t.Errorf("point %d: rotation changed distance from wrist", i)
		}
	}
}

func TestParseLandmarks(t *testing.T) {
	z := 0.25
	raw := make([]RawPoint, NumLandmarks)
	for i := range raw {
		raw[i] = RawPoint{X: float64(i), Y: float64(i) * 2}
	}
	raw[3].Z = &z

	f, err := ParseLandmarks(raw)
	if err != nil {
		t.Fatalf("ParseLandmarks() error = %v", err)
	}
	if f[0].Z != 0 {
		t.Errorf("expected missing z to default to 0, got %f", f[0].Z)
	}
	if f[3].Z != 0.25 {
		t.Errorf("expected z 0.25, got %f", f[3].Z)
	}
	if f[20].Y != 40 {
		t.Errorf("expected y 40, got %f", f[20].Y)
	}

	for _, n := range []int{0, 20, 22} {
		_, err := ParseLandmarks(make([]RawPoint, n))
		if !errors.Is(err, ErrInvalidFrame) {
			t.Errorf("%d points: expected ErrInvalidFrame, got %v", n, err)
		}
	}
}

func TestParseSequence_ReportsFrameIndex(t *testing.T) {
	good := make([]RawPoint, NumLandmarks)
	_, err := ParseSequence([][]RawPoint{good, good[:5]})
	if err == nil {
		t.Fatal("expected error for short frame")
	}
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame, got %v", err)
	}
}
