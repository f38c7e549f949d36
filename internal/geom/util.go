package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const Tolerance = 1e-6

// To compensate for imprecision in floats, equality is tolerance based.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}

func EqualTol(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// Often we want to treat an array as a circular buffer. This gives the modular
// index given length n, but unlike the raw modulo operator, it only gives positive values
func CircularIndex(i, n int) int {
	return (i%n + n) % n
}

func VecEqual(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func Vec2Equal(a, b r2.Vec, tol float64) bool {
	return r2.Norm(r2.Sub(a, b)) <= tol
}

// SafeUnit normalizes v, reporting false instead of producing NaNs for
// vectors shorter than Tolerance.
func SafeUnit(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < Tolerance {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

func SafeUnit2(v r2.Vec) (r2.Vec, bool) {
	n := r2.Norm(v)
	if n < Tolerance {
		return r2.Vec{}, false
	}
	return r2.Scale(1/n, v), true
}

func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Parallel reports whether two unit directions are parallel or anti-parallel
// within dotTol.
func Parallel(a, b r3.Vec, dotTol float64) bool {
	return 1-math.Abs(r3.Dot(a, b)) <= dotTol
}

// SignedAngle is the angle in degrees, in [0, 360), that rotates from about
// axis onto to, both assumed perpendicular to axis.
func SignedAngle(from, to, axis r3.Vec) float64 {
	y := r3.Dot(r3.Cross(from, to), axis)
	x := r3.Dot(from, to)
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360-Tolerance {
		deg = 0
	}
	return deg
}

// Perpendicular returns a unit vector perpendicular to dir, preferring world
// up projected onto dir's normal plane, and world X for vertical directions.
func Perpendicular(dir r3.Vec, dotTol float64) r3.Vec {
	up := r3.Vec{Z: 1}
	if Parallel(dir, up, dotTol) {
		up = r3.Vec{X: 1}
	}
	ref := r3.Sub(up, r3.Scale(r3.Dot(up, dir), dir))
	ref, _ = SafeUnit(ref)
	return ref
}

func Bounds(points []r3.Vec) r3.Box {
	box := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, p := range points {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Min.Z = math.Min(box.Min.Z, p.Z)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
		box.Max.Z = math.Max(box.Max.Z, p.Z)
	}
	return box
}
