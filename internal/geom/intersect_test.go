package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSegmentDistance(t *testing.T) {
	a, b := r2.Vec{}, r2.Vec{X: 2}
	assert.InDelta(t, 1, SegmentDistance2(r2.Vec{X: 1, Y: 1}, a, b), Tolerance)
	assert.InDelta(t, 1, SegmentDistance2(r2.Vec{X: 3}, a, b), Tolerance)
	assert.InDelta(t, 5, SegmentDistance2(r2.Vec{X: 3, Y: 4}, a, a), Tolerance)
}

func TestPointOnSegmentInterior(t *testing.T) {
	a, b := r3.Vec{}, r3.Vec{X: 2}
	s, ok := PointOnSegmentInterior(r3.Vec{X: 1, Y: 0.001}, a, b, 0.01)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, s, Tolerance)

	_, ok = PointOnSegmentInterior(r3.Vec{X: 0.005}, a, b, 0.01)
	assert.False(t, ok, "too close to an endpoint")
	_, ok = PointOnSegmentInterior(r3.Vec{X: 1, Y: 1}, a, b, 0.01)
	assert.False(t, ok)
}

func TestRayIntersection2D(t *testing.T) {
	t1, t2, ok := RayIntersection2D(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 2, Y: -1}, r2.Vec{Y: 1}, 1e-9)
	require.True(t, ok)
	assert.InDelta(t, 2, t1, Tolerance)
	assert.InDelta(t, 1, t2, Tolerance)

	_, _, ok = RayIntersection2D(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{Y: 1}, r2.Vec{X: -3}, 1e-9)
	assert.False(t, ok)
}

func TestSegmentIntersection3D(t *testing.T) {
	a0, a1 := r3.Vec{}, r3.Vec{X: 2}

	p, ta, tb, ok := SegmentIntersection3D(a0, a1, r3.Vec{X: 1, Y: -1}, r3.Vec{X: 1, Y: 1}, 0.01, 1e-9)
	require.True(t, ok)
	assertVecNear(t, r3.Vec{X: 1}, p)
	assert.InDelta(t, 0.5, ta, Tolerance)
	assert.InDelta(t, 0.5, tb, Tolerance)

	_, _, _, ok = SegmentIntersection3D(a0, a1, r3.Vec{X: 1, Y: -1, Z: 1}, r3.Vec{X: 1, Y: 1, Z: 1}, 0.01, 1e-9)
	assert.False(t, ok, "skew segments")
	_, _, _, ok = SegmentIntersection3D(a0, a1, r3.Vec{Y: 1}, r3.Vec{X: 2, Y: 1}, 0.01, 1e-9)
	assert.False(t, ok, "parallel segments")
	_, _, _, ok = SegmentIntersection3D(a0, a1, r3.Vec{X: 3, Y: -1}, r3.Vec{X: 3, Y: 1}, 0.01, 1e-9)
	assert.False(t, ok, "lines cross beyond the segment")
}

func TestAngles(t *testing.T) {
	x, y, z := r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	assert.InDelta(t, 90, SignedAngle(x, y, z), Tolerance)
	assert.InDelta(t, 270, SignedAngle(x, r3.Scale(-1, y), z), Tolerance)
	assert.InDelta(t, 0, SignedAngle(x, x, z), Tolerance)

	assertVecNear(t, z, Perpendicular(x, 1e-9))
	assertVecNear(t, x, Perpendicular(z, 1e-9))
	assert.True(t, Parallel(z, r3.Scale(-1, z), 1e-9))
}

func TestCircularIndex(t *testing.T) {
	n := 3
	expectedIndexes := []int{0, 1, 2, 0, 1, 2, 0, 1, 2}
	for i := -3; i < 6; i++ {
		assert.Equal(t, expectedIndexes[i+3], CircularIndex(i, n))
	}
}

func TestBounds(t *testing.T) {
	box := Bounds([]r3.Vec{{X: 1, Y: -2, Z: 3}, {X: -1, Y: 4, Z: 0}})
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: 0}, box.Min)
	assert.Equal(t, r3.Vec{X: 1, Y: 4, Z: 3}, box.Max)
}
