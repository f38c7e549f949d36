package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func unitSquare() Polygon {
	return Polygon{Points: []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}}
}

// A U with its notch opening upward; its centroid falls in the notch.
func uShape() Polygon {
	return Polygon{Points: []r2.Vec{
		{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 2, Y: 3},
		{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 3}, {X: 0, Y: 3},
	}}
}

func TestPolygonArea(t *testing.T) {
	sq := unitSquare()
	assert.InDelta(t, 1, sq.SignedArea(), Tolerance)
	assert.True(t, sq.IsCCW())

	rev := sq.Reverse()
	assert.InDelta(t, -1, rev.SignedArea(), Tolerance)
	assert.InDelta(t, 1, rev.Area(), Tolerance)
	assert.True(t, rev.IsCW())

	assert.InDelta(t, 7, uShape().Area(), Tolerance)
}

func TestPolygonCentroid(t *testing.T) {
	c := unitSquare().Centroid()
	assert.InDelta(t, 0.5, c.X, Tolerance)
	assert.InDelta(t, 0.5, c.Y, Tolerance)

	c = uShape().Centroid()
	assert.InDelta(t, 1.5, c.X, Tolerance)
	assert.InDelta(t, 9.5/7, c.Y, Tolerance)

	// Degenerate polygons fall back to the vertex average
	line := Polygon{Points: []r2.Vec{{X: 0}, {X: 1}, {X: 2}}}
	assert.InDelta(t, 1, line.Centroid().X, Tolerance)
}

func TestPolygonLocate(t *testing.T) {
	u := uShape()
	assert.Equal(t, Inside, u.Locate(r2.Vec{X: 1.5, Y: 0.5}, 1e-9))
	assert.Equal(t, Outside, u.Locate(r2.Vec{X: 1.5, Y: 2}, 1e-9))
	assert.Equal(t, OnBoundary, u.Locate(r2.Vec{X: 3, Y: 1.5}, 1e-9))
	assert.Equal(t, OnBoundary, u.Locate(r2.Vec{X: 2, Y: 1}, 1e-9))
	assert.Equal(t, Outside, u.Locate(r2.Vec{X: -1, Y: 1}, 1e-9))
}

func TestInteriorPoint(t *testing.T) {
	p, ok := unitSquare().InteriorPoint(1e-9)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.X, Tolerance)

	u := uShape()
	p, ok = u.InteriorPoint(1e-9)
	require.True(t, ok)
	assert.Equal(t, Inside, u.Locate(p, 1e-9))
	assert.InDelta(t, 0.5, p.X, Tolerance)
	assert.InDelta(t, 1.5, p.Y, Tolerance)

	_, ok = Polygon{Points: []r2.Vec{{}, {X: 1}}}.InteriorPoint(1e-9)
	assert.False(t, ok)
}

func TestClipLine(t *testing.T) {
	u := uShape()
	dir := r2.Vec{X: 1}

	// Through both arms of the U
	assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, u.ClipLine(r2.Vec{X: -1, Y: 2}, dir, 1e-9))
	// Below the notch
	assert.Equal(t, [][2]float64{{1, 4}}, u.ClipLine(r2.Vec{X: -1, Y: 0.5}, dir, 1e-9))
	// Along the bottom edge
	assert.Equal(t, [][2]float64{{1, 4}}, u.ClipLine(r2.Vec{X: -1, Y: 0}, dir, 1e-9))
	// Missing entirely
	assert.Empty(t, u.ClipLine(r2.Vec{X: -1, Y: 5}, dir, 1e-9))
}

func TestIntersectIntervals(t *testing.T) {
	a := [][2]float64{{0, 2}, {3, 5}}
	b := [][2]float64{{1, 4}}
	assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, IntersectIntervals(a, b, 1e-9))
	assert.Empty(t, IntersectIntervals(a, [][2]float64{{2, 3}}, 1e-9))
}
