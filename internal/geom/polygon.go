package geom

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

type Polygon struct {
	Points []r2.Vec
}

type PointLocation int

const (
	Outside PointLocation = iota
	OnBoundary
	Inside
)

// Even-odd point-in-polygon. Points on the boundary give an unspecified
// answer; use Locate when the boundary matters.
func (poly Polygon) ContainsPointByEvenOdd(p r2.Vec) bool {
	return poly.CrossingCount(p)%2 == 1
}

// Crossing count helper for even odd rule. Counts edges crossed by a ray cast
// from p in the +X direction.
func (poly Polygon) CrossingCount(p r2.Vec) int {
	crossingCount := 0
	for i, vertex := range poly.Points {
		nextVertex := poly.Points[CircularIndex(i+1, len(poly.Points))]
		if (vertex.Y > p.Y) == (nextVertex.Y > p.Y) {
			continue
		}
		// X value of the segment at the ray's height
		x := vertex.X + (p.Y-vertex.Y)*(nextVertex.X-vertex.X)/(nextVertex.Y-vertex.Y)
		if x > p.X {
			crossingCount++
		}
	}
	return crossingCount
}

// Locate classifies p against the polygon, treating anything within tol of
// an edge as on the boundary.
func (poly Polygon) Locate(p r2.Vec, tol float64) PointLocation {
	for i, vertex := range poly.Points {
		nextVertex := poly.Points[CircularIndex(i+1, len(poly.Points))]
		if SegmentDistance2(p, vertex, nextVertex) <= tol {
			return OnBoundary
		}
	}
	if poly.ContainsPointByEvenOdd(p) {
		return Inside
	}
	return Outside
}

func (poly Polygon) Reverse() Polygon {
	newPoly := Polygon{}
	for i := len(poly.Points) - 1; i >= 0; i-- {
		newPoly.Points = append(newPoly.Points, poly.Points[i])
	}
	return newPoly
}

// Shoelace area, positive for counterclockwise polygons.
func (poly Polygon) SignedArea() float64 {
	var area float64
	for i, p := range poly.Points {
		next := poly.Points[CircularIndex(i+1, len(poly.Points))]
		area += r2.Cross(p, next)
	}
	return area / 2
}

func (poly Polygon) Area() float64 {
	return math.Abs(poly.SignedArea())
}

func (poly Polygon) IsCCW() bool {
	return poly.SignedArea() > 0
}

func (poly Polygon) IsCW() bool {
	return poly.SignedArea() < 0
}

// Area centroid. Falls back to the vertex average for degenerate polygons.
func (poly Polygon) Centroid() r2.Vec {
	var c r2.Vec
	area := poly.SignedArea()
	if math.Abs(area) < Tolerance {
		for _, p := range poly.Points {
			c = r2.Add(c, p)
		}
		return r2.Scale(1/float64(len(poly.Points)), c)
	}
	for i, p := range poly.Points {
		next := poly.Points[CircularIndex(i+1, len(poly.Points))]
		f := r2.Cross(p, next)
		c.X += (p.X + next.X) * f
		c.Y += (p.Y + next.Y) * f
	}
	return r2.Scale(1/(6*area), c)
}

// InteriorPoint finds a point strictly inside the polygon. The centroid is
// used when it works; otherwise a horizontal scanline through the middle of
// the polygon's height is intersected with the edges and the midpoint of the
// widest inside span is used.
func (poly Polygon) InteriorPoint(tol float64) (r2.Vec, bool) {
	if len(poly.Points) < 3 {
		return r2.Vec{}, false
	}
	c := poly.Centroid()
	if poly.Locate(c, tol) == Inside {
		return c, true
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range poly.Points {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	// Try a few heights so a scanline through a vertex doesn't ruin things
	for _, f := range []float64{0.5, 0.37, 0.63, 0.21, 0.79} {
		y := minY + f*(maxY-minY)
		var xs []float64
		for i, vertex := range poly.Points {
			next := poly.Points[CircularIndex(i+1, len(poly.Points))]
			if (vertex.Y > y) == (next.Y > y) {
				continue
			}
			xs = append(xs, vertex.X+(y-vertex.Y)*(next.X-vertex.X)/(next.Y-vertex.Y))
		}
		slices.Sort(xs)
		bestWidth := 0.0
		var best r2.Vec
		for i := 0; i+1 < len(xs); i += 2 {
			if w := xs[i+1] - xs[i]; w > bestWidth {
				bestWidth = w
				best = r2.Vec{X: (xs[i] + xs[i+1]) / 2, Y: y}
			}
		}
		if bestWidth > tol && poly.Locate(best, tol) == Inside {
			return best, true
		}
	}
	return r2.Vec{}, false
}
