package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is the set of points p with Dot(Normal, p) == W. Normal is unit length.
type Plane struct {
	Normal r3.Vec
	W      float64
}

func NewPlane(normal, point r3.Vec) Plane {
	return Plane{Normal: normal, W: r3.Dot(normal, point)}
}

// NewellNormal returns the area-weighted normal of a closed loop using
// Newell's method. Its length is twice the loop's area, and it points along
// the side from which the loop winds counterclockwise.
func NewellNormal(points []r3.Vec) r3.Vec {
	var n r3.Vec
	for i, cur := range points {
		next := points[CircularIndex(i+1, len(points))]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// PlaneFromPoints fits a plane through a loop. It fails for loops with no
// area.
func PlaneFromPoints(points []r3.Vec) (Plane, bool) {
	if len(points) < 3 {
		return Plane{}, false
	}
	normal, ok := SafeUnit(NewellNormal(points))
	if !ok {
		return Plane{}, false
	}
	var centroid r3.Vec
	for _, p := range points {
		centroid = r3.Add(centroid, p)
	}
	centroid = r3.Scale(1/float64(len(points)), centroid)
	return NewPlane(normal, centroid), true
}

func (p Plane) Distance(v r3.Vec) float64 {
	return r3.Dot(p.Normal, v) - p.W
}

func (p Plane) Project(v r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(p.Distance(v), p.Normal))
}

func (p Plane) Flip() Plane {
	return Plane{Normal: r3.Scale(-1, p.Normal), W: -p.W}
}

func (p Plane) IsParallel(o Plane, dotTol float64) bool {
	return Parallel(p.Normal, o.Normal, dotTol)
}

// IsCoplanar reports whether both planes describe the same surface, in
// either orientation.
func (p Plane) IsCoplanar(o Plane, distTol, dotTol float64) bool {
	if !p.IsParallel(o, dotTol) {
		return false
	}
	if r3.Dot(p.Normal, o.Normal) < 0 {
		o = o.Flip()
	}
	return math.Abs(p.W-o.W) <= distTol
}

// Intersect returns the line shared by two non-parallel planes.
func (p Plane) Intersect(o Plane, dotTol float64) (origin, dir r3.Vec, ok bool) {
	if p.IsParallel(o, dotTol) {
		return r3.Vec{}, r3.Vec{}, false
	}
	cross := r3.Cross(p.Normal, o.Normal)
	dir, ok = SafeUnit(cross)
	if !ok {
		return r3.Vec{}, r3.Vec{}, false
	}
	// Point on both planes closest to the world origin
	term1 := r3.Scale(p.W, r3.Cross(o.Normal, cross))
	term2 := r3.Scale(o.W, r3.Cross(cross, p.Normal))
	origin = r3.Scale(1/r3.Norm2(cross), r3.Add(term1, term2))
	return origin, dir, true
}

// RayIntersection returns the ray parameter where the ray meets the plane.
func (p Plane) RayIntersection(origin, dir r3.Vec, dotTol float64) (float64, bool) {
	denom := r3.Dot(p.Normal, dir)
	if math.Abs(denom) <= dotTol {
		return 0, false
	}
	return (p.W - r3.Dot(p.Normal, origin)) / denom, true
}

// Basis is a right handed 2D coordinate frame embedded in a plane.
type Basis struct {
	Origin, AxisX, AxisY, Normal r3.Vec
}

// NewBasis builds a frame on the plane through origin with the given normal.
// AxisX follows axisHint projected into the plane.
func NewBasis(origin, normal, axisHint r3.Vec) (Basis, bool) {
	axisX := r3.Sub(axisHint, r3.Scale(r3.Dot(axisHint, normal), normal))
	axisX, ok := SafeUnit(axisX)
	if !ok {
		return Basis{}, false
	}
	return Basis{
		Origin: origin,
		AxisX:  axisX,
		AxisY:  r3.Cross(normal, axisX),
		Normal: normal,
	}, true
}

func (b Basis) ToPlane(v r3.Vec) r2.Vec {
	d := r3.Sub(v, b.Origin)
	return r2.Vec{X: r3.Dot(d, b.AxisX), Y: r3.Dot(d, b.AxisY)}
}

func (b Basis) ToPlaneDir(v r3.Vec) r2.Vec {
	return r2.Vec{X: r3.Dot(v, b.AxisX), Y: r3.Dot(v, b.AxisY)}
}

func (b Basis) FromPlane(p r2.Vec) r3.Vec {
	return r3.Add(b.Origin, r3.Add(r3.Scale(p.X, b.AxisX), r3.Scale(p.Y, b.AxisY)))
}

func (b Basis) ProjectAll(points []r3.Vec) Polygon {
	poly := Polygon{Points: make([]r2.Vec, len(points))}
	for i, p := range points {
		poly.Points[i] = b.ToPlane(p)
	}
	return poly
}
