package graph3d

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// faceIntersections returns the segments where two non-coplanar faces cut
// each other: the planes' shared line clipped to both polygons.
func (g *Graph) faceIntersections(a, b *Face) [][2]r3.Vec {
	origin, dir, ok := a.CachedPlane.Intersect(b.CachedPlane, g.tol.Dot)
	if !ok {
		return nil
	}
	clip := func(f *Face) [][2]float64 {
		basis := f.Basis()
		return f.Polygon2D().ClipLine(basis.ToPlane(origin), basis.ToPlaneDir(dir), g.tol.Vertex)
	}
	var segments [][2]r3.Vec
	for _, interval := range geom.IntersectIntervals(clip(a), clip(b), g.tol.Vertex) {
		segments = append(segments, [2]r3.Vec{
			r3.Add(origin, r3.Scale(interval[0], dir)),
			r3.Add(origin, r3.Scale(interval[1], dir)),
		})
	}
	return segments
}

// NormalHitsFace casts a ray from origin along dir and reports the distance
// at which it passes through face, boundary included.
func (g *Graph) NormalHitsFace(origin, dir r3.Vec, faceID int) (float64, bool) {
	f := g.faces[abs(faceID)]
	if f == nil {
		return 0, false
	}
	t, ok := f.CachedPlane.RayIntersection(origin, dir, g.tol.Dot)
	if !ok || t <= g.tol.Vertex {
		return 0, false
	}
	hit := r3.Add(origin, r3.Scale(t, dir))
	return t, f.Locate(hit, g.tol.Vertex) != geom.Outside
}
