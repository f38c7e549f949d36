package graph3d

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/graph2d"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// Create2DGraph cuts the graph with a plane and returns the cut as a 2D
// graph in the frame given by origin, axisX and axisY. Faces lying in the
// cut plane contribute their whole loops; every other face contributes the
// segments where the plane crosses it.
func (g *Graph) Create2DGraph(cutPlane geom.Plane, axisX, axisY, origin r3.Vec) (*graph2d.Graph, error) {
	normal, ok := geom.SafeUnit(cutPlane.Normal)
	if !ok {
		return nil, newError(DegenerateGeometry, "cut plane has no normal")
	}
	cutPlane = geom.Plane{Normal: normal, W: cutPlane.W / r3.Norm(cutPlane.Normal)}
	x, okX := geom.SafeUnit(axisX)
	y, okY := geom.SafeUnit(axisY)
	if !okX || !okY || geom.Parallel(x, y, g.tol.Dot) {
		return nil, newError(DegenerateGeometry, "slice axes %v, %v do not span a plane", axisX, axisY)
	}
	if !geom.EqualTol(r3.Dot(x, normal), 0, g.tol.Dot) || !geom.EqualTol(r3.Dot(y, normal), 0, g.tol.Dot) {
		return nil, newError(DegenerateGeometry, "slice axes do not lie in the cut plane")
	}
	frame := geom.Basis{Origin: cutPlane.Project(origin), AxisX: x, AxisY: y, Normal: normal}

	out := graph2d.NewGraph(g.tol.Vertex)
	for _, id := range g.FaceIDs() {
		f := g.faces[id]
		if f.CachedPlane.IsCoplanar(cutPlane, g.tol.Planar, g.tol.Dot) {
			for i, p := range f.CachedPositions {
				next := f.CachedPositions[geom.CircularIndex(i+1, len(f.CachedPositions))]
				out.AddEdge(frame.ToPlane(p), frame.ToPlane(next), f.ID)
			}
			continue
		}
		lineOrigin, dir, ok := f.CachedPlane.Intersect(cutPlane, g.tol.Dot)
		if !ok {
			continue
		}
		basis := f.Basis()
		for _, interval := range f.Polygon2D().ClipLine(basis.ToPlane(lineOrigin), basis.ToPlaneDir(dir), g.tol.Vertex) {
			if interval[1]-interval[0] <= g.tol.Vertex {
				continue
			}
			a := r3.Add(lineOrigin, r3.Scale(interval[0], dir))
			b := r3.Add(lineOrigin, r3.Scale(interval[1], dir))
			out.AddEdge(frame.ToPlane(a), frame.ToPlane(b), f.ID)
		}
	}
	g.logger.Debug("slice created", "vertices", len(out.Vertices()), "edges", len(out.Edges()))
	return out, nil
}
