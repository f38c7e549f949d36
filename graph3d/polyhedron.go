package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// Face sides are signed face IDs: +id is the side the face normal points
// toward, -id the other one.

// A faceSideIterator visits every face side reachable from a starting side by
// crossing edges, exactly once. Crossing an edge from a side lands on the
// nearest face side met by rotating about the edge, away from the face, into
// the region the side looks at.
type faceSideIterator struct {
	g     *Graph
	stack []int
	seen  IDSet
	// Set once a side's rotation wraps back onto its own face
	open bool
}

func newFaceSideIterator(g *Graph, side int) *faceSideIterator {
	return &faceSideIterator{g: g, stack: []int{side}, seen: IDSet{}}
}

// Next returns the next face side, or 0 once the region is exhausted.
func (iter *faceSideIterator) Next() int {
	if len(iter.stack) == 0 {
		return 0
	}
	side := iter.stack[len(iter.stack)-1]
	iter.stack = iter.stack[:len(iter.stack)-1]
	// Skip if we've seen the side before
	if iter.seen.Has(side) {
		return iter.Next()
	}
	iter.seen.Add(side)

	f := iter.g.faces[abs(side)]
	for _, signedEdge := range f.EdgeIDs {
		next := iter.g.adjacentSide(side, abs(signedEdge))
		if abs(next) == abs(side) {
			iter.open = true
		}
		iter.stack = append(iter.stack, next)
	}
	return side
}

// adjacentSide finds the face side across edgeID from side. ConnectedFaces is
// sorted by angle about the edge direction, so the side's rotation sense
// picks the following or the preceding connection.
func (g *Graph) adjacentSide(side, edgeID int) int {
	e := g.edges[edgeID]
	idx := e.faceIndex(abs(side))
	rot := sign(side) * sign(e.ConnectedFaces[idx].FaceID)
	next := e.ConnectedFaces[geom.CircularIndex(idx+rot, len(e.ConnectedFaces))]
	return -rot * next.FaceID
}

// CalculatePolyhedra discards all polyhedra and rebuilds them from the face
// sides. Every face side ends up in exactly one polyhedron. Polyhedron IDs
// restart at 1 on every call.
func (g *Graph) CalculatePolyhedra() {
	g.polyhedra = make(map[int]*Polyhedron)
	owner := make(map[int]int)
	nextID := 1
	for _, faceID := range g.FaceIDs() {
		for _, start := range []int{faceID, -faceID} {
			if _, done := owner[start]; done {
				continue
			}
			p := &Polyhedron{ID: nextID}
			nextID++
			iter := newFaceSideIterator(g, start)
			for side := iter.Next(); side != 0; side = iter.Next() {
				owner[side] = p.ID
				p.FaceIDs = append(p.FaceIDs, side)
			}
			p.Closed = !iter.open
			g.polyhedra[p.ID] = p
		}
	}

	for _, id := range sortedKeys(g.polyhedra) {
		p := g.polyhedra[id]
		var points []r3.Vec
		for _, side := range p.FaceIDs {
			points = append(points, g.faces[abs(side)].CachedPositions...)
		}
		p.AABB = geom.Bounds(points)
		p.Interior = p.Closed && len(p.FaceIDs) >= 4 && g.determineInterior(p)
		p.Convex = g.isConvex(p)
	}

	// An interior volume belongs to the exterior shell across any of its faces
	for _, id := range sortedKeys(g.polyhedra) {
		p := g.polyhedra[id]
		if !p.Interior {
			continue
		}
		for _, side := range p.FaceIDs {
			outer := g.polyhedra[owner[-side]]
			if outer != nil && outer.ID != p.ID && !outer.Interior {
				p.ParentID = outer.ID
				outer.InteriorPolyhedra = append(outer.InteriorPolyhedra, p.ID)
				break
			}
		}
	}
	g.logger.Debug("polyhedra calculated", "count", len(g.polyhedra))
}

// determineInterior is a heuristic, not a point-in-solid test: a volume is
// interior when the ray from every face side into the volume strikes another
// of its faces. Some concave volumes are misclassified.
func (g *Graph) determineInterior(p *Polyhedron) bool {
	for _, side := range p.FaceIDs {
		f := g.faces[abs(side)]
		origin, ok := f.InteriorPoint(g.tol.Vertex)
		if !ok {
			return false
		}
		dir := r3.Scale(float64(sign(side)), f.CachedPlane.Normal)
		hit := false
		for _, other := range p.FaceIDs {
			if abs(other) == abs(side) {
				continue
			}
			if _, ok := g.NormalHitsFace(origin, dir, other); ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// isConvex checks that every vertex lies on the volume side of every face.
func (g *Graph) isConvex(p *Polyhedron) bool {
	vertexIDs := IDSet{}
	for _, side := range p.FaceIDs {
		for _, vid := range g.faces[abs(side)].VertexIDs {
			vertexIDs.Add(vid)
		}
	}
	for _, side := range p.FaceIDs {
		f := g.faces[abs(side)]
		inward := r3.Scale(float64(sign(side)), f.CachedPlane.Normal)
		for vid := range vertexIDs {
			if r3.Dot(r3.Sub(g.vertices[vid].Position, f.Origin), inward) < -g.tol.Planar {
				return false
			}
		}
	}
	return true
}

// PolyhedronOfFaceSide returns the polyhedron holding the signed face side,
// from the last CalculatePolyhedra.
func (g *Graph) PolyhedronOfFaceSide(side int) *Polyhedron {
	for _, id := range sortedKeys(g.polyhedra) {
		if slices.Contains(g.polyhedra[id].FaceIDs, side) {
			return g.polyhedra[id]
		}
	}
	return nil
}
