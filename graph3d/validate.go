package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// Validate audits the whole store and returns the first broken invariant.
// It is meant for tests and debug builds; ApplyDelta keeps the invariants
// incrementally.
func (g *Graph) Validate() error {
	for _, check := range []func() error{
		g.validateVertices,
		g.validateEdges,
		g.validateFaces,
		g.validateContainment,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) validateVertices() error {
	ids := g.VertexIDs()
	for i, id := range ids {
		v := g.vertices[id]
		for _, signedEdge := range v.ConnectedEdgeIDs {
			e := g.edges[abs(signedEdge)]
			if e == nil {
				return newError(MissingReference, "vertex %d lists missing edge %d", id, abs(signedEdge))
			}
			if (signedEdge > 0 && e.StartVertexID != id) || (signedEdge < 0 && e.EndVertexID != id) {
				return newError(MissingReference, "vertex %d lists edge %d with the wrong sign", id, signedEdge)
			}
		}
		for _, otherID := range ids[i+1:] {
			if geom.VecEqual(v.Position, g.vertices[otherID].Position, g.tol.Vertex) {
				return newError(DuplicateObject, "vertices %d and %d share a position", id, otherID)
			}
		}
	}
	return nil
}

func (g *Graph) validateEdges() error {
	for _, id := range g.EdgeIDs() {
		e := g.edges[id]
		start, end := g.vertices[e.StartVertexID], g.vertices[e.EndVertexID]
		if start == nil || end == nil {
			return newError(MissingReference, "edge %d has a missing vertex", id)
		}
		if !slices.Contains(start.ConnectedEdgeIDs, id) || !slices.Contains(end.ConnectedEdgeIDs, -id) {
			return newError(MissingReference, "edge %d is not listed by its vertices", id)
		}
		if r3.Norm(r3.Sub(end.Position, start.Position)) <= g.tol.Vertex {
			return newError(DegenerateGeometry, "edge %d is shorter than the vertex tolerance", id)
		}
		if g.edgesByVertices[makeVertexPair(e.StartVertexID, e.EndVertexID)] != id {
			return newError(DuplicateObject, "edge %d is not the only edge between its vertices", id)
		}
		seen := IDSet{}
		for i, conn := range e.ConnectedFaces {
			f := g.faces[abs(conn.FaceID)]
			if f == nil {
				return newError(MissingReference, "edge %d lists missing face %d", id, abs(conn.FaceID))
			}
			if seen.Has(f.ID) {
				return newError(DuplicateObject, "edge %d lists face %d twice", id, f.ID)
			}
			seen.Add(f.ID)
			if !slices.Contains(f.EdgeIDs, sign(conn.FaceID)*id) {
				return newError(MissingReference, "edge %d lists face %d, which does not use it that way", id, conn.FaceID)
			}
			if i > 0 && e.ConnectedFaces[i-1].FaceAngle > conn.FaceAngle {
				return newError(InconsistentSeam, "faces on edge %d are out of angle order", id)
			}
		}
	}
	return nil
}

func (g *Graph) validateFaces() error {
	for _, id := range g.FaceIDs() {
		f := g.faces[id]
		n := len(f.VertexIDs)
		if n < 3 || len(f.EdgeIDs) != n {
			return newError(DegenerateGeometry, "face %d has a malformed loop", id)
		}
		for i, vid := range f.VertexIDs {
			v := g.vertices[vid]
			if v == nil {
				return newError(MissingReference, "face %d has missing vertex %d", id, vid)
			}
			next := f.VertexIDs[geom.CircularIndex(i+1, n)]
			if f.EdgeIDs[i] != g.FindEdgeByVertices(vid, next) {
				return newError(MissingReference, "face %d edge %d does not join %d to %d", id, f.EdgeIDs[i], vid, next)
			}
			if g.edges[abs(f.EdgeIDs[i])].faceIndex(id) < 0 {
				return newError(MissingReference, "edge %d does not list face %d", abs(f.EdgeIDs[i]), id)
			}
			if d := f.CachedPlane.Distance(v.Position); !geom.EqualTol(d, 0, g.tol.Planar) {
				return newError(NonPlanarFace, "vertex %d is %g off the plane of face %d", vid, d, id)
			}
		}
	}
	return nil
}

// validateContainment checks that the containment links form a forest whose
// parent and child links agree, and that children are coplanar with their
// containers.
func (g *Graph) validateContainment() error {
	for _, id := range g.FaceIDs() {
		f := g.faces[id]
		if f.ContainingFaceID != NoID {
			parent := g.faces[f.ContainingFaceID]
			if parent == nil || !parent.ContainedFaceIDs.Has(id) {
				return newError(MissingReference, "face %d and its container %d disagree", id, f.ContainingFaceID)
			}
			if !parent.CachedPlane.IsCoplanar(f.CachedPlane, g.tol.Planar, g.tol.Dot) {
				return newError(NonPlanarFace, "face %d is not coplanar with its container %d", id, parent.ID)
			}
		}
		for childID := range f.ContainedFaceIDs {
			if child := g.faces[childID]; child == nil || child.ContainingFaceID != id {
				return newError(MissingReference, "face %d contains %d, which does not point back", id, childID)
			}
		}
		seen := IDSet{id: {}}
		for ancestor := f.ContainingFaceID; ancestor != NoID; ancestor = g.faces[ancestor].ContainingFaceID {
			if seen.Has(ancestor) {
				return newError(InconsistentSeam, "containment cycle through face %d", id)
			}
			seen.Add(ancestor)
		}
	}
	return nil
}
