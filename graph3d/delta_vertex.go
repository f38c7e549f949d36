package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// GetDeltaForVertexAddition stages a vertex at pos. When a vertex already
// sits there, in the graph or staged in d, its ID comes back with added false.
func (g *Graph) GetDeltaForVertexAddition(ids IDAllocator, d *Delta, pos r3.Vec) (id int, added bool, err error) {
	if v := g.FindVertexByPosition(pos); v != nil {
		if _, deleted := d.VertexDeletions[v.ID]; !deleted {
			return v.ID, false, nil
		}
	}
	for _, stagedID := range sortedKeys(d.VertexAdditions) {
		if geom.VecEqual(d.VertexAdditions[stagedID], pos, g.tol.Vertex) {
			return stagedID, false, nil
		}
	}
	id = ids.NextID()
	d.VertexAdditions[id] = pos
	return id, true, nil
}

// GetDeltaForVertexMovements stages moves. A vertex already moved in d keeps
// its original start position.
func (g *Graph) GetDeltaForVertexMovements(d *Delta, moves map[int]r3.Vec) error {
	for _, id := range sortedKeys(moves) {
		v := g.vertices[id]
		if v == nil {
			return newError(MissingReference, "no vertex %d to move", id)
		}
		from := v.Position
		if staged, ok := d.VertexMovements[id]; ok {
			from = staged.From
		}
		d.VertexMovements[id] = VertexMovement{From: from, To: moves[id]}
	}
	return nil
}

// GetDeltaForVertexJoin merges removeID into keepID, which must coincide
// with it. Every edge of removeID is replaced by one from keepID, and every
// face loop holding removeID holds keepID instead.
func (g *Graph) GetDeltaForVertexJoin(ids IDAllocator, d *Delta, keepID, removeID int) error {
	keep, remove := g.vertices[keepID], g.vertices[removeID]
	if keep == nil || remove == nil {
		return newError(MissingReference, "join needs vertices %d and %d", keepID, removeID)
	}
	if keepID == removeID {
		return newError(DegenerateGeometry, "cannot join vertex %d with itself", keepID)
	}
	keepPos, _ := g.stagedPosition(d, keepID)
	removePos, _ := g.stagedPosition(d, removeID)
	if !geom.VecEqual(keepPos, removePos, g.tol.Vertex) {
		return newError(DegenerateGeometry, "vertices %d and %d do not coincide", keepID, removeID)
	}

	faceIDs := IDSet{}
	for _, signedEdge := range remove.ConnectedEdgeIDs {
		e := g.edges[abs(signedEdge)]
		for _, conn := range e.ConnectedFaces {
			faceIDs.Add(abs(conn.FaceID))
		}
	}

	for _, faceID := range faceIDs.Sorted() {
		loop := g.faces[faceID].VertexIDs
		n := len(loop)
		p := slices.Index(loop, removeID)
		if k := slices.Index(loop, keepID); k >= 0 {
			if k != (p+1)%n && p != (k+1)%n {
				return newError(DegenerateGeometry, "face %d holds vertices %d and %d apart", faceID, keepID, removeID)
			}
			if n-1 < 3 {
				return newError(DegenerateGeometry, "joining %d into %d collapses face %d", removeID, keepID, faceID)
			}
			if err := g.removeFaceVertex(d, faceID, removeID); err != nil {
				return err
			}
			continue
		}
		// Put keep right after remove, then take remove out
		if err := g.insertFaceVertex(d, faceID, removeID, loop[(p+1)%n], keepID); err != nil {
			return err
		}
		if err := g.removeFaceVertex(d, faceID, removeID); err != nil {
			return err
		}
	}

	for _, signedEdge := range remove.ConnectedEdgeIDs {
		e := g.edges[abs(signedEdge)]
		other := e.OtherVertex(removeID)
		deletion := ObjectDelta{
			VertexIDs: []int{e.StartVertexID, e.EndVertexID},
			GroupIDs:  e.GroupIDs.Sorted(),
		}
		if other != keepID {
			// Keep the edge's direction so face traversal signs carry over
			start, end := keepID, other
			if e.EndVertexID == removeID {
				start, end = other, keepID
			}
			newID, _, err := g.GetDeltaForEdgeAddition(ids, d, start, end, []int{e.ID})
			if err != nil {
				return err
			}
			deletion.ChildIDs = []int{abs(newID)}
		}
		d.EdgeDeletions[e.ID] = deletion
	}
	d.VertexDeletions[removeID] = remove.Position
	if len(remove.GroupIDs) > 0 {
		d.VertexGroupIDs[removeID] = remove.GroupIDs.Sorted()
	}
	return nil
}
