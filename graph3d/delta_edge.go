package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// GetDeltaForEdgeAddition stages an edge from startID to endID. An existing
// edge between the two, live or staged, comes back signed by its direction
// relative to start->end with added false.
func (g *Graph) GetDeltaForEdgeAddition(ids IDAllocator, d *Delta, startID, endID int, parentIDs []int) (id int, added bool, err error) {
	if startID == endID {
		return NoID, false, newError(DegenerateGeometry, "edge from %d to itself", startID)
	}
	start, ok := g.stagedPosition(d, startID)
	if !ok {
		return NoID, false, newError(MissingReference, "no vertex %d", startID)
	}
	end, ok := g.stagedPosition(d, endID)
	if !ok {
		return NoID, false, newError(MissingReference, "no vertex %d", endID)
	}
	if geom.VecEqual(start, end, g.tol.Vertex) {
		return NoID, false, newError(DegenerateGeometry, "edge from %d to %d has no length", startID, endID)
	}

	if existing := g.FindEdgeByVertices(startID, endID); existing != NoID {
		if _, deleted := d.EdgeDeletions[abs(existing)]; !deleted {
			return existing, false, nil
		}
	}
	for _, stagedID := range sortedKeys(d.EdgeAdditions) {
		vids := d.EdgeAdditions[stagedID].VertexIDs
		switch {
		case vids[0] == startID && vids[1] == endID:
			return stagedID, false, nil
		case vids[0] == endID && vids[1] == startID:
			return -stagedID, false, nil
		}
	}

	id = ids.NextID()
	d.EdgeAdditions[id] = ObjectDelta{VertexIDs: []int{startID, endID}, ParentIDs: slices.Clone(parentIDs)}
	return id, true, nil
}

// CalculateVerticesOnLine returns startID, every live vertex lying on the
// segment between the two in order, and endID.
func (g *Graph) CalculateVerticesOnLine(startID, endID int) ([]int, error) {
	return g.verticesOnLine(NewDelta(), startID, endID)
}

func (g *Graph) verticesOnLine(d *Delta, startID, endID int) ([]int, error) {
	start, ok := g.stagedPosition(d, startID)
	if !ok {
		return nil, newError(MissingReference, "no vertex %d", startID)
	}
	end, ok := g.stagedPosition(d, endID)
	if !ok {
		return nil, newError(MissingReference, "no vertex %d", endID)
	}
	type onLine struct {
		id int
		t  float64
	}
	var between []onLine
	consider := func(id int, p r3.Vec) {
		if id == startID || id == endID {
			return
		}
		if _, deleted := d.VertexDeletions[id]; deleted {
			return
		}
		if t, ok := geom.PointOnSegmentInterior(p, start, end, g.tol.Vertex); ok {
			between = append(between, onLine{id, t})
		}
	}
	for _, id := range g.VertexIDs() {
		p, _ := g.stagedPosition(d, id)
		consider(id, p)
	}
	for _, id := range sortedKeys(d.VertexAdditions) {
		consider(id, d.VertexAdditions[id])
	}
	slices.SortStableFunc(between, func(a, b onLine) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		}
		return 0
	})

	chain := []int{startID}
	for _, v := range between {
		chain = append(chain, v.id)
	}
	return append(chain, endID), nil
}

// GetDeltaForMultipleEdgeAdditions connects startID to endID through every
// vertex lying between them, one edge per consecutive pair, so no edge ever
// overlaps another. The returned IDs are signed relative to start->end.
func (g *Graph) GetDeltaForMultipleEdgeAdditions(ids IDAllocator, d *Delta, startID, endID int, parentIDs []int) ([]int, error) {
	chain, err := g.verticesOnLine(d, startID, endID)
	if err != nil {
		return nil, err
	}
	edgeIDs := make([]int, 0, len(chain)-1)
	for i := 0; i+1 < len(chain); i++ {
		id, _, err := g.GetDeltaForEdgeAddition(ids, d, chain[i], chain[i+1], parentIDs)
		if err != nil {
			return nil, err
		}
		edgeIDs = append(edgeIDs, id)
	}
	return edgeIDs, nil
}

// GetDeltaForEdgeSplit stages a vertex at pos on edgeID, replaces the edge
// with the two halves, and threads the vertex into the loop of every face on
// the edge except excludeFaceIDs, which the caller is replacing anyway.
func (g *Graph) GetDeltaForEdgeSplit(ids IDAllocator, d *Delta, edgeID int, pos r3.Vec, excludeFaceIDs IDSet) (vertexID int, err error) {
	e := g.edges[abs(edgeID)]
	if e == nil {
		return NoID, newError(MissingReference, "no edge %d to split", edgeID)
	}
	start := g.vertices[e.StartVertexID].Position
	end := g.vertices[e.EndVertexID].Position
	switch {
	case geom.VecEqual(pos, start, g.tol.Vertex):
		return e.StartVertexID, nil
	case geom.VecEqual(pos, end, g.tol.Vertex):
		return e.EndVertexID, nil
	}
	if _, onEdge := geom.PointOnSegmentInterior(pos, start, end, g.tol.Vertex); !onEdge {
		return NoID, newError(DegenerateGeometry, "%v is not on edge %d", pos, e.ID)
	}
	if _, deleted := d.EdgeDeletions[e.ID]; deleted {
		return NoID, newError(MissingReference, "edge %d is already being replaced", e.ID)
	}

	vertexID, _, err = g.GetDeltaForVertexAddition(ids, d, pos)
	if err != nil {
		return NoID, err
	}
	first, _, err := g.GetDeltaForEdgeAddition(ids, d, e.StartVertexID, vertexID, []int{e.ID})
	if err != nil {
		return NoID, err
	}
	second, _, err := g.GetDeltaForEdgeAddition(ids, d, vertexID, e.EndVertexID, []int{e.ID})
	if err != nil {
		return NoID, err
	}
	d.EdgeDeletions[e.ID] = ObjectDelta{
		VertexIDs: []int{e.StartVertexID, e.EndVertexID},
		ChildIDs:  []int{abs(first), abs(second)},
		GroupIDs:  e.GroupIDs.Sorted(),
	}
	for _, conn := range e.ConnectedFaces {
		faceID := abs(conn.FaceID)
		if excludeFaceIDs.Has(faceID) {
			continue
		}
		if _, deleted := d.FaceDeletions[faceID]; deleted {
			continue
		}
		if err := g.insertFaceVertex(d, faceID, e.StartVertexID, e.EndVertexID, vertexID); err != nil {
			return NoID, err
		}
	}
	return vertexID, nil
}

// GetDeltaForEdgeJoin removes a vertex sitting between exactly two collinear
// edges, replacing the pair with one edge.
func (g *Graph) GetDeltaForEdgeJoin(ids IDAllocator, d *Delta, vertexID int) (int, error) {
	v := g.vertices[vertexID]
	if v == nil {
		return NoID, newError(MissingReference, "no vertex %d", vertexID)
	}
	if len(v.ConnectedEdgeIDs) != 2 {
		return NoID, newError(InconsistentSeam, "vertex %d has %d edges, edge join needs 2", vertexID, len(v.ConnectedEdgeIDs))
	}
	first := g.edges[abs(v.ConnectedEdgeIDs[0])]
	second := g.edges[abs(v.ConnectedEdgeIDs[1])]
	startID := first.OtherVertex(vertexID)
	endID := second.OtherVertex(vertexID)
	if !geom.Parallel(first.CachedDir, second.CachedDir, g.tol.Dot) {
		return NoID, newError(DegenerateGeometry, "edges %d and %d are not collinear", first.ID, second.ID)
	}
	if g.FindEdgeByVertices(startID, endID) != NoID {
		return NoID, newError(DuplicateObject, "vertices %d and %d are already joined", startID, endID)
	}

	firstFaces, secondFaces := IDSet{}, IDSet{}
	for _, conn := range first.ConnectedFaces {
		firstFaces.Add(abs(conn.FaceID))
	}
	for _, conn := range second.ConnectedFaces {
		secondFaces.Add(abs(conn.FaceID))
	}
	if !slices.Equal(firstFaces.Sorted(), secondFaces.Sorted()) {
		return NoID, newError(InconsistentSeam, "edges %d and %d bound different faces", first.ID, second.ID)
	}

	joined, _, err := g.GetDeltaForEdgeAddition(ids, d, startID, endID, []int{first.ID, second.ID})
	if err != nil {
		return NoID, err
	}
	for _, faceID := range firstFaces.Sorted() {
		if len(g.faces[faceID].VertexIDs) <= 3 {
			return NoID, newError(DegenerateGeometry, "edge join collapses face %d", faceID)
		}
		if err := g.removeFaceVertex(d, faceID, vertexID); err != nil {
			return NoID, err
		}
	}
	for _, e := range []*Edge{first, second} {
		d.EdgeDeletions[e.ID] = ObjectDelta{
			VertexIDs: []int{e.StartVertexID, e.EndVertexID},
			ChildIDs:  []int{abs(joined)},
			GroupIDs:  e.GroupIDs.Sorted(),
		}
	}
	d.VertexDeletions[vertexID] = v.Position
	if len(v.GroupIDs) > 0 {
		d.VertexGroupIDs[vertexID] = v.GroupIDs.Sorted()
	}
	return abs(joined), nil
}
