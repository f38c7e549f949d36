package graph3d

import (
	"slices"
)

// ApplyDelta mutates the graph. On failure the graph may be partially
// modified; callers restore a snapshot taken with Clone through CloneFrom.
func (g *Graph) ApplyDelta(d *Delta) (err error) {
	defer func() {
		if err = handleApplyPanicRecover(recover()); err != nil {
			g.logger.Debug("delta rejected", "error", err, "delta", d)
		}
	}()

	g.applyVertexMovements(d)

	for _, id := range sortedKeys(d.VertexAdditions) {
		_, err := g.AddVertex(d.VertexAdditions[id], id, d.VertexGroupIDs[id])
		must(err)
	}
	for _, id := range sortedKeys(d.EdgeAdditions) {
		od := d.EdgeAdditions[id]
		if len(od.VertexIDs) != 2 {
			fatalf(DegenerateGeometry, "edge %d addition names %d vertices", id, len(od.VertexIDs))
		}
		_, err := g.AddEdge(od.VertexIDs[0], od.VertexIDs[1], id, od.GroupIDs)
		must(err)
	}

	g.applyFaceVertexEdits(d)

	for _, id := range sortedKeys(d.FaceAdditions) {
		od := d.FaceAdditions[id]
		_, err := g.AddFace(od.VertexIDs, id, od.GroupIDs)
		must(err)
	}

	g.applyContainmentUpdates(d)

	for _, id := range sortedKeys(d.FaceDeletions) {
		if !g.RemoveFace(id) {
			fatalf(MissingReference, "no face %d to delete", id)
		}
	}
	for _, id := range sortedKeys(d.EdgeDeletions) {
		if !g.RemoveEdge(id) {
			fatalf(MissingReference, "edge %d is missing or still has faces", id)
		}
	}
	for _, id := range sortedKeys(d.VertexDeletions) {
		if !g.RemoveVertex(id) {
			fatalf(MissingReference, "vertex %d is missing or still has edges", id)
		}
	}
	return nil
}

// ApplyDeltas applies deltas in order, stopping at the first failure.
func (g *Graph) ApplyDeltas(deltas []*Delta) error {
	for i, d := range deltas {
		if err := g.ApplyDelta(d); err != nil {
			return newError(KindOf(err), "delta %d of %d: %v", i+1, len(deltas), err)
		}
	}
	return nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func (g *Graph) applyVertexMovements(d *Delta) {
	if len(d.VertexMovements) == 0 {
		return
	}
	edgeIDs := IDSet{}
	for _, id := range sortedKeys(d.VertexMovements) {
		v := g.vertices[id]
		if v == nil {
			fatalf(MissingReference, "no vertex %d to move", id)
		}
		v.Position = d.VertexMovements[id].To
		for _, signedEdge := range v.ConnectedEdgeIDs {
			edgeIDs.Add(abs(signedEdge))
		}
	}
	must(g.refresh(edgeIDs, IDSet{}))
}

// applyFaceVertexEdits rewrites face loops: insertions go in ascending key
// order, then removals come out of the intermediate loop.
func (g *Graph) applyFaceVertexEdits(d *Delta) {
	faceIDs := IDSet{}
	for id, m := range d.FaceVertexAdditions {
		if len(m) > 0 {
			faceIDs.Add(id)
		}
	}
	for id, m := range d.FaceVertexRemovals {
		if len(m) > 0 {
			faceIDs.Add(id)
		}
	}
	if len(faceIDs) == 0 {
		return
	}

	for _, faceID := range faceIDs.Sorted() {
		f := g.faces[faceID]
		if f == nil {
			fatalf(MissingReference, "no face %d to edit", faceID)
		}
		loop := slices.Clone(f.VertexIDs)
		additions := d.FaceVertexAdditions[faceID]
		for _, key := range sortedKeys(additions) {
			if key < 0 || key > len(loop) {
				fatalf(MissingReference, "face %d has no loop index %d", faceID, key)
			}
			loop = slices.Insert(loop, key, additions[key])
		}
		removals := d.FaceVertexRemovals[faceID]
		keys := sortedKeys(removals)
		for i := len(keys) - 1; i >= 0; i-- {
			key := keys[i]
			if key < 0 || key >= len(loop) || loop[key] != removals[key] {
				fatalf(MissingReference, "face %d does not hold vertex %d at %d", faceID, removals[key], key)
			}
			loop = slices.Delete(loop, key, key+1)
		}
		g.rewriteFaceLoop(f, loop)
	}
	must(g.refresh(IDSet{}, faceIDs))
}

// rewriteFaceLoop swaps a face's loop and moves its edge connections over.
// Caches are left for the caller to refresh.
func (g *Graph) rewriteFaceLoop(f *Face, loop []int) {
	if len(loop) < 3 {
		fatalf(DegenerateGeometry, "face %d would have %d vertices", f.ID, len(loop))
	}
	if len(NewIDSet(loop...)) != len(loop) {
		fatalf(DegenerateGeometry, "face %d would repeat a vertex", f.ID)
	}
	edgeIDs := make([]int, len(loop))
	for i, vid := range loop {
		next := loop[(i+1)%len(loop)]
		edgeIDs[i] = g.FindEdgeByVertices(vid, next)
		if edgeIDs[i] == NoID {
			fatalf(MissingReference, "face %d needs an edge from %d to %d", f.ID, vid, next)
		}
	}
	for _, signedEdge := range f.EdgeIDs {
		e := g.edges[abs(signedEdge)]
		if i := e.faceIndex(f.ID); i >= 0 {
			e.ConnectedFaces = slices.Delete(e.ConnectedFaces, i, i+1)
		}
	}
	f.VertexIDs = loop
	f.EdgeIDs = edgeIDs
	for _, signedEdge := range edgeIDs {
		e := g.edges[abs(signedEdge)]
		e.ConnectedFaces = append(e.ConnectedFaces, EdgeFaceConnection{FaceID: sign(signedEdge) * f.ID})
	}
}

func (g *Graph) applyContainmentUpdates(d *Delta) {
	if len(d.FaceContainmentUpdates) == 0 {
		return
	}
	touched := IDSet{}
	for _, faceID := range sortedKeys(d.FaceContainmentUpdates) {
		u := d.FaceContainmentUpdates[faceID]
		f := g.faces[faceID]
		if f == nil {
			fatalf(MissingReference, "no face %d to update containment", faceID)
		}
		if f.ContainingFaceID != u.PrevContainingFaceID {
			fatalf(MissingReference, "face %d is contained by %d, not %d", faceID, f.ContainingFaceID, u.PrevContainingFaceID)
		}
		if u.NextContainingFaceID != NoID && g.faces[u.NextContainingFaceID] == nil {
			fatalf(MissingReference, "no face %d to contain %d", u.NextContainingFaceID, faceID)
		}
		f.ContainingFaceID = u.NextContainingFaceID
		for _, childID := range u.ContainedRemoved {
			f.ContainedFaceIDs.Remove(childID)
		}
		for _, childID := range u.ContainedAdded {
			if g.faces[childID] == nil {
				fatalf(MissingReference, "no face %d for %d to contain", childID, faceID)
			}
			f.ContainedFaceIDs.Add(childID)
		}
		touched.Add(faceID)
	}
	for _, faceID := range touched.Sorted() {
		g.updateFaceArea(g.faces[faceID])
	}
}
