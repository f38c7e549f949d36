package graph3d

// GetDeltaForDeleteObjects stages the deletion of the given vertices, edges
// and faces along with everything depending on them: a vertex takes its
// edges and an edge takes its faces. With deleteOrphans, edges left without
// faces and vertices left without edges go too. Faces the deleted ones
// contained move up to the nearest surviving container.
func (g *Graph) GetDeltaForDeleteObjects(d *Delta, objectIDs []int, deleteOrphans bool) error {
	vertices, edges, faces := IDSet{}, IDSet{}, IDSet{}
	for _, id := range objectIDs {
		switch obj := g.FindObject(id).(type) {
		case *Vertex:
			vertices.Add(obj.ID)
		case *Edge:
			edges.Add(obj.ID)
		case *Face:
			faces.Add(obj.ID)
		default:
			return newError(MissingReference, "no object %d to delete", id)
		}
	}

	for _, vid := range vertices.Sorted() {
		for _, signedEdge := range g.vertices[vid].ConnectedEdgeIDs {
			edges.Add(abs(signedEdge))
		}
	}
	for _, eid := range edges.Sorted() {
		for _, conn := range g.edges[eid].ConnectedFaces {
			faces.Add(abs(conn.FaceID))
		}
	}

	if deleteOrphans {
		for _, fid := range faces.Sorted() {
			for _, signedEdge := range g.faces[fid].EdgeIDs {
				e := g.edges[abs(signedEdge)]
				orphan := true
				for _, conn := range e.ConnectedFaces {
					if !faces.Has(abs(conn.FaceID)) {
						orphan = false
						break
					}
				}
				if orphan {
					edges.Add(e.ID)
				}
			}
		}
		for _, eid := range edges.Sorted() {
			e := g.edges[eid]
			for _, vid := range []int{e.StartVertexID, e.EndVertexID} {
				orphan := true
				for _, signedEdge := range g.vertices[vid].ConnectedEdgeIDs {
					if !edges.Has(abs(signedEdge)) {
						orphan = false
						break
					}
				}
				if orphan {
					vertices.Add(vid)
				}
			}
		}
	}

	for _, fid := range faces.Sorted() {
		f := g.faces[fid]
		d.FaceDeletions[fid] = ObjectDelta{VertexIDs: append([]int(nil), f.VertexIDs...), GroupIDs: f.GroupIDs.Sorted()}
	}
	for _, fid := range faces.Sorted() {
		g.detachFace(d, fid)
	}
	for _, eid := range edges.Sorted() {
		e := g.edges[eid]
		d.EdgeDeletions[eid] = ObjectDelta{VertexIDs: []int{e.StartVertexID, e.EndVertexID}, GroupIDs: e.GroupIDs.Sorted()}
	}
	for _, vid := range vertices.Sorted() {
		v := g.vertices[vid]
		d.VertexDeletions[vid] = v.Position
		if len(v.GroupIDs) > 0 {
			d.VertexGroupIDs[vid] = v.GroupIDs.Sorted()
		}
	}
	return nil
}
