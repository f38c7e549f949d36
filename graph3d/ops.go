package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/dbg"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// operation collects the deltas a composite operation applies, and the faces
// it split along the way.
type operation struct {
	g       *Graph
	ids     IDAllocator
	deltas  []*Delta
	lineage map[int][]int
}

// transact runs fn against g. The deltas fn applies stay applied on success;
// on failure g is restored to its state before the call.
func (g *Graph) transact(name string, ids IDAllocator, fn func(op *operation) error) ([]*Delta, error) {
	snapshot := g.Clone()
	op := &operation{g: g, ids: ids, lineage: make(map[int][]int)}
	if err := fn(op); err != nil {
		g.CloneFrom(snapshot)
		g.logger.Debug("operation rolled back", "op", name, "error", err)
		return nil, err
	}
	g.logger.Debug("operation applied", "op", name, "deltas", len(op.deltas))
	return op.deltas, nil
}

func (op *operation) apply(d *Delta) error {
	if d.IsEmpty() {
		return nil
	}
	if err := op.g.ApplyDelta(d); err != nil {
		return err
	}
	op.deltas = append(op.deltas, d)
	return nil
}

// leaves follows the split lineage of faceID down to the faces now covering it.
func (op *operation) leaves(faceID int) []int {
	children, split := op.lineage[faceID]
	if !split {
		return []int{faceID}
	}
	var result []int
	for _, child := range children {
		for _, leaf := range op.leaves(child) {
			if !slices.Contains(result, leaf) {
				result = append(result, leaf)
			}
		}
	}
	return result
}

// GetDeltasForVertexAtPosition returns the vertex at pos, splitting an edge
// when pos lands on one and adding a free vertex otherwise.
func (g *Graph) GetDeltasForVertexAtPosition(ids IDAllocator, pos r3.Vec, groupIDs []int) ([]*Delta, int, error) {
	var vertexID int
	deltas, err := g.transact("vertex at position", ids, func(op *operation) (err error) {
		vertexID, err = op.vertexAt(pos, groupIDs)
		return err
	})
	return deltas, vertexID, err
}

func (op *operation) vertexAt(pos r3.Vec, groupIDs []int) (int, error) {
	g := op.g
	if v := g.FindVertexByPosition(pos); v != nil {
		return v.ID, nil
	}
	d := NewDelta()
	var vertexID int
	var err error
	if e := g.edgeThrough(pos); e != nil {
		vertexID, err = g.GetDeltaForEdgeSplit(op.ids, d, e.ID, pos, nil)
	} else {
		vertexID, _, err = g.GetDeltaForVertexAddition(op.ids, d, pos)
	}
	if err != nil {
		return NoID, err
	}
	if _, added := d.VertexAdditions[vertexID]; added && len(groupIDs) > 0 {
		d.VertexGroupIDs[vertexID] = slices.Clone(groupIDs)
	}
	return vertexID, op.apply(d)
}

// edgeThrough finds a live edge with pos strictly inside it.
func (g *Graph) edgeThrough(pos r3.Vec) *Edge {
	for _, id := range g.EdgeIDs() {
		e := g.edges[id]
		a, b := g.vertices[e.StartVertexID].Position, g.vertices[e.EndVertexID].Position
		if _, ok := geom.PointOnSegmentInterior(pos, a, b, g.tol.Vertex); ok {
			return e
		}
	}
	return nil
}

// GetDeltasForEdgeAtSplit splits edgeID at pos.
func (g *Graph) GetDeltasForEdgeAtSplit(ids IDAllocator, edgeID int, pos r3.Vec) ([]*Delta, int, error) {
	var vertexID int
	deltas, err := g.transact("edge split", ids, func(op *operation) (err error) {
		d := NewDelta()
		if vertexID, err = g.GetDeltaForEdgeSplit(ids, d, edgeID, pos, nil); err != nil {
			return err
		}
		return op.apply(d)
	})
	return deltas, vertexID, err
}

// GetDeltasForEdgeAtPositions adds edges covering the segment a-b. Edges the
// segment crosses are split at the crossing, vertices already on the segment
// break it into several edges, and faces the new edges cut through are
// split.
func (g *Graph) GetDeltasForEdgeAtPositions(ids IDAllocator, a, b r3.Vec, groupIDs []int) ([]*Delta, []int, error) {
	var edgeIDs []int
	deltas, err := g.transact("edge at positions", ids, func(op *operation) (err error) {
		edgeIDs, err = op.edgeAt(a, b, groupIDs)
		return err
	})
	return deltas, edgeIDs, err
}

func (op *operation) edgeAt(a, b r3.Vec, groupIDs []int) ([]int, error) {
	g := op.g
	startID, err := op.vertexAt(a, nil)
	if err != nil {
		return nil, err
	}
	endID, err := op.vertexAt(b, nil)
	if err != nil {
		return nil, err
	}
	if startID == endID {
		return nil, newError(DegenerateGeometry, "edge from %v to %v has no length", a, b)
	}
	if err := op.splitCrossings(startID, endID); err != nil {
		return nil, err
	}

	d := NewDelta()
	edgeIDs, err := g.GetDeltaForMultipleEdgeAdditions(op.ids, d, startID, endID, nil)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) > 0 {
		for id, od := range d.EdgeAdditions {
			od.GroupIDs = slices.Clone(groupIDs)
			d.EdgeAdditions[id] = od
		}
	}
	if err := op.apply(d); err != nil {
		return nil, err
	}

	faceIDs := IDSet{}
	for _, signedEdge := range edgeIDs {
		mid := g.edges[abs(signedEdge)].CachedMidpoint
		for _, faceID := range g.FaceIDs() {
			if g.faces[faceID].Locate(mid, g.tol.Vertex) == geom.Inside {
				faceIDs.Add(faceID)
			}
		}
	}
	return edgeIDs, op.updateFaces(faceIDs.Sorted())
}

// splitCrossings splits every live edge that the segment between two
// vertices crosses away from its ends.
func (op *operation) splitCrossings(startID, endID int) error {
	g := op.g
	a, b := g.vertices[startID].Position, g.vertices[endID].Position
	var crossings []r3.Vec
	for _, id := range g.EdgeIDs() {
		e := g.edges[id]
		if e.StartVertexID == startID || e.StartVertexID == endID || e.EndVertexID == startID || e.EndVertexID == endID {
			continue
		}
		c0, c1 := g.vertices[e.StartVertexID].Position, g.vertices[e.EndVertexID].Position
		p, _, _, ok := geom.SegmentIntersection3D(a, b, c0, c1, g.tol.Vertex, g.tol.Dot)
		if !ok {
			continue
		}
		if geom.VecEqual(p, c0, g.tol.Vertex) || geom.VecEqual(p, c1, g.tol.Vertex) ||
			geom.VecEqual(p, a, g.tol.Vertex) || geom.VecEqual(p, b, g.tol.Vertex) {
			continue
		}
		crossings = append(crossings, p)
	}
	for _, p := range crossings {
		if _, err := op.vertexAt(p, nil); err != nil {
			return err
		}
	}
	return nil
}

// FaceAdditionResult reports what adding a face did. FaceIDs cover the
// requested outline once all splitting is done, SplitFaceIDs are the faces
// that got replaced and NewFaceIDs every face the operation created.
type FaceAdditionResult struct {
	Deltas       []*Delta
	FaceIDs      []int
	SplitFaceIDs []int
	NewFaceIDs   []int
}

// GetDeltasForFaceAtPositions adds a face with the given outline. Vertices
// snap to existing ones or split the edges they land on, sides split the
// edges they cross, and every face the new face overlaps or cuts through is
// subdivided so that no two faces overlap.
func (g *Graph) GetDeltasForFaceAtPositions(ids IDAllocator, positions []r3.Vec, groupIDs []int) (FaceAdditionResult, error) {
	var result FaceAdditionResult
	before := NewIDSet(g.FaceIDs()...)
	deltas, err := g.transact("face at positions", ids, func(op *operation) error {
		faceID, err := op.faceAt(positions, groupIDs)
		if err != nil {
			return err
		}
		result.FaceIDs = op.leaves(faceID)
		result.SplitFaceIDs = sortedKeys(op.lineage)
		return nil
	})
	if err != nil {
		return FaceAdditionResult{}, err
	}
	result.Deltas = deltas
	for _, id := range g.FaceIDs() {
		if !before.Has(id) {
			result.NewFaceIDs = append(result.NewFaceIDs, id)
		}
	}
	slices.Sort(result.FaceIDs)
	return result, nil
}

func (op *operation) faceAt(positions []r3.Vec, groupIDs []int) (int, error) {
	g := op.g
	if len(positions) < 3 {
		return NoID, newError(DegenerateGeometry, "face with %d positions", len(positions))
	}
	if err := g.checkPlanar(positions); err != nil {
		return NoID, err
	}

	var corners []int
	for _, p := range positions {
		vid, err := op.vertexAt(p, nil)
		if err != nil {
			return NoID, err
		}
		if len(corners) == 0 || corners[len(corners)-1] != vid {
			corners = append(corners, vid)
		}
	}
	if len(corners) > 1 && corners[0] == corners[len(corners)-1] {
		corners = corners[:len(corners)-1]
	}
	if len(corners) < 3 {
		return NoID, newError(DegenerateGeometry, "face outline collapses to %d vertices", len(corners))
	}

	for i, vid := range corners {
		if err := op.splitCrossings(vid, corners[geom.CircularIndex(i+1, len(corners))]); err != nil {
			return NoID, err
		}
	}
	var loop []int
	for i, vid := range corners {
		chain, err := g.CalculateVerticesOnLine(vid, corners[geom.CircularIndex(i+1, len(corners))])
		if err != nil {
			return NoID, err
		}
		loop = append(loop, chain[:len(chain)-1]...)
	}

	d := NewDelta()
	faceID, added, err := g.GetDeltaForFaceAddition(op.ids, d, loop, nil, groupIDs)
	if err != nil {
		return NoID, err
	}
	faceID = abs(faceID)
	if !added {
		return faceID, nil
	}
	if err := op.apply(d); err != nil {
		return NoID, err
	}
	if err := op.containment(faceID); err != nil {
		return NoID, err
	}

	// Splits made along the way replace faces on either side, so both are
	// followed through their lineage
	for _, otherID := range g.FaceIDs() {
		if otherID == faceID {
			continue
		}
		for _, otherLeaf := range op.leaves(otherID) {
			for _, leaf := range op.leaves(faceID) {
				face, other := g.faces[leaf], g.faces[otherLeaf]
				if face == nil || other == nil || leaf == otherLeaf ||
					other.CachedPlane.IsCoplanar(face.CachedPlane, g.tol.Planar, g.tol.Dot) {
					continue
				}
				for _, segment := range g.faceIntersections(face, other) {
					if _, err := op.edgeAt(segment[0], segment[1], nil); err != nil {
						return NoID, err
					}
				}
			}
		}
	}

	candidates := IDSet{}
	for _, leaf := range op.leaves(faceID) {
		candidates.Add(leaf)
		leafFace := g.faces[leaf]
		if leafFace == nil {
			continue
		}
		for _, otherID := range g.FaceIDs() {
			if leafFace.CachedPlane.IsCoplanar(g.faces[otherID].CachedPlane, g.tol.Planar, g.tol.Dot) {
				candidates.Add(otherID)
			}
		}
	}
	return faceID, op.updateFaces(candidates.Sorted())
}

func (op *operation) containment(faceID int) error {
	d := NewDelta()
	if err := op.g.GetDeltaForFaceContainment(d, faceID); err != nil {
		return err
	}
	return op.apply(d)
}

// GetDeltasForUpdateFaces splits each face crossed by a chain of interior
// edges joining two of its loop vertices, and keeps splitting the children
// until none is crossed. It returns the lineage of every face it split.
func (g *Graph) GetDeltasForUpdateFaces(ids IDAllocator, faceIDs []int) ([]*Delta, map[int][]int, error) {
	var lineage map[int][]int
	deltas, err := g.transact("update faces", ids, func(op *operation) error {
		err := op.updateFaces(faceIDs)
		lineage = op.lineage
		return err
	})
	return deltas, lineage, err
}

func (op *operation) updateFaces(faceIDs []int) error {
	g := op.g
	queue := slices.Clone(faceIDs)
	for len(queue) > 0 {
		faceID := queue[0]
		queue = queue[1:]
		if g.faces[faceID] == nil {
			continue
		}
		path := g.findSplitPath(faceID)
		if path == nil {
			continue
		}
		d := NewDelta()
		children, err := g.GetDeltaForFaceSplitByPath(op.ids, d, faceID, path)
		if err != nil {
			return err
		}
		if err := op.apply(d); err != nil {
			return err
		}
		op.lineage[faceID] = children
		g.logger.Debug("face split", "face", dbg.ObjectName("face", faceID), "children", children)
		for _, child := range children {
			if err := op.containment(child); err != nil {
				return err
			}
		}
		queue = append(queue, children...)
	}
	return nil
}

// findSplitPath looks for a chain of edges running through the inside of a
// face between two of its loop vertices. Loop vertices are tried in order and
// neighbours by ascending ID, so the result is deterministic.
func (g *Graph) findSplitPath(faceID int) []int {
	f := g.faces[faceID]
	onLoop := NewIDSet(f.VertexIDs...)
	ownEdges := IDSet{}
	for _, signedEdge := range f.EdgeIDs {
		ownEdges.Add(abs(signedEdge))
	}
	interior := func(e *Edge) bool {
		return !ownEdges.Has(e.ID) && f.Locate(e.CachedMidpoint, g.tol.Vertex) == geom.Inside
	}

	for _, start := range f.VertexIDs {
		parent := map[int]int{start: NoID}
		frontier := []int{start}
		for len(frontier) > 0 {
			cur := frontier[0]
			frontier = frontier[1:]
			for _, next := range g.neighbours(cur) {
				if _, seen := parent[next]; seen {
					continue
				}
				e := g.edges[abs(g.FindEdgeByVertices(cur, next))]
				if !interior(e) {
					continue
				}
				parent[next] = cur
				if onLoop.Has(next) {
					path := []int{next}
					for at := cur; at != NoID; at = parent[at] {
						path = append(path, at)
					}
					slices.Reverse(path)
					return path
				}
				if f.Locate(g.vertices[next].Position, g.tol.Vertex) == geom.Inside {
					frontier = append(frontier, next)
				}
			}
		}
	}
	return nil
}

// neighbours lists the vertices sharing an edge with vertexID, by ascending ID.
func (g *Graph) neighbours(vertexID int) []int {
	v := g.vertices[vertexID]
	result := make([]int, 0, len(v.ConnectedEdgeIDs))
	for _, signedEdge := range v.ConnectedEdgeIDs {
		result = append(result, g.edges[abs(signedEdge)].OtherVertex(vertexID))
	}
	slices.Sort(result)
	return result
}

// GetDeltasForFaceJoin merges two faces across their seam and rebuilds the
// merged face's containment.
func (g *Graph) GetDeltasForFaceJoin(ids IDAllocator, faceAID, faceBID int) ([]*Delta, int, error) {
	var joinedID int
	deltas, err := g.transact("face join", ids, func(op *operation) (err error) {
		d := NewDelta()
		if joinedID, err = g.GetDeltaForFaceJoin(ids, d, faceAID, faceBID); err != nil {
			return err
		}
		if err := op.apply(d); err != nil {
			return err
		}
		return op.containment(joinedID)
	})
	return deltas, joinedID, err
}

func (g *Graph) GetDeltasForEdgeJoin(ids IDAllocator, vertexID int) ([]*Delta, int, error) {
	var joinedID int
	deltas, err := g.transact("edge join", ids, func(op *operation) (err error) {
		d := NewDelta()
		if joinedID, err = g.GetDeltaForEdgeJoin(ids, d, vertexID); err != nil {
			return err
		}
		return op.apply(d)
	})
	return deltas, joinedID, err
}

func (g *Graph) GetDeltasForVertexJoin(ids IDAllocator, keepID, removeID int) ([]*Delta, error) {
	return g.transact("vertex join", ids, func(op *operation) error {
		d := NewDelta()
		if err := g.GetDeltaForVertexJoin(ids, d, keepID, removeID); err != nil {
			return err
		}
		return op.apply(d)
	})
}

// GetDeltasForVertexMovements moves vertices, then joins any moved vertex
// that landed on another one into it.
func (g *Graph) GetDeltasForVertexMovements(ids IDAllocator, moves map[int]r3.Vec) ([]*Delta, error) {
	return g.transact("vertex movements", ids, func(op *operation) error {
		d := NewDelta()
		if err := g.GetDeltaForVertexMovements(d, moves); err != nil {
			return err
		}
		if err := op.apply(d); err != nil {
			return err
		}
		for _, movedID := range sortedKeys(moves) {
			moved := g.vertices[movedID]
			if moved == nil {
				continue
			}
			for _, otherID := range g.VertexIDs() {
				other := g.vertices[otherID]
				if otherID == movedID || !geom.VecEqual(other.Position, moved.Position, g.tol.Vertex) {
					continue
				}
				join := NewDelta()
				if err := g.GetDeltaForVertexJoin(ids, join, otherID, movedID); err != nil {
					return err
				}
				if err := op.apply(join); err != nil {
					return err
				}
				break
			}
		}
		return nil
	})
}

// GetDeltasForDeleteObjects deletes objects and everything depending on them.
func (g *Graph) GetDeltasForDeleteObjects(objectIDs []int, deleteOrphans bool) ([]*Delta, error) {
	return g.transact("delete objects", nil, func(op *operation) error {
		d := NewDelta()
		if err := g.GetDeltaForDeleteObjects(d, objectIDs, deleteOrphans); err != nil {
			return err
		}
		return op.apply(d)
	})
}
