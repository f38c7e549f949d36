package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// GetDeltaForFaceAddition stages a face over vertexIDs, adding any missing
// side edges first. A face already holding the loop comes back signed by
// orientation with added false.
func (g *Graph) GetDeltaForFaceAddition(ids IDAllocator, d *Delta, vertexIDs, parentIDs, groupIDs []int) (id int, added bool, err error) {
	if len(vertexIDs) < 3 {
		return NoID, false, newError(DegenerateGeometry, "face with %d vertices", len(vertexIDs))
	}
	if len(NewIDSet(vertexIDs...)) != len(vertexIDs) {
		return NoID, false, newError(DegenerateGeometry, "face loop repeats a vertex")
	}
	positions := make([]r3.Vec, len(vertexIDs))
	for i, vid := range vertexIDs {
		p, ok := g.stagedPosition(d, vid)
		if !ok {
			return NoID, false, newError(MissingReference, "no vertex %d", vid)
		}
		positions[i] = p
	}
	if err := g.checkPlanar(positions); err != nil {
		return NoID, false, err
	}

	if existing := g.FindFaceByVertexIDs(vertexIDs); existing != NoID {
		if _, deleted := d.FaceDeletions[abs(existing)]; !deleted {
			return existing, false, nil
		}
	}
	for _, stagedID := range sortedKeys(d.FaceAdditions) {
		if dir := loopMatch(d.FaceAdditions[stagedID].VertexIDs, vertexIDs); dir != 0 {
			return dir * stagedID, false, nil
		}
	}

	for i, vid := range vertexIDs {
		next := vertexIDs[geom.CircularIndex(i+1, len(vertexIDs))]
		if _, _, err := g.GetDeltaForEdgeAddition(ids, d, vid, next, nil); err != nil {
			return NoID, false, err
		}
	}
	id = ids.NextID()
	d.FaceAdditions[id] = ObjectDelta{
		VertexIDs: slices.Clone(vertexIDs),
		ParentIDs: slices.Clone(parentIDs),
		GroupIDs:  slices.Clone(groupIDs),
	}
	return id, true, nil
}

func (g *Graph) checkPlanar(positions []r3.Vec) error {
	plane, ok := geom.PlaneFromPoints(positions)
	if !ok {
		return newError(DegenerateGeometry, "face has no area")
	}
	for _, p := range positions {
		if !geom.EqualTol(plane.Distance(p), 0, g.tol.Planar) {
			return newError(NonPlanarFace, "%v is %g off the face plane", p, plane.Distance(p))
		}
	}
	return nil
}

// GetDeltaForFaceSplit cuts faceID along the segment from posA to posB. Each
// point is either a loop vertex or lies on the side given by its edge index
// (-1 to search), where a vertex gets inserted. The face is replaced by the
// loops on either side of the cut.
func (g *Graph) GetDeltaForFaceSplit(ids IDAllocator, d *Delta, faceID int, posA r3.Vec, edgeIdxA int, posB r3.Vec, edgeIdxB int) ([]int, error) {
	f := g.faces[abs(faceID)]
	if f == nil {
		return nil, newError(MissingReference, "no face %d to split", faceID)
	}
	loop := slices.Clone(f.VertexIDs)
	exclude := NewIDSet(f.ID)

	placeVertex := func(pos r3.Vec, edgeIdx int) (int, error) {
		// The loop may already hold a vertex staged by the other split point
		for _, vid := range loop {
			if staged, ok := g.stagedPosition(d, vid); ok && geom.VecEqual(staged, pos, g.tol.Vertex) {
				return vid, nil
			}
		}
		if edgeIdx < 0 {
			for i, signedEdge := range f.EdgeIDs {
				e := g.edges[abs(signedEdge)]
				a, b := g.vertices[e.StartVertexID].Position, g.vertices[e.EndVertexID].Position
				if _, ok := geom.PointOnSegmentInterior(pos, a, b, g.tol.Vertex); ok {
					edgeIdx = i
					break
				}
			}
		}
		if edgeIdx < 0 || edgeIdx >= len(f.EdgeIDs) {
			return NoID, newError(DegenerateGeometry, "%v is not on the boundary of face %d", pos, f.ID)
		}
		a, b := f.VertexIDs[edgeIdx], f.VertexIDs[geom.CircularIndex(edgeIdx+1, len(f.VertexIDs))]
		vid, err := g.GetDeltaForEdgeSplit(ids, d, f.EdgeIDs[edgeIdx], pos, exclude)
		if err != nil {
			return NoID, err
		}
		for i := range loop {
			next := geom.CircularIndex(i+1, len(loop))
			if (loop[i] == a && loop[next] == b) || (loop[i] == b && loop[next] == a) {
				loop = slices.Insert(loop, i+1, vid)
				break
			}
		}
		return vid, nil
	}

	vA, err := placeVertex(posA, edgeIdxA)
	if err != nil {
		return nil, err
	}
	vB, err := placeVertex(posB, edgeIdxB)
	if err != nil {
		return nil, err
	}
	if vA == vB {
		return nil, newError(DegenerateGeometry, "face %d split points coincide", f.ID)
	}
	i, j := slices.Index(loop, vA), slices.Index(loop, vB)
	n := len(loop)
	if geom.CircularIndex(i+1, n) == j || geom.CircularIndex(j+1, n) == i {
		return nil, newError(DegenerateGeometry, "face %d split runs along a side", f.ID)
	}
	mid := geom.Lerp(posA, posB, 0.5)
	if f.Locate(mid, g.tol.Vertex) != geom.Inside {
		return nil, newError(DegenerateGeometry, "face %d split leaves the face", f.ID)
	}
	if _, _, err := g.GetDeltaForEdgeAddition(ids, d, vA, vB, []int{f.ID}); err != nil {
		return nil, err
	}
	return g.splitFaceLoop(ids, d, f, loop, []int{vA, vB})
}

// GetDeltaForFaceSplitByPath replaces faceID with the loops on either side of
// path, a chain of existing edges whose two ends are on the face loop and
// whose interior vertices are not.
func (g *Graph) GetDeltaForFaceSplitByPath(ids IDAllocator, d *Delta, faceID int, path []int) ([]int, error) {
	f := g.faces[abs(faceID)]
	if f == nil {
		return nil, newError(MissingReference, "no face %d to split", faceID)
	}
	if len(path) < 2 {
		return nil, newError(DegenerateGeometry, "split path needs two vertices")
	}
	for k := 0; k+1 < len(path); k++ {
		if _, _, err := g.GetDeltaForEdgeAddition(ids, d, path[k], path[k+1], []int{f.ID}); err != nil {
			return nil, err
		}
	}
	return g.splitFaceLoop(ids, d, f, slices.Clone(f.VertexIDs), path)
}

// splitFaceLoop stages the two child loops of loop cut by path, reusing any
// face that already holds a child loop, and deletes f with the children as
// lineage.
func (g *Graph) splitFaceLoop(ids IDAllocator, d *Delta, f *Face, loop, path []int) ([]int, error) {
	first, last := path[0], path[len(path)-1]
	i, j := slices.Index(loop, first), slices.Index(loop, last)
	if i < 0 || j < 0 || i == j {
		return nil, newError(DegenerateGeometry, "split path of face %d does not span its loop", f.ID)
	}
	interior := path[1 : len(path)-1]
	for _, vid := range interior {
		if slices.Contains(loop, vid) {
			return nil, newError(DegenerateGeometry, "split path of face %d touches its loop at %d", f.ID, vid)
		}
	}
	n := len(loop)
	walk := func(from, to int) []int {
		var run []int
		for k := from; ; k = geom.CircularIndex(k+1, n) {
			run = append(run, loop[k])
			if k == to {
				return run
			}
		}
	}
	reversed := slices.Clone(interior)
	slices.Reverse(reversed)
	loops := [][]int{
		append(walk(i, j), reversed...),
		append(walk(j, i), interior...),
	}
	if len(interior) == 0 && (len(loops[0]) < 3 || len(loops[1]) < 3) {
		return nil, newError(DegenerateGeometry, "split of face %d runs along a side", f.ID)
	}

	groups := f.GroupIDs.Sorted()
	children := make([]int, 0, len(loops))
	for _, childLoop := range loops {
		id, _, err := g.GetDeltaForFaceAddition(ids, d, childLoop, []int{f.ID}, groups)
		if err != nil {
			return nil, err
		}
		children = append(children, abs(id))
	}
	d.FaceDeletions[f.ID] = ObjectDelta{
		VertexIDs: slices.Clone(f.VertexIDs),
		ChildIDs:  children,
		GroupIDs:  groups,
	}
	g.detachFace(d, f.ID)
	return children, nil
}

// GetDeltaForFaceContainment links a live face to the smallest coplanar face
// strictly containing it, and adopts the faces it strictly contains that have
// no tighter container.
func (g *Graph) GetDeltaForFaceContainment(d *Delta, faceID int) error {
	f := g.faces[faceID]
	if f == nil {
		return newError(MissingReference, "no face %d", faceID)
	}
	if _, deleted := d.FaceDeletions[faceID]; deleted {
		return nil
	}
	area := f.OuterArea()

	container, containerArea := NoID, 0.0
	for _, otherID := range g.FaceIDs() {
		other := g.faces[otherID]
		if otherID == faceID || !g.strictlyContains(d, other, f) {
			continue
		}
		if otherArea := other.OuterArea(); container == NoID || otherArea < containerArea {
			container, containerArea = otherID, otherArea
		}
	}
	if current := d.stagedContainer(g, faceID); current != container {
		if current != NoID {
			d.removeContained(g, current, faceID)
		}
		d.setContainer(g, faceID, container)
		if container != NoID {
			d.addContained(g, container, faceID)
		}
	}

	for _, otherID := range g.FaceIDs() {
		other := g.faces[otherID]
		if otherID == faceID || !g.strictlyContains(d, f, other) {
			continue
		}
		current := d.stagedContainer(g, otherID)
		if current == faceID {
			continue
		}
		if currentFace := g.faces[current]; currentFace != nil && currentFace.OuterArea() <= area {
			continue
		}
		if current != NoID {
			d.removeContained(g, current, otherID)
		}
		d.setContainer(g, otherID, faceID)
		d.addContained(g, faceID, otherID)
	}
	return nil
}

// strictlyContains reports whether every vertex of inner lies inside outer,
// off its boundary, on the same plane.
func (g *Graph) strictlyContains(d *Delta, outer, inner *Face) bool {
	if _, deleted := d.FaceDeletions[outer.ID]; deleted {
		return false
	}
	if _, deleted := d.FaceDeletions[inner.ID]; deleted {
		return false
	}
	if !outer.CachedPlane.IsCoplanar(inner.CachedPlane, g.tol.Planar, g.tol.Dot) {
		return false
	}
	if inner.OuterArea() >= outer.OuterArea() {
		return false
	}
	for _, p := range inner.CachedPositions {
		if outer.Locate(p, g.tol.Vertex) != geom.Inside {
			return false
		}
	}
	return true
}

// GetDeltaForFaceJoin merges two coplanar faces across their shared seam. The
// seam must be one contiguous run of edges in both loops; the merged loop
// keeps faceA's orientation and drops the seam's inner vertices.
func (g *Graph) GetDeltaForFaceJoin(ids IDAllocator, d *Delta, faceAID, faceBID int) (int, error) {
	a, b := g.faces[abs(faceAID)], g.faces[abs(faceBID)]
	if a == nil || b == nil {
		return NoID, newError(MissingReference, "join needs faces %d and %d", faceAID, faceBID)
	}
	if a.ID == b.ID {
		return NoID, newError(InconsistentSeam, "cannot join face %d with itself", a.ID)
	}
	if !a.CachedPlane.IsCoplanar(b.CachedPlane, g.tol.Planar, g.tol.Dot) {
		return NoID, newError(NonPlanarFace, "faces %d and %d are not coplanar", a.ID, b.ID)
	}

	shared := IDSet{}
	for _, signedEdge := range a.EdgeIDs {
		if b.EdgeIndex(signedEdge) >= 0 {
			shared.Add(abs(signedEdge))
		}
	}
	if len(shared) == 0 {
		return NoID, newError(InconsistentSeam, "faces %d and %d share no edge", a.ID, b.ID)
	}
	startA, ok := seamStart(a.EdgeIDs, shared)
	if !ok {
		return NoID, newError(InconsistentSeam, "seam between %d and %d is not contiguous in %d", a.ID, b.ID, a.ID)
	}
	if _, ok := seamStart(b.EdgeIDs, shared); !ok {
		return NoID, newError(InconsistentSeam, "seam between %d and %d is not contiguous in %d", a.ID, b.ID, b.ID)
	}

	loopB := slices.Clone(b.VertexIDs)
	if r3.Dot(a.CachedPlane.Normal, b.CachedPlane.Normal) < 0 {
		slices.Reverse(loopB)
	}
	n, m, k := len(a.VertexIDs), len(loopB), len(shared)
	seamFrom := a.VertexIDs[startA]
	seamTo := a.VertexIDs[geom.CircularIndex(startA+k, n)]

	// Around A from the seam's end back to its start, then through B from the
	// seam's start to its end
	var loop []int
	for s := 0; s <= n-k; s++ {
		loop = append(loop, a.VertexIDs[geom.CircularIndex(startA+k+s, n)])
	}
	q := slices.Index(loopB, seamFrom)
	for s := 1; s < m; s++ {
		vid := loopB[geom.CircularIndex(q+s, m)]
		if vid == seamTo {
			break
		}
		loop = append(loop, vid)
	}
	if len(loop) != n+m-2*k {
		return NoID, newError(InconsistentSeam, "seam between %d and %d runs differently in each face", a.ID, b.ID)
	}

	groups := a.GroupIDs.Clone()
	for id := range b.GroupIDs {
		groups.Add(id)
	}
	joinedID, _, err := g.GetDeltaForFaceAddition(ids, d, loop, []int{a.ID, b.ID}, groups.Sorted())
	if err != nil {
		return NoID, err
	}
	joinedID = abs(joinedID)
	for _, f := range []*Face{a, b} {
		d.FaceDeletions[f.ID] = ObjectDelta{
			VertexIDs: slices.Clone(f.VertexIDs),
			ChildIDs:  []int{joinedID},
			GroupIDs:  f.GroupIDs.Sorted(),
		}
	}
	g.detachFace(d, a.ID)
	g.detachFace(d, b.ID)

	// Seam edges nothing else uses go, and so do seam vertices left bare
	deletedEdges := IDSet{}
	for _, edgeID := range shared.Sorted() {
		e := g.edges[edgeID]
		if len(e.ConnectedFaces) > 2 {
			continue
		}
		deletedEdges.Add(edgeID)
		d.EdgeDeletions[edgeID] = ObjectDelta{
			VertexIDs: []int{e.StartVertexID, e.EndVertexID},
			GroupIDs:  e.GroupIDs.Sorted(),
		}
	}
	for s := 1; s < k; s++ {
		vid := a.VertexIDs[geom.CircularIndex(startA+s, n)]
		v := g.vertices[vid]
		bare := true
		for _, signedEdge := range v.ConnectedEdgeIDs {
			if !deletedEdges.Has(abs(signedEdge)) {
				bare = false
			}
		}
		if bare {
			d.VertexDeletions[vid] = v.Position
			if len(v.GroupIDs) > 0 {
				d.VertexGroupIDs[vid] = v.GroupIDs.Sorted()
			}
		}
	}
	return joinedID, nil
}

// seamStart finds the loop index where the run of shared edges begins. It
// fails when the shared edges form more than one run or the whole loop.
func seamStart(edgeIDs []int, shared IDSet) (int, bool) {
	n := len(edgeIDs)
	start, runs := -1, 0
	for i, signedEdge := range edgeIDs {
		prev := edgeIDs[geom.CircularIndex(i-1, n)]
		if shared.Has(abs(signedEdge)) && !shared.Has(abs(prev)) {
			start = i
			runs++
		}
	}
	return start, runs == 1
}
