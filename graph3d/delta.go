package graph3d

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

type VertexMovement struct {
	From r3.Vec `json:"from"`
	To   r3.Vec `json:"to"`
}

// ObjectDelta describes an edge or face being added or deleted. ParentIDs
// name the objects an addition replaces, ChildIDs the objects replacing a
// deletion.
type ObjectDelta struct {
	VertexIDs []int `json:"vertexIds"`
	ParentIDs []int `json:"parentIds,omitempty"`
	ChildIDs  []int `json:"childIds,omitempty"`
	GroupIDs  []int `json:"groupIds,omitempty"`
}

func (od ObjectDelta) clone() ObjectDelta {
	return ObjectDelta{
		VertexIDs: slices.Clone(od.VertexIDs),
		ParentIDs: slices.Clone(od.ParentIDs),
		ChildIDs:  slices.Clone(od.ChildIDs),
		GroupIDs:  slices.Clone(od.GroupIDs),
	}
}

type ContainmentUpdate struct {
	PrevContainingFaceID int   `json:"prevContainingFaceId"`
	NextContainingFaceID int   `json:"nextContainingFaceId"`
	ContainedAdded       []int `json:"containedAdded,omitempty"`
	ContainedRemoved     []int `json:"containedRemoved,omitempty"`
}

func (u ContainmentUpdate) isNoOp() bool {
	return u.PrevContainingFaceID == u.NextContainingFaceID &&
		len(u.ContainedAdded) == 0 && len(u.ContainedRemoved) == 0
}

// Delta is an atomic, exactly invertible change to a Graph.
//
// Face vertex additions and removals are keyed by the vertex's index in the
// intermediate loop that holds both: the current loop with every addition
// inserted and before any removal. Swapping the two maps therefore inverts
// the loop edit.
type Delta struct {
	VertexMovements map[int]VertexMovement `json:"vertexMovements,omitempty"`
	VertexAdditions map[int]r3.Vec         `json:"vertexAdditions,omitempty"`
	VertexDeletions map[int]r3.Vec         `json:"vertexDeletions,omitempty"`
	// Groups of added or deleted vertices.
	VertexGroupIDs map[int][]int `json:"vertexGroupIds,omitempty"`

	EdgeAdditions map[int]ObjectDelta `json:"edgeAdditions,omitempty"`
	EdgeDeletions map[int]ObjectDelta `json:"edgeDeletions,omitempty"`
	FaceAdditions map[int]ObjectDelta `json:"faceAdditions,omitempty"`
	FaceDeletions map[int]ObjectDelta `json:"faceDeletions,omitempty"`

	FaceVertexAdditions map[int]map[int]int `json:"faceVertexAdditions,omitempty"`
	FaceVertexRemovals  map[int]map[int]int `json:"faceVertexRemovals,omitempty"`

	FaceContainmentUpdates map[int]ContainmentUpdate `json:"faceContainmentUpdates,omitempty"`
}

func NewDelta() *Delta {
	return &Delta{
		VertexMovements:        make(map[int]VertexMovement),
		VertexAdditions:        make(map[int]r3.Vec),
		VertexDeletions:        make(map[int]r3.Vec),
		VertexGroupIDs:         make(map[int][]int),
		EdgeAdditions:          make(map[int]ObjectDelta),
		EdgeDeletions:          make(map[int]ObjectDelta),
		FaceAdditions:          make(map[int]ObjectDelta),
		FaceDeletions:          make(map[int]ObjectDelta),
		FaceVertexAdditions:    make(map[int]map[int]int),
		FaceVertexRemovals:     make(map[int]map[int]int),
		FaceContainmentUpdates: make(map[int]ContainmentUpdate),
	}
}

// ensure allocates any maps left nil by decoding.
func (d *Delta) ensure() {
	if d.VertexMovements == nil {
		d.VertexMovements = make(map[int]VertexMovement)
	}
	if d.VertexAdditions == nil {
		d.VertexAdditions = make(map[int]r3.Vec)
	}
	if d.VertexDeletions == nil {
		d.VertexDeletions = make(map[int]r3.Vec)
	}
	if d.VertexGroupIDs == nil {
		d.VertexGroupIDs = make(map[int][]int)
	}
	if d.EdgeAdditions == nil {
		d.EdgeAdditions = make(map[int]ObjectDelta)
	}
	if d.EdgeDeletions == nil {
		d.EdgeDeletions = make(map[int]ObjectDelta)
	}
	if d.FaceAdditions == nil {
		d.FaceAdditions = make(map[int]ObjectDelta)
	}
	if d.FaceDeletions == nil {
		d.FaceDeletions = make(map[int]ObjectDelta)
	}
	if d.FaceVertexAdditions == nil {
		d.FaceVertexAdditions = make(map[int]map[int]int)
	}
	if d.FaceVertexRemovals == nil {
		d.FaceVertexRemovals = make(map[int]map[int]int)
	}
	if d.FaceContainmentUpdates == nil {
		d.FaceContainmentUpdates = make(map[int]ContainmentUpdate)
	}
}

func (d *Delta) IsEmpty() bool {
	for _, u := range d.FaceContainmentUpdates {
		if !u.isNoOp() {
			return false
		}
	}
	for _, m := range d.FaceVertexAdditions {
		if len(m) > 0 {
			return false
		}
	}
	for _, m := range d.FaceVertexRemovals {
		if len(m) > 0 {
			return false
		}
	}
	return len(d.VertexMovements) == 0 &&
		len(d.VertexAdditions) == 0 && len(d.VertexDeletions) == 0 &&
		len(d.EdgeAdditions) == 0 && len(d.EdgeDeletions) == 0 &&
		len(d.FaceAdditions) == 0 && len(d.FaceDeletions) == 0
}

func (d *Delta) Clone() *Delta {
	c := NewDelta()
	maps.Copy(c.VertexMovements, d.VertexMovements)
	maps.Copy(c.VertexAdditions, d.VertexAdditions)
	maps.Copy(c.VertexDeletions, d.VertexDeletions)
	for id, groups := range d.VertexGroupIDs {
		c.VertexGroupIDs[id] = slices.Clone(groups)
	}
	cloneObjects := func(dst, src map[int]ObjectDelta) {
		for id, od := range src {
			dst[id] = od.clone()
		}
	}
	cloneObjects(c.EdgeAdditions, d.EdgeAdditions)
	cloneObjects(c.EdgeDeletions, d.EdgeDeletions)
	cloneObjects(c.FaceAdditions, d.FaceAdditions)
	cloneObjects(c.FaceDeletions, d.FaceDeletions)
	for id, m := range d.FaceVertexAdditions {
		c.FaceVertexAdditions[id] = maps.Clone(m)
	}
	for id, m := range d.FaceVertexRemovals {
		c.FaceVertexRemovals[id] = maps.Clone(m)
	}
	for id, u := range d.FaceContainmentUpdates {
		u.ContainedAdded = slices.Clone(u.ContainedAdded)
		u.ContainedRemoved = slices.Clone(u.ContainedRemoved)
		c.FaceContainmentUpdates[id] = u
	}
	return c
}

// MakeInverse returns the delta that undoes d once d has been applied.
func (d *Delta) MakeInverse() *Delta {
	c := d.Clone()
	inv := NewDelta()
	for id, move := range c.VertexMovements {
		inv.VertexMovements[id] = VertexMovement{From: move.To, To: move.From}
	}
	inv.VertexAdditions, inv.VertexDeletions = c.VertexDeletions, c.VertexAdditions
	inv.VertexGroupIDs = c.VertexGroupIDs
	inv.EdgeAdditions, inv.EdgeDeletions = c.EdgeDeletions, c.EdgeAdditions
	inv.FaceAdditions, inv.FaceDeletions = c.FaceDeletions, c.FaceAdditions
	inv.FaceVertexAdditions, inv.FaceVertexRemovals = c.FaceVertexRemovals, c.FaceVertexAdditions
	for id, u := range c.FaceContainmentUpdates {
		inv.FaceContainmentUpdates[id] = ContainmentUpdate{
			PrevContainingFaceID: u.NextContainingFaceID,
			NextContainingFaceID: u.PrevContainingFaceID,
			ContainedAdded:       u.ContainedRemoved,
			ContainedRemoved:     u.ContainedAdded,
		}
	}
	return inv
}

// UnmarshalJSON decodes the persisted form of a delta. Maps absent from the
// input come back empty rather than nil.
func (d *Delta) UnmarshalJSON(data []byte) error {
	type plain Delta
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return errors.Wrap(err, "decoding delta")
	}
	d.ensure()
	return nil
}

// stagedPosition finds a vertex position in the graph or among d's pending
// additions.
func (g *Graph) stagedPosition(d *Delta, vertexID int) (r3.Vec, bool) {
	if v := g.vertices[vertexID]; v != nil {
		if move, ok := d.VertexMovements[vertexID]; ok {
			return move.To, true
		}
		return v.Position, true
	}
	pos, ok := d.VertexAdditions[vertexID]
	return pos, ok
}

// stagedLoop is the face's intermediate loop: current loop with d's pending
// insertions applied.
func (g *Graph) stagedLoop(d *Delta, faceID int) []int {
	f := g.faces[faceID]
	if f == nil {
		return nil
	}
	loop := slices.Clone(f.VertexIDs)
	additions := d.FaceVertexAdditions[faceID]
	for _, key := range sortedKeys(additions) {
		loop = slices.Insert(loop, key, additions[key])
	}
	return loop
}

// insertFaceVertex stages vertexID between the adjacent loop vertices a and b
// of faceID, shifting the keys of earlier staged edits behind it.
func (g *Graph) insertFaceVertex(d *Delta, faceID, a, b, vertexID int) error {
	loop := g.stagedLoop(d, faceID)
	n := len(loop)
	pos := -1
	for i := range loop {
		next := (i + 1) % n
		if (loop[i] == a && loop[next] == b) || (loop[i] == b && loop[next] == a) {
			pos = i + 1
			break
		}
	}
	if pos < 0 {
		return newError(MissingReference, "face %d has no side from %d to %d", faceID, a, b)
	}
	shift := func(m map[int]int) map[int]int {
		shifted := make(map[int]int, len(m)+1)
		for key, vid := range m {
			if key >= pos {
				key++
			}
			shifted[key] = vid
		}
		return shifted
	}
	additions := shift(d.FaceVertexAdditions[faceID])
	additions[pos] = vertexID
	d.FaceVertexAdditions[faceID] = additions
	if removals, ok := d.FaceVertexRemovals[faceID]; ok {
		d.FaceVertexRemovals[faceID] = shift(removals)
	}
	return nil
}

// removeFaceVertex stages the removal of vertexID from faceID's loop.
func (g *Graph) removeFaceVertex(d *Delta, faceID, vertexID int) error {
	loop := g.stagedLoop(d, faceID)
	idx := slices.Index(loop, vertexID)
	if idx < 0 {
		return newError(MissingReference, "face %d does not hold vertex %d", faceID, vertexID)
	}
	if d.FaceVertexRemovals[faceID] == nil {
		d.FaceVertexRemovals[faceID] = make(map[int]int)
	}
	d.FaceVertexRemovals[faceID][idx] = vertexID
	return nil
}

// finalLoop is the face's loop once d's insertions and removals apply.
func (g *Graph) finalLoop(d *Delta, faceID int) []int {
	loop := g.stagedLoop(d, faceID)
	removals := d.FaceVertexRemovals[faceID]
	keys := sortedKeys(removals)
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] < len(loop) {
			loop = slices.Delete(loop, keys[i], keys[i]+1)
		}
	}
	return loop
}

func (d *Delta) containment(g *Graph, faceID int) ContainmentUpdate {
	if u, ok := d.FaceContainmentUpdates[faceID]; ok {
		return u
	}
	u := ContainmentUpdate{}
	if f := g.faces[faceID]; f != nil {
		u.PrevContainingFaceID = f.ContainingFaceID
		u.NextContainingFaceID = f.ContainingFaceID
	}
	return u
}

func (d *Delta) setContainer(g *Graph, faceID, containerID int) {
	u := d.containment(g, faceID)
	u.NextContainingFaceID = containerID
	d.FaceContainmentUpdates[faceID] = u
}

func (d *Delta) addContained(g *Graph, faceID, childID int) {
	u := d.containment(g, faceID)
	if i := slices.Index(u.ContainedRemoved, childID); i >= 0 {
		u.ContainedRemoved = slices.Delete(u.ContainedRemoved, i, i+1)
	} else if f := g.faces[faceID]; (f == nil || !f.ContainedFaceIDs.Has(childID)) && !slices.Contains(u.ContainedAdded, childID) {
		u.ContainedAdded = append(u.ContainedAdded, childID)
	}
	d.FaceContainmentUpdates[faceID] = u
}

func (d *Delta) removeContained(g *Graph, faceID, childID int) {
	u := d.containment(g, faceID)
	if i := slices.Index(u.ContainedAdded, childID); i >= 0 {
		u.ContainedAdded = slices.Delete(u.ContainedAdded, i, i+1)
	} else if f := g.faces[faceID]; f != nil && f.ContainedFaceIDs.Has(childID) && !slices.Contains(u.ContainedRemoved, childID) {
		u.ContainedRemoved = append(u.ContainedRemoved, childID)
	}
	d.FaceContainmentUpdates[faceID] = u
}

// stagedContainer is the face's container after d's containment updates.
func (d *Delta) stagedContainer(g *Graph, faceID int) int {
	return d.containment(g, faceID).NextContainingFaceID
}

// detachFace cuts every containment link of a face that d deletes. Its
// surviving contained faces move to its nearest ancestor that d keeps.
func (g *Graph) detachFace(d *Delta, faceID int) {
	f := g.faces[faceID]
	if f == nil {
		return
	}
	ancestor := f.ContainingFaceID
	for ancestor != NoID {
		if _, deleted := d.FaceDeletions[ancestor]; !deleted {
			break
		}
		ancestor = g.faces[ancestor].ContainingFaceID
	}

	if container := d.stagedContainer(g, faceID); container != NoID {
		d.setContainer(g, faceID, NoID)
		d.removeContained(g, container, faceID)
	}
	for _, childID := range f.ContainedFaceIDs.Sorted() {
		if d.stagedContainer(g, childID) != faceID {
			continue
		}
		d.removeContained(g, faceID, childID)
		if _, deleted := d.FaceDeletions[childID]; deleted {
			continue
		}
		d.setContainer(g, childID, ancestor)
		if ancestor != NoID {
			d.addContained(g, ancestor, childID)
		}
	}
}
