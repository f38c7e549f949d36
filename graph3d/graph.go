package graph3d

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/logging"
)

type Tolerances struct {
	// Distance under which two positions are the same vertex.
	Vertex float64
	// Maximum distance of a face vertex from its plane.
	Planar float64
	// Two unit directions are parallel when 1-|cos| is below this.
	Dot float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{Vertex: 0.01, Planar: 0.01, Dot: 1e-4}
}

type Option func(*Graph)

func WithTolerances(tol Tolerances) Option {
	return func(g *Graph) { g.tol = tol }
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

type vertexPair struct{ lo, hi int }

func makeVertexPair(a, b int) vertexPair {
	if a > b {
		a, b = b, a
	}
	return vertexPair{a, b}
}

// Graph is the topology store. Objects reference each other only by ID, and
// the maps returned by the accessors are views that callers must not modify.
// All mutation after construction goes through ApplyDelta.
type Graph struct {
	vertices        map[int]*Vertex
	edges           map[int]*Edge
	faces           map[int]*Face
	polyhedra       map[int]*Polyhedron
	edgesByVertices map[vertexPair]int

	tol    Tolerances
	logger *slog.Logger
}

func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		tol:    DefaultTolerances(),
		logger: logging.NewNop(),
	}
	g.reset()
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Graph) reset() {
	g.vertices = make(map[int]*Vertex)
	g.edges = make(map[int]*Edge)
	g.faces = make(map[int]*Face)
	g.polyhedra = make(map[int]*Polyhedron)
	g.edgesByVertices = make(map[vertexPair]int)
}

func (g *Graph) Tolerances() Tolerances { return g.tol }
func (g *Graph) Logger() *slog.Logger   { return g.logger }

func (g *Graph) Vertices() map[int]*Vertex         { return g.vertices }
func (g *Graph) Edges() map[int]*Edge              { return g.edges }
func (g *Graph) Faces() map[int]*Face              { return g.faces }
func (g *Graph) Polyhedra() map[int]*Polyhedron    { return g.polyhedra }
func (g *Graph) FindVertex(id int) *Vertex         { return g.vertices[abs(id)] }
func (g *Graph) FindEdge(id int) *Edge             { return g.edges[abs(id)] }
func (g *Graph) FindFace(id int) *Face             { return g.faces[abs(id)] }
func (g *Graph) FindPolyhedron(id int) *Polyhedron { return g.polyhedra[id] }

func (g *Graph) VertexIDs() []int { return sortedKeys(g.vertices) }
func (g *Graph) EdgeIDs() []int   { return sortedKeys(g.edges) }
func (g *Graph) FaceIDs() []int   { return sortedKeys(g.faces) }

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// FindObject looks an ID up across vertices, edges and faces. Polyhedra live
// in their own ID space and are found with FindPolyhedron.
func (g *Graph) FindObject(id int) Object {
	id = abs(id)
	if v, ok := g.vertices[id]; ok {
		return v
	}
	if e, ok := g.edges[id]; ok {
		return e
	}
	if f, ok := g.faces[id]; ok {
		return f
	}
	return nil
}

// FindVertexByPosition returns the closest vertex within the vertex
// tolerance, or nil.
func (g *Graph) FindVertexByPosition(pos r3.Vec) *Vertex {
	var best *Vertex
	bestDist := g.tol.Vertex
	for _, id := range g.VertexIDs() {
		v := g.vertices[id]
		if d := r3.Norm(r3.Sub(v.Position, pos)); d <= bestDist {
			if best == nil || d < bestDist {
				best, bestDist = v, d
			}
		}
	}
	return best
}

// FindEdgeByVertices returns the edge between a and b, signed positive when
// it runs from a to b, or NoID.
func (g *Graph) FindEdgeByVertices(a, b int) int {
	id, ok := g.edgesByVertices[makeVertexPair(a, b)]
	if !ok {
		return NoID
	}
	if g.edges[id].StartVertexID == a {
		return id
	}
	return -id
}

// FindFaceByVertexIDs finds a face with the given loop, in any rotation. The
// result is negative when the face runs the loop in reverse.
func (g *Graph) FindFaceByVertexIDs(vertexIDs []int) int {
	if len(vertexIDs) < 3 {
		return NoID
	}
	v := g.vertices[vertexIDs[0]]
	if v == nil {
		return NoID
	}
	seen := IDSet{}
	for _, signedEdge := range v.ConnectedEdgeIDs {
		for _, conn := range g.edges[abs(signedEdge)].ConnectedFaces {
			faceID := abs(conn.FaceID)
			if seen.Has(faceID) {
				continue
			}
			seen.Add(faceID)
			if dir := loopMatch(g.faces[faceID].VertexIDs, vertexIDs); dir != 0 {
				return dir * faceID
			}
		}
	}
	return NoID
}

// loopMatch reports 1 when b is a rotation of a, -1 when it is a rotation of
// a reversed, and 0 otherwise.
func loopMatch(a, b []int) int {
	n := len(a)
	if n != len(b) || n == 0 {
		return 0
	}
	start := slices.Index(a, b[0])
	if start < 0 {
		return 0
	}
	forward, backward := true, true
	for i := 0; i < n; i++ {
		if a[geom.CircularIndex(start+i, n)] != b[i] {
			forward = false
		}
		if a[geom.CircularIndex(start-i, n)] != b[i] {
			backward = false
		}
	}
	switch {
	case forward:
		return 1
	case backward:
		return -1
	}
	return 0
}

// ConnectedFaces returns a copy of the edge's face connections in angle order.
func (g *Graph) ConnectedFaces(edgeID int) []EdgeFaceConnection {
	e := g.edges[abs(edgeID)]
	if e == nil {
		return nil
	}
	return slices.Clone(e.ConnectedFaces)
}

// NextAvailableID is one more than the largest vertex, edge or face ID.
func (g *Graph) NextAvailableID() int {
	maxID := 0
	for id := range g.vertices {
		maxID = max(maxID, id)
	}
	for id := range g.edges {
		maxID = max(maxID, id)
	}
	for id := range g.faces {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

func (g *Graph) IsEmpty() bool {
	return len(g.vertices) == 0 && len(g.edges) == 0 && len(g.faces) == 0
}

func (g *Graph) idInUse(id int) bool {
	return g.FindObject(id) != nil
}

// AddVertex does not dedup by position. Coincident vertices exist between a
// movement and the join that follows it; GetDeltaForVertexAddition and
// Validate police uniqueness.
func (g *Graph) AddVertex(pos r3.Vec, id int, groupIDs []int) (*Vertex, error) {
	if id <= 0 {
		return nil, newError(MissingReference, "vertex id %d is not allocatable", id)
	}
	if g.idInUse(id) {
		return nil, newError(DuplicateObject, "id %d already in use", id)
	}
	v := &Vertex{ID: id, Position: pos, GroupIDs: NewIDSet(groupIDs...)}
	g.vertices[id] = v
	return v, nil
}

func (g *Graph) AddEdge(startID, endID, id int, groupIDs []int) (*Edge, error) {
	if id <= 0 {
		return nil, newError(MissingReference, "edge id %d is not allocatable", id)
	}
	if g.idInUse(id) {
		return nil, newError(DuplicateObject, "id %d already in use", id)
	}
	start, end := g.vertices[startID], g.vertices[endID]
	if start == nil || end == nil {
		return nil, newError(MissingReference, "edge %d needs vertices %d and %d", id, startID, endID)
	}
	if startID == endID {
		return nil, newError(DegenerateGeometry, "edge %d starts and ends at %d", id, startID)
	}
	if existing := g.FindEdgeByVertices(startID, endID); existing != NoID {
		return nil, newError(DuplicateObject, "edge %d already joins %d and %d", abs(existing), startID, endID)
	}
	e := &Edge{ID: id, StartVertexID: startID, EndVertexID: endID, GroupIDs: NewIDSet(groupIDs...)}
	g.edges[id] = e
	g.edgesByVertices[makeVertexPair(startID, endID)] = id
	start.addEdge(id)
	end.addEdge(-id)
	g.updateEdgeCache(e)
	return e, nil
}

func (g *Graph) AddFace(vertexIDs []int, id int, groupIDs []int) (*Face, error) {
	if id <= 0 {
		return nil, newError(MissingReference, "face id %d is not allocatable", id)
	}
	if g.idInUse(id) {
		return nil, newError(DuplicateObject, "id %d already in use", id)
	}
	if len(vertexIDs) < 3 {
		return nil, newError(DegenerateGeometry, "face %d has %d vertices", id, len(vertexIDs))
	}
	if len(NewIDSet(vertexIDs...)) != len(vertexIDs) {
		return nil, newError(DegenerateGeometry, "face %d repeats a vertex", id)
	}
	edgeIDs := make([]int, len(vertexIDs))
	for i, vid := range vertexIDs {
		if g.vertices[vid] == nil {
			return nil, newError(MissingReference, "face %d needs vertex %d", id, vid)
		}
		next := vertexIDs[geom.CircularIndex(i+1, len(vertexIDs))]
		edgeIDs[i] = g.FindEdgeByVertices(vid, next)
		if edgeIDs[i] == NoID {
			return nil, newError(MissingReference, "face %d needs an edge from %d to %d", id, vid, next)
		}
	}
	if existing := g.FindFaceByVertexIDs(vertexIDs); existing != NoID {
		return nil, newError(DuplicateObject, "face %d already has this loop", abs(existing))
	}

	f := &Face{
		ID:               id,
		VertexIDs:        slices.Clone(vertexIDs),
		EdgeIDs:          edgeIDs,
		ContainedFaceIDs: IDSet{},
		GroupIDs:         NewIDSet(groupIDs...),
	}
	if err := g.updateFaceGeometry(f); err != nil {
		return nil, err
	}
	g.faces[id] = f
	for _, signedEdge := range edgeIDs {
		e := g.edges[abs(signedEdge)]
		e.ConnectedFaces = append(e.ConnectedFaces, EdgeFaceConnection{FaceID: sign(signedEdge) * id})
		g.updateEdgeFaces(e)
	}
	g.updateFaceArea(f)
	return f, nil
}

// RemoveVertex fails while edges still reference the vertex.
func (g *Graph) RemoveVertex(id int) bool {
	v := g.vertices[id]
	if v == nil || len(v.ConnectedEdgeIDs) > 0 {
		return false
	}
	delete(g.vertices, id)
	return true
}

// RemoveEdge fails while faces still reference the edge.
func (g *Graph) RemoveEdge(id int) bool {
	e := g.edges[id]
	if e == nil || len(e.ConnectedFaces) > 0 {
		return false
	}
	g.vertices[e.StartVertexID].removeEdge(id)
	g.vertices[e.EndVertexID].removeEdge(id)
	delete(g.edgesByVertices, makeVertexPair(e.StartVertexID, e.EndVertexID))
	delete(g.edges, id)
	return true
}

// RemoveFace detaches the face from its edges. Containment links still
// pointing at it are cut.
func (g *Graph) RemoveFace(id int) bool {
	f := g.faces[id]
	if f == nil {
		return false
	}
	for _, signedEdge := range f.EdgeIDs {
		e := g.edges[abs(signedEdge)]
		if i := e.faceIndex(id); i >= 0 {
			e.ConnectedFaces = slices.Delete(e.ConnectedFaces, i, i+1)
		}
	}
	if container := g.faces[f.ContainingFaceID]; container != nil {
		container.ContainedFaceIDs.Remove(id)
		g.updateFaceArea(container)
	}
	for childID := range f.ContainedFaceIDs {
		if child := g.faces[childID]; child != nil && child.ContainingFaceID == id {
			child.ContainingFaceID = NoID
		}
	}
	delete(g.faces, id)
	return true
}

func (g *Graph) updateEdgeCache(e *Edge) {
	start := g.vertices[e.StartVertexID].Position
	end := g.vertices[e.EndVertexID].Position
	delta := r3.Sub(end, start)
	e.CachedLength = r3.Norm(delta)
	e.CachedDir, _ = geom.SafeUnit(delta)
	e.CachedMidpoint = geom.Lerp(start, end, 0.5)
	e.CachedRefNorm = geom.Perpendicular(e.CachedDir, g.tol.Dot)
}

// updateEdgeFaces recomputes the in-face directions and angles of the faces
// on e and keeps them sorted by angle.
func (g *Graph) updateEdgeFaces(e *Edge) {
	for i := range e.ConnectedFaces {
		conn := &e.ConnectedFaces[i]
		f := g.faces[abs(conn.FaceID)]
		traversal := r3.Scale(float64(sign(conn.FaceID)), e.CachedDir)
		conn.EdgeFaceDir, _ = geom.SafeUnit(r3.Cross(f.CachedPlane.Normal, traversal))
		conn.FaceAngle = geom.SignedAngle(e.CachedRefNorm, conn.EdgeFaceDir, e.CachedDir)
	}
	slices.SortStableFunc(e.ConnectedFaces, func(a, b EdgeFaceConnection) int {
		switch {
		case a.FaceAngle < b.FaceAngle:
			return -1
		case a.FaceAngle > b.FaceAngle:
			return 1
		}
		return abs(a.FaceID) - abs(b.FaceID)
	})
}

func (g *Graph) updateFaceGeometry(f *Face) error {
	positions := make([]r3.Vec, len(f.VertexIDs))
	for i, vid := range f.VertexIDs {
		positions[i] = g.vertices[vid].Position
	}
	plane, ok := geom.PlaneFromPoints(positions)
	if !ok {
		return newError(DegenerateGeometry, "face %d has no area", f.ID)
	}
	for i, p := range positions {
		if d := plane.Distance(p); !geom.EqualTol(d, 0, g.tol.Planar) {
			return newError(NonPlanarFace, "vertex %d of face %d is %g off its plane", f.VertexIDs[i], f.ID, d)
		}
	}
	// Coincident neighbours are legal while a vertex join is pending
	var axisHint r3.Vec
	for i, p := range positions {
		axisHint = r3.Sub(positions[geom.CircularIndex(i+1, len(positions))], p)
		if r3.Norm(axisHint) > g.tol.Vertex {
			break
		}
	}
	basis, ok := geom.NewBasis(plane.Project(positions[0]), plane.Normal, axisHint)
	if !ok {
		return newError(DegenerateGeometry, "face %d has no basis", f.ID)
	}
	poly := basis.ProjectAll(positions)
	if poly.Area() <= g.tol.Vertex*g.tol.Vertex {
		return newError(DegenerateGeometry, "face %d has no area", f.ID)
	}
	f.CachedPlane = plane
	f.CachedPositions = positions
	f.Cached2DPositions = poly.Points
	f.Origin, f.AxisX, f.AxisY = basis.Origin, basis.AxisX, basis.AxisY
	f.Center = basis.FromPlane(poly.Centroid())
	return nil
}

// updateFaceArea subtracts the directly contained faces, which are its holes.
func (g *Graph) updateFaceArea(f *Face) {
	f.CachedArea = f.OuterArea()
	f.Holes = f.Holes[:0]
	for _, childID := range f.ContainedFaceIDs.Sorted() {
		child := g.faces[childID]
		if child == nil {
			continue
		}
		f.CachedArea -= child.OuterArea()
		f.Holes = append(f.Holes, PolyHole3D{FaceID: childID, Points: slices.Clone(child.CachedPositions)})
	}
}

// refresh brings the caches of the given edges and faces, and of everything
// derived from them, up to date.
func (g *Graph) refresh(edgeIDs, faceIDs IDSet) error {
	for _, id := range edgeIDs.Sorted() {
		if e := g.edges[id]; e != nil {
			g.updateEdgeCache(e)
			for _, conn := range e.ConnectedFaces {
				faceIDs.Add(abs(conn.FaceID))
			}
		}
	}
	edgesToSort := edgeIDs.Clone()
	areas := IDSet{}
	for _, id := range faceIDs.Sorted() {
		f := g.faces[id]
		if f == nil {
			continue
		}
		if err := g.updateFaceGeometry(f); err != nil {
			return err
		}
		for _, signedEdge := range f.EdgeIDs {
			edgesToSort.Add(abs(signedEdge))
		}
		areas.Add(id)
		if f.ContainingFaceID != NoID {
			areas.Add(f.ContainingFaceID)
		}
	}
	for _, id := range edgesToSort.Sorted() {
		if e := g.edges[id]; e != nil {
			g.updateEdgeFaces(e)
		}
	}
	for _, id := range areas.Sorted() {
		if f := g.faces[id]; f != nil {
			g.updateFaceArea(f)
		}
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with g.
func (g *Graph) Clone() *Graph {
	c := &Graph{tol: g.tol, logger: g.logger}
	c.CloneFrom(g)
	return c
}

// CloneFrom replaces the contents of g with a deep copy of other. It is how
// callers roll back to a snapshot after a failed operation.
func (g *Graph) CloneFrom(other *Graph) {
	g.reset()
	g.tol = other.tol
	for id, v := range other.vertices {
		c := *v
		c.ConnectedEdgeIDs = slices.Clone(v.ConnectedEdgeIDs)
		c.GroupIDs = v.GroupIDs.Clone()
		g.vertices[id] = &c
	}
	for id, e := range other.edges {
		c := *e
		c.ConnectedFaces = slices.Clone(e.ConnectedFaces)
		c.GroupIDs = e.GroupIDs.Clone()
		g.edges[id] = &c
	}
	for pair, id := range other.edgesByVertices {
		g.edgesByVertices[pair] = id
	}
	for id, f := range other.faces {
		c := *f
		c.VertexIDs = slices.Clone(f.VertexIDs)
		c.EdgeIDs = slices.Clone(f.EdgeIDs)
		c.CachedPositions = slices.Clone(f.CachedPositions)
		c.Cached2DPositions = slices.Clone(f.Cached2DPositions)
		c.Holes = make([]PolyHole3D, len(f.Holes))
		for i, hole := range f.Holes {
			c.Holes[i] = PolyHole3D{FaceID: hole.FaceID, Points: slices.Clone(hole.Points)}
		}
		c.ContainedFaceIDs = f.ContainedFaceIDs.Clone()
		c.GroupIDs = f.GroupIDs.Clone()
		g.faces[id] = &c
	}
	for id, p := range other.polyhedra {
		c := *p
		c.FaceIDs = slices.Clone(p.FaceIDs)
		c.InteriorPolyhedra = slices.Clone(p.InteriorPolyhedra)
		g.polyhedra[id] = &c
	}
}
