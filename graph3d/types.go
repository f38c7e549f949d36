package graph3d

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// NoID marks an absent object reference. Allocated IDs are always positive.
const NoID = 0

type ObjectType int

const (
	TypeNone ObjectType = iota
	TypeVertex
	TypeEdge
	TypeFace
	TypePolyhedron
)

func (t ObjectType) String() string {
	switch t {
	case TypeVertex:
		return "vertex"
	case TypeEdge:
		return "edge"
	case TypeFace:
		return "face"
	case TypePolyhedron:
		return "polyhedron"
	}
	return "none"
}

// Object is the closed union of graph objects. Callers switch over the
// concrete types; the unexported method keeps the set closed to this package.
type Object interface {
	ObjectType() ObjectType
	ObjectID() int

	graphObjectTypeHint()
}

func (*Vertex) graphObjectTypeHint()     {}
func (*Edge) graphObjectTypeHint()       {}
func (*Face) graphObjectTypeHint()       {}
func (*Polyhedron) graphObjectTypeHint() {}

type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s IDSet) Add(id int) {
	s[id] = struct{}{}
}

func (s IDSet) Remove(id int) {
	delete(s, id)
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

type Vertex struct {
	ID       int
	Position r3.Vec
	// Signed: positive when this vertex is the edge's start.
	ConnectedEdgeIDs []int
	GroupIDs         IDSet
}

func (v *Vertex) ObjectType() ObjectType { return TypeVertex }
func (v *Vertex) ObjectID() int          { return v.ID }

func (v *Vertex) addEdge(signedEdgeID int) {
	if !slices.Contains(v.ConnectedEdgeIDs, signedEdgeID) {
		v.ConnectedEdgeIDs = append(v.ConnectedEdgeIDs, signedEdgeID)
	}
}

func (v *Vertex) removeEdge(edgeID int) bool {
	for i, signed := range v.ConnectedEdgeIDs {
		if abs(signed) == edgeID {
			v.ConnectedEdgeIDs = slices.Delete(v.ConnectedEdgeIDs, i, i+1)
			return true
		}
	}
	return false
}

// EdgeFaceConnection records one face hanging off an edge.
type EdgeFaceConnection struct {
	// Signed: positive when the face loop traverses the edge start to end.
	FaceID int
	// Unit direction from the edge into the face, in the face plane.
	EdgeFaceDir r3.Vec
	// Angle of EdgeFaceDir about the edge direction, measured from the edge's
	// reference normal, in degrees [0, 360).
	FaceAngle float64
}

type Edge struct {
	ID             int
	StartVertexID  int
	EndVertexID    int
	ConnectedFaces []EdgeFaceConnection
	CachedDir      r3.Vec
	CachedRefNorm  r3.Vec
	CachedMidpoint r3.Vec
	CachedLength   float64
	GroupIDs       IDSet
}

func (e *Edge) ObjectType() ObjectType { return TypeEdge }
func (e *Edge) ObjectID() int          { return e.ID }

// OtherVertex returns the endpoint opposite vertexID.
func (e *Edge) OtherVertex(vertexID int) int {
	if e.StartVertexID == vertexID {
		return e.EndVertexID
	}
	return e.StartVertexID
}

func (e *Edge) faceIndex(faceID int) int {
	for i, conn := range e.ConnectedFaces {
		if abs(conn.FaceID) == abs(faceID) {
			return i
		}
	}
	return -1
}

// PolyHole3D is a hole in a face, formed by a face it directly contains.
type PolyHole3D struct {
	FaceID int
	Points []r3.Vec
}

type Face struct {
	ID        int
	VertexIDs []int
	// EdgeIDs[i] connects VertexIDs[i] to VertexIDs[i+1], signed positive when
	// the loop runs along the edge's own direction.
	EdgeIDs []int

	CachedPlane       geom.Plane
	CachedArea        float64
	CachedPositions   []r3.Vec
	Cached2DPositions []r2.Vec
	AxisX, AxisY      r3.Vec
	Origin, Center    r3.Vec

	Holes            []PolyHole3D
	ContainingFaceID int
	ContainedFaceIDs IDSet
	GroupIDs         IDSet
}

func (f *Face) ObjectType() ObjectType { return TypeFace }
func (f *Face) ObjectID() int          { return f.ID }

func (f *Face) Basis() geom.Basis {
	return geom.Basis{Origin: f.Origin, AxisX: f.AxisX, AxisY: f.AxisY, Normal: f.CachedPlane.Normal}
}

func (f *Face) Polygon2D() geom.Polygon {
	return geom.Polygon{Points: f.Cached2DPositions}
}

// OuterArea is the loop area ignoring holes.
func (f *Face) OuterArea() float64 {
	return f.Polygon2D().Area()
}

// EdgeIndex returns the loop index of the edge, or -1.
func (f *Face) EdgeIndex(edgeID int) int {
	for i, signed := range f.EdgeIDs {
		if abs(signed) == abs(edgeID) {
			return i
		}
	}
	return -1
}

func (f *Face) VertexIndex(vertexID int) int {
	return slices.Index(f.VertexIDs, vertexID)
}

// Locate classifies a world position against the face polygon, ignoring holes.
func (f *Face) Locate(p r3.Vec, tol float64) geom.PointLocation {
	if geom.EqualTol(f.CachedPlane.Distance(p), 0, tol) {
		return f.Polygon2D().Locate(f.Basis().ToPlane(p), tol)
	}
	return geom.Outside
}

// InteriorPoint returns a world position strictly inside the face.
func (f *Face) InteriorPoint(tol float64) (r3.Vec, bool) {
	p, ok := f.Polygon2D().InteriorPoint(tol)
	if !ok {
		return r3.Vec{}, false
	}
	return f.Basis().FromPlane(p), true
}

type Polyhedron struct {
	ID int
	// Signed: positive when the polyhedron lies on the face's normal side.
	FaceIDs           []int
	ParentID          int
	InteriorPolyhedra []int
	Closed            bool
	Interior          bool
	Convex            bool
	AABB              r3.Box
}

func (p *Polyhedron) ObjectType() ObjectType { return TypePolyhedron }
func (p *Polyhedron) ObjectID() int          { return p.ID }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x < 0 {
		return -1
	}
	return 1
}
