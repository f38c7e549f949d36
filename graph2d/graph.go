// Package graph2d holds planar slices of a 3D graph: deduplicated 2D
// vertices and edges, and the bounded polygons they enclose.
package graph2d

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

type Vertex struct {
	ID       int
	Position r2.Vec
	// Signed: positive when the vertex is the edge's start.
	EdgeIDs []int
}

type Edge struct {
	ID            int
	StartVertexID int
	EndVertexID   int
	// Faces of the sliced graph that produced this edge.
	SourceFaceIDs []int
}

// Polygon is a bounded region of the slice, counterclockwise.
type Polygon struct {
	VertexIDs []int
	Points    []r2.Vec
	Area      float64
}

type Graph struct {
	vertices map[int]*Vertex
	edges    map[int]*Edge
	nextID   int
	tol      float64
}

func NewGraph(tol float64) *Graph {
	return &Graph{
		vertices: make(map[int]*Vertex),
		edges:    make(map[int]*Edge),
		nextID:   1,
		tol:      tol,
	}
}

func (g *Graph) Vertices() map[int]*Vertex { return g.vertices }
func (g *Graph) Edges() map[int]*Edge       { return g.edges }

func (g *Graph) sortedVertexIDs() []int {
	ids := make([]int, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (g *Graph) sortedEdgeIDs() []int {
	ids := make([]int, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (g *Graph) FindVertex(p r2.Vec) *Vertex {
	for _, id := range g.sortedVertexIDs() {
		if v := g.vertices[id]; geom.Vec2Equal(v.Position, p, g.tol) {
			return v
		}
	}
	return nil
}

func (g *Graph) findEdge(a, b int) *Edge {
	for _, signed := range g.vertices[a].EdgeIDs {
		e := g.edges[absInt(signed)]
		if e.StartVertexID == b || e.EndVertexID == b {
			return e
		}
	}
	return nil
}

// AddVertex returns the vertex at p, splitting any edge p lands on.
func (g *Graph) AddVertex(p r2.Vec) int {
	if v := g.FindVertex(p); v != nil {
		return v.ID
	}
	v := &Vertex{ID: g.nextID, Position: p}
	g.nextID++
	g.vertices[v.ID] = v
	for _, id := range g.sortedEdgeIDs() {
		e := g.edges[id]
		a, b := g.vertices[e.StartVertexID].Position, g.vertices[e.EndVertexID].Position
		if geom.SegmentDistance2(p, a, b) <= g.tol {
			g.removeEdge(e)
			g.connect(e.StartVertexID, v.ID, e.SourceFaceIDs)
			g.connect(v.ID, e.EndVertexID, e.SourceFaceIDs)
			break
		}
	}
	return v.ID
}

// AddEdge adds the segment a-b, broken at every vertex already on it, and
// returns the edge IDs covering it.
func (g *Graph) AddEdge(a, b r2.Vec, sourceFaceID int) []int {
	start, end := g.AddVertex(a), g.AddVertex(b)
	if start == end {
		return nil
	}
	pa, pb := g.vertices[start].Position, g.vertices[end].Position
	dir := r2.Sub(pb, pa)
	lenSq := r2.Dot(dir, dir)
	type onLine struct {
		id int
		t  float64
	}
	chain := []onLine{{start, 0}, {end, 1}}
	for _, id := range g.sortedVertexIDs() {
		if id == start || id == end {
			continue
		}
		p := g.vertices[id].Position
		if geom.SegmentDistance2(p, pa, pb) <= g.tol {
			chain = append(chain, onLine{id, r2.Dot(r2.Sub(p, pa), dir) / lenSq})
		}
	}
	slices.SortFunc(chain, func(x, y onLine) int {
		switch {
		case x.t < y.t:
			return -1
		case x.t > y.t:
			return 1
		}
		return 0
	})
	var ids []int
	for i := 0; i+1 < len(chain); i++ {
		ids = append(ids, g.connect(chain[i].id, chain[i+1].id, []int{sourceFaceID}))
	}
	return ids
}

func (g *Graph) connect(a, b int, sources []int) int {
	if e := g.findEdge(a, b); e != nil {
		for _, src := range sources {
			if !slices.Contains(e.SourceFaceIDs, src) {
				e.SourceFaceIDs = append(e.SourceFaceIDs, src)
			}
		}
		return e.ID
	}
	e := &Edge{ID: g.nextID, StartVertexID: a, EndVertexID: b, SourceFaceIDs: slices.Clone(sources)}
	g.nextID++
	g.edges[e.ID] = e
	g.vertices[a].EdgeIDs = append(g.vertices[a].EdgeIDs, e.ID)
	g.vertices[b].EdgeIDs = append(g.vertices[b].EdgeIDs, -e.ID)
	return e.ID
}

func (g *Graph) removeEdge(e *Edge) {
	for _, vid := range []int{e.StartVertexID, e.EndVertexID} {
		v := g.vertices[vid]
		v.EdgeIDs = slices.DeleteFunc(v.EdgeIDs, func(signed int) bool { return absInt(signed) == e.ID })
	}
	delete(g.edges, e.ID)
}

// neighboursByAngle lists the vertices adjacent to vertexID ordered
// counterclockwise by direction.
func (g *Graph) neighboursByAngle(vertexID int) []int {
	v := g.vertices[vertexID]
	var result []int
	for _, signed := range v.EdgeIDs {
		e := g.edges[absInt(signed)]
		other := e.StartVertexID
		if other == vertexID {
			other = e.EndVertexID
		}
		result = append(result, other)
	}
	angle := func(id int) float64 {
		d := r2.Sub(g.vertices[id].Position, v.Position)
		return math.Atan2(d.Y, d.X)
	}
	slices.SortFunc(result, func(a, b int) int {
		switch aa, ab := angle(a), angle(b); {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		}
		return a - b
	})
	return result
}

// Polygons traces every bounded region. Each half edge is walked once, always
// turning as far right as possible, so bounded regions come out
// counterclockwise and the unbounded outside comes out clockwise and is
// dropped.
func (g *Graph) Polygons() []Polygon {
	type halfEdge struct{ from, to int }
	visited := make(map[halfEdge]bool)
	var polygons []Polygon
	for _, eid := range g.sortedEdgeIDs() {
		e := g.edges[eid]
		for _, start := range []halfEdge{{e.StartVertexID, e.EndVertexID}, {e.EndVertexID, e.StartVertexID}} {
			if visited[start] {
				continue
			}
			var loop []int
			for he := start; !visited[he]; {
				visited[he] = true
				loop = append(loop, he.from)
				around := g.neighboursByAngle(he.to)
				i := slices.Index(around, he.from)
				next := around[(i-1+len(around))%len(around)]
				he = halfEdge{he.to, next}
			}
			poly := geom.Polygon{Points: make([]r2.Vec, len(loop))}
			for i, vid := range loop {
				poly.Points[i] = g.vertices[vid].Position
			}
			if area := poly.SignedArea(); area > g.tol*g.tol {
				polygons = append(polygons, Polygon{VertexIDs: loop, Points: poly.Points, Area: area})
			}
		}
	}
	return polygons
}

// Bounds returns the min and max corners of all vertices.
func (g *Graph) Bounds() (r2.Vec, r2.Vec) {
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, v := range g.vertices {
		lo.X, lo.Y = math.Min(lo.X, v.Position.X), math.Min(lo.Y, v.Position.Y)
		hi.X, hi.Y = math.Max(hi.X, v.Position.X), math.Max(hi.Y, v.Position.Y)
	}
	return lo, hi
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
