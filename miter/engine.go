package miter

import (
	"log/slog"
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/dbg"
	"github.com/JPShankel/ModumateLegacy-sub002/graph3d"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/logging"
)

const DefaultExtensionRangeFactor = 10

var ErrUnknownEdge = errors.New("unknown edge")
var ErrUnknownFace = errors.New("unknown face")

// Engine reads the graph and the hosted objects; it never modifies either.
type Engine struct {
	graph  *graph3d.Graph
	source ObjectSource
	// A hit farther from the edge than this many times the two participants'
	// combined thickness is treated as a miss.
	ExtensionRangeFactor float64
	logger               *slog.Logger
}

type Option func(*Engine)

func WithExtensionRangeFactor(factor float64) Option {
	return func(e *Engine) { e.ExtensionRangeFactor = factor }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(g *graph3d.Graph, source ObjectSource, opts ...Option) *Engine {
	e := &Engine{
		graph:                g,
		source:               source,
		ExtensionRangeFactor: DefaultExtensionRangeFactor,
		logger:               logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CalculateMitering resolves every participant on an edge. An edge with
// fewer than two resolvable participants is reported unmitered without an
// error; a failed ray only invalidates the layer groups depending on it.
func (e *Engine) CalculateMitering(edgeID int) (*EdgeMiter, error) {
	edge := e.graph.FindEdge(edgeID)
	if edge == nil {
		return nil, errors.Wrapf(ErrUnknownEdge, "edge %d", edgeID)
	}
	m := &EdgeMiter{EdgeID: edge.ID}
	m.Participants = e.gather(edge)
	sortParticipants(m.Participants)
	if len(m.Participants) < 2 {
		e.logger.Debug("edge not mitered", "edge", dbg.ObjectName("edge", edge.ID), "participants", len(m.Participants))
		return m, nil
	}
	for i := range m.Participants {
		e.extend(m.Participants, i)
	}
	for _, p := range m.Participants {
		finalize(p)
	}
	m.Mitered = true
	return m, nil
}

// ResolveObject mitres every edge of a face and returns the face's
// participant for each edge that could be mitered, keyed by edge ID.
func (e *Engine) ResolveObject(faceID int) (map[int]*Participant, error) {
	f := e.graph.FindFace(faceID)
	if f == nil {
		return nil, errors.Wrapf(ErrUnknownFace, "face %d", faceID)
	}
	result := make(map[int]*Participant)
	for _, signedEdge := range f.EdgeIDs {
		m, err := e.CalculateMitering(signedEdge)
		if err != nil {
			return nil, err
		}
		if !m.Mitered {
			continue
		}
		if p := m.Participant(f.ID); p != nil {
			result[m.EdgeID] = p
		}
	}
	return result, nil
}

// gather builds a participant for every face on the edge whose hosted
// object resolves to a valid layered assembly.
func (e *Engine) gather(edge *graph3d.Edge) []*Participant {
	axisX := edge.CachedRefNorm
	axisY := r3.Cross(edge.CachedDir, axisX)
	project := func(v r3.Vec) r2.Vec {
		return r2.Vec{X: r3.Dot(v, axisX), Y: r3.Dot(v, axisY)}
	}

	var participants []*Participant
	for _, conn := range edge.ConnectedFaces {
		face := e.graph.FindFace(conn.FaceID)
		objectID, assembly, err := e.layeredObject(face.ID)
		if err != nil {
			e.logger.Debug("miter participant excluded", "face", dbg.ObjectName("face", face.ID), "error", err)
			continue
		}
		p := &Participant{
			FaceID:    conn.FaceID,
			ObjectID:  objectID,
			FaceAngle: conn.FaceAngle,
			Assembly:  assembly,
		}
		var okDir, okNormal bool
		p.Dir, okDir = geom.SafeUnit2(project(conn.EdgeFaceDir))
		p.Normal, okNormal = geom.SafeUnit2(project(face.CachedPlane.Normal))
		if !okDir || !okNormal {
			e.logger.Debug("miter participant excluded", "face", dbg.ObjectName("face", face.ID), "error", "degenerate projection")
			continue
		}
		p.Winding = 1
		if r2.Cross(p.Dir, p.Normal) < 0 {
			p.Winding = -1
		}
		participants = append(participants, p)
	}
	return participants
}

func (e *Engine) layeredObject(faceID int) (int, *Assembly, error) {
	host, ok := e.source.FindObjectByID(faceID)
	if !ok {
		return 0, nil, errors.Errorf("face %d hosts no object", faceID)
	}
	for _, childID := range host.ChildIDs {
		child, ok := e.source.FindObjectByID(childID)
		if !ok || child.Assembly == nil {
			continue
		}
		if err := child.Assembly.Validate(); err != nil {
			return 0, nil, errors.Wrapf(err, "object %d", childID)
		}
		return child.ID, child.Assembly, nil
	}
	return 0, nil, errors.Errorf("object %d has no layered child", host.ID)
}

func sortParticipants(participants []*Participant) {
	slices.SortStableFunc(participants, func(a, b *Participant) int {
		switch {
		case a.FaceAngle < b.FaceAngle:
			return -1
		case a.FaceAngle > b.FaceAngle:
			return 1
		}
		return abs(a.FaceID) - abs(b.FaceID)
	})
}

// boundaryOffset is the offset along the normal of a participant's
// structure or outermost boundary on the given side (-1 back, +1 front).
func boundaryOffset(p *Participant, side int, structure bool) float64 {
	b := p.Assembly.Boundaries()
	first, last, _ := p.Assembly.structureRange()
	switch {
	case side < 0 && structure:
		return b[first]
	case side < 0:
		return b[0]
	case structure:
		return b[last+1]
	}
	return b[len(b)-1]
}

// extend intersects both sides of participant i with the facing sides of
// its angular neighbours. The side a participant's front faces follows its
// winding.
func (e *Engine) extend(participants []*Participant, i int) {
	p := participants[i]
	for k, side := range []int{-1, 1} {
		rot := side * p.Winding
		neighbour := participants[geom.CircularIndex(i+rot, len(participants))]
		neighbourSide := -rot * neighbour.Winding
		rangeLimit := e.ExtensionRangeFactor * (p.Assembly.Thickness() + neighbour.Assembly.Thickness())

		hit := func(structure bool) (float64, bool) {
			origin := r2.Scale(boundaryOffset(p, side, structure), p.Normal)
			target := r2.Scale(boundaryOffset(neighbour, neighbourSide, structure), neighbour.Normal)
			t, _, ok := geom.RayIntersection2D(origin, p.Dir, target, neighbour.Dir, e.graph.Tolerances().Dot)
			if !ok || math.Abs(t) > rangeLimit {
				return 0, false
			}
			return t, true
		}
		s := &p.Sides[k]
		s.Structure, s.StructureHit = hit(true)
		s.Outer, s.OuterHit = hit(false)
		if !s.StructureHit || !s.OuterHit {
			e.logger.Debug("miter ray missed",
				"face", dbg.ObjectName("face", p.FaceID),
				"neighbour", dbg.ObjectName("face", neighbour.FaceID),
				"side", side)
		}
	}
}

// finalize spreads the boundary extensions over the layers, interpolating
// linearly across each group by offset.
func finalize(p *Participant) {
	back, front := p.Sides[0], p.Sides[1]
	p.GroupValid = [numGroups]bool{
		PreStructure:  back.OuterHit && back.StructureHit,
		Structure:     back.StructureHit && front.StructureHit,
		PostStructure: front.StructureHit && front.OuterHit,
	}

	b := p.Assembly.Boundaries()
	first, last, _ := p.Assembly.structureRange()
	type extent struct{ lo, hi, extLo, extHi float64 }
	extents := [numGroups]extent{
		PreStructure:  {b[0], b[first], back.Outer, back.Structure},
		Structure:     {b[first], b[last+1], back.Structure, front.Structure},
		PostStructure: {b[last+1], b[len(b)-1], front.Structure, front.Outer},
	}

	p.LayerExtensions = make([]LayerExtension, len(p.Assembly.Layers))
	for i := range p.Assembly.Layers {
		group := Structure
		if i < first {
			group = PreStructure
		} else if i > last {
			group = PostStructure
		}
		if !p.GroupValid[group] {
			continue
		}
		ext := extents[group]
		at := func(offset float64) float64 {
			if ext.hi-ext.lo <= 0 {
				return ext.extLo
			}
			return ext.extLo + (ext.extHi-ext.extLo)*(offset-ext.lo)/(ext.hi-ext.lo)
		}
		p.LayerExtensions[i] = LayerExtension{Back: at(b[i]), Front: at(b[i+1]), Valid: true}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
