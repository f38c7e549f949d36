// Package miter resolves how layered assemblies hosted on faces trim and
// extend against each other where their faces share an edge.
package miter

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
)

type Layer struct {
	Name       string  `yaml:"name"`
	Thickness  float64 `yaml:"thickness"`
	Structural bool    `yaml:"structural"`
}

// Assembly is a stack of layers listed from the back of the host face to
// its front. Offset is the fraction of the total thickness lying behind the
// face plane.
type Assembly struct {
	Layers []Layer `yaml:"layers"`
	Offset float64 `yaml:"offset"`
}

func (a *Assembly) Thickness() float64 {
	total := 0.0
	for _, l := range a.Layers {
		total += l.Thickness
	}
	return total
}

// Boundaries returns the offset along the face normal of every layer
// boundary, back to front: len(Layers)+1 values.
func (a *Assembly) Boundaries() []float64 {
	b := make([]float64, len(a.Layers)+1)
	b[0] = -a.Offset * a.Thickness()
	for i, l := range a.Layers {
		b[i+1] = b[i] + l.Thickness
	}
	return b
}

// structureRange returns the indices of the first and last structural
// layers, or ok=false when there are none.
func (a *Assembly) structureRange() (first, last int, ok bool) {
	first, last = -1, -1
	for i, l := range a.Layers {
		if !l.Structural {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last, first >= 0
}

func (a *Assembly) Validate() error {
	if len(a.Layers) == 0 {
		return errors.New("assembly has no layers")
	}
	for i, l := range a.Layers {
		if l.Thickness <= 0 {
			return errors.Errorf("layer %d (%s) has thickness %g", i, l.Name, l.Thickness)
		}
	}
	if a.Offset < 0 || a.Offset > 1 {
		return errors.Errorf("offset %g is outside [0, 1]", a.Offset)
	}
	if _, _, ok := a.structureRange(); !ok {
		return errors.New("assembly has no structural layers")
	}
	return nil
}

// HostedObject is a document-level object sitting above the topology. The
// plane-hosted object of a face shares the face's ID, and its first child
// carrying an Assembly is the layered object that gets mitered.
type HostedObject struct {
	ID       int
	ParentID int
	ChildIDs []int
	Assembly *Assembly
}

type ObjectSource interface {
	FindObjectByID(id int) (*HostedObject, bool)
}

// MapSource is an ObjectSource over a plain map.
type MapSource map[int]*HostedObject

func (m MapSource) FindObjectByID(id int) (*HostedObject, bool) {
	obj, ok := m[id]
	return obj, ok
}

// Host registers a plane-hosted object on faceID with one layered child
// under childID.
func (m MapSource) Host(faceID, childID int, assembly *Assembly) {
	m[faceID] = &HostedObject{ID: faceID, ChildIDs: []int{childID}}
	m[childID] = &HostedObject{ID: childID, ParentID: faceID, Assembly: assembly}
}

type Group int

const (
	PreStructure Group = iota
	Structure
	PostStructure
	numGroups
)

func (g Group) String() string {
	switch g {
	case PreStructure:
		return "pre-structure"
	case Structure:
		return "structure"
	case PostStructure:
		return "post-structure"
	}
	return "unknown"
}

// Boundary extension of one side of a participant. Extension is the
// distance from the edge to the miter line along the participant's in-face
// direction; negative values reach past the edge.
type SideExtension struct {
	Structure    float64
	StructureHit bool
	Outer        float64
	OuterHit     bool
}

// LayerExtension is the extension of a layer's back and front boundaries.
// Valid is false when the layer's group could not be resolved, in which
// case the layer keeps its unmitered geometry.
type LayerExtension struct {
	Back  float64
	Front float64
	Valid bool
}

type Participant struct {
	// Signed as in the edge's face connections.
	FaceID    int
	ObjectID  int
	FaceAngle float64
	// In the plane perpendicular to the edge: direction from the edge into
	// the face, and the face normal.
	Dir    r2.Vec
	Normal r2.Vec
	// +1 when the front side faces the next participant by angle, -1 when it
	// faces the previous one.
	Winding  int
	Assembly *Assembly

	// Index 0 is the back side, 1 the front side.
	Sides           [2]SideExtension
	GroupValid      [numGroups]bool
	LayerExtensions []LayerExtension
}

type EdgeMiter struct {
	EdgeID int
	// False when fewer than two participants could be resolved.
	Mitered      bool
	Participants []*Participant
}

// Participant returns the participant hosted on faceID, or nil.
func (m *EdgeMiter) Participant(faceID int) *Participant {
	for _, p := range m.Participants {
		if p.FaceID == faceID || p.FaceID == -faceID {
			return p
		}
	}
	return nil
}
