package miter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/graph3d"
)

// walls builds vertical 10x1 faces fanning out from a shared edge on the z
// axis, one per angle in degrees, and returns the graph, the shared edge and
// the face IDs in the order given.
func walls(t *testing.T, angles ...float64) (*graph3d.Graph, int, []int) {
	t.Helper()
	g := graph3d.NewGraph()
	ids := graph3d.NewCounter(1)
	vertex := func(p r3.Vec) int {
		v, err := g.AddVertex(p, ids.NextID(), nil)
		require.NoError(t, err)
		return v.ID
	}
	edge := func(a, b int) int {
		e, err := g.AddEdge(a, b, ids.NextID(), nil)
		require.NoError(t, err)
		return e.ID
	}
	bottom, top := vertex(r3.Vec{}), vertex(r3.Vec{Z: 1})
	shared := edge(bottom, top)

	var faceIDs []int
	for _, angle := range angles {
		rad := angle * math.Pi / 180
		x, y := 10*math.Cos(rad), 10*math.Sin(rad)
		farBottom, farTop := vertex(r3.Vec{X: x, Y: y}), vertex(r3.Vec{X: x, Y: y, Z: 1})
		edge(bottom, farBottom)
		edge(farBottom, farTop)
		edge(farTop, top)
		f, err := g.AddFace([]int{bottom, farBottom, farTop, top}, ids.NextID(), nil)
		require.NoError(t, err)
		faceIDs = append(faceIDs, f.ID)
	}
	return g, shared, faceIDs
}

func solidWall() *Assembly {
	return &Assembly{Layers: []Layer{{Name: "stud", Thickness: 4, Structural: true}}, Offset: 0.5}
}

func finishedWall() *Assembly {
	return &Assembly{
		Layers: []Layer{
			{Name: "gypsum", Thickness: 1},
			{Name: "stud", Thickness: 2, Structural: true},
			{Name: "siding", Thickness: 1},
		},
		Offset: 0.5,
	}
}

func hostAll(faceIDs []int, assembly func() *Assembly) MapSource {
	source := MapSource{}
	for _, faceID := range faceIDs {
		source.Host(faceID, 1000+faceID, assembly())
	}
	return source
}

func TestFourWayJunctionExtendsEqually(t *testing.T) {
	g, edgeID, faceIDs := walls(t, 0, 90, 180, 270)
	m, err := NewEngine(g, hostAll(faceIDs, solidWall)).CalculateMitering(edgeID)
	require.NoError(t, err)
	require.True(t, m.Mitered)
	require.Len(t, m.Participants, 4)

	for _, p := range m.Participants {
		require.Len(t, p.LayerExtensions, 1)
		ext := p.LayerExtensions[0]
		assert.True(t, ext.Valid)
		assert.InDelta(t, 2, ext.Back, 1e-9, "face %d", p.FaceID)
		assert.InDelta(t, 2, ext.Front, 1e-9, "face %d", p.FaceID)
	}
}

func TestCornerExtendsOutsideAndTrimsInside(t *testing.T) {
	g, edgeID, faceIDs := walls(t, 0, 90)
	m, err := NewEngine(g, hostAll(faceIDs, solidWall)).CalculateMitering(edgeID)
	require.NoError(t, err)
	require.True(t, m.Mitered)

	// The 0 degree wall's normal points out of the corner and the 90 degree
	// wall's into it, so their expected sides are back and front respectively.
	expected := map[int]LayerExtension{
		faceIDs[0]: {Back: 2, Front: -2, Valid: true},
		faceIDs[1]: {Back: -2, Front: 2, Valid: true},
	}
	for faceID, want := range expected {
		p := m.Participant(faceID)
		require.NotNil(t, p)
		ext := p.LayerExtensions[0]
		assert.True(t, ext.Valid)
		assert.InDelta(t, want.Back, ext.Back, 1e-9, "face %d", faceID)
		assert.InDelta(t, want.Front, ext.Front, 1e-9, "face %d", faceID)
	}
}

func TestParallelNeighbourOnlyFailsThatSide(t *testing.T) {
	g, edgeID, faceIDs := walls(t, 0, 90, 180)
	m, err := NewEngine(g, hostAll(faceIDs, finishedWall)).CalculateMitering(edgeID)
	require.NoError(t, err)
	require.True(t, m.Mitered)

	// The 0 degree wall faces the 90 degree wall with its back and the
	// collinear 180 degree wall with its front.
	p := m.Participant(faceIDs[0])
	require.NotNil(t, p)
	assert.True(t, p.Sides[0].StructureHit)
	assert.True(t, p.Sides[0].OuterHit)
	assert.False(t, p.Sides[1].StructureHit)
	assert.False(t, p.Sides[1].OuterHit)
	assert.Equal(t, [numGroups]bool{true, false, false}, p.GroupValid)

	require.Len(t, p.LayerExtensions, 3)
	assert.True(t, p.LayerExtensions[0].Valid)
	assert.InDelta(t, 2, p.LayerExtensions[0].Back, 1e-9)
	assert.InDelta(t, 1, p.LayerExtensions[0].Front, 1e-9)
	assert.False(t, p.LayerExtensions[1].Valid)
	assert.False(t, p.LayerExtensions[2].Valid)

	// The perpendicular wall sees a neighbour on each side
	p = m.Participant(faceIDs[1])
	require.NotNil(t, p)
	assert.Equal(t, [numGroups]bool{true, true, true}, p.GroupValid)
}

func TestLayersInterpolateAcrossGroups(t *testing.T) {
	g, edgeID, faceIDs := walls(t, 0, 90, 180, 270)
	m, err := NewEngine(g, hostAll(faceIDs, finishedWall)).CalculateMitering(edgeID)
	require.NoError(t, err)

	p := m.Participant(faceIDs[0])
	require.NotNil(t, p)
	// Structure boundaries at +-1 hit the neighbours' structure at 1; outer
	// boundaries at +-2 hit the neighbours' outer faces at 2.
	want := []LayerExtension{
		{Back: 2, Front: 1, Valid: true},
		{Back: 1, Front: 1, Valid: true},
		{Back: 1, Front: 2, Valid: true},
	}
	require.Len(t, p.LayerExtensions, len(want))
	for i, w := range want {
		assert.InDelta(t, w.Back, p.LayerExtensions[i].Back, 1e-9, "layer %d", i)
		assert.InDelta(t, w.Front, p.LayerExtensions[i].Front, 1e-9, "layer %d", i)
		assert.Equal(t, w.Valid, p.LayerExtensions[i].Valid, "layer %d", i)
	}
}

func TestTooFewParticipants(t *testing.T) {
	g, edgeID, faceIDs := walls(t, 0, 90)

	t.Run("unhosted face", func(t *testing.T) {
		source := MapSource{}
		source.Host(faceIDs[0], 1000, solidWall())
		m, err := NewEngine(g, source).CalculateMitering(edgeID)
		require.NoError(t, err)
		assert.False(t, m.Mitered)
		assert.Len(t, m.Participants, 1)
	})

	t.Run("no structural layer", func(t *testing.T) {
		source := hostAll(faceIDs, solidWall)
		source.Host(faceIDs[1], 2000, &Assembly{Layers: []Layer{{Name: "paint", Thickness: 1}}})
		m, err := NewEngine(g, source).CalculateMitering(edgeID)
		require.NoError(t, err)
		assert.False(t, m.Mitered)
	})
}

func TestOutOfRangeHitFails(t *testing.T) {
	// Walls a degree apart overlap, so their faces only cross far from the edge
	g, edgeID, faceIDs := walls(t, 0, 1)
	m, err := NewEngine(g, hostAll(faceIDs, solidWall), WithExtensionRangeFactor(1)).CalculateMitering(edgeID)
	require.NoError(t, err)
	require.True(t, m.Mitered)
	require.Len(t, m.Participants, 2)
	for _, p := range m.Participants {
		assert.False(t, p.GroupValid[Structure])
		for _, ext := range p.LayerExtensions {
			assert.False(t, ext.Valid)
		}
	}
}

func TestResolveObject(t *testing.T) {
	g, edgeID, faceIDs := walls(t, 0, 90, 180, 270)
	result, err := NewEngine(g, hostAll(faceIDs, solidWall)).ResolveObject(faceIDs[0])
	require.NoError(t, err)
	// Only the shared edge has other participants
	require.Len(t, result, 1)
	assert.Equal(t, 1000+faceIDs[0], result[edgeID].ObjectID)

	_, err = NewEngine(g, MapSource{}).CalculateMitering(9999)
	assert.ErrorIs(t, err, ErrUnknownEdge)
	_, err = NewEngine(g, MapSource{}).ResolveObject(9999)
	assert.ErrorIs(t, err, ErrUnknownFace)
}

func TestAssemblyValidate(t *testing.T) {
	assert.NoError(t, finishedWall().Validate())
	assert.Error(t, (&Assembly{}).Validate())
	assert.Error(t, (&Assembly{Layers: []Layer{{Thickness: -1, Structural: true}}}).Validate())
	assert.Error(t, (&Assembly{Layers: []Layer{{Thickness: 1, Structural: true}}, Offset: 2}).Validate())
	assert.Equal(t, []float64{-2, -1, 1, 2}, finishedWall().Boundaries())
}
