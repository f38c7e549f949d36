package graph3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitInteriorExterior(t *testing.T, g *Graph) (interior, exterior *Polyhedron) {
	t.Helper()
	for _, id := range sortedKeys(g.Polyhedra()) {
		p := g.FindPolyhedron(id)
		if p.Interior {
			require.Nil(t, interior, "more than one interior polyhedron")
			interior = p
		} else {
			require.Nil(t, exterior, "more than one exterior polyhedron")
			exterior = p
		}
	}
	require.NotNil(t, interior)
	require.NotNil(t, exterior)
	return interior, exterior
}

func TestBoxPolyhedra(t *testing.T) {
	g := NewGraph()
	extrude(t, g, NewCounter(1), loadFootprint(t, "box"), 1)
	require.Len(t, g.Faces(), 6)

	g.CalculatePolyhedra()
	require.Len(t, g.Polyhedra(), 2)
	interior, exterior := splitInteriorExterior(t, g)

	assert.True(t, interior.Closed)
	assert.True(t, interior.Convex)
	assert.Len(t, interior.FaceIDs, 6)
	assert.Equal(t, exterior.ID, interior.ParentID)
	assert.Equal(t, []int{interior.ID}, exterior.InteriorPolyhedra)

	assert.True(t, exterior.Closed)
	assert.Len(t, exterior.FaceIDs, 6)
	for _, side := range interior.FaceIDs {
		assert.Contains(t, exterior.FaceIDs, -side)
		assert.Same(t, interior, g.PolyhedronOfFaceSide(side))
	}

	assert.InDelta(t, 0, interior.AABB.Min.Z, 1e-9)
	assert.InDelta(t, 1, interior.AABB.Max.Z, 1e-9)
}

func TestLFootprintIsInteriorButConcave(t *testing.T) {
	g := NewGraph()
	footprint := loadFootprint(t, "l_footprint")
	require.Len(t, footprint, 6)
	extrude(t, g, NewCounter(1), footprint, 1)
	require.Len(t, g.Faces(), 8)

	g.CalculatePolyhedra()
	require.Len(t, g.Polyhedra(), 2)
	interior, exterior := splitInteriorExterior(t, g)
	assert.True(t, interior.Closed)
	assert.False(t, interior.Convex)
	assert.Equal(t, exterior.ID, interior.ParentID)
}

func TestOpenFaceIsOnePolyhedron(t *testing.T) {
	g := NewGraph()
	faceID := addFace(t, g, NewCounter(1), square(0, 0, 1, 1, 0)...).FaceIDs[0]

	g.CalculatePolyhedra()
	require.Len(t, g.Polyhedra(), 1)
	p := g.FindPolyhedron(1)
	require.NotNil(t, p)
	assert.False(t, p.Closed)
	assert.False(t, p.Interior)
	assert.ElementsMatch(t, []int{faceID, -faceID}, p.FaceIDs)
}

func TestPolyhedraAreRebuiltFromScratch(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	extrude(t, g, ids, loadFootprint(t, "box"), 1)
	g.CalculatePolyhedra()
	require.Len(t, g.Polyhedra(), 2)

	roof := g.FindFaceByVertexIDs([]int{
		g.FindVertexByPosition(v(0, 0, 1)).ID,
		g.FindVertexByPosition(v(1, 0, 1)).ID,
		g.FindVertexByPosition(v(1, 1, 1)).ID,
		g.FindVertexByPosition(v(0, 1, 1)).ID,
	})
	require.NotEqual(t, NoID, roof)
	_, err := g.GetDeltasForDeleteObjects([]int{abs(roof)}, false)
	require.NoError(t, err)

	// Without its roof the box is one open surface
	g.CalculatePolyhedra()
	require.Len(t, g.Polyhedra(), 1)
	p := g.FindPolyhedron(1)
	assert.False(t, p.Closed)
	assert.False(t, p.Interior)
	assert.Len(t, p.FaceIDs, 10)
}
