package graph3d

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestOverlappingFacesSplitEachOther(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	first := addFace(t, g, ids, square(0, 0, 2, 2, 0)...)
	require.Len(t, first.FaceIDs, 1)
	face1 := first.FaceIDs[0]

	second := addFace(t, g, ids, square(1, 0, 3, 2, 0)...)
	assert.Contains(t, second.SplitFaceIDs, face1)
	assert.Nil(t, g.FindFace(face1))
	assert.Len(t, second.FaceIDs, 2)
	assert.InDelta(t, 4.0, totalArea(g, second.FaceIDs), 1e-9)

	require.Len(t, g.Faces(), 3)
	for _, id := range g.FaceIDs() {
		assert.InDelta(t, 2.0, g.FindFace(id).CachedArea, 1e-9, "face %d", id)
	}
	assertCoversBySampling(t, g, square(0, 0, 3, 2, 0), g.FaceIDs())
}

func TestWallSplitsEveryFloorItCrosses(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	addFace(t, g, ids, square(0, 0, 2, 2, 0)...)
	addFace(t, g, ids, square(2, 0, 4, 2, 0)...)
	floors := g.FaceIDs()

	wall := addFace(t, g, ids, v(0, 1, 0), v(4, 1, 0), v(4, 1, 1), v(0, 1, 1))
	assert.ElementsMatch(t, floors, wall.SplitFaceIDs)
	require.Len(t, g.Faces(), 5)

	var floorIDs []int
	for _, id := range g.FaceIDs() {
		if !slices.Contains(wall.FaceIDs, id) {
			floorIDs = append(floorIDs, id)
		}
	}
	assert.Len(t, floorIDs, 4)
	assert.InDelta(t, 8.0, totalArea(g, floorIDs), 1e-9)
	assertCoversBySampling(t, g, square(0, 0, 4, 2, 0), floorIDs)
}

func TestFaceJoinThenEdgeJoin(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	left := addFace(t, g, ids, square(0, 0, 1, 1, 0)...).FaceIDs[0]
	right := addFace(t, g, ids, square(1, 0, 2, 1, 0)...).FaceIDs[0]
	require.Len(t, g.Vertices(), 6)
	require.Len(t, g.Edges(), 7)

	_, joined, err := g.GetDeltasForFaceJoin(ids, left, right)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	require.Len(t, g.Faces(), 1)
	f := g.FindFace(joined)
	assert.Len(t, f.VertexIDs, 6)
	assert.InDelta(t, 2.0, f.CachedArea, 1e-9)
	assert.Len(t, g.Edges(), 6)

	mid := g.FindVertexByPosition(v(1, 0, 0))
	require.NotNil(t, mid)
	_, merged, err := g.GetDeltasForEdgeJoin(ids, mid.ID)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Nil(t, g.FindVertex(mid.ID))
	assert.NotNil(t, g.FindEdge(merged))
	assert.Len(t, g.FindFace(joined).VertexIDs, 5)
	assert.InDelta(t, 2.0, g.FindFace(joined).CachedArea, 1e-9)
}

func TestFaceJoinRejectsSplitSeam(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	u := addFace(t, g, ids,
		v(0, 0, 0), v(3, 0, 0), v(3, 3, 0), v(2, 3, 0),
		v(2, 1, 0), v(1, 1, 0), v(1, 3, 0), v(0, 3, 0),
	).FaceIDs[0]
	lid := addFace(t, g, ids, v(0, 3, 0), v(1, 3, 0), v(2, 3, 0), v(3, 3, 0), v(3, 4, 0), v(0, 4, 0)).FaceIDs[0]
	before := stateOf(g)

	_, _, err := g.GetDeltasForFaceJoin(ids, u, lid)
	assert.ErrorIs(t, err, ErrInconsistentSeam)
	requireSameState(t, before, stateOf(g))
}

func TestFaceJoinRejectsFacesApart(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	a := addFace(t, g, ids, square(0, 0, 1, 1, 0)...).FaceIDs[0]
	b := addFace(t, g, ids, square(3, 0, 4, 1, 0)...).FaceIDs[0]
	c := addFace(t, g, ids, v(0, 0, 0), v(0, 1, 0), v(0, 1, 1), v(0, 0, 1)).FaceIDs[0]

	_, _, err := g.GetDeltasForFaceJoin(ids, a, b)
	assert.ErrorIs(t, err, ErrInconsistentSeam)
	_, _, err = g.GetDeltasForFaceJoin(ids, a, c)
	assert.ErrorIs(t, err, ErrNonPlanarFace)
	_, _, err = g.GetDeltasForFaceJoin(ids, a, a)
	assert.ErrorIs(t, err, ErrInconsistentSeam)
}

func TestCascadingDelete(t *testing.T) {
	setup := func(t *testing.T) (*Graph, int, int) {
		g := NewGraph()
		ids := NewCounter(1)
		left := addFace(t, g, ids, square(0, 0, 1, 1, 0)...).FaceIDs[0]
		right := addFace(t, g, ids, square(1, 0, 2, 1, 0)...).FaceIDs[0]
		return g, left, right
	}

	t.Run("orphans go, shared objects stay", func(t *testing.T) {
		g, left, right := setup(t)
		_, err := g.GetDeltasForDeleteObjects([]int{left}, true)
		require.NoError(t, err)
		require.NoError(t, g.Validate())
		assert.Len(t, g.Vertices(), 4)
		assert.Len(t, g.Edges(), 4)
		assert.Equal(t, []int{right}, g.FaceIDs())
	})

	t.Run("vertex takes its edges and faces", func(t *testing.T) {
		g, left, right := setup(t)
		corner := g.FindVertexByPosition(v(0, 0, 0))
		_, err := g.GetDeltasForDeleteObjects([]int{corner.ID}, false)
		require.NoError(t, err)
		require.NoError(t, g.Validate())
		assert.Nil(t, g.FindFace(left))
		assert.NotNil(t, g.FindFace(right))
		assert.Len(t, g.Vertices(), 5)
		assert.Len(t, g.Edges(), 5)
	})

	t.Run("unknown object", func(t *testing.T) {
		g, _, _ := setup(t)
		before := stateOf(g)
		_, err := g.GetDeltasForDeleteObjects([]int{999}, true)
		assert.ErrorIs(t, err, ErrMissingReference)
		requireSameState(t, before, stateOf(g))
	})
}

func TestEdgeAtPositionsSplitsCrossedFace(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	faceID := addFace(t, g, ids, square(0, 0, 1, 1, 0)...).FaceIDs[0]

	deltas, edgeIDs, err := g.GetDeltasForEdgeAtPositions(ids, v(0.5, -1, 0), v(0.5, 2, 0), []int{42})
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.NotEmpty(t, deltas)
	assert.Len(t, edgeIDs, 3)
	for _, id := range edgeIDs {
		assert.True(t, g.FindEdge(id).GroupIDs.Has(42))
	}

	assert.Nil(t, g.FindFace(faceID))
	require.Len(t, g.Faces(), 2)
	for _, id := range g.FaceIDs() {
		assert.InDelta(t, 0.5, g.FindFace(id).CachedArea, 1e-9)
	}
	assertCoversBySampling(t, g, square(0, 0, 1, 1, 0), g.FaceIDs())

	undoAll(t, g, deltas)
	assert.Equal(t, []int{faceID}, g.FaceIDs())
	assert.Len(t, g.Edges(), 4)
}

func TestEdgeAtPositionsRejectsZeroLength(t *testing.T) {
	g := NewGraph()
	_, _, err := g.GetDeltasForEdgeAtPositions(NewCounter(1), v(1, 1, 1), v(1, 1, 1.001), nil)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
	assert.True(t, g.IsEmpty())
}

func TestContainedFaceBecomesHole(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	outer := addFace(t, g, ids, square(0, 0, 4, 4, 0)...).FaceIDs[0]
	inner := addFace(t, g, ids, square(1, 1, 2, 2, 0)...).FaceIDs[0]

	require.Len(t, g.Faces(), 2)
	assert.Equal(t, outer, g.FindFace(inner).ContainingFaceID)
	assert.True(t, g.FindFace(outer).ContainedFaceIDs.Has(inner))
	assert.InDelta(t, 15.0, g.FindFace(outer).CachedArea, 1e-9)
	require.Len(t, g.FindFace(outer).Holes, 1)
	assert.Equal(t, inner, g.FindFace(outer).Holes[0].FaceID)

	_, err := g.GetDeltasForDeleteObjects([]int{inner}, true)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.InDelta(t, 16.0, g.FindFace(outer).CachedArea, 1e-9)
	assert.Empty(t, g.FindFace(outer).Holes)
}

func TestNestedContainmentAdoptsUp(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	outer := addFace(t, g, ids, square(0, 0, 10, 10, 0)...).FaceIDs[0]
	middle := addFace(t, g, ids, square(2, 2, 8, 8, 0)...).FaceIDs[0]
	inner := addFace(t, g, ids, square(4, 4, 5, 5, 0)...).FaceIDs[0]

	assert.Equal(t, outer, g.FindFace(middle).ContainingFaceID)
	assert.Equal(t, middle, g.FindFace(inner).ContainingFaceID)
	assert.False(t, g.FindFace(outer).ContainedFaceIDs.Has(inner))

	_, err := g.GetDeltasForDeleteObjects([]int{middle}, true)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, outer, g.FindFace(inner).ContainingFaceID)
	assert.InDelta(t, 99.0, g.FindFace(outer).CachedArea, 1e-9)
}

func TestVertexMovementJoinsCoincidentVertices(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	addFace(t, g, ids, square(0, 0, 1, 1, 0)...)
	_, _, err := g.GetDeltasForEdgeAtPositions(ids, v(3, 0, 0), v(4, 0, 0), nil)
	require.NoError(t, err)
	corner := g.FindVertexByPosition(v(1, 0, 0))
	loose := g.FindVertexByPosition(v(3, 0, 0))

	deltas, err := g.GetDeltasForVertexMovements(ids, map[int]r3.Vec{loose.ID: v(1, 0, 0)})
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Len(t, deltas, 2)
	assert.Nil(t, g.FindVertex(loose.ID))
	assert.Len(t, g.Vertices(), 5)
	assert.Len(t, g.Edges(), 5)
	far := g.FindVertexByPosition(v(4, 0, 0))
	assert.NotEqual(t, NoID, g.FindEdgeByVertices(corner.ID, far.ID))
}

func TestVertexMovementRejectsNonPlanarFace(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	addFace(t, g, ids, square(0, 0, 1, 1, 0)...)
	before := stateOf(g)
	corner := g.FindVertexByPosition(v(1, 1, 0))

	_, err := g.GetDeltasForVertexMovements(ids, map[int]r3.Vec{corner.ID: v(1, 1, 1)})
	assert.ErrorIs(t, err, ErrNonPlanarFace)
	requireSameState(t, before, stateOf(g))
}

func TestVertexJoinNeedsCoincidentVertices(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	addFace(t, g, ids, square(0, 0, 1, 1, 0)...)
	before := stateOf(g)
	keep, remove := g.FindVertexByPosition(v(1, 0, 0)), g.FindVertexByPosition(v(1, 1, 0))

	_, err := g.GetDeltasForVertexJoin(ids, keep.ID, remove.ID)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
	requireSameState(t, before, stateOf(g))
	assert.Len(t, g.Vertices(), 4)

	// A staged movement that lands remove on keep makes them joinable
	d := NewDelta()
	require.NoError(t, g.GetDeltaForVertexMovements(d, map[int]r3.Vec{remove.ID: v(1, 0, 0)}))
	assert.NoError(t, g.GetDeltaForVertexJoin(ids, d, keep.ID, remove.ID))
}

func TestUpdateFacesReportsLineage(t *testing.T) {
	g := NewGraph()
	ids := NewCounter(1)
	faceID := addFace(t, g, ids, square(0, 0, 2, 2, 0)...).FaceIDs[0]

	// A bare edge across the face, added below the face-splitting operations
	a, b := g.FindVertexByPosition(v(0, 0, 0)), g.FindVertexByPosition(v(2, 2, 0))
	d := NewDelta()
	_, _, err := g.GetDeltaForEdgeAddition(ids, d, a.ID, b.ID, nil)
	require.NoError(t, err)
	require.NoError(t, g.ApplyDelta(d))

	_, lineage, err := g.GetDeltasForUpdateFaces(ids, []int{faceID})
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	require.Contains(t, lineage, faceID)
	assert.Len(t, lineage[faceID], 2)
	assert.InDelta(t, 4.0, totalArea(g, lineage[faceID]), 1e-9)
}
