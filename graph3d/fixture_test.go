package graph3d

import (
	"embed"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/JoshVarga/svgparser"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
)

// This file parses the svg fixtures into footprints. This is not a full (or
// even correct) svg parser. It finds the single polygon in the file and
// converts it into a CCW footprint in the xy plane.
//
// Fixtures are available by name in the fixtures/ directory, sans extension.

//go:embed fixtures
var fixtures embed.FS

func loadFootprint(t *testing.T, name string) []r2.Vec {
	t.Helper()
	fixture, err := fixtures.Open("fixtures/" + name + ".svg")
	require.NoError(t, err, "could not load fixture %q", name)
	defer fixture.Close()

	rootEl, err := svgparser.Parse(fixture, true)
	require.NoError(t, err, "failed to parse fixture %q", name)

	polygons := rootEl.FindAll("polygon")
	require.Len(t, polygons, 1, "fixture %q needs exactly one polygon", name)

	var poly geom.Polygon
	for _, pointString := range strings.Fields(polygons[0].Attributes["points"]) {
		coords := strings.Split(pointString, ",")
		require.Len(t, coords, 2, "invalid point string %q", pointString)
		x, err := strconv.ParseFloat(coords[0], 64)
		require.NoError(t, err)
		y, err := strconv.ParseFloat(coords[1], 64)
		require.NoError(t, err)
		poly.Points = append(poly.Points, r2.Vec{X: x, Y: y})
	}

	// Ensure that the footprint is CCW
	if poly.IsCW() {
		poly = poly.Reverse()
	}
	return poly.Points
}

func v(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

func addFace(t *testing.T, g *Graph, ids IDAllocator, positions ...r3.Vec) FaceAdditionResult {
	t.Helper()
	result, err := g.GetDeltasForFaceAtPositions(ids, positions, nil)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	return result
}

func square(x0, y0, x1, y1, z float64) []r3.Vec {
	return []r3.Vec{v(x0, y0, z), v(x1, y0, z), v(x1, y1, z), v(x0, y1, z)}
}

// extrude adds a closed prism over footprint: floor, one wall per side and
// roof, in that order.
func extrude(t *testing.T, g *Graph, ids IDAllocator, footprint []r2.Vec, height float64) {
	t.Helper()
	var floor, roof []r3.Vec
	for _, p := range footprint {
		floor = append(floor, v(p.X, p.Y, 0))
		roof = append(roof, v(p.X, p.Y, height))
	}
	slices.Reverse(floor)
	addFace(t, g, ids, floor...)
	for i, p := range footprint {
		q := footprint[geom.CircularIndex(i+1, len(footprint))]
		addFace(t, g, ids, v(p.X, p.Y, 0), v(q.X, q.Y, 0), v(q.X, q.Y, height), v(p.X, p.Y, height))
	}
	addFace(t, g, ids, roof...)
}

func totalArea(g *Graph, faceIDs []int) float64 {
	total := 0.0
	for _, id := range faceIDs {
		total += g.FindFace(id).CachedArea
	}
	return total
}

// graphState is the comparable content of a graph. Edge lists on vertices
// are sorted since undoing a change may restore them in another order.
type graphState struct {
	Vertices map[int]Vertex
	Edges    map[int]*Edge
	Faces    map[int]*Face
}

func stateOf(g *Graph) graphState {
	s := graphState{Vertices: map[int]Vertex{}, Edges: g.Clone().Edges(), Faces: g.Clone().Faces()}
	for id, vertex := range g.Vertices() {
		c := *vertex
		c.ConnectedEdgeIDs = slices.Clone(vertex.ConnectedEdgeIDs)
		slices.Sort(c.ConnectedEdgeIDs)
		s.Vertices[id] = c
	}
	return s
}

func requireSameState(t *testing.T, want, got graphState) {
	t.Helper()
	diff := cmp.Diff(want, got, cmpopts.EquateEmpty(), cmpopts.EquateApprox(0, 1e-9))
	require.Empty(t, diff, "graph state differs (-want +got)")
}

// undoAll applies the inverses of deltas in reverse order.
func undoAll(t *testing.T, g *Graph, deltas []*Delta) {
	t.Helper()
	for i := len(deltas) - 1; i >= 0; i-- {
		require.NoError(t, g.ApplyDelta(deltas[i].MakeInverse()), "undoing delta %d", i)
	}
	require.NoError(t, g.Validate())
}

// assertCoversBySampling checks on a grid of sample points that faceIDs tile
// the outline exactly: every sample inside it lies inside exactly one face,
// and no sample outside it lies inside any. Samples on a boundary are skipped.
func assertCoversBySampling(t *testing.T, g *Graph, outline []r3.Vec, faceIDs []int) {
	t.Helper()
	plane, ok := geom.PlaneFromPoints(outline)
	require.True(t, ok)
	basis, ok := geom.NewBasis(outline[0], plane.Normal, r3.Sub(outline[1], outline[0]))
	require.True(t, ok)
	poly := basis.ProjectAll(outline)

	minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for _, p := range poly.Points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	// Pad the bounding box by 10%
	xPadding := (maxX - minX) * 0.1
	yPadding := (maxY - minY) * 0.1
	minX -= xPadding
	minY -= yPadding
	maxX += xPadding
	maxY += yPadding

	// Offset the grid so samples rarely land exactly on a split line
	step := math.Max(maxX-minX, maxY-minY) / 50
	for y := minY + step/3; y <= maxY; y += step {
		for x := minX + step/3; x <= maxX; x += step {
			p := r2.Vec{X: x, Y: y}
			expected := poly.Locate(p, 1e-6)
			if expected == geom.OnBoundary {
				continue
			}
			world := basis.FromPlane(p)
			inside, onEdge := 0, false
			for _, id := range faceIDs {
				switch g.FindFace(id).Locate(world, 1e-6) {
				case geom.Inside:
					inside++
				case geom.OnBoundary:
					onEdge = true
				}
			}
			if onEdge {
				continue
			}
			if expected == geom.Inside {
				assert.Equal(t, 1, inside, "point %v should be in exactly one face", world)
			} else {
				assert.Zero(t, inside, "point %v should not be in any face", world)
			}
		}
	}
}
