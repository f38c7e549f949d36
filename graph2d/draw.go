package graph2d

import (
	"io"

	"github.com/fogleman/gg"
	imgcat "github.com/martinlindhe/imgcat/lib"
	"github.com/pkg/errors"
)

// Padding around the slice so edges on the bounds stay visible
const drawPadding = 50

// DrawPNG renders the slice to a PNG: bounded polygons filled, every edge
// stroked, y pointing up.
func (g *Graph) DrawPNG(path string, scale float64) error {
	if len(g.vertices) == 0 {
		return errors.New("nothing to draw in an empty slice")
	}
	lo, hi := g.Bounds()

	// Set up the context
	width := int(scale*(hi.X-lo.X)) + drawPadding*2
	height := int(scale*(hi.Y-lo.Y)) + drawPadding*2
	c := gg.NewContext(width, height)
	c.SetRGB(0, 0, 0)
	c.DrawRectangle(0, 0, float64(width), float64(height))
	c.Fill()
	c.SetFillRuleEvenOdd()

	// Flip the context so the origin is at the bottom left
	c.Translate(0, float64(height))
	c.Scale(1, -1)

	// Translate for padding
	c.Translate(drawPadding, drawPadding)
	// Scale
	c.Scale(scale, scale)
	// Translate to min
	c.Translate(-lo.X, -lo.Y)

	for _, poly := range g.Polygons() {
		c.MoveTo(poly.Points[0].X, poly.Points[0].Y)
		for _, p := range poly.Points[1:] {
			c.LineTo(p.X, p.Y)
		}
		c.ClosePath()
	}
	c.SetRGB(0, 0.5, 0)
	c.Fill()

	c.SetLineWidth(2)
	for _, id := range g.sortedEdgeIDs() {
		e := g.edges[id]
		a, b := g.vertices[e.StartVertexID].Position, g.vertices[e.EndVertexID].Position
		c.DrawLine(a.X, a.Y, b.X, b.Y)
	}
	c.SetRGB(0, 1, 1)
	c.Stroke()

	return errors.Wrapf(c.SavePNG(path), "saving slice to %s", path)
}

// CatPNG draws the slice to path and prints it inline (iTerm only).
func (g *Graph) CatPNG(path string, scale float64, w io.Writer) error {
	if err := g.DrawPNG(path, scale); err != nil {
		return err
	}
	imgcat.CatFile(path, w)
	return nil
}
