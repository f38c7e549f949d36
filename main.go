package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/JPShankel/ModumateLegacy-sub002/dbg"
	"github.com/JPShankel/ModumateLegacy-sub002/graph3d"
	"github.com/JPShankel/ModumateLegacy-sub002/history"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/config"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/geom"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/logging"
	"github.com/JPShankel/ModumateLegacy-sub002/miter"
)

var (
	app        = kingpin.New("bimgraph", "Build a building graph from face outlines and report its volumes, miters and slices.")
	configPath = app.Flag("config", "YAML configuration file.").ExistingFile()
	doSlice    = app.Flag("slice", "Cut the graph with a horizontal plane.").Bool()
	sliceZ     = app.Flag("slice-z", "Height of the cut plane.").Default("0").Float64()
	pngPath    = app.Flag("png", "Draw the slice to this PNG file.").String()
	showImage  = app.Flag("imgcat", "Print the slice inline (iTerm only).").Bool()
	scale      = app.Flag("scale", "Pixels per model unit when drawing.").Default("100").Float64()
	doMiter    = app.Flag("miter", "Report mitering of every edge shared by several faces.").Bool()
	deltasPath = app.Flag("deltas", "Write the applied deltas as JSON to this file.").String()
	input      = app.Arg("input", "Face outlines; read from stdin when omitted.").File()
)

// Builds a graph from face outlines. Input should be newline separated points
// in the form "x y z", with each face separated by an extra newline. Faces
// are added one at a time, splitting whatever they cross.
func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		app.FatalIfError(err, "")
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	app.FatalIfError(err, "")
	logger := logging.New(level)

	in := io.Reader(os.Stdin)
	if *input != nil {
		defer (*input).Close()
		in = *input
	}
	faces, err := readFaces(in)
	app.FatalIfError(err, "reading faces")
	fmt.Printf("Read %d faces\n", len(faces))

	g := graph3d.NewGraph(graph3d.WithTolerances(cfg.GraphTolerances()), graph3d.WithLogger(logger))
	log := build(g, faces, logger)
	app.FatalIfError(g.Validate(), "validating graph")
	fmt.Printf("Graph has %d vertices, %d edges, %d faces\n", len(g.Vertices()), len(g.Edges()), len(g.Faces()))

	reportPolyhedra(g, logger)
	if *doMiter {
		app.FatalIfError(reportMiters(g, cfg, logger), "mitering")
	}
	if *doSlice {
		app.FatalIfError(reportSlice(g), "slicing")
	}
	if *deltasPath != "" {
		app.FatalIfError(writeDeltas(*deltasPath, log), "writing deltas")
	}
}

func build(g *graph3d.Graph, faces [][]r3.Vec, logger *slog.Logger) *history.Log {
	ids := graph3d.NewCounter(g.NextAvailableID())
	log := history.New(logger)
	for i, positions := range faces {
		result, err := g.GetDeltasForFaceAtPositions(ids, positions, nil)
		if err != nil {
			logger.Warn("face skipped", "index", i, "error", err)
			continue
		}
		log.Commit(fmt.Sprintf("add face %d", i), result.Deltas)
		if len(result.SplitFaceIDs) > 0 {
			fmt.Printf("Face %d split faces %v\n", i, result.SplitFaceIDs)
		}
	}
	return log
}

func reportPolyhedra(g *graph3d.Graph, logger *slog.Logger) {
	g.CalculatePolyhedra()
	verbose := logger.Enabled(context.Background(), slog.LevelDebug)
	for _, id := range sortedIDs(g.Polyhedra()) {
		p := g.FindPolyhedron(id)
		if verbose {
			logger.Debug("polyhedron", "detail", dbg.Dump(p))
		}
		kind := "exterior"
		if p.Interior {
			kind = "interior"
		}
		fmt.Printf("Polyhedron %d: %s, %d faces, closed=%t convex=%t parent=%d\n",
			p.ID, kind, len(p.FaceIDs), p.Closed, p.Convex, p.ParentID)
	}
}

func reportMiters(g *graph3d.Graph, cfg config.Config, logger *slog.Logger) error {
	source := miter.MapSource{}
	childIDs := graph3d.NewCounter(g.NextAvailableID())
	for _, faceID := range sortedIDs(g.Faces()) {
		assembly := cfg.Miter.Assembly
		source.Host(faceID, childIDs.NextID(), &assembly)
	}
	engine := miter.NewEngine(g, source,
		miter.WithExtensionRangeFactor(cfg.Miter.ExtensionRangeFactor),
		miter.WithLogger(logger))
	for _, edgeID := range sortedIDs(g.Edges()) {
		if len(g.ConnectedFaces(edgeID)) < 2 {
			continue
		}
		m, err := engine.CalculateMitering(edgeID)
		if err != nil {
			return err
		}
		if !m.Mitered {
			continue
		}
		for _, p := range m.Participants {
			var parts []string
			for i, ext := range p.LayerExtensions {
				if ext.Valid {
					parts = append(parts, fmt.Sprintf("%s %.3f/%.3f", p.Assembly.Layers[i].Name, ext.Back, ext.Front))
				} else {
					parts = append(parts, p.Assembly.Layers[i].Name+" unmitered")
				}
			}
			fmt.Printf("Edge %d face %d: %s\n", edgeID, p.FaceID, strings.Join(parts, ", "))
		}
	}
	return nil
}

func reportSlice(g *graph3d.Graph) error {
	up := r3.Vec{Z: 1}
	cut := geom.Plane{Normal: up, W: *sliceZ}
	slice, err := g.Create2DGraph(cut, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: *sliceZ})
	if err != nil {
		return err
	}
	polygons := slice.Polygons()
	fmt.Printf("Slice at z=%g: %d edges, %d polygons\n", *sliceZ, len(slice.Edges()), len(polygons))
	for i, poly := range polygons {
		fmt.Printf("  polygon %d: %d vertices, area %.4f\n", i, len(poly.VertexIDs), poly.Area)
	}
	if *pngPath == "" || len(slice.Vertices()) == 0 {
		return nil
	}
	if *showImage {
		return slice.CatPNG(*pngPath, *scale, os.Stdout)
	}
	return slice.DrawPNG(*pngPath, *scale)
}

func writeDeltas(path string, log *history.Log) error {
	var deltas []*graph3d.Delta
	for _, entry := range log.Entries() {
		deltas = append(deltas, entry.Deltas...)
	}
	data, err := json.MarshalIndent(deltas, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding deltas")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

func readFaces(in io.Reader) ([][]r3.Vec, error) {
	faces := [][]r3.Vec{}
	// Scan lines
	scanner := bufio.NewScanner(in)
	points := []r3.Vec{}
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())

		// If it's empty, and we collected any points, this is the end of the face
		if line == "" {
			if len(points) > 0 {
				faces = append(faces, points)
				points = []r3.Vec{}
			}
			continue
		}

		point, err := parsePoint(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNumber)
		}
		points = append(points, point)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning input")
	}

	// Handle trailing face if any
	if len(points) > 0 {
		faces = append(faces, points)
	}
	return faces, nil
}

func parsePoint(line string) (r3.Vec, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return r3.Vec{}, errors.Errorf("expected \"x y z\", got %q", line)
	}
	var coords [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return r3.Vec{}, errors.Wrapf(err, "coordinate %d", i)
		}
		coords[i] = v
	}
	return r3.Vec{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
