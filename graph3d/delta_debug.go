package graph3d

import (
	"fmt"
	"slices"
	"strings"

	"github.com/logrusorgru/aurora"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/JPShankel/ModumateLegacy-sub002/dbg"
)

// String lists the delta's changes one per line, additions in green,
// deletions in red and in-place edits in cyan.
func (d *Delta) String() string {
	var lines []string
	add := func(line string) { lines = append(lines, "  "+aurora.Green("+ "+line).String()) }
	del := func(line string) { lines = append(lines, "  "+aurora.Red("- "+line).String()) }
	edit := func(line string) { lines = append(lines, "  "+aurora.Cyan("~ "+line).String()) }

	for _, id := range sortedKeys(d.VertexMovements) {
		m := d.VertexMovements[id]
		edit(fmt.Sprintf("%s %s -> %s", dbg.ObjectName("vertex", id), formatVec(m.From), formatVec(m.To)))
	}
	for _, id := range sortedKeys(d.VertexAdditions) {
		add(fmt.Sprintf("%s at %s", dbg.ObjectName("vertex", id), formatVec(d.VertexAdditions[id])))
	}
	for _, id := range sortedKeys(d.EdgeAdditions) {
		add(formatObjectDelta("edge", id, d.EdgeAdditions[id]))
	}
	for _, faceID := range sortedFaceIDs(d.FaceVertexAdditions, d.FaceVertexRemovals) {
		edit(fmt.Sprintf("%s loop +%v -%v", dbg.ObjectName("face", faceID),
			d.FaceVertexAdditions[faceID], d.FaceVertexRemovals[faceID]))
	}
	for _, id := range sortedKeys(d.FaceAdditions) {
		add(formatObjectDelta("face", id, d.FaceAdditions[id]))
	}
	for _, id := range sortedKeys(d.FaceContainmentUpdates) {
		u := d.FaceContainmentUpdates[id]
		edit(fmt.Sprintf("%s contained by %d -> %d, contains +%v -%v", dbg.ObjectName("face", id),
			u.PrevContainingFaceID, u.NextContainingFaceID, u.ContainedAdded, u.ContainedRemoved))
	}
	for _, id := range sortedKeys(d.FaceDeletions) {
		del(formatObjectDelta("face", id, d.FaceDeletions[id]))
	}
	for _, id := range sortedKeys(d.EdgeDeletions) {
		del(formatObjectDelta("edge", id, d.EdgeDeletions[id]))
	}
	for _, id := range sortedKeys(d.VertexDeletions) {
		del(fmt.Sprintf("%s at %s", dbg.ObjectName("vertex", id), formatVec(d.VertexDeletions[id])))
	}

	if len(lines) == 0 {
		return "Delta {}"
	}
	return "Delta {\n" + strings.Join(lines, "\n") + "\n}"
}

func formatObjectDelta(kind string, id int, od ObjectDelta) string {
	s := fmt.Sprintf("%s %v", dbg.ObjectName(kind, id), od.VertexIDs)
	if len(od.ParentIDs) > 0 {
		s += fmt.Sprintf(" from %v", od.ParentIDs)
	}
	if len(od.ChildIDs) > 0 {
		s += fmt.Sprintf(" into %v", od.ChildIDs)
	}
	if len(od.GroupIDs) > 0 {
		s += fmt.Sprintf(" groups %v", od.GroupIDs)
	}
	return s
}

func formatVec(v r3.Vec) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func sortedFaceIDs(a, b map[int]map[int]int) []int {
	ids := append(sortedKeys(a), sortedKeys(b)...)
	slices.Sort(ids)
	return slices.Compact(ids)
}
