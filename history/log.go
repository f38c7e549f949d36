// Package history keeps the undo and redo stacks of committed operations.
package history

import (
	"log/slog"
	"slices"

	"github.com/pkg/errors"

	"github.com/JPShankel/ModumateLegacy-sub002/graph3d"
	"github.com/JPShankel/ModumateLegacy-sub002/internal/logging"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Entry is one committed operation: the deltas it applied, in order.
type Entry struct {
	Name   string
	Deltas []*graph3d.Delta
}

type Log struct {
	undo   []Entry
	redo   []Entry
	logger *slog.Logger
}

func New(logger *slog.Logger) *Log {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Log{logger: logger}
}

// Commit records deltas that have already been applied to the graph.
// Committing clears the redo stack. Operations that applied nothing are not
// recorded.
func (l *Log) Commit(name string, deltas []*graph3d.Delta) {
	deltas = slices.DeleteFunc(slices.Clone(deltas), func(d *graph3d.Delta) bool { return d == nil || d.IsEmpty() })
	if len(deltas) == 0 {
		return
	}
	l.undo = append(l.undo, Entry{Name: name, Deltas: deltas})
	l.redo = nil
	l.logger.Debug("operation committed", "op", name, "deltas", len(deltas))
}

func (l *Log) CanUndo() bool { return len(l.undo) > 0 }
func (l *Log) CanRedo() bool { return len(l.redo) > 0 }

// Undo reverts the last committed operation by applying the inverses of its
// deltas in reverse order. If any inverse fails, the graph is restored and
// the entry stays on the undo stack.
func (l *Log) Undo(g *graph3d.Graph) error {
	if !l.CanUndo() {
		return ErrNothingToUndo
	}
	entry := l.undo[len(l.undo)-1]
	inverses := make([]*graph3d.Delta, len(entry.Deltas))
	for i, d := range entry.Deltas {
		inverses[len(inverses)-1-i] = d.MakeInverse()
	}
	if err := applyAll(g, inverses); err != nil {
		return errors.Wrapf(err, "undoing %s", entry.Name)
	}
	l.undo = l.undo[:len(l.undo)-1]
	l.redo = append(l.redo, entry)
	l.logger.Debug("operation undone", "op", entry.Name)
	return nil
}

// Redo reapplies the last undone operation.
func (l *Log) Redo(g *graph3d.Graph) error {
	if !l.CanRedo() {
		return ErrNothingToRedo
	}
	entry := l.redo[len(l.redo)-1]
	if err := applyAll(g, entry.Deltas); err != nil {
		return errors.Wrapf(err, "redoing %s", entry.Name)
	}
	l.redo = l.redo[:len(l.redo)-1]
	l.undo = append(l.undo, entry)
	l.logger.Debug("operation redone", "op", entry.Name)
	return nil
}

// Entries returns the undo stack, oldest first.
func (l *Log) Entries() []Entry {
	return slices.Clone(l.undo)
}

func applyAll(g *graph3d.Graph, deltas []*graph3d.Delta) error {
	snapshot := g.Clone()
	if err := g.ApplyDeltas(deltas); err != nil {
		g.CloneFrom(snapshot)
		return err
	}
	return nil
}
