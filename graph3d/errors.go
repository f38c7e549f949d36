package graph3d

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the closed set of reasons a graph operation can be rejected.
type ErrorKind int

const (
	DuplicateObject ErrorKind = iota + 1
	DegenerateGeometry
	InconsistentSeam
	MissingReference
	NonPlanarFace
)

func (k ErrorKind) String() string {
	switch k {
	case DuplicateObject:
		return "duplicate object"
	case DegenerateGeometry:
		return "degenerate geometry"
	case InconsistentSeam:
		return "inconsistent seam"
	case MissingReference:
		return "missing reference"
	case NonPlanarFace:
		return "non-planar face"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. A *GraphError matches the sentinel of its kind.
var (
	ErrDuplicateObject    = &GraphError{Kind: DuplicateObject}
	ErrDegenerateGeometry = &GraphError{Kind: DegenerateGeometry}
	ErrInconsistentSeam   = &GraphError{Kind: InconsistentSeam}
	ErrMissingReference   = &GraphError{Kind: MissingReference}
	ErrNonPlanarFace      = &GraphError{Kind: NonPlanarFace}
)

type GraphError struct {
	Kind  ErrorKind
	cause error
}

func (e *GraphError) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *GraphError) Unwrap() error {
	return e.cause
}

func (e *GraphError) Is(target error) bool {
	t, ok := target.(*GraphError)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &GraphError{Kind: kind, cause: errors.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind of err, or 0 when err is not a graph error.
func KindOf(err error) ErrorKind {
	var graphErr *GraphError
	if errors.As(err, &graphErr) {
		return graphErr.Kind
	}
	return 0
}

// Threading errors through every cache update that ApplyDelta triggers would
// clutter the code badly. The apply helpers panic with a *GraphError instead,
// and ApplyDelta recovers it into a returned error.

func fatalf(kind ErrorKind, format string, args ...interface{}) {
	panic(newError(kind, format, args...))
}

func handleApplyPanicRecover(r interface{}) error {
	if r != nil {
		if graphErr, ok := r.(*GraphError); ok {
			return graphErr
		}
		panic(r)
	}
	return nil
}
