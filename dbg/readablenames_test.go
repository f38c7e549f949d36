package dbg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameIsStable(t *testing.T) {
	type thing struct{ n int }
	a, b := &thing{1}, &thing{2}
	assert.Equal(t, Name(a), Name(a))
	assert.NotEmpty(t, Name(b))
	assert.Equal(t, "Ø", Name(nil))
	var missing *thing
	assert.Equal(t, "Ø", Name(missing))
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, ObjectName("face", 12), ObjectName("face", -12))
	assert.Contains(t, ObjectName("face", 12), "face 12 (")
	assert.Equal(t, "edge Ø", ObjectName("edge", 0))
}

func TestDump(t *testing.T) {
	assert.Contains(t, Dump(struct{ FaceIDs []int }{[]int{4, -5}}), "FaceIDs")
}
