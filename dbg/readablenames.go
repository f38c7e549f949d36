package dbg

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/davecgh/go-spew/spew"
	petname "github.com/dustinkirkland/golang-petname"
)

// This converts arbitrary keys into random readable names. It flagrantly
// leaks memory but generates the names lazily, so it's not a problem unless
// you're actually using it. Object IDs of different kinds are easy to mix up
// in logs; a name like "BraveOtter" is not.

var memo map[interface{}]string

func init() {
	memo = make(map[interface{}]string)
	// Since the names are generated in order of demand, we make them
	// nondeterministic to remind the user that the same name doesn't refer to
	// the same thing between runs.
	petname.NonDeterministicMode()
}

func Name(key interface{}) string {
	if key == nil {
		return "Ø"
	}
	if v := reflect.ValueOf(key); v.Kind() == reflect.Pointer && v.IsNil() {
		return "Ø"
	}

	if r, ok := memo[key]; ok {
		return r
	}
	r := fmt.Sprintf("%s%s", strings.Title(petname.Adjective()), strings.Title(petname.Name()))
	memo[key] = r
	return r
}

type objectKey struct {
	kind string
	id   int
}

// ObjectName names a graph object by kind and unsigned ID, e.g.
// "face 12 (QuietHeron)". ID 0 is no object.
func ObjectName(kind string, id int) string {
	if id < 0 {
		id = -id
	}
	if id == 0 {
		return kind + " Ø"
	}
	return fmt.Sprintf("%s %d (%s)", kind, id, Name(objectKey{kind, id}))
}

// Dump renders values in full for debug logs.
func Dump(values ...interface{}) string {
	return spew.Sdump(values...)
}
