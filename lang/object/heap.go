package object

import (
	"github.com/ravener/clox/lang/table"
	"github.com/ravener/clox/lang/value"
)

// Heap is the VM-global intrusive list of every allocated object, plus
// the weak string-intern set keyed on content. It has no GC logic of its
// own — lang/gc.Collector walks it — but owns allocation (so every Obj is
// linked the moment it is created) and owns interning (so the GC's
// post-mark, pre-sweep pass over strings has a single table to weaken).
type Heap struct {
	objects Obj
	strings table.Table
}

// Objects returns the head of the intrusive object list.
func (h *Heap) Objects() Obj { return h.objects }

// SetHead replaces the head of the intrusive object list. Only the
// collector's sweep phase calls this, to unlink a dead object that sat
// at the head of the list.
func (h *Heap) SetHead(obj Obj) { h.objects = obj }

// Allocate links obj at the head of the object list and returns it. The
// New* constructors in this package return unlinked objects, so each new
// object must be passed to Allocate; InternString does this itself for
// the strings it creates.
func (h *Heap) Allocate(obj Obj) Obj {
	obj.SetNext(h.objects)
	h.objects = obj
	return obj
}

// InternString returns the canonical *String for s, allocating and
// linking a new one only if no live string with this content already
// exists. Two calls with equal content always return the same pointer,
// which is what lets the VM treat string equality as identity. The
// second return value reports whether a new object was allocated, so
// callers that track allocation accounting know whether to charge for it.
func (h *Heap) InternString(s string) (*String, bool) {
	candidate := NewString(s)
	if existing, ok := h.strings.GetKey(candidate); ok {
		return existing.(*String), false
	}
	h.Allocate(candidate)
	h.strings.Set(candidate, boolPresent)
	return candidate, true
}

// boolPresent is the placeholder value stored for every intern-set entry;
// the set only cares about key presence, mirroring the C design's
// table<String,Nil>.
var boolPresent = presentMarker{}

type presentMarker struct{}

func (presentMarker) TypeName() string { return "nil" }
func (presentMarker) String() string   { return "nil" }

// WeakenInterned removes every intern-table entry whose string was not
// marked reachable by the most recent GC trace: the intern table is a
// weak set, so it must not be the reason a dead string survives a
// collection. It is called after marking and before sweep, so that sweep
// can then free the now-unreferenced strings like any other dead object.
func (h *Heap) WeakenInterned() {
	var dead []*String
	h.strings.Each(func(key table.Key, _ value.Value) {
		s := key.(*String)
		if !s.Marked() {
			dead = append(dead, s)
		}
	})
	for _, s := range dead {
		h.strings.Delete(s)
	}
}

