// Package object implements the heap object model: every Lox value that
// is not nil/bool/number lives here as an Obj, intrusively linked into a
// single heap list so the garbage collector can walk every allocation
// without a separate bookkeeping structure.
package object

import "github.com/ravener/clox/lang/value"

// Kind tags the concrete variant of an Obj. The GC and the VM tell
// variants apart with Go type switches; Kind is the tag each object
// carries in its Header.
type Kind byte

//nolint:revive
const (
	KindString Kind = iota
	KindFunction
	KindNative
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
)

// Obj is implemented by every heap-allocated value. Header is embedded by
// every concrete type so the GC can treat any Obj uniformly via
// Marked/SetMarked, Next/SetNext, and Kind, independent of what the
// object actually is.
type Obj interface {
	value.Value
	Kind() Kind
	Marked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
	// Size is the object's approximate contribution to bytesAllocated,
	// used by the collector's heap-growth accounting.
	Size() int
}

// Header carries the intrusive-list and mark-bit fields common to every
// heap object. Concrete types embed Header by value; since every object
// is always referenced through a pointer, Header's pointer-receiver
// methods are promoted and share the same storage as the owning object.
type Header struct {
	kind   Kind
	marked bool
	next   Obj
}

func (h *Header) Kind() Kind       { return h.kind }
func (h *Header) Marked() bool     { return h.marked }
func (h *Header) SetMarked(m bool) { h.marked = m }
func (h *Header) Next() Obj        { return h.next }
func (h *Header) SetNext(o Obj)    { h.next = o }

func newHeader(kind Kind) Header { return Header{kind: kind} }
