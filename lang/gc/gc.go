// Package gc implements the tracing mark-sweep collector that runs over
// the object heap: a classic tricolor mark phase (rooted by a
// caller-supplied MarkRoots callback, since the VM and the in-progress
// compiler are the only things that know what is a root), a weak-set
// pass over the string intern table, and a sweep that unlinks and
// accounts for everything left unmarked.
package gc

import (
	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/table"
	"github.com/ravener/clox/lang/value"
	"github.com/sirupsen/logrus"
)

// HeapGrowFactor is the multiplier applied to bytesAllocated, after a
// collection, to compute the threshold for the next one.
const HeapGrowFactor = 2

// defaultNextGC is the initial collection threshold, chosen generously
// so a short script or REPL line never triggers a pointless first GC.
const defaultNextGC = 1 << 20

// Collector owns the heap's allocation accounting and performs full
// mark-sweep collections on demand. It has no notion of VM internals:
// MarkRoots is supplied by the embedder (the vm package) and calls
// MarkObject/MarkValue/MarkTable for every root it knows of (stack,
// frames, open upvalues, globals, initString).
type Collector struct {
	Heap      *object.Heap
	MarkRoots func(c *Collector)

	bytesAllocated int
	nextGC         int
	gray           []object.Obj
}

// New creates a Collector over heap. MarkRoots must be assigned before
// the first Collect call.
func New(heap *object.Heap) *Collector {
	return &Collector{Heap: heap, nextGC: defaultNextGC}
}

// BytesAllocated returns the collector's current estimate of live heap
// bytes, backing the gcHeapSize() native.
func (c *Collector) BytesAllocated() int { return c.bytesAllocated }

// Track records obj's contribution to bytesAllocated.
func (c *Collector) Track(obj object.Obj) {
	c.bytesAllocated += obj.Size()
}

// NewObject links obj into the heap and accounts for it in one step; it
// is the single allocation entry point the vm and compiler packages use,
// so that "every allocation is heap-linked and byte-counted" can never
// be forgotten at a call site.
func (c *Collector) NewObject(obj object.Obj) object.Obj {
	c.Heap.Allocate(obj)
	c.Track(obj)
	return obj
}

// InternString interns s (see object.Heap.InternString) and, the first
// time this content is seen, accounts for it in bytesAllocated.
func (c *Collector) InternString(s string) *object.String {
	str, isNew := c.Heap.InternString(s)
	if isNew {
		c.Track(str)
	}
	return str
}

// ShouldCollect reports whether bytesAllocated has crossed nextGC.
func (c *Collector) ShouldCollect() bool {
	return c.bytesAllocated > c.nextGC
}

// CollectIfNeeded runs a collection when ShouldCollect is true. Callers
// on allocation-heavy paths (string concatenation, closure/object
// creation) invoke this rather than calling Collect unconditionally, to
// keep GC pauses proportional to allocation volume.
func (c *Collector) CollectIfNeeded() int {
	if !c.ShouldCollect() {
		return 0
	}
	return c.Collect()
}

// Collect runs one full mark-sweep cycle and returns the number of bytes
// freed. It is idempotent when nothing has allocated since the last call:
// with no new garbage, the second call's mark phase reaches the same
// live set and sweep frees nothing.
func (c *Collector) Collect() int {
	before := c.bytesAllocated

	if c.MarkRoots != nil {
		c.MarkRoots(c)
	}
	c.traceReferences()
	c.Heap.WeakenInterned()
	freed := c.sweep()

	c.nextGC = c.bytesAllocated * HeapGrowFactor
	if c.nextGC < defaultNextGC {
		c.nextGC = defaultNextGC
	}

	logrus.WithFields(logrus.Fields{
		"component":   "gc",
		"bytesBefore": before,
		"bytesAfter":  c.bytesAllocated,
		"freed":       freed,
		"nextGC":      c.nextGC,
	}).Debug("collection complete")

	return freed
}

// MarkValue marks v if it is a heap object; primitives are no-ops.
func (c *Collector) MarkValue(v value.Value) {
	if v == nil {
		return
	}
	if obj, ok := v.(object.Obj); ok {
		c.MarkObject(obj)
	}
}

// MarkObject marks obj black-pending (gray) if it was white, enqueueing
// it for traceReferences to scan its children. Marking an
// already-marked object is a no-op, which is what makes cyclic object
// graphs (instance -> class -> method closure -> upvalue -> value on the
// stack -> instance) terminate instead of looping forever.
func (c *Collector) MarkObject(obj object.Obj) {
	if obj == nil || obj.Marked() {
		return
	}
	obj.SetMarked(true)
	c.gray = append(c.gray, obj)
}

// MarkTable marks a table's keys and values: used for globals,
// Instance.Fields and Class.Methods, which are strong tables (unlike the
// weak string intern set).
func (c *Collector) MarkTable(t *table.Table) {
	t.Each(func(key table.Key, val value.Value) {
		if obj, ok := key.(object.Obj); ok {
			c.MarkObject(obj)
		}
		c.MarkValue(val)
	})
}

// traceReferences drains the gray stack, marking each object's children
// until nothing gray remains (every reachable object is black).
func (c *Collector) traceReferences() {
	for len(c.gray) > 0 {
		n := len(c.gray) - 1
		obj := c.gray[n]
		c.gray = c.gray[:n]
		c.blacken(obj)
	}
}

func (c *Collector) blacken(obj object.Obj) {
	switch o := obj.(type) {
	case *object.String:
		// no children

	case *object.Function:
		c.MarkObject(o.Name)
		for _, v := range o.Chunk.Constants {
			c.MarkValue(v)
		}

	case *object.Native:
		// no children

	case *object.Closure:
		c.MarkObject(o.Function)
		for _, uv := range o.Upvalues {
			c.MarkObject(uv)
		}

	case *object.Upvalue:
		c.MarkValue(o.Closed)

	case *object.Class:
		c.MarkObject(o.Name)
		c.MarkTable(&o.Methods)

	case *object.Instance:
		c.MarkObject(o.Class)
		c.MarkTable(&o.Fields)

	case *object.BoundMethod:
		c.MarkValue(o.Receiver)
		c.MarkObject(o.Method)
	}
}

// sweep walks the heap's intrusive object list, unlinking and
// unaccounting every object left unmarked (white), and clears marks on
// everything that survives so the next cycle starts from all-white.
func (c *Collector) sweep() int {
	freed := 0
	var prev object.Obj
	obj := c.Heap.Objects()
	for obj != nil {
		next := obj.Next()
		if obj.Marked() {
			obj.SetMarked(false)
			prev = obj
			obj = next
			continue
		}

		freed += obj.Size()
		c.bytesAllocated -= obj.Size()
		if prev == nil {
			c.unlinkHead(next)
		} else {
			prev.SetNext(next)
		}
		obj = next
	}
	return freed
}

func (c *Collector) unlinkHead(next object.Obj) {
	c.Heap.SetHead(next)
}
