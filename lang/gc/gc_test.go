package gc_test

import (
	"testing"

	"github.com/ravener/clox/lang/gc"
	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollector() (*gc.Collector, *object.Heap) {
	heap := &object.Heap{}
	return gc.New(heap), heap
}

func TestCollectFreesUnreachableObjects(t *testing.T) {
	coll, _ := newCollector()
	coll.MarkRoots = func(c *gc.Collector) {}

	s := object.NewString("garbage")
	coll.NewObject(s)

	before := coll.BytesAllocated()
	freed := coll.Collect()

	assert.Equal(t, before, freed)
	assert.Equal(t, 0, coll.BytesAllocated())
}

func TestCollectKeepsRootedObjects(t *testing.T) {
	coll, _ := newCollector()
	root := object.NewString("rooted")
	coll.NewObject(root)
	coll.MarkRoots = func(c *gc.Collector) {
		c.MarkObject(root)
	}

	freed := coll.Collect()

	assert.Equal(t, 0, freed)
	assert.Greater(t, coll.BytesAllocated(), 0)
}

func TestCollectIsIdempotentWithNoNewAllocation(t *testing.T) {
	coll, _ := newCollector()
	root := object.NewString("rooted")
	coll.NewObject(root)
	coll.MarkRoots = func(c *gc.Collector) {
		c.MarkObject(root)
	}

	coll.Collect()
	second := coll.Collect()

	assert.Equal(t, 0, second, "second collection with nothing new garbage must free 0 bytes")
}

func TestInternStringOnlyAccountsOnce(t *testing.T) {
	coll, _ := newCollector()
	coll.MarkRoots = func(c *gc.Collector) {}

	coll.InternString("hello")
	after1 := coll.BytesAllocated()
	coll.InternString("hello")
	after2 := coll.BytesAllocated()

	assert.Equal(t, after1, after2)
}

func TestMarkObjectIsIdempotentOnCycles(t *testing.T) {
	coll, _ := newCollector()
	class := object.NewClass(object.NewString("Cyclic"))
	instance := object.NewInstance(class)
	instance.Fields.Set(object.NewString("self"), instance)

	coll.NewObject(class)
	coll.NewObject(instance)
	coll.NewObject(class.Name)

	coll.MarkRoots = func(c *gc.Collector) {
		c.MarkObject(instance)
	}

	require.NotPanics(t, func() {
		coll.Collect()
	})
	assert.True(t, instance.Marked() == false, "sweep clears marks after a cycle completes")
}

func TestMarkValueIgnoresPrimitives(t *testing.T) {
	coll, _ := newCollector()
	require.NotPanics(t, func() {
		coll.MarkValue(value.Number(1))
		coll.MarkValue(value.Bool(true))
		coll.MarkValue(value.Nil{})
		coll.MarkValue(nil)
	})
}
