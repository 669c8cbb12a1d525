package object_test

import (
	"testing"

	"github.com/ravener/clox/lang/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapInternStringReturnsCanonicalPointer(t *testing.T) {
	var h object.Heap

	a, isNewA := h.InternString("hello")
	b, isNewB := h.InternString("hello")

	assert.True(t, isNewA)
	assert.False(t, isNewB)
	assert.Same(t, a, b, "two interns of equal content must return the same pointer")
}

func TestHeapInternStringDistinctContent(t *testing.T) {
	var h object.Heap

	a, _ := h.InternString("foo")
	b, _ := h.InternString("bar")
	assert.NotSame(t, a, b)
}

func TestHeapAllocateLinksIntoObjectList(t *testing.T) {
	var h object.Heap

	s1 := object.NewString("a")
	s2 := object.NewString("b")
	h.Allocate(s1)
	h.Allocate(s2)

	require.NotNil(t, h.Objects())
	assert.Same(t, object.Obj(s2), h.Objects(), "most recently allocated object is the list head")
	assert.Same(t, object.Obj(s1), h.Objects().Next())
}

func TestStringEqualKeyComparesByContent(t *testing.T) {
	a := object.NewString("x")
	b := object.NewString("x")
	c := object.NewString("y")

	assert.True(t, a.EqualKey(b))
	assert.False(t, a.EqualKey(c))
}

func TestWeakenInternedDropsUnmarkedStrings(t *testing.T) {
	var h object.Heap

	live, _ := h.InternString("live")
	dead, _ := h.InternString("dead")
	live.SetMarked(true)

	h.WeakenInterned()

	_, liveStillInterned := h.InternString("live")
	_, deadReinterned := h.InternString("dead")
	assert.False(t, liveStillInterned, "live content should have stayed interned, so this InternString is a cache hit")
	assert.True(t, deadReinterned, "dead content should have been dropped, so this InternString allocates fresh")
	_ = dead
}

func TestHeaderDefaults(t *testing.T) {
	s := object.NewString("z")
	assert.False(t, s.Marked())
	s.SetMarked(true)
	assert.True(t, s.Marked())
	assert.Equal(t, object.KindString, s.Kind())
}
