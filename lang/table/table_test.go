package table_test

import (
	"fmt"
	"testing"

	"github.com/ravener/clox/lang/table"
	"github.com/ravener/clox/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// strKey is a minimal table.Key for tests, standing in for
// *object.String without pulling in the object package.
type strKey string

func (s strKey) HashKey() uint32 {
	const (
		offsetBasis = 2166136261
		prime       = 16777619
	)
	h := uint32(offsetBasis)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

func (s strKey) EqualKey(other table.Key) bool {
	o, ok := other.(strKey)
	return ok && o == s
}

func TestSetGetDelete(t *testing.T) {
	var tbl table.Table

	isNew := tbl.Set(strKey("a"), value.Number(1))
	assert.True(t, isNew)
	isNew = tbl.Set(strKey("a"), value.Number(2))
	assert.False(t, isNew)

	v, ok := tbl.Get(strKey("a"))
	require.True(t, ok)
	assert.Equal(t, value.Number(2), v)

	assert.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.Delete(strKey("a")))
	assert.False(t, tbl.Delete(strKey("a")))

	_, ok = tbl.Get(strKey("a"))
	assert.False(t, ok)
}

func TestSetOrInsert(t *testing.T) {
	var tbl table.Table

	existed := tbl.SetOrInsert(strKey("x"), value.Number(1))
	assert.False(t, existed, "first write must report it did not exist")

	existed = tbl.SetOrInsert(strKey("x"), value.Number(2))
	assert.True(t, existed, "second write must report it already existed")

	v, ok := tbl.Get(strKey("x"))
	require.True(t, ok)
	assert.Equal(t, value.Number(2), v)
}

func TestGetKeyReturnsCanonicalKey(t *testing.T) {
	var tbl table.Table
	tbl.Set(strKey("hello"), value.Nil{})

	got, ok := tbl.GetKey(strKey("hello"))
	require.True(t, ok)
	assert.Equal(t, strKey("hello"), got)
}

func TestGrowPreservesEntries(t *testing.T) {
	var tbl table.Table
	const n = 200
	for i := 0; i < n; i++ {
		tbl.Set(strKey(fmt.Sprintf("key-%d", i)), value.Number(float64(i)))
	}
	assert.Equal(t, n, tbl.Len())
}

func TestEachVisitsEveryLiveEntry(t *testing.T) {
	var tbl table.Table
	tbl.Set(strKey("a"), value.Number(1))
	tbl.Set(strKey("b"), value.Number(2))
	tbl.Delete(strKey("a"))

	seen := map[string]value.Value{}
	tbl.Each(func(key table.Key, val value.Value) {
		seen[string(key.(strKey))] = val
	})
	assert.Equal(t, map[string]value.Value{"b": value.Number(2)}, seen)
}

func TestDeleteLeavesTombstoneForProbing(t *testing.T) {
	var tbl table.Table
	tbl.Set(strKey("a"), value.Number(1))
	tbl.Set(strKey("b"), value.Number(2))
	tbl.Delete(strKey("a"))

	v, ok := tbl.Get(strKey("b"))
	require.True(t, ok)
	assert.Equal(t, value.Number(2), v)
}
