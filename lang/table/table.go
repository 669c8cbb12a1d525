// Package table implements the open-addressed, linear-probed,
// tombstone-aware hash table used throughout the VM for globals, instance
// fields, class method tables, and the string intern set.
package table

import "github.com/ravener/clox/lang/value"

const maxLoad = 0.75

// Key is anything with a stable FNV-1a hash and an equality test; in
// practice this is always an interned *object.String, whose identity
// equals its content, but the table is kept generic over the interface so
// it can also key the intern set itself on raw hash+bytes.
type Key interface {
	HashKey() uint32
	EqualKey(other Key) bool
}

type entry struct {
	key     Key
	value   value.Value
	present bool // false for both "never used" and "tombstone"
	deleted bool // true only for a tombstone
}

// Table is a hash map from Key to value.Value. The zero value is an empty,
// usable table.
type Table struct {
	count   int // occupied slots, tombstones included (drives the load factor)
	entries []entry
}

// Len returns the number of live key/value pairs.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].present {
			n++
		}
	}
	return n
}

// Get looks up key and reports whether it was present.
func (t *Table) Get(key Key) (value.Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.find(key)
	if e == nil || !e.present {
		return nil, false
	}
	return e.value, true
}

// GetKey looks up key and, if present, returns the canonical Key instance
// stored in the table rather than the lookup key itself. This is how
// string interning recovers the single canonical *object.String for a
// piece of content: the caller probes with a throwaway candidate and, on
// a hit, discards it in favor of the table's own key.
func (t *Table) GetKey(key Key) (Key, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.find(key)
	if e == nil || !e.present {
		return nil, false
	}
	return e.key, true
}

// Set inserts or overwrites key's value and reports whether key was absent
// before the call (true also when the write reuses a tombstone slot),
// as opposed to overwriting an existing entry.
func (t *Table) Set(key Key, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.grow()
	}
	e := t.find(key)
	isNew := !e.present
	if isNew && !e.deleted {
		t.count++
	}
	e.key = key
	e.value = val
	e.present = true
	e.deleted = false
	return isNew
}

// SetOrInsert probes for key with Get and then always writes val with Set,
// reporting whether key already existed (and was overwritten). When key
// was absent the write is a fresh insert; a caller that only wanted to
// overwrite an existing key must Delete it again.
func (t *Table) SetOrInsert(key Key, val value.Value) (existed bool) {
	_, existed = t.Get(key)
	t.Set(key, val)
	return existed
}

// Delete removes key, leaving a tombstone so that probe sequences through
// this slot remain valid for other keys that hashed to the same bucket.
func (t *Table) Delete(key Key) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e == nil || !e.present {
		return false
	}
	e.present = false
	e.deleted = true
	e.key = nil
	e.value = nil
	return true
}

// Each calls fn for every live key/value pair. fn must not mutate the
// table.
func (t *Table) Each(fn func(key Key, val value.Value)) {
	for i := range t.entries {
		if t.entries[i].present {
			fn(t.entries[i].key, t.entries[i].value)
		}
	}
}

// find returns the slot where key is, or — if absent — the first open slot
// (either truly empty or a tombstone) along key's probe sequence.
func (t *Table) find(key Key) *entry {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := key.HashKey() & mask
	var tombstone *entry
	for {
		e := &t.entries[idx]
		switch {
		case !e.present && !e.deleted:
			// truly empty: key is not in the table
			if tombstone != nil {
				return tombstone
			}
			return e
		case e.deleted:
			if tombstone == nil {
				tombstone = e
			}
		case e.key.EqualKey(key):
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.present {
			t.Set(e.key, e.value)
		}
	}
}
