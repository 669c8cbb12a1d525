package object

import "github.com/ravener/clox/lang/table"

// String is an immutable heap string. Strings are always interned (see
// InternString on Heap): two String objects with equal Chars are in fact the
// same object, so identity comparison doubles as content comparison.
type String struct {
	Header
	Chars string
	hash  uint32
}

// NewString constructs a String and computes its FNV-1a hash. It does not
// intern it; callers go through Heap.InternString for that.
func NewString(s string) *String {
	return &String{Header: newHeader(KindString), Chars: s, hash: fnv1a(s)}
}

func (s *String) TypeName() string { return "string" }
func (s *String) String() string   { return s.Chars }
func (s *String) Size() int        { return len(s.Chars) + 16 }

// HashKey and EqualKey implement table.Key so interned strings can key
// globals, instance fields, and class method tables directly.
func (s *String) HashKey() uint32 { return s.hash }

// EqualKey compares by content. This is used both to probe the intern
// table (where the candidate is a throwaway *String not yet linked into
// the heap) and, once interned, every live *String with equal content is
// in fact the same object — so content equality and identity coincide
// for any two strings obtained through Heap.InternString.
func (s *String) EqualKey(other table.Key) bool {
	o, ok := other.(*String)
	return ok && o.Chars == s.Chars
}

// fnv1a computes the 32-bit FNV-1a hash of s, the algorithm specified for
// string interning.
func fnv1a(s string) uint32 {
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
