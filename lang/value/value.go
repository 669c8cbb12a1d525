// Package value defines the tagged Value union that flows through the
// compiler and VM: nil, booleans, IEEE-754 doubles, and heap objects
// (the object package's types, which all implement Value).
package value

import "fmt"

// Value is the common interface implemented by every runtime value: Nil,
// Bool, Number, and every object.Obj variant. It intentionally carries no
// methods beyond a type tag and a printable form — everything
// type-specific (arithmetic, calling, field access) is resolved by type
// switches in the vm package, mirroring the tagged-union dispatch of the
// reference design.
type Value interface {
	// TypeName returns the lowercase Lox-visible type name, e.g. "nil",
	// "boolean", "number", "string", "function", "class", "instance".
	TypeName() string
	String() string
}

// Nil is the singleton nil value.
type Nil struct{}

func (Nil) TypeName() string { return "nil" }
func (Nil) String() string   { return "nil" }

// Bool is a boolean value.
type Bool bool

func (Bool) TypeName() string { return "boolean" }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number is an IEEE-754 double, the only numeric type in the language.
type Number float64

func (Number) TypeName() string { return "number" }
func (n Number) String() string { return fmt.Sprintf("%g", float64(n)) }

// Truthy reports whether v is truthy: everything except nil and false,
// including 0 and the empty string, is truthy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal implements Lox's structural equality for the primitive kinds; the
// vm package extends this to object identity (and, because strings are
// interned, identity-as-equality for strings) via a single type switch in
// vm.valuesEqual.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Number:
		nb, ok := b.(Number)
		return ok && a == nb
	default:
		return a == b
	}
}
