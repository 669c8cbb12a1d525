package object

import "github.com/ravener/clox/lang/value"

// NativeFn is a host callable wrapped by Native: it receives its argument
// slice (argc is len(args)) and returns a result or an error. An error
// becomes a Lox runtime error reported at the call site.
type NativeFn func(args []value.Value) (value.Value, error)

// Native wraps a host function so it can sit in the value stack and be
// invoked through the same CALL opcode as a Closure.
type Native struct {
	Header
	Name string
	Fn   NativeFn
}

// NewNative creates an unlinked Native; link it with Heap.Allocate.
func NewNative(name string, fn NativeFn) *Native {
	return &Native{Header: newHeader(KindNative), Name: name, Fn: fn}
}

func (n *Native) TypeName() string { return "native function" }
func (n *Native) String() string   { return "<native fn " + n.Name + ">" }
func (n *Native) Size() int        { return 32 }
