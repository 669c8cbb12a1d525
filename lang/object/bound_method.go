package object

import "github.com/ravener/clox/lang/value"

// BoundMethod pairs a receiver instance with one of its class's method
// closures, produced by GET_PROPERTY when the looked-up name resolves to
// a method rather than a field. Calling it is equivalent to calling the
// method closure with the receiver pre-bound into local slot 0.
type BoundMethod struct {
	Header
	Receiver value.Value
	Method   *Closure
}

// NewBoundMethod allocates an unlinked BoundMethod.
func NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	return &BoundMethod{Header: newHeader(KindBoundMethod), Receiver: receiver, Method: method}
}

func (b *BoundMethod) TypeName() string { return "function" }
func (b *BoundMethod) String() string   { return b.Method.String() }
func (b *BoundMethod) Size() int        { return 24 }
