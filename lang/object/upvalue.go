package object

import "github.com/ravener/clox/lang/value"

// Upvalue mediates a closure's access to a variable captured from an
// enclosing scope. It is open while the variable is still live on the VM
// value stack (Location points into the stack) and closed once that
// frame returns (Location points at the Upvalue's own Closed field).
//
// Open upvalues form a singly-linked list (via NextOpen, separate from
// Header's heap-list Next) sorted in strictly descending order by
// Location, so the VM can find
// and close exactly the right suffix of the list in one pass.
type Upvalue struct {
	Header
	Location *value.Value
	Closed   value.Value
	NextOpen *Upvalue // next node in the VM's open-upvalues list, not the heap list
}

// NewUpvalue creates an open upvalue pointing at slot.
func NewUpvalue(slot *value.Value) *Upvalue {
	return &Upvalue{Header: newHeader(KindUpvalue), Location: slot}
}

func (u *Upvalue) TypeName() string { return "upvalue" }
func (u *Upvalue) String() string   { return "<upvalue>" }
func (u *Upvalue) Size() int        { return 24 }

// Close hoists the current value out of the stack and into Closed,
// redirecting Location to point at it. After this, the upvalue is
// self-contained and survives its originating frame's return.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}
