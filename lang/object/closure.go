package object

// Closure is the runtime pairing of a compiled Function with the
// upvalues it captured at the point the CLOSURE opcode built it. Two
// closures over the same Function may bind different upvalues (e.g. two
// invocations of an outer function each producing their own counter).
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure allocates a Closure over fn with nil upvalue slots ready to
// be filled in by the CLOSURE opcode handler.
func NewClosure(fn *Function) *Closure {
	return &Closure{
		Header:   newHeader(KindClosure),
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
}

func (c *Closure) TypeName() string { return "function" }
func (c *Closure) String() string   { return c.Function.String() }
func (c *Closure) Size() int        { return 32 + 8*len(c.Upvalues) }
