package object

import "github.com/ravener/clox/lang/chunk"

// Function is the compiled form of a function or method body: its
// arity, how many upvalues its closures must capture, the bytecode
// itself, and an optional name (top-level scripts are anonymous).
type Function struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        chunk.Chunk
	Name         *String // nil for the implicit top-level script
}

// NewFunction creates an unlinked Function; the compiler links it into
// the heap (through gc.Collector.NewObject) right after creating it,
// before its Chunk is compiled.
func NewFunction() *Function {
	return &Function{Header: newHeader(KindFunction)}
}

func (f *Function) TypeName() string { return "function" }

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

func (f *Function) Size() int { return 64 + len(f.Chunk.Code) }
