package vm

import (
	"fmt"
	"strings"
)

// StackFrame is one entry in a RuntimeError's backtrace: the function
// that was executing (or "script" for the top-level frame) and the
// source line its instruction pointer had reached.
type StackFrame struct {
	Name string
	Line int
}

// RuntimeError is returned by Interpret when the dispatch loop aborts
// mid-execution. Its backtrace runs innermost frame first, matching how
// the VM discovers frames while unwinding.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for _, frame := range e.StackTrace {
			b.WriteString(fmt.Sprintf("\n  at %s [line %d]", frame.Name, frame.Line))
		}
	}
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}
