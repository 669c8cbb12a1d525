// Package debug implements the bytecode disassembler used by the
// --trace CLI flag and by this package's tests that check the line table
// round-trips correctly.
package debug

import (
	"fmt"
	"strings"

	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/object"
)

// Disassemble renders every instruction in c under the given name, one
// line per instruction, in the classic clox `== name ==` format.
func Disassemble(c *chunk.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		line, next := disassembleInstructionAt(c, offset)
		b.WriteString(line)
		b.WriteByte('\n')
		offset = next
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction at offset,
// without advancing past it — used by the VM's --trace mode to log one
// line per executed instruction.
func DisassembleInstruction(c *chunk.Chunk, offset int) string {
	line, _ := disassembleInstructionAt(c, offset)
	return line
}

func disassembleInstructionAt(c *chunk.Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if offset > 0 && c.Line(offset) == c.Line(offset-1) {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Line(offset))
	}

	op := chunk.OpCode(c.Code[offset])
	switch op {
	case chunk.CONSTANT, chunk.GET_GLOBAL, chunk.DEFINE_GLOBAL, chunk.SET_GLOBAL,
		chunk.CLASS, chunk.GET_PROPERTY, chunk.SET_PROPERTY, chunk.GET_SUPER, chunk.METHOD:
		return constantInstruction(&b, op, c, offset)
	case chunk.GET_LOCAL, chunk.SET_LOCAL, chunk.GET_UPVALUE, chunk.SET_UPVALUE, chunk.CALL:
		return byteInstruction(&b, op, c, offset)
	case chunk.INVOKE, chunk.SUPER_INVOKE:
		return invokeInstruction(&b, op, c, offset)
	case chunk.JUMP, chunk.JUMP_IF_FALSE:
		return jumpInstruction(&b, op, 1, c, offset)
	case chunk.LOOP:
		return jumpInstruction(&b, op, -1, c, offset)
	case chunk.CLOSURE:
		return closureInstruction(&b, c, offset)
	default:
		b.WriteString(op.String())
		return b.String(), offset + 1
	}
}

func constantInstruction(b *strings.Builder, op chunk.OpCode, c *chunk.Chunk, offset int) (string, int) {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'", op, idx, c.Constants[idx])
	return b.String(), offset + 2
}

func byteInstruction(b *strings.Builder, op chunk.OpCode, c *chunk.Chunk, offset int) (string, int) {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d", op, slot)
	return b.String(), offset + 2
}

func invokeInstruction(b *strings.Builder, op chunk.OpCode, c *chunk.Chunk, offset int) (string, int) {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'", op, argCount, idx, c.Constants[idx])
	return b.String(), offset + 3
}

func jumpInstruction(b *strings.Builder, op chunk.OpCode, sign int, c *chunk.Chunk, offset int) (string, int) {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d", op, offset, target)
	return b.String(), offset + 3
}

func closureInstruction(b *strings.Builder, c *chunk.Chunk, offset int) (string, int) {
	idx := c.Code[offset+1]
	fn := c.Constants[idx]
	fmt.Fprintf(b, "%-16s %4d '%s'", chunk.CLOSURE, idx, fn)
	offset += 2

	upvalueCount := 0
	if f, ok := fn.(*object.Function); ok {
		upvalueCount = f.UpvalueCount
	}
	for i := 0; i < upvalueCount; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		fmt.Fprintf(b, "\n%04d      |                     %s %d", offset, kind, index)
		offset += 2
	}
	return b.String(), offset
}
