package debug_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/debug"
	"github.com/ravener/clox/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassembleRoundTripsLineTable(t *testing.T) {
	var c chunk.Chunk
	idx := c.AddConstant(value.Number(7))
	c.WriteOp(chunk.CONSTANT, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(chunk.NEGATE, 2)
	c.WriteOp(chunk.RETURN, 3)

	out := debug.Disassemble(&c, "test")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	// header + one line per instruction (CONSTANT, NEGATE, RETURN)
	require.Len(t, lines, 4)
	assert.Equal(t, "== test ==", lines[0])

	for offset, wantLine := range map[int]int{0: 1, 2: 2, 3: 3} {
		got := debug.DisassembleInstruction(&c, offset)
		assert.Contains(t, got, strconv.Itoa(wantLine), "disassembly at offset %d should show line %d", offset, wantLine)
	}
}

func TestDisassembleOmitsRepeatedLineNumber(t *testing.T) {
	var c chunk.Chunk
	idx := c.AddConstant(value.Number(1))
	c.WriteOp(chunk.CONSTANT, 5)
	c.Write(byte(idx), 5)
	c.WriteOp(chunk.POP, 5)

	out := debug.Disassemble(&c, "same-line")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "|", "second instruction on the same line should print the '|' placeholder")
}

func TestDisassembleInstructionDoesNotAdvanceChunkState(t *testing.T) {
	var c chunk.Chunk
	c.WriteOp(chunk.RETURN, 1)

	first := debug.DisassembleInstruction(&c, 0)
	second := debug.DisassembleInstruction(&c, 0)
	assert.Equal(t, first, second)
}
