package chunk_test

import (
	"testing"

	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestWriteAndLine(t *testing.T) {
	var c chunk.Chunk
	c.WriteOp(chunk.CONSTANT, 1)
	c.Write(0, 1)
	c.WriteOp(chunk.RETURN, 2)

	assert.Equal(t, []byte{byte(chunk.CONSTANT), 0, byte(chunk.RETURN)}, c.Code)
	assert.Equal(t, 1, c.Line(0))
	assert.Equal(t, 1, c.Line(1))
	assert.Equal(t, 2, c.Line(2))
}

func TestLineOutOfRange(t *testing.T) {
	var c chunk.Chunk
	c.WriteOp(chunk.RETURN, 1)
	assert.Equal(t, -1, c.Line(-1))
	assert.Equal(t, -1, c.Line(5))
}

func TestAddConstant(t *testing.T) {
	var c chunk.Chunk
	idx1 := c.AddConstant(value.Number(1))
	idx2 := c.AddConstant(value.Number(2))
	assert.Equal(t, 0, idx1)
	assert.Equal(t, 1, idx2)
	assert.Equal(t, value.Number(1), c.Constants[idx1])
}
