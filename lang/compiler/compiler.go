// Package compiler implements the single-pass Pratt/recursive-descent
// compiler: it parses Lox source and emits bytecode directly, resolving
// lexical scopes and capturing upvalues as it goes rather than building
// an intermediate AST.
package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/gc"
	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/scanner"
	"github.com/ravener/clox/lang/token"
	"github.com/ravener/clox/lang/value"
	"github.com/sirupsen/logrus"
)

// FuncType distinguishes the four kinds of bytecode bodies the compiler
// produces; initializers and methods need special handling (`this`
// binding, implicit `return this`) that plain functions and the
// top-level script do not.
type FuncType int

//nolint:revive
const (
	TypeFunction FuncType = iota
	TypeScript
	TypeMethod
	TypeInitializer
)

const maxConstants = 256

// Local is a block-scoped local variable as seen by the compiler: its
// declaring token, the scope depth it lives at (-1 while its initializer
// is still being compiled, to reject `var a = a;`), and whether any
// nested function captured it as an upvalue.
type Local struct {
	Name       token.Token
	Depth      int
	IsCaptured bool
}

// UpvalueRef records how a closure's Nth upvalue is sourced: either
// directly from a local slot in the immediately enclosing function
// (IsLocal), or by inheriting the enclosing function's own upvalue at
// Index.
type UpvalueRef struct {
	Index   uint8
	IsLocal bool
}

// funcState is one compiler context per enclosing function, forming a
// stack (via enclosing) that mirrors the nesting of function
// declarations in the source.
type funcState struct {
	enclosing  *funcState
	function   *object.Function
	funcType   FuncType
	locals     []Local
	upvalues   []UpvalueRef
	scopeDepth int
}

// classState tracks whether the class currently being compiled has a
// superclass, so `super` can be rejected outside any class and outside a
// subclass.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler drives a single `interpret` call's source-to-bytecode pass.
type Compiler struct {
	toks     []token.Token
	pos      int
	current  token.Token
	previous token.Token

	gc *gc.Collector
	fs *funcState
	cs *classState

	errs      *multierror.Error
	panicMode bool
}

// Compile tokenizes and compiles source into a top-level *object.Function
// wrapping the whole script, using coll to allocate every heap object the
// compiler itself produces (string and function constants). It returns a
// non-nil error (a *multierror.Error, so every independent panic-mode
// recovery point is visible, not just the first) when compilation fails;
// in that case the returned function is nil.
func Compile(source string, coll *gc.Collector) (*object.Function, error) {
	toks, lexErr := scanner.ScanAll(source)
	c := &Compiler{toks: toks, gc: coll}
	c.fs = &funcState{
		function: object.NewFunction(),
		funcType: TypeScript,
		locals:   []Local{{Name: token.Token{Lexeme: ""}, Depth: 0}},
	}
	coll.NewObject(c.fs.function)

	if lexErr != nil {
		c.errs = multierror.Append(c.errs, lexErr)
	}

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn, _ := c.endFunction()

	if c.errs != nil {
		return nil, c.errs.ErrorOrNil()
	}
	return fn, nil
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	if c.pos >= len(c.toks) {
		c.current = token.Token{Kind: token.EOF, Line: c.previous.Line}
		return
	}
	c.current = c.toks[c.pos]
	c.pos++
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting & panic-mode recovery -----------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	var where string
	if tok.Kind == token.EOF {
		where = " at end"
	} else {
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	err := fmt.Errorf("[line %d] Error%s: %s", tok.Line, where, msg)
	c.errs = multierror.Append(c.errs, err)
	logrus.WithField("component", "compiler").Warn(err)
}

// synchronize advances tokens until a statement boundary, so one parse
// error does not cascade into a wall of spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMI {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (c *Compiler) currentChunk() *chunk.Chunk { return &c.fs.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op chunk.OpCode) { c.currentChunk().WriteOp(op, c.previous.Line) }

func (c *Compiler) emitOpByte(op chunk.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

// emitJump emits a jump opcode with a placeholder 16-bit operand and
// returns the offset of the first placeholder byte, for patchJump.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

// patchJump backfills the jump at offset with the distance from just
// past its operand to the current end of the chunk.
func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
	}
	c.currentChunk().Code[offset] = byte(jump >> 8)
	c.currentChunk().Code[offset+1] = byte(jump)
}

// emitLoop emits a LOOP instruction jumping back to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.LOOP)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("loop body too large")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitReturn() {
	if c.fs.funcType == TypeInitializer {
		c.emitOpByte(chunk.GET_LOCAL, 0)
	} else {
		c.emitOp(chunk.NIL)
	}
	c.emitOp(chunk.RETURN)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.currentChunk().AddConstant(v)
	if idx > maxConstants-1 {
		c.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) { c.emitOpByte(chunk.CONSTANT, c.makeConstant(v)) }

// identifierConstant interns name's lexeme and adds it as a string
// constant, returning its constant-pool index.
func (c *Compiler) identifierConstant(tok token.Token) byte {
	return c.makeConstant(c.gc.InternString(tok.Lexeme))
}

// endFunction finalizes the current funcState's function (emitting the
// implicit trailing return), returns it along with its upvalue
// descriptors, and pops the compiler back to the enclosing funcState.
func (c *Compiler) endFunction() (*object.Function, []UpvalueRef) {
	c.emitReturn()
	fn := c.fs.function
	fn.UpvalueCount = len(c.fs.upvalues)

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.WithField("component", "compiler").Debugf("compiled %s (%d bytes)", fn.String(), len(fn.Chunk.Code))
	}

	upvalues := c.fs.upvalues
	c.fs = c.fs.enclosing
	return fn, upvalues
}
