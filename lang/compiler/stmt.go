package compiler

import (
	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/object"
	"github.com/ravener/clox/lang/token"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(chunk.PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(chunk.POP)
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.statement()

	elseJump := c.emitJump(chunk.JUMP)
	c.patchJump(thenJump)
	c.emitOp(chunk.POP)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.POP)
}

// forStatement desugars `for (init; cond; incr) body` into the
// equivalent while-loop bytecode shape, scoped so `init`'s variable (if
// any) does not leak past the loop — the classic clox desugaring, kept
// verbatim because the spec's closure-capture testable property (§8.6)
// depends on the loop variable being declared once per loop, not once
// per iteration, exactly as this desugaring produces.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = c.emitJump(chunk.JUMP_IF_FALSE)
		c.emitOp(chunk.POP)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(chunk.JUMP)
		incrStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(chunk.POP)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.POP)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.fs.funcType == TypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}
	if c.fs.funcType == TypeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(chunk.RETURN)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(chunk.NIL)
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

// parseVariable consumes the variable's name, declares it as a local if
// inside a scope, and — only for globals — returns its name-constant
// index for defineVariable to emit DEFINE_GLOBAL with.
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	name := c.previous
	c.declareVariable(name)
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(chunk.DEFINE_GLOBAL, global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(TypeFunction)
	c.defineVariable(global)
}

// function compiles a function body (shared by top-level `fun`
// declarations and method bodies) into a fresh funcState, then emits
// CLOSURE in the enclosing chunk followed by each captured upvalue's
// (isLocal, index) descriptor pair.
func (c *Compiler) function(funcType FuncType) {
	fn := object.NewFunction()
	c.gc.NewObject(fn)
	if funcType != TypeScript {
		fn.Name = c.gc.InternString(c.previous.Lexeme)
	}

	c.fs = &funcState{
		enclosing: c.fs,
		function:  fn,
		funcType:  funcType,
		locals:    []Local{{Name: receiverSlotName(funcType), Depth: 0}},
	}

	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			c.fs.function.Arity++
			if c.fs.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	compiled, upvalues := c.endFunction()
	c.emitOpByte(chunk.CLOSURE, c.makeConstant(compiled))
	for _, uv := range upvalues {
		if uv.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.Index)
	}
}

// receiverSlotName names local slot 0: the receiver for methods, or an
// unnameable empty identifier for plain functions and the script (so
// user code can never reference it by name).
func receiverSlotName(funcType FuncType) token.Token {
	if funcType == TypeMethod || funcType == TypeInitializer {
		return token.Token{Lexeme: "this"}
	}
	return token.Token{Lexeme: ""}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className)
	c.declareVariable(className)

	c.emitOpByte(chunk.CLASS, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.cs}
	c.cs = cs

	if c.match(token.LT) {
		c.consume(token.IDENT, "Expect superclass name.")
		variable(c, false)
		if className.Lexeme == c.previous.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(superToken(c.previous.Line))
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(chunk.INHERIT)
		cs.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(chunk.POP)

	if cs.hasSuperclass {
		c.endScope()
	}
	c.cs = c.cs.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.previous
	constant := c.identifierConstant(name)

	funcType := TypeMethod
	if name.Lexeme == "init" {
		funcType = TypeInitializer
	}
	c.function(funcType)
	c.emitOpByte(chunk.METHOD, constant)
}
