package compiler

import (
	"strconv"
	"strings"

	"github.com/ravener/clox/lang/chunk"
	"github.com/ravener/clox/lang/token"
	"github.com/ravener/clox/lang/value"
)

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

// parsePrecedence is the Pratt-parser core: it runs the current token's
// prefix rule, then keeps consuming infix operators whose precedence is
// at least p. canAssign threads down to prefix/infix rules so that only
// an expression starting at PrecAssignment or looser may be the target
// of `=` — this is what makes `a + b = c` a compile error while `a = c`
// and `a.b = c` are fine.
func (c *Compiler) parsePrecedence(p Precedence) {
	c.advance()
	rule := getRule(c.previous.Kind)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := p <= PrecAssignment
	rule.prefix(c, canAssign)

	for p <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func number(c *Compiler, _ bool) {
	lexeme := c.previous.Lexeme
	var n float64
	if len(lexeme) > 1 && lexeme[0] == '0' && (lexeme[1] == 'x' || lexeme[1] == 'X') {
		i, err := strconv.ParseInt(lexeme[2:], 16, 64)
		if err != nil {
			c.error("Invalid hexadecimal literal.")
			return
		}
		n = float64(i)
	} else {
		var err error
		n, err = strconv.ParseFloat(lexeme, 64)
		if err != nil {
			c.error("Invalid number literal.")
			return
		}
	}
	c.emitConstant(value.Number(n))
}

func stringLiteral(c *Compiler, _ bool) {
	lexeme := c.previous.Lexeme
	unquoted := unescapeString(lexeme[1 : len(lexeme)-1])
	c.emitConstant(c.gc.InternString(unquoted))
}

// unescapeString processes the handful of backslash escapes Lox string
// literals support.
func unescapeString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(chunk.FALSE)
	case token.TRUE:
		c.emitOp(chunk.TRUE)
	case token.NIL:
		c.emitOp(chunk.NIL)
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(chunk.NOT)
	case token.MINUS:
		c.emitOp(chunk.NEGATE)
	}
}

func binary(c *Compiler, _ bool) {
	opKind := c.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQ:
		c.emitOp(chunk.EQUAL)
		c.emitOp(chunk.NOT)
	case token.EQ_EQ:
		c.emitOp(chunk.EQUAL)
	case token.GT:
		c.emitOp(chunk.GREATER)
	case token.GT_EQ:
		c.emitOp(chunk.LESS)
		c.emitOp(chunk.NOT)
	case token.LT:
		c.emitOp(chunk.LESS)
	case token.LT_EQ:
		c.emitOp(chunk.GREATER)
		c.emitOp(chunk.NOT)
	case token.PLUS:
		c.emitOp(chunk.ADD)
	case token.MINUS:
		c.emitOp(chunk.SUBTRACT)
	case token.STAR:
		c.emitOp(chunk.MULTIPLY)
	case token.SLASH:
		c.emitOp(chunk.DIVIDE)
	}
}

// ternary compiles `cond ? then : else`, parsed at PrecAssignment and
// right-associative in both arms, exactly mirroring how `=` associates.
func ternary(c *Compiler, _ bool) {
	thenJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.parsePrecedence(PrecAssignment)

	elseJump := c.emitJump(chunk.JUMP)
	c.patchJump(thenJump)
	c.emitOp(chunk.POP)

	c.consume(token.COLON, "Expect ':' after then branch of ternary expression.")
	c.parsePrecedence(PrecAssignment)
	c.patchJump(elseJump)
}

// and_ and or_ implement short-circuit logical operators: JUMP_IF_FALSE
// is non-destructive, so the left operand's value is left on the stack
// as the overall result when it already decides the outcome.
func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(chunk.JUMP_IF_FALSE)
	c.emitOp(chunk.POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(chunk.JUMP_IF_FALSE)
	endJump := c.emitJump(chunk.JUMP)

	c.patchJump(elseJump)
	c.emitOp(chunk.POP)

	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg byte

	if slot := resolveLocal(c.fs, name); slot != -1 {
		if c.fs.locals[slot].Depth == -1 {
			c.error("Can't read local variable in its own initializer.")
		}
		getOp, setOp = chunk.GET_LOCAL, chunk.SET_LOCAL
		arg = byte(slot)
	} else if slot := resolveUpvalue(c.fs, name); slot != -1 {
		getOp, setOp = chunk.GET_UPVALUE, chunk.SET_UPVALUE
		arg = byte(slot)
	} else {
		getOp, setOp = chunk.GET_GLOBAL, chunk.SET_GLOBAL
		arg = c.identifierConstant(name)
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpByte(setOp, arg)
	} else {
		c.emitOpByte(getOp, arg)
	}
}

func this_(c *Compiler, _ bool) {
	if c.cs == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	variable(c, false)
}

func super_(c *Compiler, _ bool) {
	if c.cs == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cs.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(thisToken(c.previous.Line), false)
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariable(superToken(c.previous.Line), false)
		c.emitOp(chunk.SUPER_INVOKE)
		c.emitByte(name)
		c.emitByte(argCount)
		return
	}

	c.namedVariable(superToken(c.previous.Line), false)
	c.emitOpByte(chunk.GET_SUPER, name)
}

func thisToken(line int) token.Token  { return token.Token{Kind: token.IDENT, Lexeme: "this", Line: line} }
func superToken(line int) token.Token { return token.Token{Kind: token.IDENT, Lexeme: "super", Line: line} }

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(chunk.CALL, argCount)
}

func (c *Compiler) argumentList() byte {
	var argCount int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argCount == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argCount)
}

func dot(c *Compiler, canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpByte(chunk.SET_PROPERTY, name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOp(chunk.INVOKE)
		c.emitByte(name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(chunk.GET_PROPERTY, name)
	}
}
