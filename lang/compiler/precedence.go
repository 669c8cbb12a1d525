package compiler

import "github.com/ravener/clox/lang/token"

// Precedence orders the binding strength of infix operators, low to
// high, for the Pratt parser in expr.go.
type Precedence int

//nolint:revive
const (
	PrecNone       Precedence = iota
	PrecAssignment            // = , and the ternary ?:
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type (
	prefixFn func(c *Compiler, canAssign bool)
	infixFn  func(c *Compiler, canAssign bool)
)

type parseRule struct {
	prefix     prefixFn
	infix      infixFn
	precedence Precedence
}

// rules is the static table mapping each token kind to its prefix rule,
// infix rule, and infix precedence. Assignment ('=') has deliberately no
// entry here: it is handled inside the rules that can produce an
// assignment target (the variable prefix rule, the dot infix rule), exactly as in the reference
// design, so that "a + b = c" fails to parse while "a.b = c" succeeds.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:  {prefix: grouping, infix: call, precedence: PrecCall},
		token.DOT:     {infix: dot, precedence: PrecCall},
		token.MINUS:   {prefix: unary, infix: binary, precedence: PrecTerm},
		token.PLUS:    {infix: binary, precedence: PrecTerm},
		token.SLASH:   {infix: binary, precedence: PrecFactor},
		token.STAR:    {infix: binary, precedence: PrecFactor},
		token.BANG:    {prefix: unary},
		token.BANG_EQ: {infix: binary, precedence: PrecEquality},
		token.EQ_EQ:   {infix: binary, precedence: PrecEquality},
		token.GT:      {infix: binary, precedence: PrecComparison},
		token.GT_EQ:   {infix: binary, precedence: PrecComparison},
		token.LT:      {infix: binary, precedence: PrecComparison},
		token.LT_EQ:   {infix: binary, precedence: PrecComparison},
		token.IDENT:   {prefix: variable},
		token.STRING:  {prefix: stringLiteral},
		token.NUMBER:  {prefix: number},
		token.AND:     {infix: and_, precedence: PrecAnd},
		token.OR:      {infix: or_, precedence: PrecOr},
		token.FALSE:   {prefix: literal},
		token.TRUE:    {prefix: literal},
		token.NIL:     {prefix: literal},
		token.THIS:    {prefix: this_},
		token.SUPER:   {prefix: super_},
		token.QMARK:   {infix: ternary, precedence: PrecAssignment},
	}
}

func getRule(k token.Kind) parseRule { return rules[k] }
