package scanner_test

import (
	"testing"

	"github.com/ravener/clox/lang/scanner"
	"github.com/ravener/clox/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	toks, err := scanner.ScanAll(src)
	require.NoError(t, err)
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanPunctuationAndOperators(t *testing.T) {
	got := kinds(t, "( ) { } , . - + ; / * ? : ! != = == < <= > >=")
	want := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA,
		token.DOT, token.MINUS, token.PLUS, token.SEMI, token.SLASH, token.STAR,
		token.QMARK, token.COLON, token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanKeywordsAndIdent(t *testing.T) {
	got := kinds(t, "and class var foo")
	assert.Equal(t, []token.Kind{token.AND, token.CLASS, token.VAR, token.IDENT, token.EOF}, got)
}

func TestScanNumbers(t *testing.T) {
	toks, err := scanner.ScanAll("123 45.6 0xFF 0X10")
	require.NoError(t, err)
	lexemes := []string{toks[0].Lexeme, toks[1].Lexeme, toks[2].Lexeme, toks[3].Lexeme}
	assert.Equal(t, []string{"123", "45.6", "0xFF", "0X10"}, lexemes)
}

func TestScanStrings(t *testing.T) {
	toks, err := scanner.ScanAll(`"hello\nworld" "multi
line"`)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, token.STRING, toks[1].Kind)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanComments(t *testing.T) {
	got := kinds(t, "1 // a comment\n+ 2")
	assert.Equal(t, []token.Kind{token.NUMBER, token.PLUS, token.NUMBER, token.EOF}, got)
}

func TestScanUnterminatedStringReportsError(t *testing.T) {
	_, err := scanner.ScanAll(`"unterminated`)
	require.Error(t, err)
}

func TestScanUnexpectedCharacterContinuesPastIt(t *testing.T) {
	toks, err := scanner.ScanAll("1 @ 2")
	require.Error(t, err)
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.EOF}, kinds)
}
