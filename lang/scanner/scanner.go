// Package scanner tokenizes Lox source text for the compiler. It is a
// thin, eager lexer: the whole source is scanned up front into a Token
// stream, since the language has no preprocessor and the compiler never
// needs to look further back than one token.
package scanner

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ravener/clox/lang/token"
)

// Scanner turns source bytes into a stream of token.Token values.
type Scanner struct {
	src     string
	start   int
	current int
	line    int
}

// New creates a Scanner over src, ready to produce its first token at
// line 1.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// ScanAll tokenizes the entire source and returns the resulting tokens,
// always terminated by a single token.EOF. Lex errors (unterminated
// strings, unrecognized characters) do not stop scanning: each is
// appended to the returned multierror.Error so the caller can report
// every lex error from a single pass, matching the panic-mode recovery
// the compiler performs for parse errors.
func ScanAll(src string) ([]token.Token, error) {
	s := New(src)
	var toks []token.Token
	var errs *multierror.Error
	for {
		tok, err := s.Next()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, errs.ErrorOrNil()
}

// Next scans and returns the next token. On a lex error it returns a
// zero Token and a non-nil error; the scanner has already advanced past
// the offending input and is ready to continue.
func (s *Scanner) Next() (token.Token, error) {
	s.skipWhitespaceAndComments()
	s.start = s.current
	if s.atEnd() {
		return s.make(token.EOF), nil
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier(), nil
	}
	if isDigit(c) {
		return s.number(), nil
	}

	switch c {
	case '(':
		return s.make(token.LPAREN), nil
	case ')':
		return s.make(token.RPAREN), nil
	case '{':
		return s.make(token.LBRACE), nil
	case '}':
		return s.make(token.RBRACE), nil
	case ',':
		return s.make(token.COMMA), nil
	case '.':
		return s.make(token.DOT), nil
	case '-':
		return s.make(token.MINUS), nil
	case '+':
		return s.make(token.PLUS), nil
	case ';':
		return s.make(token.SEMI), nil
	case '*':
		return s.make(token.STAR), nil
	case '?':
		return s.make(token.QMARK), nil
	case ':':
		return s.make(token.COLON), nil
	case '/':
		return s.make(token.SLASH), nil
	case '!':
		return s.make(s.selectKind('=', token.BANG_EQ, token.BANG)), nil
	case '=':
		return s.make(s.selectKind('=', token.EQ_EQ, token.EQ)), nil
	case '<':
		return s.make(s.selectKind('=', token.LT_EQ, token.LT)), nil
	case '>':
		return s.make(s.selectKind('=', token.GT_EQ, token.GT)), nil
	case '"':
		return s.string()
	}

	return token.Token{}, s.errorf("unexpected character %q", c)
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		if s.atEnd() {
			return
		}
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekAt(1) == '/' {
				for !s.atEnd() && s.peek() != '\n' {
					s.current++
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	text := s.src[s.start:s.current]
	kind, ok := token.Keywords[text]
	if !ok {
		kind = token.IDENT
	}
	return s.make(kind)
}

func (s *Scanner) number() token.Token {
	if s.src[s.start] == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.current++
		for isHexDigit(s.peek()) {
			s.current++
		}
		return s.make(token.NUMBER)
	}

	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.current++ // consume '.'
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) string() (token.Token, error) {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return token.Token{}, s.errorf("unterminated string")
	}
	s.current++ // closing quote
	return s.make(token.STRING), nil
}

func (s *Scanner) selectKind(next byte, matched, unmatched token.Kind) token.Kind {
	if s.peek() == next {
		s.current++
		return matched
	}
	return unmatched
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: s.src[s.start:s.current], Line: s.line}
}

func (s *Scanner) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", s.line, fmt.Sprintf(format, args...))
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekAt(offset int) byte {
	if s.current+offset >= len(s.src) {
		return 0
	}
	return s.src[s.current+offset]
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
