// Package scanner implements the TAC lexical analyzer: a source string
// goes in, a stream of token.Token comes out one call to NextToken at a
// time, ending in an Eof token forever after.
package scanner

import (
	"tacvm/token"
)

type sourceChar struct {
	offset int
	ch     rune
}

// Scanner tokenizes a source string on demand.
type Scanner struct {
	source string
	chars  []sourceChar
	start  int
	current int
	line    int
}

// New precomputes the (byte offset, rune) table for source so that
// lexeme slicing never splits a multi-byte character.
func New(source string) *Scanner {
	chars := make([]sourceChar, 0, len(source))
	for i, r := range source {
		chars = append(chars, sourceChar{offset: i, ch: r})
	}

	return &Scanner{
		source: source,
		chars:  chars,
		line:   1,
	}
}

// NextToken returns the next token in the stream.
func (s *Scanner) NextToken() token.Token {
	s.skipNonTokens()

	s.start = s.current

	if s.isAtEnd() {
		return s.makeToken(token.Eof)
	}

	c := s.advance()

	switch {
	case c == '\n':
		// advance already counted this newline; the token reports the
		// line it ends.
		return token.Token{Kind: token.NewLine, Lexeme: s.lexeme(), Line: s.line - 1}
	case c == '(':
		return s.makeToken(token.LeftParen)
	case c == ')':
		return s.makeToken(token.RightParen)
	case c == '{':
		return s.makeToken(token.LeftBrace)
	case c == '}':
		return s.makeToken(token.RightBrace)
	case c == '[':
		return s.makeToken(token.LeftBrack)
	case c == ']':
		return s.makeToken(token.RightBrack)
	case c == ';':
		return s.makeToken(token.Semicolon)
	case c == ',':
		return s.makeToken(token.Comma)
	case c == '.':
		return s.makeToken(token.Dot)
	case c == '-':
		return s.makeToken(token.Minus)
	case c == '+':
		return s.makeToken(token.Plus)
	case c == '/':
		return s.makeToken(token.Slash)
	case c == '*':
		return s.makeToken(token.Star)
	case c == '%':
		return s.makeToken(token.Percent)
	case c == ':':
		return s.makeToken(token.Colon)
	case c == '&':
		return s.makeToken(token.Amp)

	case c == '!':
		if s.matchAdvance('=') {
			return s.makeToken(token.BangEqual)
		}
		return s.makeToken(token.Bang)

	case c == '=':
		if s.matchAdvance('=') {
			return s.makeToken(token.EqualEqual)
		}
		return s.makeToken(token.Equal)

	case c == '<':
		if s.matchAdvance('<') {
			return s.makeToken(token.ShiftLeft)
		}
		if s.matchAdvance('=') {
			return s.makeToken(token.LessEqual)
		}
		return s.makeToken(token.Less)

	case c == '>':
		if s.matchAdvance('>') {
			return s.makeToken(token.ShiftRight)
		}
		if s.matchAdvance('=') {
			return s.makeToken(token.GreaterEqual)
		}
		return s.makeToken(token.Greater)

	case c == '"':
		return s.string()
	case c == '\'':
		return s.char()

	case isAsciiAlpha(c) || c == '_':
		return s.identifier()
	case isAsciiDigit(c):
		return s.number()

	default:
		return s.errorToken("Unexpected character")
	}
}

func (s *Scanner) string() token.Token {
	for s.matchPred(func(c rune) bool { return c != '"' }) {
	}

	if s.isAtEnd() {
		return s.errorToken("Unterminated string")
	}

	s.advance()
	return s.makeToken(token.String)
}

func (s *Scanner) char() token.Token {
	count := 0
	for s.matchPred(func(c rune) bool { return c != '\'' }) {
		count++
	}

	if s.isAtEnd() {
		return s.errorToken("Unterminated character")
	}

	s.advance()

	if count > 1 {
		return s.errorToken("Character literal may only contain one character")
	}
	return s.makeToken(token.Char)
}

func (s *Scanner) number() token.Token {
	for s.matchPred(isAsciiDigit) {
	}

	if s.matchAdvance('.') {
		for s.matchPred(isAsciiDigit) {
		}
	}

	// suffix
	for s.matchPred(isAsciiAlphanumeric) {
	}

	return s.makeToken(token.Number)
}

func (s *Scanner) identifier() token.Token {
	for s.matchPred(func(c rune) bool { return isAsciiAlphanumeric(c) || c == '_' }) {
	}

	return s.makeToken(token.LookupIdent(s.lexeme()))
}

func (s *Scanner) matchAdvance(expected rune) bool {
	if c, ok := s.peek(); ok && c == expected {
		s.advance()
		return true
	}
	return false
}

func (s *Scanner) matchPred(pred func(rune) bool) bool {
	if c, ok := s.peek(); ok && pred(c) {
		s.advance()
		return true
	}
	return false
}

func (s *Scanner) advance() rune {
	c := s.chars[s.current].ch
	s.current++
	if c == '\n' {
		s.line++
	}
	return c
}

func (s *Scanner) peek() (rune, bool) {
	if s.current >= len(s.chars) {
		return 0, false
	}
	return s.chars[s.current].ch, true
}

func (s *Scanner) isAtEnd() bool {
	return s.current == len(s.chars)
}

func (s *Scanner) lexeme() string {
	return s.lexemeAt(s.start, s.current)
}

func (s *Scanner) lexemeAt(start, end int) string {
	left := len(s.source)
	if start < len(s.chars) {
		left = s.chars[start].offset
	}

	right := len(s.source)
	if end < len(s.chars) {
		right = s.chars[end].offset
	}

	return s.source[left:right]
}

func (s *Scanner) makeToken(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: s.lexeme(), Line: s.line}
}

func (s *Scanner) errorToken(message string) token.Token {
	return token.Token{Kind: token.Error, Lexeme: message, Line: s.line}
}

// skipNonTokens consumes horizontal whitespace and line comments before
// the next token. Newline is never skipped here — it is a token.
func (s *Scanner) skipNonTokens() {
	for {
		c, ok := s.peek()
		if !ok || c == '\n' {
			return
		}

		if c == '#' {
			s.advance()
			for {
				cc, ok := s.peek()
				if !ok || cc == '\n' {
					break
				}
				s.advance()
			}
			continue
		}

		if isHorizontalSpace(c) {
			s.advance()
			continue
		}

		return
	}
}

func isHorizontalSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func isAsciiAlpha(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isAsciiDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isAsciiAlphanumeric(c rune) bool {
	return isAsciiAlpha(c) || isAsciiDigit(c)
}
