package sexp

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenAtom
	TokenString
)

// Token represents a lexical token with its location in the source.
type Token struct {
	Type   TokenType
	Value  string // unescaped value for strings, literal text for atoms
	Start  int    // byte offset of the first token byte
	End    int    // byte offset one past the last token byte
	Trivia string // whitespace/comments preceding the token
}

// Lexer tokenizes S-expression source held fully in memory. Keeping the whole
// input around is what lets the parser hand out byte spans for free.
type Lexer struct {
	src []byte
	pos int
}

// NewLexer creates a lexer over the given source bytes.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src}
}

// NextToken reads the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	triviaStart := l.pos
	l.skipTrivia()
	trivia := string(l.src[triviaStart:l.pos])

	if l.pos >= len(l.src) {
		return Token{Type: TokenEOF, Start: l.pos, End: l.pos, Trivia: trivia}, nil
	}

	start := l.pos
	switch l.src[l.pos] {
	case '(':
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Start: start, End: l.pos, Trivia: trivia}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Start: start, End: l.pos, Trivia: trivia}, nil
	case '"':
		return l.readString(trivia)
	default:
		return l.readAtom(trivia)
	}
}

// skipTrivia consumes whitespace and #-comments.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

// readString reads a double-quoted string with backslash escapes.
func (l *Lexer) readString(trivia string) (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &ParseError{Offset: start, Msg: "unterminated string"}
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return Token{}, &ParseError{Offset: l.pos, Msg: "unexpected EOF after backslash"}
			}
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				// Unknown escape, keep it as-is.
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}

	return Token{Type: TokenString, Value: sb.String(), Start: start, End: l.pos, Trivia: trivia}, nil
}

// readAtom reads an unquoted token (tag, keyword, number).
func (l *Lexer) readAtom(trivia string) (Token, error) {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
			c == '(' || c == ')' || c == '"' || c == '#' {
			break
		}
		l.pos++
	}
	if l.pos == start {
		r, _ := utf8.DecodeRune(l.src[start:])
		return Token{}, &ParseError{Offset: start, Msg: fmt.Sprintf("unexpected character %q", r)}
	}
	return Token{Type: TokenAtom, Value: string(l.src[start:l.pos]), Start: start, End: l.pos, Trivia: trivia}, nil
}
