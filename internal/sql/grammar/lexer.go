package grammar

import (
	"fmt"
	"unicode/utf8"
)

// Position locates a token in the source. Line and Column are 1-based and
// count bytes, Offset is 0-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIllegal
	tokWord
	tokNumber
	tokComma
	tokParenOpen
	tokParenClose
	tokSemicolon
)

type token struct {
	kind tokenKind
	text string
	pos  Position
	end  int
}

// describe renders the token the way it appears in a syntax error.
func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokIllegal:
		return fmt.Sprintf("illegal character %q", t.text)
	case tokWord, tokNumber:
		return fmt.Sprintf("%q", t.text)
	default:
		return "'" + t.text + "'"
	}
}

type lexer struct {
	src          string
	position     int
	readPosition int
	ch           byte
	line         int
	col          int
}

func newLexer(src string) *lexer {
	l := &lexer{src: src, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPosition >= len(l.src) {
		l.ch = 0
	} else {
		l.ch = l.src[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.col++
}

func (l *lexer) next() token {
	l.skipWhitespace()

	pos := Position{Offset: l.position, Line: l.line, Column: l.col}
	if l.position >= len(l.src) {
		return token{kind: tokEOF, pos: pos, end: l.position}
	}

	var kind tokenKind
	switch c := l.ch; {
	case c == ',':
		kind = tokComma
		l.readChar()
	case c == '(':
		kind = tokParenOpen
		l.readChar()
	case c == ')':
		kind = tokParenClose
		l.readChar()
	case c == ';':
		kind = tokSemicolon
		l.readChar()
	case isLetter(c) || c == '_':
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		kind = tokWord
	case isDigit(c):
		for isDigit(l.ch) {
			l.readChar()
		}
		kind = tokNumber
	default:
		// consume a whole rune so the error shows the character as typed
		_, size := utf8.DecodeRuneInString(l.src[l.position:])
		for i := 0; i < size; i++ {
			l.readChar()
		}
		kind = tokIllegal
	}

	return token{
		kind: kind,
		text: l.src[pos.Offset:l.position],
		pos:  pos,
		end:  l.position,
	}
}

func (l *lexer) skipWhitespace() {
	for l.position < len(l.src) && isSpace(l.ch) {
		l.readChar()
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
