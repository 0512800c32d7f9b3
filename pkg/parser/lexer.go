package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gocondition/pkg/types"
)

const eof = -1

// Lexer converts condition text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	offset  int    // Added to every reported position
	err     *types.Error
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls. After an error, Next returns TokenError.
func (l *Lexer) Next() Token {
	if l.err != nil {
		return Token{Type: TokenError, Position: l.err.Position}
	}

	l.skipWhitespace()
	if l.err != nil {
		return Token{Type: TokenError, Position: l.err.Position}
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., ==, <=, &&)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// String literals (single or double quoted)
	if ch == '"' || ch == '\'' {
		return l.scanString(ch)
	}

	// Number literals
	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	if isNameRune(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. The token value is the
// unescaped content.
func (l *Lexer) scanString(quote rune) Token {
	var b strings.Builder
	for {
		switch r := l.nextRune(); r {
		case quote:
			t := l.newToken(TokenString)
			t.Value = b.String()
			return t
		case '\\':
			esc := l.nextRune()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteRune(esc)
			case eof:
				return l.error(types.ErrStringNotClosed, "Unterminated string literal")
			default:
				return l.error(types.ErrUnsupportedEscape, fmt.Sprintf("Unsupported escape sequence \\%c", esc))
			}
		case eof:
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		default:
			b.WriteRune(r)
		}
	}
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	tt := TokenInt
	l.acceptAll(isDigit)

	// Decimal part. A dot not followed by a digit is a member access.
	if l.peekRune() == '.' && l.current+1 < l.length && isDigit(rune(l.input[l.current+1])) {
		l.nextRune()
		l.acceptAll(isDigit)
		tt = TokenFloat
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		tt = TokenFloat
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrSyntaxError, "Malformed exponent")
		}
	}

	if r := l.peekRune(); isNameRune(r) {
		return l.error(types.ErrSyntaxError, "Malformed number")
	}
	return l.newToken(tt)
}

// scanName reads an identifier or keyword from the current position.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameRune)
	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current + l.offset,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start + l.offset,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peekRune() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	for {
		l.acceptAll(isWhitespace)
		l.ignore()

		// Block comments /* ... */
		if !strings.HasPrefix(l.input[l.current:], "/*") {
			return
		}
		end := strings.Index(l.input[l.current+2:], "*/")
		if end < 0 {
			l.err = &types.Error{
				Code:     types.ErrCommentNotClosed,
				Message:  "Unclosed comment",
				Position: l.current + l.offset,
			}
			return
		}
		l.current += end + 4
		l.ignore()
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameRune(r rune) bool {
	return r == '_' || isDigit(r) || (r != eof && unicode.IsLetter(r))
}
