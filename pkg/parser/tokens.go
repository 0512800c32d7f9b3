package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInt     // 42
	TokenFloat   // 3.14, 1e-3
	TokenString  // "hello" or 'hello'
	TokenBoolean // true, false
	TokenName    // Subject

	// Grouping symbols
	TokenParenOpen  // (
	TokenParenClose // )
	TokenBraceOpen  // {
	TokenBraceClose // }

	// Basic symbols
	TokenDot       // .
	TokenComma     // ,
	TokenSemicolon // ;
	TokenQuestion  // ?
	TokenColon     // :
	TokenAssign    // =

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenMod   // %

	// Comparison operators
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Logical operators
	TokenNot // ! or not
	TokenAnd // && or and
	TokenOr  // || or or

	// Statement keywords
	TokenLet    // let, var
	TokenIf     // if
	TokenElse   // else
	TokenReturn // return
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenInt:
		return "(int)"
	case TokenFloat:
		return "(float)"
	case TokenString:
		return "(string)"
	case TokenBoolean:
		return "(boolean)"
	case TokenName:
		return "(name)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenSemicolon:
		return ";"
	case TokenQuestion:
		return "?"
	case TokenColon:
		return ":"
	case TokenAssign:
		return "="
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenMod:
		return "%"
	case TokenEqual:
		return "=="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenNot:
		return "!"
	case TokenAnd:
		return "&&"
	case TokenOr:
		return "||"
	case TokenLet:
		return "let"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenReturn:
		return "return"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in condition text.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting byte offset in the input string
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'.': TokenDot,
	',': TokenComma,
	';': TokenSemicolon,
	'?': TokenQuestion,
	':': TokenColon,
	'=': TokenAssign,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'%': TokenMod,
	'<': TokenLess,
	'>': TokenGreater,
	'!': TokenNot,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'=': {{'=', TokenEqual}},
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
	'&': {{'&', TokenAnd}},
	'|': {{'|', TokenOr}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenAnd
	case "or":
		return TokenOr
	case "not":
		return TokenNot
	case "true", "false":
		return TokenBoolean
	case "let", "var":
		return TokenLet
	case "if":
		return TokenIf
	case "else":
		return TokenElse
	case "return":
		return TokenReturn
	default:
		return 0
	}
}

// IsKeyword reports whether s is reserved by the condition language and
// therefore cannot name a variable.
func IsKeyword(s string) bool {
	return lookupKeyword(s) > 0
}

// IsIdentifier reports whether s is a well-formed identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isNameRune(r) || (i == 0 && isDigit(r)) {
			return false
		}
	}
	return true
}
