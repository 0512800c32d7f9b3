package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sandrolain/gocondition/pkg/types"
)

// Parser implements a recursive descent parser for condition text.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	next    Token
	opts    CompileOptions
	depth   int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := newOptions(opts)
	lexer := NewLexer(input)
	lexer.offset = options.offset

	p := &Parser{
		lexer: lexer,
		opts:  options,
	}

	// Prime the one-token lookahead
	p.next = p.lexer.Next()
	p.advance()

	return p
}

// Parse parses the entire input as a single expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrSyntaxError, "Empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.unexpected()
	}

	return types.NewExpression(node, p.lexer.input, types.ModeSimple), nil
}

// ParseBlock parses the entire input as a statement block.
func (p *Parser) ParseBlock() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	block := types.NewASTNode(types.NodeBlock, p.current.Position)
	stmts, err := p.parseStatements(TokenEOF, true)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, p.error(types.ErrSyntaxError, "Empty block")
	}
	block.Statements = stmts
	return types.NewExpression(block, p.lexer.input, types.ModeComplex), nil
}

// Operator precedence table (binding power)
// Higher values bind more tightly
var precedence = map[TokenType]int{
	TokenQuestion:     10, // ? :
	TokenOr:           20, // || or
	TokenAnd:          30, // && and
	TokenEqual:        40, // ==
	TokenNotEqual:     40, // !=
	TokenLess:         45, // <
	TokenLessEqual:    45, // <=
	TokenGreater:      45, // >
	TokenGreaterEqual: 45, // >=
	TokenPlus:         50, // +
	TokenMinus:        50, // -
	TokenMult:         60, // *
	TokenDiv:          60, // /
	TokenMod:          60, // %
	TokenDot:          80, // .
	TokenParenOpen:    80, // (
}

// unaryPrecedence binds prefix - and ! tighter than any binary operator but
// looser than member access and calls.
const unaryPrecedence = 70

// minInt64Magnitude is the digits of math.MinInt64 without the sign.
const minInt64Magnitude = "9223372036854775808"

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.current = p.next
	if p.current.Type != TokenEOF && p.current.Type != TokenError {
		p.next = p.lexer.Next()
	}
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current
	if tok.Type == TokenError {
		return tok, p.lexer.Error()
	}
	if tok.Type != tt {
		if tok.Type == TokenEOF {
			return tok, p.error(types.ErrUnexpectedEnd, fmt.Sprintf("Expected %s but reached end of input", tt))
		}
		return tok, p.error(types.ErrExpectedToken, fmt.Sprintf("Expected %s but got %s", tt, describe(tok)))
	}
	p.advance()
	return tok, nil
}

// error creates a parser error at the current token.
func (p *Parser) error(code types.ErrorCode, message string) error {
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// unexpected reports the current token as out of place.
func (p *Parser) unexpected() error {
	switch p.current.Type {
	case TokenError:
		return p.lexer.Error()
	case TokenEOF:
		return p.error(types.ErrUnexpectedEnd, "Unexpected end of input")
	default:
		return p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token %s", describe(p.current)))
	}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		return p.error(types.ErrTooDeep, fmt.Sprintf("Nesting deeper than %d levels", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	tok := p.current

	switch tok.Type {
	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, &types.Error{
				Code:     types.ErrNumberOutOfRange,
				Message:  fmt.Sprintf("Integer literal %s is out of range", tok.Value),
				Position: tok.Position,
				Token:    tok.Value,
			}
		}
		n := types.NewASTNode(types.NodeInt, tok.Position)
		n.Int = v
		n.Value = tok.Value
		return n, nil
	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, &types.Error{
				Code:     types.ErrNumberOutOfRange,
				Message:  fmt.Sprintf("Number literal %s is out of range", tok.Value),
				Position: tok.Position,
				Token:    tok.Value,
			}
		}
		n := types.NewASTNode(types.NodeFloat, tok.Position)
		n.Float = v
		n.Value = tok.Value
		return n, nil
	case TokenString:
		p.advance()
		n := types.NewASTNode(types.NodeString, tok.Position)
		n.Value = tok.Value
		return n, nil
	case TokenBoolean:
		p.advance()
		n := types.NewASTNode(types.NodeBool, tok.Position)
		n.Bool = tok.Value == "true"
		n.Value = tok.Value
		return n, nil
	case TokenName:
		p.advance()
		n := types.NewASTNode(types.NodeIdent, tok.Position)
		n.Value = tok.Value
		return n, nil
	case TokenParenOpen:
		p.advance()
		inner, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return inner, nil
	case TokenMinus, TokenNot:
		// MinInt64 has no positive counterpart, so its literal is folded here.
		if tok.Type == TokenMinus && p.next.Type == TokenInt && p.next.Value == minInt64Magnitude {
			p.advance()
			p.advance()
			n := types.NewASTNode(types.NodeInt, tok.Position)
			n.Int = math.MinInt64
			n.Value = "-" + minInt64Magnitude
			return n, nil
		}
		p.advance()
		operand, err := p.parseExpression(unaryPrecedence)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeUnary, tok.Position)
		n.Value = tok.Type.String()
		n.RHS = operand
		return n, nil
	default:
		if tok.Type == TokenEOF {
			return nil, p.error(types.ErrUnexpectedEnd, "Unexpected end of input, expected an operand")
		}
		return nil, p.unexpected()
	}
}

// parseInfix parses an infix expression (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	tok := p.current
	prec := p.getPrecedence(tok.Type)

	switch tok.Type {
	case TokenDot:
		p.advance()
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeMember, name.Position)
		n.LHS = left
		n.Value = name.Value
		return n, nil

	case TokenParenOpen:
		return p.parseCall(left)

	case TokenQuestion:
		p.advance()
		then, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		otherwise, err := p.parseExpression(prec - 1)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeCondition, tok.Position)
		n.LHS = left
		n.RHS = then
		n.Else = otherwise
		return n, nil

	default:
		p.advance()
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeBinary, tok.Position)
		n.Value = tok.Type.String()
		n.LHS = left
		n.RHS = right
		return n, nil
	}
}

// parseCall turns an identifier or member access followed by "(" into a call.
func (p *Parser) parseCall(callee *types.ASTNode) (*types.ASTNode, error) {
	var n *types.ASTNode
	switch callee.Type {
	case types.NodeIdent:
		n = types.NewASTNode(types.NodeCall, callee.Position)
		n.Value = callee.Value
	case types.NodeMember:
		n = types.NewASTNode(types.NodeCall, callee.Position)
		n.Value = callee.Value
		n.LHS = callee.LHS
	default:
		return nil, p.error(types.ErrSyntaxError, "Only functions and methods can be called")
	}

	p.advance() // (
	if p.current.Type == TokenParenClose {
		p.advance()
		return n, nil
	}
	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n.Arguments = append(n.Arguments, arg)
		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// parseStatements parses statements until terminator. A bare expression is
// only accepted as the final statement of the top-level block, where it
// becomes the block's value.
func (p *Parser) parseStatements(terminator TokenType, top bool) ([]*types.ASTNode, error) {
	var stmts []*types.ASTNode
	for p.current.Type != terminator {
		switch p.current.Type {
		case TokenError:
			return nil, p.lexer.Error()
		case TokenEOF:
			return nil, p.error(types.ErrUnexpectedEnd, fmt.Sprintf("Expected %s but reached end of input", terminator))
		case TokenSemicolon:
			p.advance()
			continue
		}

		stmt, err := p.parseStatement(terminator, top)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement(terminator TokenType, top bool) (*types.ASTNode, error) {
	tok := p.current

	switch {
	case tok.Type == TokenLet:
		p.advance()
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}
		init, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeLet, name.Position)
		n.Value = name.Value
		n.RHS = init
		return n, p.endStatement(terminator)

	case tok.Type == TokenName && p.next.Type == TokenAssign:
		p.advance()
		p.advance()
		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeAssign, tok.Position)
		n.Value = tok.Value
		n.RHS = value
		return n, p.endStatement(terminator)

	case tok.Type == TokenIf:
		return p.parseIf()

	case tok.Type == TokenReturn:
		p.advance()
		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		n := types.NewASTNode(types.NodeReturn, tok.Position)
		n.RHS = value
		return n, p.endStatement(terminator)
	}

	value, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if !top {
		return nil, &types.Error{
			Code:     types.ErrSyntaxError,
			Message:  "Expression statement has no effect; use let, an assignment or return",
			Position: tok.Position,
			Token:    tok.Value,
		}
	}
	for p.current.Type == TokenSemicolon {
		p.advance()
	}
	if p.current.Type != TokenEOF {
		return nil, &types.Error{
			Code:     types.ErrSyntaxError,
			Message:  "Only the last statement of a block may be a bare expression",
			Position: tok.Position,
			Token:    tok.Value,
		}
	}
	n := types.NewASTNode(types.NodeReturn, tok.Position)
	n.RHS = value
	n.Implicit = true
	return n, nil
}

// parseIf parses "if cond { ... } [else if ... | else { ... }]". Parentheses
// around the condition are ordinary grouping and therefore optional.
func (p *Parser) parseIf() (*types.ASTNode, error) {
	tok := p.current
	p.advance() // if

	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBraced()
	if err != nil {
		return nil, err
	}

	n := types.NewASTNode(types.NodeIf, tok.Position)
	n.LHS = cond
	n.RHS = then

	if p.current.Type != TokenElse {
		return n, nil
	}
	p.advance()
	if p.current.Type == TokenIf {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		n.Else, err = p.parseIf()
	} else {
		n.Else, err = p.parseBraced()
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseBraced() (*types.ASTNode, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	open, err := p.expect(TokenBraceOpen)
	if err != nil {
		return nil, err
	}
	stmts, err := p.parseStatements(TokenBraceClose, false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}
	n := types.NewASTNode(types.NodeBlock, open.Position)
	n.Statements = stmts
	return n, nil
}

// endStatement consumes a ";" or accepts an immediately following terminator.
func (p *Parser) endStatement(terminator TokenType) error {
	switch p.current.Type {
	case TokenSemicolon:
		p.advance()
		return nil
	case terminator:
		return nil
	default:
		_, err := p.expect(TokenSemicolon)
		return err
	}
}

func describe(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenName, TokenInt, TokenFloat, TokenBoolean:
		return fmt.Sprintf("%q", t.Value)
	case TokenString:
		return "string literal"
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}
