package parser

// Package parser implements the condition language parser.
//
// The parser uses a hand-written recursive descent approach with Pratt
// operator precedence. Three entry points match the three compilation modes:
//   - Parse: a single expression
//   - ParseBlock: a statement block whose final value is the result
//   - ParseTemplate: text with {expression} placeholders
//
// # Example
//
//	expr, err := parser.Parse("(Subject.Health + Subject.Fear) / 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
//
// Every failure is a *types.Error carrying the byte offset of the offending
// token. Unterminated strings, comments, placeholders and over-deep nesting
// terminate with an error; the parser never loops on malformed input.

import (
	"fmt"

	"github.com/sandrolain/gocondition/pkg/types"
)

// DefaultMaxDepth is the default nesting limit.
const DefaultMaxDepth = 64

// Parse parses a single expression.
//
// Example:
//
//	expr, err := parser.Parse("Subject.Health <= 0")
//	if err != nil {
//	    fmt.Printf("Parse error: %v\n", err)
//	    return
//	}
func Parse(text string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(text, opts...)
	return p.Parse()
}

// ParseBlock parses a statement block.
//
// Example:
//
//	expr, err := parser.ParseBlock("let total = a + b; if (total > 10) { return 10; } total")
func ParseBlock(text string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(text, opts...)
	return p.ParseBlock()
}

// ParseTemplate parses formatted text. Literal braces are written "{{" and "}}".
//
// Example:
//
//	expr, err := parser.ParseTemplate("{Subject.Name} has {Subject.Health} health")
func ParseTemplate(text string, opts ...CompileOption) (*types.Expression, error) {
	options := newOptions(opts)
	node, err := parseTemplate(text, options)
	if err != nil {
		return nil, err
	}
	return types.NewExpression(node, text, types.ModeFormattedText), nil
}

// ParseMode dispatches to the entry point matching mode.
func ParseMode(mode types.Mode, text string, opts ...CompileOption) (*types.Expression, error) {
	switch mode {
	case types.ModeSimple:
		return Parse(text, opts...)
	case types.ModeComplex:
		return ParseBlock(text, opts...)
	case types.ModeFormattedText:
		return ParseTemplate(text, opts...)
	default:
		return nil, types.NewError(types.ErrSyntaxError, fmt.Sprintf("Unknown compilation mode %d", mode), -1)
	}
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits expression and block nesting.
	MaxDepth int
	// offset is added to reported positions when parsing a fragment.
	offset int
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

func withOffset(offset int) CompileOption {
	return func(opts *CompileOptions) {
		opts.offset = offset
	}
}

func newOptions(opts []CompileOption) CompileOptions {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	return options
}
