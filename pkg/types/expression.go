// Package types defines the data model shared by the gocondition packages.
//
// This package contains type definitions for:
//   - Type, Member, Param: descriptors of the values conditions operate on
//   - Variable, VariableContext: signatures and their runtime bindings
//   - Expression, ASTNode: parsed condition text
//   - Error, ConditionError: structured diagnostics
package types

// Expression is parsed condition text together with its mode.
type Expression struct {
	ast    *ASTNode
	source string
	mode   Mode
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string, mode Mode) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
		mode:   mode,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source text.
func (e *Expression) Source() string {
	return e.source
}

// Mode returns the mode the text was parsed in.
func (e *Expression) Mode() Mode {
	return e.mode
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}
