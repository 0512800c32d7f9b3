package parser

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocondition/pkg/types"
)

// render prints an AST in a compact prefix form used to compare shapes.
func render(n *types.ASTNode) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case types.NodeInt, types.NodeFloat, types.NodeBool, types.NodeIdent:
		return n.Value
	case types.NodeString:
		return "'" + n.Value + "'"
	case types.NodeMember:
		return render(n.LHS) + "." + n.Value
	case types.NodeCall:
		args := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = render(a)
		}
		callee := n.Value
		if n.LHS != nil {
			callee = render(n.LHS) + "." + n.Value
		}
		return callee + "(" + strings.Join(args, ", ") + ")"
	case types.NodeUnary:
		return "(" + n.Value + render(n.RHS) + ")"
	case types.NodeBinary:
		return "(" + render(n.LHS) + " " + n.Value + " " + render(n.RHS) + ")"
	case types.NodeCondition:
		return "(" + render(n.LHS) + " ? " + render(n.RHS) + " : " + render(n.Else) + ")"
	case types.NodeLet:
		return "let " + n.Value + " = " + render(n.RHS)
	case types.NodeAssign:
		return n.Value + " = " + render(n.RHS)
	case types.NodeReturn:
		if n.Implicit {
			return render(n.RHS)
		}
		return "return " + render(n.RHS)
	case types.NodeIf:
		s := "if " + render(n.LHS) + " " + render(n.RHS)
		if n.Else != nil {
			s += " else " + render(n.Else)
		}
		return s
	case types.NodeBlock:
		stmts := make([]string, len(n.Statements))
		for i, st := range n.Statements {
			stmts[i] = render(st)
		}
		return "{" + strings.Join(stmts, "; ") + "}"
	case types.NodeTemplate:
		parts := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			if a.Type == types.NodeString {
				parts[i] = a.Value
			} else {
				parts[i] = "{" + render(a) + "}"
			}
		}
		return strings.Join(parts, "")
	}
	return "?" + string(n.Type)
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(Subject.Health + Subject.Fear) / 2", "((Subject.Health + Subject.Fear) / 2)"},
		{"Subject.Health * Subject.Strength", "(Subject.Health * Subject.Strength)"},
		{"Subject.Health <= 0", "(Subject.Health <= 0)"},
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"-a.b * 2", "((-a.b) * 2)"},
		{"not a && b", "((!a) && b)"},
		{"a or b and c", "(a || (b && c))"},
		{"a == b < c", "(a == (b < c))"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"x.LivesAt(y.Home)", "x.LivesAt(y.Home)"},
		{"Max(1, Min(2, 3))", "Max(1, Min(2, 3))"},
		{"Random()", "Random()"},
		{"'a' 'b'", ""},
		{"-9223372036854775808", "-9223372036854775808"},
		{"-9223372036854775807", "(-9223372036854775807)"},
		{"--9223372036854775808", "(--9223372036854775808)"},
		{"1 - 9223372036854775808", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			expr, err := Parse(tc.input)
			if tc.expected == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, render(expr.AST()))
			assert.Equal(t, types.ModeSimple, expr.Mode())
			assert.Equal(t, tc.input, expr.Source())
		})
	}
}

func TestParseMinInt64Literal(t *testing.T) {
	expr, err := Parse("x > -9223372036854775808")
	require.NoError(t, err)
	lit := expr.AST().RHS
	require.Equal(t, types.NodeInt, lit.Type)
	assert.Equal(t, int64(math.MinInt64), lit.Int)
	assert.Equal(t, 4, lit.Position)

	_, err = Parse("9223372036854775808")
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestParsePositions(t *testing.T) {
	expr, err := Parse("a + b.c")
	require.NoError(t, err)
	root := expr.AST()
	assert.Equal(t, 2, root.Position)
	assert.Equal(t, 0, root.LHS.Position)
	assert.Equal(t, 6, root.RHS.Position)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     types.ErrorCode
		position int
	}{
		{"empty", "", types.ErrSyntaxError, 0},
		{"trailing operator", "1 +", types.ErrUnexpectedEnd, 3},
		{"unclosed paren", "(1 + 2", types.ErrUnexpectedEnd, 6},
		{"extra token", "1 2", types.ErrSyntaxError, 2},
		{"call on literal", "1(2)", types.ErrSyntaxError, 1},
		{"member needs name", "a.1", types.ErrExpectedToken, 2},
		{"integer overflow", "99999999999999999999", types.ErrNumberOutOfRange, 0},
		{"lexer error", "a + #", types.ErrSyntaxError, 4},
		{"statement in simple mode", "let a = 1", types.ErrSyntaxError, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			var de *types.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.position, de.Position)
			assert.ErrorIs(t, err, types.ErrParse)
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100)
	_, err := Parse(deep)
	var de *types.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, types.ErrTooDeep, de.Code)

	_, err = Parse(deep, WithMaxDepth(200))
	assert.NoError(t, err)
}

func TestParseBlock(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"return 1;", "{return 1}"},
		{"let a = 1; a", "{let a = 1; a}"},
		{"let a = 1; a = a + 1; return a", "{let a = 1; a = (a + 1); return a}"},
		{
			"if x > 1 { return 1; } else if x > 0 { return 2; } else { return 3; }",
			"{if (x > 1) {return 1} else if (x > 0) {return 2} else {return 3}}",
		},
		{"if (x) { y = 1 } 2", "{if x {y = 1}; 2}"},
		{";; return 1 ;;", "{return 1}"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			expr, err := ParseBlock(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, render(expr.AST()))
			assert.Equal(t, types.ModeComplex, expr.Mode())
		})
	}
}

func TestParseBlockErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  types.ErrorCode
	}{
		{"empty", "", types.ErrSyntaxError},
		{"only semicolons", ";;", types.ErrSyntaxError},
		{"bare expression not last", "1; return 2", types.ErrSyntaxError},
		{"bare expression in branch", "if x { 1 } return 2", types.ErrSyntaxError},
		{"missing semicolon", "let a = 1 return a", types.ErrExpectedToken},
		{"unclosed brace", "if x { return 1;", types.ErrUnexpectedEnd},
		{"let needs name", "let 1 = 2", types.ErrExpectedToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBlock(tc.input)
			var de *types.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.code, de.Code)
		})
	}
}

func TestParseMode(t *testing.T) {
	expr, err := ParseMode(types.ModeFormattedText, "hi {a}")
	require.NoError(t, err)
	assert.Equal(t, types.ModeFormattedText, expr.Mode())

	_, err = ParseMode(types.Mode(0), "a")
	assert.ErrorIs(t, err, types.ErrParse)
}
