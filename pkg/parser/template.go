package parser

import (
	"strings"

	"github.com/sandrolain/gocondition/pkg/types"
)

// parseTemplate splits formatted text into literal runs and placeholder
// expressions. Each placeholder is parsed as a standalone expression with
// positions relative to the whole template.
func parseTemplate(text string, opts CompileOptions) (*types.ASTNode, error) {
	root := types.NewASTNode(types.NodeTemplate, opts.offset)

	var lit strings.Builder
	litStart := 0
	flush := func() {
		if lit.Len() == 0 {
			return
		}
		n := types.NewASTNode(types.NodeString, litStart+opts.offset)
		n.Value = lit.String()
		root.Arguments = append(root.Arguments, n)
		lit.Reset()
	}

	for i := 0; i < len(text); {
		switch c := text[i]; c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				if lit.Len() == 0 {
					litStart = i
				}
				lit.WriteByte('{')
				i += 2
				continue
			}
			end, err := placeholderEnd(text, i+1)
			if err != nil {
				return nil, err.Shift(opts.offset)
			}
			inner := text[i+1 : end]
			if strings.TrimSpace(inner) == "" {
				return nil, types.NewError(types.ErrSyntaxError, "Empty placeholder", i+opts.offset).WithToken("{}")
			}
			flush()
			frag := NewParser(inner, WithMaxDepth(opts.MaxDepth), withOffset(i+1+opts.offset))
			expr, perr := frag.Parse()
			if perr != nil {
				return nil, perr
			}
			root.Arguments = append(root.Arguments, expr.AST())
			i = end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				if lit.Len() == 0 {
					litStart = i
				}
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, types.NewError(types.ErrPlaceholder, "Unmatched '}' in text; write '}}' for a literal brace", i+opts.offset).WithToken("}")
		default:
			if lit.Len() == 0 {
				litStart = i
			}
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	return root, nil
}

// placeholderEnd returns the index of the "}" closing the placeholder that
// starts at from. Braces inside string literals are ignored.
func placeholderEnd(text string, from int) (int, *types.Error) {
	depth := 0
	var quote byte
	for i := from; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, types.NewError(types.ErrPlaceholder, "Unclosed placeholder", from-1).WithToken("{")
}
