package translator

import (
	"strconv"
	"strings"

	"github.com/sandrolain/gocondition/pkg/types"
)

// template lowers formatted text. Placeholders are rendered with their
// canonical string form; objects are rendered through their Name property.
func (c *checker) template(n *types.ASTNode) (evalFn, error) {
	if c.req.Result != types.String {
		return nil, types.Errorf(types.ErrResultType, n.Position, "formatted text produces string, but %s was requested", c.req.Result)
	}

	parts := make([]evalFn, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		tv, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		fn, err := stringify(tv, a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, fn)
	}

	return func(f *frame) (any, error) {
		var b strings.Builder
		for _, part := range parts {
			v, err := part(f)
			if err != nil {
				return nil, err
			}
			b.WriteString(v.(string))
		}
		return b.String(), nil
	}, nil
}

func stringify(tv *typed, n *types.ASTNode) (evalFn, error) {
	var conv func(v any) (string, error)
	switch tv.t.Kind() {
	case types.KindString:
		return tv.fn, nil
	case types.KindInt:
		conv = func(v any) (string, error) { return strconv.FormatInt(v.(int64), 10), nil }
	case types.KindFloat:
		conv = func(v any) (string, error) { return strconv.FormatFloat(v.(float64), 'f', -1, 64), nil }
	case types.KindBool:
		conv = func(v any) (string, error) { return strconv.FormatBool(v.(bool)), nil }
	case types.KindObject:
		m, ok := tv.t.NameMember()
		if !ok {
			return nil, errAt(types.ErrNotStringifiable, n, "%s cannot be used in formatted text: it has no Name property", tv.t)
		}
		pos, owner := n.Position, tv.t
		conv = func(v any) (string, error) {
			if v == nil {
				return "", types.Errorf(types.ErrMemberAccess, pos, "cannot render a missing %s", owner)
			}
			name, err := m.Get(v)
			if err != nil {
				return "", types.Errorf(types.ErrMemberAccess, pos, "reading %s.Name: %v", owner, err).WithCause(err)
			}
			s, ok := name.(string)
			if !ok {
				return "", types.Errorf(types.ErrMemberAccess, pos, "%s.Name returned %T", owner, name)
			}
			return s, nil
		}
	default:
		return nil, errAt(types.ErrNotStringifiable, n, "%s cannot be used in formatted text", tv.t)
	}

	fn := tv.fn
	return func(f *frame) (any, error) {
		v, err := fn(f)
		if err != nil {
			return nil, err
		}
		s, err := conv(v)
		if err != nil {
			return nil, err
		}
		return s, nil
	}, nil
}
