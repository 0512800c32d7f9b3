package translator

import (
	"math"
	"strings"

	"github.com/sandrolain/gocondition/pkg/types"
)

// typed is a checked expression: its static type and its lowered form.
type typed struct {
	t  *types.Type
	fn evalFn
}

type local struct {
	index int
	t     *types.Type
}

type scope struct {
	parent *scope
	names  map[string]local
}

func (s *scope) lookup(name string) (local, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if l, ok := cur.names[name]; ok {
			return l, true
		}
	}
	return local{}, false
}

// checker resolves, type-checks and lowers one request.
type checker struct {
	req         Request
	vars        map[string]int
	scope       *scope
	nlocals     int
	usesGlobals bool
}

func newChecker(req Request) *checker {
	vars := make(map[string]int, len(req.Signature))
	for i, v := range req.Signature {
		vars[v.Name] = i
	}
	return &checker{req: req, vars: vars}
}

func errAt(code types.ErrorCode, n *types.ASTNode, format string, args ...any) *types.Error {
	return types.Errorf(code, n.Position, format, args...).WithToken(n.Value)
}

// coerce converts tv to want, inserting int to float widening where needed.
func (c *checker) coerce(tv *typed, want *types.Type, pos int, code types.ErrorCode) (evalFn, error) {
	switch {
	case tv.t == want:
		return tv.fn, nil
	case tv.t == types.Int && want == types.Float:
		return toFloat(tv).fn, nil
	case tv.t.AssignableTo(want):
		return tv.fn, nil
	}
	return nil, types.Errorf(code, pos, "expression has type %s, but %s is required", tv.t, want)
}

func toFloat(tv *typed) *typed {
	if tv.t == types.Float {
		return tv
	}
	fn := tv.fn
	return &typed{t: types.Float, fn: func(f *frame) (any, error) {
		v, err := fn(f)
		if err != nil {
			return nil, err
		}
		return float64(v.(int64)), nil
	}}
}

func constant(t *types.Type, v any) *typed {
	return &typed{t: t, fn: func(*frame) (any, error) { return v, nil }}
}

func (c *checker) expr(n *types.ASTNode) (*typed, error) {
	switch n.Type {
	case types.NodeInt:
		return constant(types.Int, n.Int), nil
	case types.NodeFloat:
		return constant(types.Float, n.Float), nil
	case types.NodeString:
		return constant(types.String, n.Value), nil
	case types.NodeBool:
		return constant(types.Bool, n.Bool), nil
	case types.NodeIdent:
		return c.ident(n)
	case types.NodeMember:
		return c.member(n)
	case types.NodeCall:
		if n.LHS != nil {
			return c.method(n)
		}
		return c.call(n)
	case types.NodeUnary:
		return c.unary(n)
	case types.NodeBinary:
		return c.binary(n)
	case types.NodeCondition:
		return c.conditional(n)
	default:
		return nil, errAt(types.ErrSyntaxError, n, "unexpected %s node in expression", n.Type)
	}
}

func (c *checker) ident(n *types.ASTNode) (*typed, error) {
	name := n.Value
	if l, ok := c.scope.lookup(name); ok {
		idx := l.index
		return &typed{t: l.t, fn: func(f *frame) (any, error) { return f.locals[idx], nil }}, nil
	}
	if i, ok := c.vars[name]; ok {
		return &typed{t: c.req.Signature[i].Type, fn: func(f *frame) (any, error) { return f.vars[i], nil }}, nil
	}
	if g := c.req.Globals; g != nil && g.Name == name {
		c.usesGlobals = true
		return &typed{t: g.Type, fn: func(f *frame) (any, error) { return f.globals, nil }}, nil
	}
	if _, ok := LookupBuiltin(name); ok {
		return nil, errAt(types.ErrNotCallable, n, "function %s must be called", name)
	}
	return nil, errAt(types.ErrUndeclared, n, "undeclared variable %q", name)
}

func (c *checker) receiver(n *types.ASTNode) (*typed, error) {
	recv, err := c.expr(n.LHS)
	if err != nil {
		return nil, err
	}
	if recv.t.Kind() != types.KindObject {
		return nil, errAt(types.ErrUnknownMember, n, "type %s has no member %q", recv.t, n.Value)
	}
	return recv, nil
}

func (c *checker) member(n *types.ASTNode) (*typed, error) {
	recv, err := c.receiver(n)
	if err != nil {
		return nil, err
	}
	m, ok := recv.t.Lookup(n.Value)
	if !ok {
		return nil, errAt(types.ErrUnknownMember, n, "type %s has no member %q", recv.t, n.Value)
	}
	if m.Kind == types.MemberMethod {
		return nil, errAt(types.ErrNotCallable, n, "method %s.%s must be called with an argument list", recv.t, m.Name)
	}

	get, rfn, pos, owner := m.Get, recv.fn, n.Position, recv.t
	return &typed{t: m.Type, fn: func(f *frame) (any, error) {
		r, err := rfn(f)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, types.Errorf(types.ErrMemberAccess, pos, "cannot read %s of a missing %s", m.Name, owner)
		}
		v, err := get(r)
		if err != nil {
			return nil, types.Errorf(types.ErrMemberAccess, pos, "reading %s.%s: %v", owner, m.Name, err).WithCause(err)
		}
		return normalizeMember(m, v, pos)
	}}, nil
}

func normalizeMember(m *types.Member, v any, pos int) (any, error) {
	nv, ok := types.Normalize(m.Type, v)
	if !ok {
		return nil, types.Errorf(types.ErrMemberAccess, pos, "%s returned %T, expected %s", m.Name, v, m.Type)
	}
	if nv == nil && m.Type.Kind() != types.KindObject {
		return nil, types.Errorf(types.ErrMemberAccess, pos, "%s returned no value", m.Name)
	}
	return nv, nil
}

func (c *checker) args(n *types.ASTNode, params []*types.Type, what string) ([]evalFn, error) {
	fns := make([]evalFn, len(n.Arguments))
	for i, a := range n.Arguments {
		tv, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		fn, err := c.coerce(tv, params[i], a.Position, types.ErrArgumentType)
		if err != nil {
			return nil, types.Errorf(types.ErrArgumentType, a.Position,
				"argument %d of %s has type %s, but %s is required", i+1, what, tv.t, params[i]).WithToken(n.Value)
		}
		fns[i] = fn
	}
	return fns, nil
}

func evalArgs(f *frame, fns []evalFn) ([]any, error) {
	vals := make([]any, len(fns))
	for i, fn := range fns {
		v, err := fn(f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (c *checker) method(n *types.ASTNode) (*typed, error) {
	recv, err := c.receiver(n)
	if err != nil {
		return nil, err
	}
	m, ok := recv.t.Lookup(n.Value)
	if !ok {
		return nil, errAt(types.ErrUnknownMember, n, "type %s has no member %q", recv.t, n.Value)
	}
	if m.Kind != types.MemberMethod {
		return nil, errAt(types.ErrNotCallable, n, "property %s.%s cannot be called", recv.t, m.Name)
	}
	if len(n.Arguments) != len(m.Params) {
		return nil, errAt(types.ErrArgumentCount, n, "%s.%s takes %d arguments, got %d", recv.t, m.Name, len(m.Params), len(n.Arguments))
	}
	params := make([]*types.Type, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type
	}
	what := recv.t.Name() + "." + m.Name
	argFns, err := c.args(n, params, what)
	if err != nil {
		return nil, err
	}

	rfn, pos, owner := recv.fn, n.Position, recv.t
	return &typed{t: m.Type, fn: func(f *frame) (any, error) {
		r, err := rfn(f)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, types.Errorf(types.ErrMemberAccess, pos, "cannot call %s on a missing %s", m.Name, owner)
		}
		vals, err := evalArgs(f, argFns)
		if err != nil {
			return nil, err
		}
		v, err := m.Call(r, vals)
		if err != nil {
			return nil, types.Errorf(types.ErrMemberAccess, pos, "calling %s: %v", what, err).WithCause(err)
		}
		return normalizeMember(m, v, pos)
	}}, nil
}

func (c *checker) call(n *types.ASTNode) (*typed, error) {
	b, ok := LookupBuiltin(n.Value)
	if !ok {
		if _, isVar := c.vars[n.Value]; isVar {
			return nil, errAt(types.ErrNotCallable, n, "%s is a variable, not a function", n.Value)
		}
		return nil, errAt(types.ErrUndeclared, n, "undeclared function %q", n.Value)
	}
	argc := len(n.Arguments)
	if argc < b.MinArgs || (b.MaxArgs >= 0 && argc > b.MaxArgs) {
		return nil, errAt(types.ErrArgumentCount, n, "wrong number of arguments to %s: got %d, signature is %s", b.Name, argc, b.Signature)
	}

	argTypes := make([]*types.Type, argc)
	checked := make([]*typed, argc)
	for i, a := range n.Arguments {
		tv, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		argTypes[i], checked[i] = tv.t, tv
	}
	params, ret := b.resolve(argTypes)
	if ret == nil {
		names := make([]string, argc)
		for i, t := range argTypes {
			names[i] = t.Name()
		}
		return nil, errAt(types.ErrArgumentType, n, "cannot call %s with (%s); signature is %s", b.Name, strings.Join(names, ", "), b.Signature)
	}
	argFns := make([]evalFn, argc)
	for i, tv := range checked {
		fn, err := c.coerce(tv, params[i], n.Arguments[i].Position, types.ErrArgumentType)
		if err != nil {
			return nil, err
		}
		argFns[i] = fn
	}

	pos := n.Position
	return &typed{t: ret, fn: func(f *frame) (any, error) {
		vals, err := evalArgs(f, argFns)
		if err != nil {
			return nil, err
		}
		v, err := b.impl(f.random, vals)
		if err != nil {
			if de, ok := err.(*types.Error); ok && de.Position < 0 {
				return nil, &types.Error{Code: de.Code, Message: de.Message, Position: pos, Token: b.Name}
			}
			return nil, err
		}
		return v, nil
	}}, nil
}

func (c *checker) unary(n *types.ASTNode) (*typed, error) {
	operand, err := c.expr(n.RHS)
	if err != nil {
		return nil, err
	}
	fn := operand.fn
	switch n.Value {
	case "-":
		switch operand.t {
		case types.Int:
			return &typed{t: types.Int, fn: func(f *frame) (any, error) {
				v, err := fn(f)
				if err != nil {
					return nil, err
				}
				return negInt(v.(int64)), nil
			}}, nil
		case types.Float:
			return &typed{t: types.Float, fn: func(f *frame) (any, error) {
				v, err := fn(f)
				if err != nil {
					return nil, err
				}
				return -v.(float64), nil
			}}, nil
		}
	case "!":
		if operand.t == types.Bool {
			return &typed{t: types.Bool, fn: func(f *frame) (any, error) {
				v, err := fn(f)
				if err != nil {
					return nil, err
				}
				return !v.(bool), nil
			}}, nil
		}
	}
	return nil, errAt(types.ErrOperandType, n, "operator %s cannot be applied to %s", n.Value, operand.t)
}

func (c *checker) binary(n *types.ASTNode) (*typed, error) {
	l, err := c.expr(n.LHS)
	if err != nil {
		return nil, err
	}
	r, err := c.expr(n.RHS)
	if err != nil {
		return nil, err
	}
	mismatch := func() error {
		return errAt(types.ErrOperandType, n, "operator %s cannot be applied to %s and %s", n.Value, l.t, r.t)
	}

	switch n.Value {
	case "&&", "||":
		if l.t != types.Bool || r.t != types.Bool {
			return nil, mismatch()
		}
		return logical(n.Value == "&&", l.fn, r.fn), nil

	case "+":
		if l.t == types.String && r.t == types.String {
			return combine(types.String, l.fn, r.fn, func(a, b any) (any, error) {
				return a.(string) + b.(string), nil
			}), nil
		}
		fallthrough
	case "-", "*", "/", "%":
		if !l.t.IsNumeric() || !r.t.IsNumeric() {
			return nil, mismatch()
		}
		if l.t == types.Int && r.t == types.Int {
			return intArith(n.Value, n.Position, l.fn, r.fn), nil
		}
		return floatArith(n.Value, toFloat(l).fn, toFloat(r).fn), nil

	case "<", "<=", ">", ">=":
		switch {
		case l.t == types.Int && r.t == types.Int:
			return compare[int64](n.Value, l.fn, r.fn), nil
		case l.t.IsNumeric() && r.t.IsNumeric():
			return compare[float64](n.Value, toFloat(l).fn, toFloat(r).fn), nil
		case l.t == types.String && r.t == types.String:
			return compare[string](n.Value, l.fn, r.fn), nil
		}
		return nil, mismatch()

	case "==", "!=":
		lf, rf := l.fn, r.fn
		switch {
		case l.t == r.t:
		case l.t.IsNumeric() && r.t.IsNumeric():
			lf, rf = toFloat(l).fn, toFloat(r).fn
		case l.t.AssignableTo(r.t) || r.t.AssignableTo(l.t):
		default:
			return nil, mismatch()
		}
		negate := n.Value == "!="
		return combine(types.Bool, lf, rf, func(a, b any) (any, error) {
			return (a == b) != negate, nil
		}), nil
	}
	return nil, errAt(types.ErrSyntaxError, n, "unknown operator %s", n.Value)
}

func (c *checker) conditional(n *types.ASTNode) (*typed, error) {
	cond, err := c.expr(n.LHS)
	if err != nil {
		return nil, err
	}
	if cond.t != types.Bool {
		return nil, errAt(types.ErrOperandType, n.LHS, "condition has type %s, but bool is required", cond.t)
	}
	then, err := c.expr(n.RHS)
	if err != nil {
		return nil, err
	}
	otherwise, err := c.expr(n.Else)
	if err != nil {
		return nil, err
	}

	var t *types.Type
	switch {
	case then.t == otherwise.t:
		t = then.t
	case then.t.IsNumeric() && otherwise.t.IsNumeric():
		t = types.Float
		then, otherwise = toFloat(then), toFloat(otherwise)
	case then.t.AssignableTo(otherwise.t):
		t = otherwise.t
	case otherwise.t.AssignableTo(then.t):
		t = then.t
	default:
		return nil, errAt(types.ErrOperandType, n, "branches have incompatible types %s and %s", then.t, otherwise.t)
	}

	cf, tf, ef := cond.fn, then.fn, otherwise.fn
	return &typed{t: t, fn: func(f *frame) (any, error) {
		v, err := cf(f)
		if err != nil {
			return nil, err
		}
		if v.(bool) {
			return tf(f)
		}
		return ef(f)
	}}, nil
}

func logical(and bool, lf, rf evalFn) *typed {
	return &typed{t: types.Bool, fn: func(f *frame) (any, error) {
		a, err := lf(f)
		if err != nil {
			return nil, err
		}
		if a.(bool) != and {
			return a, nil
		}
		return rf(f)
	}}
}

func combine(t *types.Type, lf, rf evalFn, op func(a, b any) (any, error)) *typed {
	return &typed{t: t, fn: func(f *frame) (any, error) {
		a, err := lf(f)
		if err != nil {
			return nil, err
		}
		b, err := rf(f)
		if err != nil {
			return nil, err
		}
		return op(a, b)
	}}
}

func intArith(op string, pos int, lf, rf evalFn) *typed {
	var fn func(a, b int64) (int64, error)
	zero := func(what string) error {
		return types.Errorf(types.ErrDivisionByZero, pos, "integer %s by zero", what).WithToken(op)
	}
	switch op {
	case "+":
		fn = func(a, b int64) (int64, error) { return addInt(a, b), nil }
	case "-":
		fn = func(a, b int64) (int64, error) { return subInt(a, b), nil }
	case "*":
		fn = func(a, b int64) (int64, error) { return mulInt(a, b), nil }
	case "/":
		fn = func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, zero("division")
			}
			return divInt(a, b), nil
		}
	case "%":
		fn = func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, zero("modulo")
			}
			return modInt(a, b), nil
		}
	}
	return combine(types.Int, lf, rf, func(a, b any) (any, error) {
		v, err := fn(a.(int64), b.(int64))
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

func floatArith(op string, lf, rf evalFn) *typed {
	var fn func(a, b float64) float64
	switch op {
	case "+":
		fn = func(a, b float64) float64 { return a + b }
	case "-":
		fn = func(a, b float64) float64 { return a - b }
	case "*":
		fn = func(a, b float64) float64 { return a * b }
	case "/":
		fn = func(a, b float64) float64 { return a / b }
	case "%":
		fn = math.Mod
	}
	return combine(types.Float, lf, rf, func(a, b any) (any, error) {
		return fn(a.(float64), b.(float64)), nil
	})
}

// compare applies op directly so that any ordering involving NaN is false.
func compare[T int64 | float64 | string](op string, lf, rf evalFn) *typed {
	var test func(a, b T) bool
	switch op {
	case "<":
		test = func(a, b T) bool { return a < b }
	case "<=":
		test = func(a, b T) bool { return a <= b }
	case ">":
		test = func(a, b T) bool { return a > b }
	default:
		test = func(a, b T) bool { return a >= b }
	}
	return combine(types.Bool, lf, rf, func(a, b any) (any, error) {
		return test(a.(T), b.(T)), nil
	})
}

