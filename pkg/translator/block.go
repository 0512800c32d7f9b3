package translator

import (
	"github.com/sandrolain/gocondition/pkg/types"
)

// stmtFn executes a statement. done is set once a return statement produced
// the block's value.
type stmtFn func(f *frame) (ret any, done bool, err error)

// block lowers a complex-mode body. Every path through it must return a value
// of the requested result type.
func (c *checker) block(n *types.ASTNode, end int) (evalFn, error) {
	body, returns, err := c.statements(n.Statements)
	if err != nil {
		return nil, err
	}
	if !returns {
		return nil, types.Errorf(types.ErrMissingReturn, end, "not every path returns a %s", c.req.Result)
	}
	return func(f *frame) (any, error) {
		v, _, err := body(f)
		return v, err
	}, nil
}

func (c *checker) statements(stmts []*types.ASTNode) (stmtFn, bool, error) {
	c.scope = &scope{parent: c.scope, names: make(map[string]local)}
	defer func() { c.scope = c.scope.parent }()

	fns := make([]stmtFn, 0, len(stmts))
	returns := false
	for _, s := range stmts {
		if returns {
			return nil, false, types.Errorf(types.ErrSyntaxError, s.Position, "unreachable statement after return")
		}
		fn, ret, err := c.statement(s)
		if err != nil {
			return nil, false, err
		}
		fns = append(fns, fn)
		returns = ret
	}

	return func(f *frame) (any, bool, error) {
		for _, fn := range fns {
			v, done, err := fn(f)
			if err != nil || done {
				return v, done, err
			}
		}
		return nil, false, nil
	}, returns, nil
}

func (c *checker) statement(n *types.ASTNode) (stmtFn, bool, error) {
	switch n.Type {
	case types.NodeLet:
		fn, err := c.let(n)
		return fn, false, err
	case types.NodeAssign:
		fn, err := c.assign(n)
		return fn, false, err
	case types.NodeIf:
		return c.ifStmt(n)
	case types.NodeReturn:
		tv, err := c.expr(n.RHS)
		if err != nil {
			return nil, false, err
		}
		fn, err := c.coerce(tv, c.req.Result, n.RHS.Position, types.ErrResultType)
		if err != nil {
			return nil, false, err
		}
		return func(f *frame) (any, bool, error) {
			v, err := fn(f)
			return v, err == nil, err
		}, true, nil
	case types.NodeBlock:
		return c.statements(n.Statements)
	}
	return nil, false, errAt(types.ErrSyntaxError, n, "unexpected %s statement", n.Type)
}

// declared reports whether name is already bound anywhere a let could shadow.
func (c *checker) declared(name string) bool {
	if _, ok := c.scope.lookup(name); ok {
		return true
	}
	if _, ok := c.vars[name]; ok {
		return true
	}
	if c.req.Globals != nil && c.req.Globals.Name == name {
		return true
	}
	_, ok := LookupBuiltin(name)
	return ok
}

func (c *checker) let(n *types.ASTNode) (stmtFn, error) {
	if c.declared(n.Value) {
		return nil, errAt(types.ErrRedeclared, n, "%q is already declared", n.Value)
	}
	tv, err := c.expr(n.RHS)
	if err != nil {
		return nil, err
	}
	idx := c.nlocals
	c.nlocals++
	c.scope.names[n.Value] = local{index: idx, t: tv.t}

	fn := tv.fn
	return func(f *frame) (any, bool, error) {
		v, err := fn(f)
		if err != nil {
			return nil, false, err
		}
		f.locals[idx] = v
		return nil, false, nil
	}, nil
}

func (c *checker) assign(n *types.ASTNode) (stmtFn, error) {
	l, ok := c.scope.lookup(n.Value)
	if !ok {
		if c.declared(n.Value) {
			return nil, errAt(types.ErrAssignType, n, "%q is read-only", n.Value)
		}
		return nil, errAt(types.ErrUndeclared, n, "undeclared variable %q", n.Value)
	}
	tv, err := c.expr(n.RHS)
	if err != nil {
		return nil, err
	}
	fn, err := c.coerce(tv, l.t, n.RHS.Position, types.ErrAssignType)
	if err != nil {
		return nil, err
	}

	idx := l.index
	return func(f *frame) (any, bool, error) {
		v, err := fn(f)
		if err != nil {
			return nil, false, err
		}
		f.locals[idx] = v
		return nil, false, nil
	}, nil
}

func (c *checker) ifStmt(n *types.ASTNode) (stmtFn, bool, error) {
	cond, err := c.expr(n.LHS)
	if err != nil {
		return nil, false, err
	}
	if cond.t != types.Bool {
		return nil, false, errAt(types.ErrOperandType, n.LHS, "if condition has type %s, but bool is required", cond.t)
	}
	then, thenReturns, err := c.statements(n.RHS.Statements)
	if err != nil {
		return nil, false, err
	}

	var otherwise stmtFn = func(*frame) (any, bool, error) { return nil, false, nil }
	elseReturns := false
	if n.Else != nil {
		otherwise, elseReturns, err = c.statement(n.Else)
		if err != nil {
			return nil, false, err
		}
	}

	cf := cond.fn
	return func(f *frame) (any, bool, error) {
		v, err := cf(f)
		if err != nil {
			return nil, false, err
		}
		if v.(bool) {
			return then(f)
		}
		return otherwise(f)
	}, thenReturns && elseReturns, nil
}
