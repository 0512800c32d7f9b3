package definition

import (
	"errors"
	"fmt"

	"github.com/sandrolain/gocondition/pkg/compiler"
	"github.com/sandrolain/gocondition/pkg/types"
)

// Bound is a definition whose conditions all compiled.
type Bound struct {
	Name  string
	conds map[string]compiler.Evaluator
	order []string
}

// Bind compiles every condition of def. When any condition fails the result
// is nil and the error joins one *types.ConditionError per failure.
func Bind[G any](c *compiler.Compiler[G], def Definition) (*Bound, error) {
	b := &Bound{
		Name:  def.Name,
		conds: make(map[string]compiler.Evaluator, len(def.Conditions)),
	}

	var errs []error
	for _, cond := range def.Conditions {
		ev, err := bindCondition(c, def.Name, cond)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.conds[cond.Name] = ev
		b.order = append(b.order, cond.Name)
	}
	if err := errors.Join(errs...); err != nil {
		c.Logger().Debug("definition unusable", "definition", def.Name, "failures", len(errs))
		return nil, err
	}
	return b, nil
}

func bindCondition[G any](c *compiler.Compiler[G], defName string, cond Condition) (compiler.Evaluator, error) {
	fail := func(mode types.Mode, err error) error {
		return &types.ConditionError{
			Definition: defName,
			Condition:  cond.Name,
			Mode:       mode,
			Text:       cond.Text,
			Err:        err,
		}
	}

	mode, err := types.ParseMode(cond.Mode)
	if err != nil {
		return nil, fail(0, err)
	}
	reg := c.Registry()
	result, ok := reg.Lookup(cond.ResultType())
	if !ok {
		return nil, fail(mode, types.Errorf(types.ErrUnsupportedResult, -1, "unknown result type %q", cond.ResultType()))
	}
	vars := make([]types.Variable, len(cond.Variables))
	for i, v := range cond.Variables {
		t, ok := reg.Lookup(v.Type)
		if !ok {
			return nil, fail(mode, types.Errorf(types.ErrInvalidVariable, -1, "variable %q has unknown type %q", v.Name, v.Type).WithToken(v.Name))
		}
		vars[i] = types.Var(v.Name, t)
	}
	cc, err := compiler.Compile(c, mode, cond.Text, vars, result, compiler.Owner(defName, cond.Name))
	if err != nil {
		return nil, err
	}
	return cc, nil
}

// Names returns the condition names in definition order.
func (b *Bound) Names() []string {
	return append([]string(nil), b.order...)
}

// Condition returns the compiled condition called name.
func (b *Bound) Condition(name string) (compiler.Evaluator, bool) {
	ev, ok := b.conds[name]
	return ev, ok
}

// Evaluate runs the condition called name.
func (b *Bound) Evaluate(name string, rng types.Random, vars types.VariableContext) (any, error) {
	ev, ok := b.conds[name]
	if !ok {
		return nil, fmt.Errorf("definition %q has no condition %q", b.Name, name)
	}
	return ev.EvaluateAny(rng, vars)
}
