package compiler

import (
	"math"
	"reflect"

	"github.com/sandrolain/gocondition/pkg/translator"
	"github.com/sandrolain/gocondition/pkg/types"
)

// Condition is a compiled condition producing a T. Each call site gets its
// own handle; the program behind it is shared.
type Condition[T any] struct {
	prog     *translator.Program
	src      source
	snapshot func() any
	metrics  *Metrics
}

// Evaluator is implemented by every Condition. It allows conditions of
// different result types to be held together.
type Evaluator interface {
	EvaluateAny(rng types.Random, vars types.VariableContext) (any, error)
	Program() *translator.Program
}

var _ Evaluator = (*Condition[bool])(nil)

// Program returns the shared compiled program. Two handles with the same
// Program were served by a single translation.
func (c *Condition[T]) Program() *translator.Program {
	return c.prog
}

// Source returns the condition text.
func (c *Condition[T]) Source() string {
	return c.prog.Source()
}

// Evaluate runs the condition. vars must hold exactly the declared variables.
// rng is used by the random built-ins and may be nil when the condition calls
// none of them. All reads of the globals see the snapshot current when
// Evaluate started.
func (c *Condition[T]) Evaluate(rng types.Random, vars types.VariableContext) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = types.Errorf(types.ErrPanic, -1, "evaluation panicked: %v", r)
		}
		if err != nil {
			c.metrics.evaluateFailed(c.prog.Mode())
			err = &types.ConditionError{
				Definition: c.src.definition,
				Condition:  c.src.condition,
				Mode:       c.prog.Mode(),
				Text:       c.prog.Source(),
				Err:        err,
			}
		}
	}()

	slots, err := c.prog.Bind(vars)
	if err != nil {
		return out, err
	}
	env := translator.Env{Vars: slots, Random: rng}
	if c.prog.UsesGlobals() {
		env.Globals = c.snapshot()
	}
	v, err := c.prog.Run(env)
	if err != nil {
		return out, err
	}
	return convertResult[T](v)
}

// EvaluateAny is Evaluate with the result boxed.
func (c *Condition[T]) EvaluateAny(rng types.Random, vars types.VariableContext) (any, error) {
	return c.Evaluate(rng, vars)
}

func (c *Condition[T]) String() string {
	return c.prog.String()
}

// convertResult converts a canonical value to T. Integers saturate at the
// bounds of narrower targets.
func convertResult[T any](v any) (T, error) {
	var out T
	if t, ok := v.(T); ok {
		return t, nil
	}
	if v == nil {
		return out, nil
	}

	rv := reflect.ValueOf(&out).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.(int64)
		if !ok {
			break
		}
		bits := rv.Type().Bits()
		hi := int64(math.MaxInt64) >> (64 - bits)
		rv.SetInt(min(max(i, -hi-1), hi))
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := v.(int64)
		if !ok {
			break
		}
		if i < 0 {
			i = 0
		}
		u := uint64(i)
		if bits := rv.Type().Bits(); bits < 64 {
			u = min(u, uint64(1)<<bits-1)
		}
		rv.SetUint(u)
		return out, nil
	case reflect.Float32, reflect.Float64:
		f, ok := v.(float64)
		if !ok {
			break
		}
		rv.SetFloat(f)
		return out, nil
	case reflect.Bool:
		if b, ok := v.(bool); ok {
			rv.SetBool(b)
			return out, nil
		}
	case reflect.String:
		if s, ok := v.(string); ok {
			rv.SetString(s)
			return out, nil
		}
	default:
		if vv := reflect.ValueOf(v); vv.Type().AssignableTo(rv.Type()) {
			rv.Set(vv)
			return out, nil
		}
	}
	return out, types.Errorf(types.ErrResultConversion, -1, "cannot convert %T to %s", v, rv.Type())
}
