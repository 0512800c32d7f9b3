package compiler

import (
	"reflect"
	"time"

	"github.com/sandrolain/gocondition/pkg/cache"
	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/translator"
	"github.com/sandrolain/gocondition/pkg/types"
)

type source struct {
	definition string
	condition  string
}

// SourceOption attributes a condition for diagnostics. It never affects which
// program a condition shares.
type SourceOption func(*source)

// Owner names the definition and condition a compiled text belongs to.
func Owner(definition, condition string) SourceOption {
	return func(s *source) {
		s.definition = definition
		s.condition = condition
	}
}

// AsSimple compiles a single expression producing a T.
func AsSimple[T, G any](c *Compiler[G], expr string, vars []types.Variable, opts ...SourceOption) (*Condition[T], error) {
	return compileAs[T](c, types.ModeSimple, expr, vars, opts)
}

// AsComplex compiles a statement block whose return statements produce a T.
func AsComplex[T, G any](c *Compiler[G], block string, vars []types.Variable, opts ...SourceOption) (*Condition[T], error) {
	return compileAs[T](c, types.ModeComplex, block, vars, opts)
}

// AsFormattedText compiles literal text with {expression} placeholders.
func AsFormattedText[G any](c *Compiler[G], format string, vars []types.Variable, opts ...SourceOption) (*Condition[string], error) {
	return compileAs[string](c, types.ModeFormattedText, format, vars, opts)
}

// Compile compiles text in mode with a result type chosen at run time. The
// condition yields the canonical value of result: bool, int64, float64,
// string or the registered object.
func Compile[G any](c *Compiler[G], mode types.Mode, text string, vars []types.Variable, result *types.Type, opts ...SourceOption) (*Condition[any], error) {
	src := newSource(opts)
	if result == nil {
		return nil, c.failed(src, mode, text,
			types.NewError(types.ErrUnsupportedResult, "no result type requested", -1))
	}
	return compileWith[any](c, src, mode, text, vars, result)
}

func newSource(opts []SourceOption) source {
	var src source
	for _, opt := range opts {
		opt(&src)
	}
	return src
}

func compileAs[T, G any](c *Compiler[G], mode types.Mode, text string, vars []types.Variable, opts []SourceOption) (*Condition[T], error) {
	src := newSource(opts)
	result, err := resultTypeFor[T](c.reg)
	if err != nil {
		return nil, c.failed(src, mode, text, err)
	}
	return compileWith[T](c, src, mode, text, vars, result)
}

func compileWith[T, G any](c *Compiler[G], src source, mode types.Mode, text string, vars []types.Variable, result *types.Type) (*Condition[T], error) {
	req := translator.Request{
		Mode:      mode,
		Text:      text,
		Signature: vars,
		Result:    result,
		Globals:   c.globalsVar,
	}
	prog, hit, err := c.cache.GetOrCompile(cache.NewKey(mode, text, vars, result, c.globalsVar),
		func() (*translator.Program, error) {
			start := time.Now()
			p, err := c.translator.Translate(req)
			c.metrics.built(mode, time.Since(start))
			return p, err
		})
	if err != nil {
		c.metrics.compiled(mode, "error")
		return nil, c.failed(src, mode, text, err)
	}

	outcome := "built"
	if hit {
		outcome = "hit"
	}
	c.metrics.compiled(mode, outcome)
	c.logger.Debug("condition compiled",
		"program", prog.ID(),
		"cache", outcome,
		"definition", src.definition,
		"condition", src.condition,
		"mode", mode.String())

	return &Condition[T]{
		prog:     prog,
		src:      src,
		snapshot: c.snapshot,
		metrics:  c.metrics,
	}, nil
}

func (c *Compiler[G]) failed(src source, mode types.Mode, text string, err error) error {
	ce := &types.ConditionError{
		Definition: src.definition,
		Condition:  src.condition,
		Mode:       mode,
		Text:       text,
		Err:        err,
	}
	c.logger.Warn("condition failed to compile",
		"definition", src.definition,
		"condition", src.condition,
		"mode", mode.String(),
		"text", text,
		"code", string(ce.Code()),
		"error", err)
	return ce
}

// resultTypeFor maps T to the condition result type. Numeric Go kinds map to
// int or float; any other T must be a registered object type.
func resultTypeFor[T any](reg *registry.Registry) (*types.Type, error) {
	rt := reflect.TypeFor[T]()
	switch rt.Kind() {
	case reflect.Bool:
		return types.Bool, nil
	case reflect.String:
		return types.String, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return types.Int, nil
	case reflect.Float32, reflect.Float64:
		return types.Float, nil
	}
	if t, ok := reg.TypeOf(rt); ok {
		return t, nil
	}
	return nil, types.Errorf(types.ErrUnsupportedResult, -1, "result type %s is not supported", rt)
}
