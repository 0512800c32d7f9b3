// Package gocondition compiles designer-authored condition text into typed,
// cached, concurrently evaluable Go functions.
//
// Conditions come in three modes: a single expression, a statement block and
// formatted text with {expression} placeholders. Each is compiled against an
// ordered variable signature of registered types and a requested result type;
// identical requests share one compiled program.
//
// # Quick Start
//
//	reg := gocondition.NewRegistry()
//	wt, _ := world.Register(reg)
//	c := gocondition.New(reg, world.Globals{})
//
//	vars := []types.Variable{types.Var("Subject", wt.Site)}
//	avg, err := compiler.AsSimple[int](c, "(Subject.Health + Subject.Fear) / 2", vars)
//	v, err := avg.Evaluate(rng, types.VariableContext{"Subject": town})
//
// # More Information
//
// For detailed documentation, see:
//   - Compiler: github.com/sandrolain/gocondition/pkg/compiler
//   - Language: github.com/sandrolain/gocondition/pkg/parser
//   - Type checking: github.com/sandrolain/gocondition/pkg/translator
//   - Authoring support: github.com/sandrolain/gocondition/pkg/editor
package gocondition

import (
	"fmt"

	"github.com/sandrolain/gocondition/pkg/compiler"
	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/types"
)

// Version returns the current version of gocondition.
func Version() string {
	return "v0.1.0-dev"
}

// NewRegistry creates a registry holding the primitive types.
func NewRegistry() *registry.Registry {
	return registry.New()
}

// New creates a compiler. See compiler.New.
func New[G any](reg *registry.Registry, initial G, opts ...compiler.Option) *compiler.Compiler[G] {
	return compiler.New(reg, initial, opts...)
}

// Check compiles text without keeping a handle, reporting whether it would
// compile to result. The program is cached like any other.
func Check[G any](c *compiler.Compiler[G], mode types.Mode, text string, vars []types.Variable, result *types.Type) error {
	_, err := compiler.Compile(c, mode, text, vars, result)
	return err
}

// MustSimple is like compiler.AsSimple but panics if the expression cannot be
// compiled. It simplifies initialization of package level conditions.
func MustSimple[T, G any](c *compiler.Compiler[G], expr string, vars []types.Variable) *compiler.Condition[T] {
	cond, err := compiler.AsSimple[T](c, expr, vars)
	if err != nil {
		panic(fmt.Sprintf("gocondition: AsSimple(%q): %v", expr, err))
	}
	return cond
}
