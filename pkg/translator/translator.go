// Package translator turns condition text into executable programs.
//
// Translation validates the variable signature, parses the text in the
// requested mode, resolves every identifier and member against the type
// descriptors, type-checks the result against the requested type and lowers
// the tree to a chain of closures. A Program holds no per-evaluation state;
// the variable slots, the globals snapshot and the random source are passed to
// every Run.
package translator

import (
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/sandrolain/gocondition/pkg/parser"
	"github.com/sandrolain/gocondition/pkg/types"
)

// Request describes one translation.
type Request struct {
	Mode      types.Mode
	Text      string
	Signature []types.Variable
	Result    *types.Type
	// Globals, when set, names the identifier bound to the globals snapshot.
	Globals *types.Variable
}

// Option configures a Translator.
type Option func(*Translator)

// WithParseOptions forwards options to the parser.
func WithParseOptions(opts ...parser.CompileOption) Option {
	return func(t *Translator) {
		t.parseOpts = append(t.parseOpts, opts...)
	}
}

// Translator builds Programs. It is stateless apart from its options and safe
// for concurrent use.
type Translator struct {
	parseOpts []parser.CompileOption
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate compiles req. Failures are *types.Error values; signature problems
// are reported before the text is parsed.
func (t *Translator) Translate(req Request) (*Program, error) {
	if err := validateSignature(req); err != nil {
		return nil, err
	}
	if req.Result == nil {
		return nil, types.NewError(types.ErrUnsupportedResult, "no result type requested", -1)
	}

	expr, err := parser.ParseMode(req.Mode, req.Text, t.parseOpts...)
	if err != nil {
		return nil, err
	}

	c := newChecker(req)
	var root evalFn
	switch req.Mode {
	case types.ModeSimple:
		tv, err := c.expr(expr.AST())
		if err != nil {
			return nil, err
		}
		root, err = c.coerce(tv, req.Result, expr.AST().Position, types.ErrResultType)
		if err != nil {
			return nil, err
		}
	case types.ModeComplex:
		root, err = c.block(expr.AST(), len(req.Text))
		if err != nil {
			return nil, err
		}
	case types.ModeFormattedText:
		root, err = c.template(expr.AST())
		if err != nil {
			return nil, err
		}
	}

	index := make(map[string]int, len(req.Signature))
	for i, v := range req.Signature {
		index[v.Name] = i
	}
	return &Program{
		id:        uuid.New(),
		mode:      req.Mode,
		source:    req.Text,
		signature: slices.Clone(req.Signature),
		index:     index,
		result:    req.Result,
		globals:   c.usesGlobals,
		root:      root,
		locals:    c.nlocals,
	}, nil
}

func validateSignature(req Request) error {
	seen := make(map[string]bool, len(req.Signature))
	for _, v := range req.Signature {
		if !parser.IsIdentifier(v.Name) || parser.IsKeyword(v.Name) {
			return types.Errorf(types.ErrInvalidVariable, -1, "invalid variable name %q", v.Name).WithToken(v.Name)
		}
		if v.Type == nil {
			return types.Errorf(types.ErrInvalidVariable, -1, "variable %q has no type", v.Name).WithToken(v.Name)
		}
		if seen[v.Name] {
			return types.Errorf(types.ErrDuplicateVariable, -1, "duplicate variable %q", v.Name).WithToken(v.Name)
		}
		if req.Globals != nil && v.Name == req.Globals.Name {
			return types.Errorf(types.ErrDuplicateVariable, -1, "variable %q collides with the globals name", v.Name).WithToken(v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// Env carries the per-evaluation inputs of a Program.
type Env struct {
	// Vars holds one value per signature entry, in signature order, as
	// returned by Program.Bind.
	Vars    []any
	Globals any
	Random  types.Random
}

// Program is a compiled condition. It is immutable and safe for concurrent
// use.
type Program struct {
	id        uuid.UUID
	mode      types.Mode
	source    string
	signature []types.Variable
	index     map[string]int
	result    *types.Type
	globals   bool
	root      evalFn
	locals    int
}

// ID identifies the program in logs.
func (p *Program) ID() uuid.UUID { return p.id }

// Mode returns the compilation mode.
func (p *Program) Mode() types.Mode { return p.mode }

// Source returns the condition text.
func (p *Program) Source() string { return p.source }

// Signature returns a copy of the variable signature.
func (p *Program) Signature() []types.Variable { return slices.Clone(p.signature) }

// Result returns the result type.
func (p *Program) Result() *types.Type { return p.result }

// UsesGlobals reports whether the condition reads the globals snapshot.
func (p *Program) UsesGlobals() bool { return p.globals }

func (p *Program) String() string {
	return fmt.Sprintf("%s %s %q -> %s", p.id, p.mode, p.source, p.result)
}

// Bind checks vars against the signature and returns the slot values for Env.
// Every signature name must be present with a value of the declared type;
// names outside the signature are rejected.
func (p *Program) Bind(vars types.VariableContext) ([]any, error) {
	slots := make([]any, len(p.signature))
	for i, v := range p.signature {
		val, ok := vars[v.Name]
		if !ok {
			return nil, types.Errorf(types.ErrMissingVariable, -1, "missing variable %q", v.Name).WithToken(v.Name)
		}
		nv, ok := types.Normalize(v.Type, val)
		if !ok || (v.Type.Kind() == types.KindObject && !v.Type.Accepts(val)) {
			return nil, types.Errorf(types.ErrVariableType, -1, "variable %q: %T is not a %s", v.Name, val, v.Type).WithToken(v.Name)
		}
		slots[i] = nv
	}
	if len(vars) != len(p.signature) {
		var extra []string
		for name := range vars {
			if _, ok := p.index[name]; !ok {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return nil, types.Errorf(types.ErrUnexpectedVariable, -1, "unexpected variables %q", extra)
	}
	return slots, nil
}

// Run evaluates the program.
func (p *Program) Run(env Env) (any, error) {
	f := &frame{
		vars:    env.Vars,
		globals: env.Globals,
		random:  env.Random,
	}
	if p.locals > 0 {
		f.locals = make([]any, p.locals)
	}
	return p.root(f)
}

// frame is the state of one Run.
type frame struct {
	vars    []any
	globals any
	random  types.Random
	locals  []any
}

type evalFn func(f *frame) (any, error)
