// Package compiler is the entry point for turning condition text into typed,
// cached, evaluable conditions.
//
// A Compiler owns the type registry, the compilation cache and the globals
// slot. Every call site asks for its own Condition handle; handles for the
// same text, mode, signature and result type share one compiled program.
//
// # Example
//
//	reg := registry.New()
//	wt, _ := world.Register(reg)
//	c := compiler.New(reg, world.Globals{Year: 1})
//	cond, err := compiler.AsSimple[bool](c, "Subject.Health <= 0",
//	    []types.Variable{types.Var("Subject", wt.Thing)})
//	dead, err := cond.Evaluate(rng, types.VariableContext{"Subject": town})
package compiler

import (
	"log/slog"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sandrolain/gocondition/pkg/cache"
	"github.com/sandrolain/gocondition/pkg/globals"
	"github.com/sandrolain/gocondition/pkg/parser"
	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/translator"
	"github.com/sandrolain/gocondition/pkg/types"
)

// DefaultGlobalsName is the identifier conditions use to read the globals.
const DefaultGlobalsName = "Globals"

// Options configures a Compiler.
type Options struct {
	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
	// Cache is an external compilation cache. It must only be shared by
	// compilers using the same registry.
	Cache *cache.Cache
	// CacheSize bounds the cache created when Cache is nil. 0 means unbounded.
	CacheSize int
	// Registerer receives the compiler metrics. Metrics are disabled when nil.
	Registerer prometheus.Registerer
	// GlobalsName is the identifier bound to the globals snapshot.
	GlobalsName string
	// ParseOptions are forwarded to the parser.
	ParseOptions []parser.CompileOption
}

// Option configures compiler behavior.
type Option func(*Options)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithCache attaches an external compilation cache.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.Cache = c
	}
}

// WithCacheSize bounds the number of cached programs. Ignored with WithCache.
func WithCacheSize(size int) Option {
	return func(opts *Options) {
		opts.CacheSize = size
	}
}

// WithMetrics registers the compiler metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.Registerer = reg
	}
}

// WithGlobalsName changes the identifier bound to the globals snapshot.
func WithGlobalsName(name string) Option {
	return func(opts *Options) {
		opts.GlobalsName = name
	}
}

// WithParseOptions forwards options to the parser, e.g. parser.WithMaxDepth.
func WithParseOptions(po ...parser.CompileOption) Option {
	return func(opts *Options) {
		opts.ParseOptions = append(opts.ParseOptions, po...)
	}
}

// Compiler compiles conditions against one registry and one globals slot.
// It is safe for concurrent use.
type Compiler[G any] struct {
	reg        *registry.Registry
	translator *translator.Translator
	cache      *cache.Cache
	slot       *globals.Slot[G]
	logger     *slog.Logger
	metrics    *Metrics

	// globalsVar is nil when G is not a registered type; conditions then
	// cannot refer to the globals.
	globalsVar *types.Variable
	globalsPtr bool
}

// New creates a Compiler holding initial as the first globals snapshot.
// When G (or *G) is registered in reg, conditions can read the snapshot
// through the globals identifier.
func New[G any](reg *registry.Registry, initial G, opts ...Option) *Compiler[G] {
	options := Options{GlobalsName: DefaultGlobalsName}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	c := options.Cache
	if c == nil {
		c = cache.New(options.CacheSize)
	}

	var m *Metrics
	if options.Registerer != nil {
		m = NewMetrics(options.Registerer)
	}

	comp := &Compiler[G]{
		reg:        reg,
		translator: translator.New(translator.WithParseOptions(options.ParseOptions...)),
		cache:      c,
		slot:       globals.New(initial),
		logger:     options.Logger,
		metrics:    m,
	}
	if t, ok := reg.TypeOf(reflect.TypeFor[*G]()); ok {
		comp.globalsVar = &types.Variable{Name: options.GlobalsName, Type: t}
		comp.globalsPtr = true
	} else if t, ok := reg.TypeOf(reflect.TypeFor[G]()); ok {
		comp.globalsVar = &types.Variable{Name: options.GlobalsName, Type: t}
	}
	return comp
}

// Registry returns the type registry.
func (c *Compiler[G]) Registry() *registry.Registry {
	return c.reg
}

// Cache returns the compilation cache.
func (c *Compiler[G]) Cache() *cache.Cache {
	return c.cache
}

// Logger returns the logger the compiler writes to.
func (c *Compiler[G]) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the compiler metrics, or nil when disabled.
func (c *Compiler[G]) Metrics() *Metrics {
	return c.metrics
}

// GlobalsVariable returns the globals binding, or false when G is not a
// registered type.
func (c *Compiler[G]) GlobalsVariable() (types.Variable, bool) {
	if c.globalsVar == nil {
		return types.Variable{}, false
	}
	return *c.globalsVar, true
}

// UpdateGlobalVariables applies fn to a copy of the current globals and
// publishes the result. Evaluations already running keep their snapshot.
func (c *Compiler[G]) UpdateGlobalVariables(fn func(g *G)) {
	version := c.slot.Update(fn)
	c.logger.Debug("globals updated", "version", version)
}

// Globals returns a copy of the current globals.
func (c *Compiler[G]) Globals() G {
	return c.slot.Value()
}

// snapshot returns the current globals in the form the registered type
// accepts.
func (c *Compiler[G]) snapshot() any {
	p := c.slot.Load()
	if c.globalsPtr {
		return p
	}
	return *p
}
