// Package registry maps host Go types to the type descriptors conditions are
// compiled against.
//
// Object types ("Things") are registered explicitly together with their
// public properties and methods. The translator resolves member access through
// these descriptors and the editor surface lists them, so authoring
// suggestions and compilation always agree.
//
// # Example
//
//	reg := registry.New()
//	site, _ := registry.Object[*Site](reg, "Site", nil)
//	_ = registry.Property(site, "Name", types.String, func(s *Site) (any, error) {
//	    return s.Name, nil
//	})
//
// Registration is not safe to interleave with compilation: populate the
// registry first, then share it.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/sandrolain/gocondition/pkg/types"
)

// Registry is a set of named types.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*types.Type
	byGo   map[reflect.Type]*types.Type
	order  []*types.Type
}

// New creates a registry holding the primitive types.
func New() *Registry {
	r := &Registry{
		byName: make(map[string]*types.Type),
		byGo:   make(map[reflect.Type]*types.Type),
	}
	for _, t := range types.Primitives() {
		r.byName[t.Name()] = t
		r.order = append(r.order, t)
	}
	return r
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*types.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// TypeOf returns the object type registered for the Go type rt.
func (r *Registry) TypeOf(rt reflect.Type) (*types.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byGo[rt]
	return t, ok
}

// Types returns all registered types in registration order, primitives first.
func (r *Registry) Types() []*types.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Type, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) add(t *types.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[t.Name()]; dup {
		return fmt.Errorf("registry: type %q already registered", t.Name())
	}
	if _, dup := r.byGo[t.GoType()]; dup {
		return fmt.Errorf("registry: Go type %s already registered", t.GoType())
	}
	r.byName[t.Name()] = t
	r.byGo[t.GoType()] = t
	r.order = append(r.order, t)
	return nil
}

// Object registers an object type whose instances are Go values of type S.
// S may be an interface, in which case every implementation is accepted.
// base, if not nil, must be an object type; its members are inherited and
// values of the new type are assignable to it.
func Object[S any](r *Registry, name string, base *types.Type) (*types.Type, error) {
	if name == "" {
		return nil, fmt.Errorf("registry: type name must not be empty")
	}
	if base != nil && base.Kind() != types.KindObject {
		return nil, fmt.Errorf("registry: base of %q must be an object type, got %s", name, base)
	}
	t := types.NewObject(name, base, reflect.TypeFor[S](), func(v any) bool {
		_, ok := v.(S)
		return ok
	})
	if err := r.add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// MustObject is like Object but panics on error. It simplifies package level
// registration of domain types.
func MustObject[S any](r *Registry, name string, base *types.Type) *types.Type {
	t, err := Object[S](r, name, base)
	if err != nil {
		panic(err)
	}
	return t
}

// Property adds a property to t. get receives the receiver converted to S
// and returns a value of type vt (integers of any width are accepted for int
// and float properties).
func Property[S any](t *types.Type, name string, vt *types.Type, get func(S) (any, error)) error {
	return t.AddMember(&types.Member{
		Name: name,
		Kind: types.MemberProperty,
		Type: vt,
		Get: func(recv any) (any, error) {
			s, ok := recv.(S)
			if !ok {
				return nil, fmt.Errorf("%s.%s: receiver %T is not a %s", t.Name(), name, recv, t.Name())
			}
			return get(s)
		},
	})
}

// Method adds a method to t. Arguments arrive already converted to the
// canonical representation of each parameter type.
func Method[S any](t *types.Type, name string, ret *types.Type, params []types.Param, call func(S, []any) (any, error)) error {
	for _, p := range params {
		if p.Type == nil {
			return fmt.Errorf("%s.%s: parameter %q has no type", t.Name(), name, p.Name)
		}
	}
	return t.AddMember(&types.Member{
		Name:   name,
		Kind:   types.MemberMethod,
		Type:   ret,
		Params: params,
		Call: func(recv any, args []any) (any, error) {
			s, ok := recv.(S)
			if !ok {
				return nil, fmt.Errorf("%s.%s: receiver %T is not a %s", t.Name(), name, recv, t.Name())
			}
			return call(s, args)
		},
	})
}

// Document attaches a description to a member for authoring tooling.
func Document(t *types.Type, member, doc string) error {
	m, ok := t.Lookup(member)
	if !ok || m.Owner != t {
		return fmt.Errorf("%s has no own member %q", t.Name(), member)
	}
	m.Doc = doc
	return nil
}
