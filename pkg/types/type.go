package types

import (
	"fmt"
	"reflect"
)

// Kind is the broad category of a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// MemberKind distinguishes properties from methods.
type MemberKind uint8

const (
	MemberProperty MemberKind = iota + 1
	MemberMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberMethod:
		return "method"
	default:
		return "invalid"
	}
}

// Param is a named method parameter.
type Param struct {
	Name string
	Type *Type
}

// Member is a public property or method of an object Type.
//
// Get is set for properties, Call for methods. Both receive the receiver as
// stored in the variable context and return values in their canonical form
// (see Normalize).
type Member struct {
	Name   string
	Kind   MemberKind
	Type   *Type
	Params []Param
	Doc    string
	Owner  *Type

	Get  func(recv any) (any, error)
	Call func(recv any, args []any) (any, error)
}

// Type describes a value type visible to conditions. Primitive types are the
// package level singletons Bool, Int, Float and String; object types are
// built with NewObject and populated with AddMember during registration.
//
// A Type must be fully populated before it is used for compilation; after
// that it is read-only and safe for concurrent use.
type Type struct {
	kind    Kind
	name    string
	base    *Type
	goType  reflect.Type
	accepts func(any) bool
	members []*Member
	index   map[string]*Member
}

// Primitive types.
var (
	Bool   = &Type{kind: KindBool, name: "bool", goType: reflect.TypeFor[bool]()}
	Int    = &Type{kind: KindInt, name: "int", goType: reflect.TypeFor[int64]()}
	Float  = &Type{kind: KindFloat, name: "float", goType: reflect.TypeFor[float64]()}
	String = &Type{kind: KindString, name: "string", goType: reflect.TypeFor[string]()}
)

// Primitives returns the primitive types in a fixed order.
func Primitives() []*Type {
	return []*Type{Bool, Int, Float, String}
}

// NewObject creates an object type. base may be nil; accepts decides whether a
// runtime value is an instance of the type.
func NewObject(name string, base *Type, goType reflect.Type, accepts func(any) bool) *Type {
	return &Type{
		kind:    KindObject,
		name:    name,
		base:    base,
		goType:  goType,
		accepts: accepts,
		index:   make(map[string]*Member),
	}
}

// Kind returns the kind of the type.
func (t *Type) Kind() Kind { return t.kind }

// Name returns the type name used in signatures and diagnostics.
func (t *Type) Name() string { return t.name }

// Base returns the parent object type, or nil.
func (t *Type) Base() *Type { return t.base }

// GoType returns the Go type instances are represented with.
func (t *Type) GoType() reflect.Type { return t.goType }

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// IsNumeric reports whether the type is int or float.
func (t *Type) IsNumeric() bool {
	return t.kind == KindInt || t.kind == KindFloat
}

// AddMember adds m to the type. Member names are unique per type; a member
// may override one of the same name declared on a base type.
func (t *Type) AddMember(m *Member) error {
	if t.kind != KindObject {
		return fmt.Errorf("type %s: members can only be added to object types", t.name)
	}
	if m == nil || m.Name == "" || m.Type == nil {
		return fmt.Errorf("type %s: member needs a name and a type", t.name)
	}
	if _, dup := t.index[m.Name]; dup {
		return fmt.Errorf("type %s: duplicate member %q", t.name, m.Name)
	}
	switch m.Kind {
	case MemberProperty:
		if m.Get == nil {
			return fmt.Errorf("type %s: property %q has no getter", t.name, m.Name)
		}
	case MemberMethod:
		if m.Call == nil {
			return fmt.Errorf("type %s: method %q has no implementation", t.name, m.Name)
		}
	default:
		return fmt.Errorf("type %s: member %q has invalid kind", t.name, m.Name)
	}
	m.Owner = t
	t.members = append(t.members, m)
	t.index[m.Name] = m
	return nil
}

// Lookup resolves a member by name on the type and then its base chain.
func (t *Type) Lookup(name string) (*Member, bool) {
	for cur := t; cur != nil; cur = cur.base {
		if m, ok := cur.index[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Members returns every member resolvable through Lookup: own members in
// declaration order, followed by inherited members that are not overridden.
func (t *Type) Members() []*Member {
	var out []*Member
	seen := make(map[string]bool)
	for cur := t; cur != nil; cur = cur.base {
		for _, m := range cur.members {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			out = append(out, m)
		}
	}
	return out
}

// AssignableTo reports whether a value of type t can be used where u is
// expected: identical types, int widening to float, or an object subtype.
func (t *Type) AssignableTo(u *Type) bool {
	if t == nil || u == nil {
		return false
	}
	if t == u {
		return true
	}
	if t.kind == KindInt && u.kind == KindFloat {
		return true
	}
	if t.kind == KindObject && u.kind == KindObject {
		for cur := t.base; cur != nil; cur = cur.base {
			if cur == u {
				return true
			}
		}
	}
	return false
}

// Accepts reports whether v is a valid runtime value of the type.
func (t *Type) Accepts(v any) bool {
	if t.kind == KindObject {
		return v != nil && t.accepts != nil && t.accepts(v)
	}
	_, ok := Normalize(t, v)
	return ok
}

// NameMember returns the string-typed "Name" property used to render objects
// inside formatted text, if the type has one.
func (t *Type) NameMember() (*Member, bool) {
	m, ok := t.Lookup("Name")
	if !ok || m.Kind != MemberProperty || m.Type != String {
		return nil, false
	}
	return m, true
}

// Stringifiable reports whether values of the type can be interpolated into
// formatted text.
func (t *Type) Stringifiable() bool {
	if t.kind == KindObject {
		_, ok := t.NameMember()
		return ok
	}
	return t.kind != KindInvalid
}
