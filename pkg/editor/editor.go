// Package editor answers authoring questions about conditions: which members
// a type exposes, which identifiers a condition can see and what may follow a
// partially typed reference.
//
// Every answer is derived from the same type descriptors the translator
// resolves against, so a suggestion always compiles.
package editor

import (
	"strings"

	"github.com/sandrolain/gocondition/pkg/types"
)

// Member is a public member of a type as shown to an author.
type Member struct {
	Name   string
	Kind   types.MemberKind
	Return *types.Type
	Params []types.Param
	Doc    string
	// DeclaredBy is the type the member is declared on; it differs from the
	// queried type for inherited members.
	DeclaredBy *types.Type
}

// NeedsParens reports whether the member is written with an argument list.
func (m Member) NeedsParens() bool {
	return m.Kind == types.MemberMethod
}

// Signature renders the member for tooltips, e.g. "Health: int" or
// "LivesAt(site: Site): bool".
func (m Member) Signature() string {
	var b strings.Builder
	b.WriteString(m.Name)
	if m.NeedsParens() {
		b.WriteByte('(')
		for i, p := range m.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			b.WriteString(": ")
			b.WriteString(p.Type.Name())
		}
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(m.Return.Name())
	return b.String()
}

// PublicMembers lists the members resolvable on t: own members in
// declaration order, then inherited members that are not overridden.
// Primitive types have no members.
func PublicMembers(t *types.Type) []Member {
	if t == nil || t.Kind() != types.KindObject {
		return nil
	}
	ms := t.Members()
	out := make([]Member, len(ms))
	for i, m := range ms {
		out[i] = Member{
			Name:       m.Name,
			Kind:       m.Kind,
			Return:     m.Type,
			Params:     append([]types.Param(nil), m.Params...),
			Doc:        m.Doc,
			DeclaredBy: m.Owner,
		}
	}
	return out
}
