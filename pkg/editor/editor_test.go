package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/translator"
	"github.com/sandrolain/gocondition/pkg/types"
	"github.com/sandrolain/gocondition/pkg/world"
)

func worldTypes(t *testing.T) *world.Types {
	t.Helper()
	wt, err := world.Register(registry.New())
	require.NoError(t, err)
	return wt
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func memberName(m Member) string       { return m.Name }
func candidateName(c Candidate) string { return c.Name }

func TestPublicMembers(t *testing.T) {
	wt := worldTypes(t)

	ms := PublicMembers(wt.Person)
	assert.Equal(t, []string{
		"Age", "Home", "LivesAt",
		"Name", "Health", "Fear", "Strength", "Wealth", "Has", "Attribute",
	}, names(ms, memberName))

	assert.Same(t, wt.Person, ms[0].DeclaredBy)
	assert.Same(t, wt.Thing, ms[3].DeclaredBy)
	assert.Equal(t, "Reports whether the thing carries the attribute.", ms[8].Doc)

	assert.Nil(t, PublicMembers(types.Int))
	assert.Nil(t, PublicMembers(nil))
}

func TestMemberSignature(t *testing.T) {
	wt := worldTypes(t)
	byName := make(map[string]Member)
	for _, m := range PublicMembers(wt.Person) {
		byName[m.Name] = m
	}

	tests := []struct {
		member string
		sig    string
		parens bool
	}{
		{"Health", "Health: int", false},
		{"Home", "Home: Site", false},
		{"LivesAt", "LivesAt(site: Site): bool", true},
		{"Attribute", "Attribute(attribute: string): int", true},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			m, ok := byName[tt.member]
			require.True(t, ok)
			assert.Equal(t, tt.sig, m.Signature())
			assert.Equal(t, tt.parens, m.NeedsParens())
		})
	}
}

func TestPublicMembersAreCopies(t *testing.T) {
	wt := worldTypes(t)
	ms := PublicMembers(wt.Person)
	ms[2].Params[0].Name = "changed"

	m, _ := wt.Person.Lookup("LivesAt")
	assert.Equal(t, "site", m.Params[0].Name)
}

func TestScope(t *testing.T) {
	wt := worldTypes(t)
	g := types.Var("Globals", wt.Globals)
	s := NewScope([]types.Variable{types.Var("Subject", wt.Site), types.Var("Actor", wt.Person)}, &g)

	entries := s.Entries()
	require.Len(t, entries, 3+len(translator.Builtins()))
	assert.Equal(t, Entry{Name: "Subject", Kind: EntryVariable, Type: wt.Site, Signature: "Subject: Site"}, entries[0])
	assert.Equal(t, "Actor", entries[1].Name)
	assert.Equal(t, EntryGlobals, entries[2].Kind)
	assert.Equal(t, "Globals: Globals", entries[2].Signature)
	for _, e := range entries[3:] {
		assert.Equal(t, EntryFunction, e.Kind)
		assert.True(t, e.NeedsParens())
		assert.Nil(t, e.Type)
	}

	e, ok := s.Lookup("Max")
	require.True(t, ok)
	assert.Equal(t, "function", e.Kind.String())
	_, ok = s.Lookup("Missing")
	assert.False(t, ok)

	noGlobals := NewScope(nil, nil)
	assert.Len(t, noGlobals.Entries(), len(translator.Builtins()))
}

func TestScopeKeepsFirstDeclaration(t *testing.T) {
	s := NewScope([]types.Variable{types.Var("Max", types.Int)}, nil)
	e, ok := s.Lookup("Max")
	require.True(t, ok)
	assert.Equal(t, EntryVariable, e.Kind)
	assert.Len(t, s.Entries(), len(translator.Builtins()))
}

func TestComplete(t *testing.T) {
	wt := worldTypes(t)
	g := types.Var("Globals", wt.Globals)
	s := NewScope([]types.Variable{types.Var("Subject", wt.Person), types.Var("Site", wt.Site)}, &g)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"identifier prefix", "Su", []string{"Subject"}},
		{"after operator", "Site.Health > Ra", []string{"Random", "RandomFloat", "RandomRange"}},
		{"globals members", "Globals.", []string{"Year", "Season", "Danger"}},
		{"member prefix", "Subject.H", []string{"Home", "Health", "Has"}},
		{"chain", "1 + Subject.Home.Po", []string{"Population"}},
		{"chain all members", "Subject.Home.", []string{"Population", "Name", "Health", "Fear", "Strength", "Wealth", "Has", "Attribute"}},
		{"unknown root", "Nobody.", nil},
		{"method in chain", "Subject.LivesAt.", nil},
		{"primitive has no members", "Subject.Age.", nil},
		{"empty segment", "Subject..Name", nil},
		{"no match", "Zz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Complete(s, tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got, candidateName))
		})
	}
}

func TestCompleteCandidates(t *testing.T) {
	wt := worldTypes(t)
	s := NewScope([]types.Variable{types.Var("Subject", wt.Person)}, nil)

	got := Complete(s, "Subject.Liv")
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{Name: "LivesAt", Detail: "LivesAt(site: Site): bool", NeedsParens: true}, got[0])

	got = Complete(s, "Cla")
	require.Len(t, got, 1)
	assert.Equal(t, "Clamp", got[0].Name)
	assert.True(t, got[0].NeedsParens)
	assert.NotEmpty(t, got[0].Detail)
}
