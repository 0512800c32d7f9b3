package editor

import (
	"strings"

	"github.com/sandrolain/gocondition/pkg/translator"
	"github.com/sandrolain/gocondition/pkg/types"
)

// EntryKind classifies an identifier visible to a condition.
type EntryKind uint8

const (
	EntryVariable EntryKind = iota + 1
	EntryGlobals
	EntryFunction
)

func (k EntryKind) String() string {
	switch k {
	case EntryVariable:
		return "variable"
	case EntryGlobals:
		return "globals"
	case EntryFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Entry is an identifier visible at the top level of a condition.
type Entry struct {
	Name string
	Kind EntryKind
	// Type is nil for functions, whose Signature describes them instead.
	Type      *types.Type
	Signature string
	Doc       string
}

// NeedsParens reports whether the identifier is called.
func (e Entry) NeedsParens() bool {
	return e.Kind == EntryFunction
}

// Scope is the set of identifiers a condition compiled with a given
// signature can refer to.
type Scope struct {
	entries []Entry
	index   map[string]int
}

// NewScope builds the scope for a signature. globals may be nil.
// Variables come first in signature order, then the globals, then the
// built-in functions by name.
func NewScope(vars []types.Variable, globals *types.Variable) *Scope {
	s := &Scope{index: make(map[string]int)}
	for _, v := range vars {
		s.add(Entry{Name: v.Name, Kind: EntryVariable, Type: v.Type, Signature: v.Name + ": " + v.Type.Name()})
	}
	if globals != nil {
		s.add(Entry{Name: globals.Name, Kind: EntryGlobals, Type: globals.Type, Signature: globals.Name + ": " + globals.Type.Name()})
	}
	for _, b := range translator.Builtins() {
		s.add(Entry{Name: b.Name, Kind: EntryFunction, Signature: b.Signature, Doc: b.Doc})
	}
	return s
}

func (s *Scope) add(e Entry) {
	if _, dup := s.index[e.Name]; dup {
		return
	}
	s.index[e.Name] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Entries returns every visible identifier.
func (s *Scope) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Lookup returns the identifier called name.
func (s *Scope) Lookup(name string) (Entry, bool) {
	i, ok := s.index[name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Candidate is a completion suggestion.
type Candidate struct {
	Name        string
	Detail      string
	Doc         string
	NeedsParens bool
}

// Complete suggests what may follow the reference at the end of text, which
// is either a partial identifier ("Subj") or a chain of properties ending in
// a partial member name ("Subject.Home.Na"). A chain that does not resolve
// yields no candidates; so does an empty segment such as "a..b".
func Complete(s *Scope, text string) []Candidate {
	chain, prefix := trailingReference(text)
	if chain == nil {
		var out []Candidate
		for _, e := range s.entries {
			if strings.HasPrefix(e.Name, prefix) {
				out = append(out, Candidate{Name: e.Name, Detail: e.Signature, Doc: e.Doc, NeedsParens: e.NeedsParens()})
			}
		}
		return out
	}

	root, ok := s.Lookup(chain[0])
	if !ok || root.Type == nil {
		return nil
	}
	t := root.Type
	for _, name := range chain[1:] {
		m, ok := t.Lookup(name)
		if !ok || m.Kind != types.MemberProperty {
			return nil
		}
		t = m.Type
	}

	var out []Candidate
	for _, m := range PublicMembers(t) {
		if strings.HasPrefix(m.Name, prefix) {
			out = append(out, Candidate{Name: m.Name, Detail: m.Signature(), Doc: m.Doc, NeedsParens: m.NeedsParens()})
		}
	}
	return out
}

// trailingReference splits the reference at the end of text into the
// resolved part and the partial name being typed. chain is nil when the
// reference has no dot.
func trailingReference(text string) (chain []string, prefix string) {
	i := len(text)
	for i > 0 {
		c := text[i-1]
		if c == '.' || c == '_' || c >= 0x80 || isAlnum(c) {
			i--
			continue
		}
		break
	}
	ref := text[i:]
	parts := strings.Split(ref, ".")
	prefix = parts[len(parts)-1]
	if len(parts) == 1 {
		return nil, prefix
	}
	return parts[:len(parts)-1], prefix
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
