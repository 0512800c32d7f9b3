package cache

import (
	"strconv"
	"strings"

	"github.com/sandrolain/gocondition/pkg/types"
)

// SignatureEntry is one declared variable as it participates in a Key.
type SignatureEntry struct {
	Name string
	Type string
}

// Key identifies a compiled condition. Two requests share a program only when
// every field is equal, including the order of the signature: the slot layout
// of a program follows its signature, so a reordered signature is a distinct
// entry.
//
// Type names are only unique within one registry, so a Cache must not be
// shared between compilers backed by different registries.
type Key struct {
	Mode      types.Mode
	Text      string
	Signature []SignatureEntry
	Result    string
	Globals   string
}

// NewKey builds the key for a translation request.
func NewKey(mode types.Mode, text string, signature []types.Variable, result *types.Type, globals *types.Variable) Key {
	k := Key{
		Mode:      mode,
		Text:      text,
		Signature: make([]SignatureEntry, len(signature)),
		Result:    result.String(),
	}
	for i, v := range signature {
		k.Signature[i] = SignatureEntry{Name: v.Name, Type: v.Type.String()}
	}
	if globals != nil {
		k.Globals = globals.Name + ":" + globals.Type.String()
	}
	return k
}

// String encodes the key. Distinct keys always produce distinct strings.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Mode.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Quote(k.Text))
	b.WriteString(" (")
	for i, e := range k.Signature {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(e.Name))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(e.Type))
	}
	b.WriteString(") ")
	b.WriteString(strconv.Quote(k.Result))
	b.WriteByte(' ')
	b.WriteString(strconv.Quote(k.Globals))
	return b.String()
}
