package types

import "fmt"

// Mode selects how condition text is compiled.
type Mode uint8

const (
	// ModeSimple compiles a single expression.
	ModeSimple Mode = iota + 1
	// ModeComplex compiles a statement block whose final value is the result.
	ModeComplex
	// ModeFormattedText compiles a text template with {expression} placeholders.
	ModeFormattedText
)

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeComplex:
		return "complex"
	case ModeFormattedText:
		return "text"
	default:
		return "invalid"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "simple", "":
		return ModeSimple, nil
	case "complex":
		return ModeComplex, nil
	case "text":
		return ModeFormattedText, nil
	default:
		return 0, fmt.Errorf("unknown compilation mode %q", s)
	}
}

// Variable is a named, typed slot a condition may reference.
type Variable struct {
	Name string
	Type *Type
}

// Var is shorthand for Variable{Name: name, Type: t}.
func Var(name string, t *Type) Variable {
	return Variable{Name: name, Type: t}
}

func (v Variable) String() string {
	return v.Name + ": " + v.Type.String()
}

// VariableContext binds variable names to values for one evaluation.
type VariableContext map[string]any

// Random is the per-evaluation random number source. *math/rand/v2.Rand
// satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}
