package translator

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/sandrolain/gocondition/pkg/types"
)

// Builtin is a function available to every condition.
type Builtin struct {
	Name      string
	Signature string
	Doc       string
	MinArgs   int
	MaxArgs   int // -1 for variadic

	// resolve returns the parameter types the arguments are converted to and
	// the result type, or a nil result when the argument types do not fit.
	resolve func(args []*types.Type) ([]*types.Type, *types.Type)
	impl    func(rng types.Random, args []any) (any, error)
}

var builtins = map[string]*Builtin{}

func register(b *Builtin) {
	builtins[b.Name] = b
}

// Builtins returns the built-in functions sorted by name.
func Builtins() []*Builtin {
	out := make([]*Builtin, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupBuiltin returns the built-in function called name.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

func fixed(params []*types.Type, ret *types.Type) func([]*types.Type) ([]*types.Type, *types.Type) {
	return func(args []*types.Type) ([]*types.Type, *types.Type) {
		for i, a := range args {
			if !a.AssignableTo(params[i]) {
				return nil, nil
			}
		}
		return params, ret
	}
}

// numeric resolves to int when every argument is int and to float when all
// are numeric and at least one is float.
func numeric(args []*types.Type) ([]*types.Type, *types.Type) {
	t := types.Int
	for _, a := range args {
		switch a {
		case types.Int:
		case types.Float:
			t = types.Float
		default:
			return nil, nil
		}
	}
	params := make([]*types.Type, len(args))
	for i := range params {
		params[i] = t
	}
	return params, t
}

func needRandom(rng types.Random, name string) error {
	if rng == nil {
		return types.Errorf(types.ErrInvalidArgument, -1, "%s needs a random source but none was supplied", name)
	}
	return nil
}

func init() {
	register(&Builtin{
		Name:      "Random",
		Signature: "Random(n: int): int",
		Doc:       "Uniform integer in [0, n).",
		MinArgs:   1, MaxArgs: 1,
		resolve: fixed([]*types.Type{types.Int}, types.Int),
		impl: func(rng types.Random, args []any) (any, error) {
			if err := needRandom(rng, "Random"); err != nil {
				return nil, err
			}
			n := args[0].(int64)
			if n <= 0 || n > math.MaxInt {
				return nil, types.Errorf(types.ErrInvalidArgument, -1, "Random(%d): n must be positive", n)
			}
			return int64(rng.IntN(int(n))), nil
		},
	})
	register(&Builtin{
		Name:      "RandomRange",
		Signature: "RandomRange(lo: int, hi: int): int",
		Doc:       "Uniform integer in [lo, hi].",
		MinArgs:   2, MaxArgs: 2,
		resolve: fixed([]*types.Type{types.Int, types.Int}, types.Int),
		impl: func(rng types.Random, args []any) (any, error) {
			if err := needRandom(rng, "RandomRange"); err != nil {
				return nil, err
			}
			lo, hi := args[0].(int64), args[1].(int64)
			span := subInt(hi, lo)
			if lo > hi || span >= math.MaxInt64 || span >= math.MaxInt {
				return nil, types.Errorf(types.ErrInvalidArgument, -1, "RandomRange(%d, %d): invalid range", lo, hi)
			}
			return lo + int64(rng.IntN(int(span)+1)), nil
		},
	})
	register(&Builtin{
		Name:      "RandomFloat",
		Signature: "RandomFloat(): float",
		Doc:       "Uniform float in [0, 1).",
		resolve:   fixed(nil, types.Float),
		impl: func(rng types.Random, _ []any) (any, error) {
			if err := needRandom(rng, "RandomFloat"); err != nil {
				return nil, err
			}
			return rng.Float64(), nil
		},
	})
	register(&Builtin{
		Name:      "Chance",
		Signature: "Chance(p: float): bool",
		Doc:       "True with probability p.",
		MinArgs:   1, MaxArgs: 1,
		resolve: fixed([]*types.Type{types.Float}, types.Bool),
		impl: func(rng types.Random, args []any) (any, error) {
			if err := needRandom(rng, "Chance"); err != nil {
				return nil, err
			}
			return rng.Float64() < args[0].(float64), nil
		},
	})
	register(&Builtin{
		Name:      "Min",
		Signature: "Min(a: number, b: number, ...): number",
		Doc:       "Smallest argument.",
		MinArgs:   2, MaxArgs: -1,
		resolve: numeric,
		impl: func(_ types.Random, args []any) (any, error) {
			return fold(args, func(a, b int64) int64 { return min(a, b) }, math.Min), nil
		},
	})
	register(&Builtin{
		Name:      "Max",
		Signature: "Max(a: number, b: number, ...): number",
		Doc:       "Largest argument.",
		MinArgs:   2, MaxArgs: -1,
		resolve: numeric,
		impl: func(_ types.Random, args []any) (any, error) {
			return fold(args, func(a, b int64) int64 { return max(a, b) }, math.Max), nil
		},
	})
	register(&Builtin{
		Name:      "Abs",
		Signature: "Abs(x: number): number",
		Doc:       "Absolute value; the smallest int saturates to the largest.",
		MinArgs:   1, MaxArgs: 1,
		resolve: numeric,
		impl: func(_ types.Random, args []any) (any, error) {
			if i, ok := args[0].(int64); ok {
				return absInt(i), nil
			}
			return math.Abs(args[0].(float64)), nil
		},
	})
	register(&Builtin{
		Name:      "Clamp",
		Signature: "Clamp(x: number, lo: number, hi: number): number",
		Doc:       "x bounded to [lo, hi].",
		MinArgs:   3, MaxArgs: 3,
		resolve: numeric,
		impl: func(_ types.Random, args []any) (any, error) {
			if x, ok := args[0].(int64); ok {
				lo, hi := args[1].(int64), args[2].(int64)
				if lo > hi {
					return nil, types.Errorf(types.ErrInvalidArgument, -1, "Clamp: lo %d is greater than hi %d", lo, hi)
				}
				return min(max(x, lo), hi), nil
			}
			x, lo, hi := args[0].(float64), args[1].(float64), args[2].(float64)
			if lo > hi {
				return nil, types.Errorf(types.ErrInvalidArgument, -1, "Clamp: lo %g is greater than hi %g", lo, hi)
			}
			return math.Min(math.Max(x, lo), hi), nil
		},
	})
	register(&Builtin{
		Name:      "Float",
		Signature: "Float(x: int): float",
		Doc:       "Converts to float.",
		MinArgs:   1, MaxArgs: 1,
		resolve: fixed([]*types.Type{types.Float}, types.Float),
		impl: func(_ types.Random, args []any) (any, error) {
			return args[0].(float64), nil
		},
	})
	register(&Builtin{
		Name:      "Int",
		Signature: "Int(x: float): int",
		Doc:       "Truncates toward zero, saturating at the int bounds.",
		MinArgs:   1, MaxArgs: 1,
		resolve: fixed([]*types.Type{types.Float}, types.Int),
		impl: func(_ types.Random, args []any) (any, error) {
			return FloatToInt(args[0].(float64)), nil
		},
	})
	register(&Builtin{
		Name:      "Round",
		Signature: "Round(x: float): int",
		Doc:       "Rounds half away from zero, saturating at the int bounds.",
		MinArgs:   1, MaxArgs: 1,
		resolve: fixed([]*types.Type{types.Float}, types.Int),
		impl: func(_ types.Random, args []any) (any, error) {
			return FloatToInt(math.Round(args[0].(float64))), nil
		},
	})
	register(&Builtin{
		Name:      "Len",
		Signature: "Len(s: string): int",
		Doc:       "Number of characters in s.",
		MinArgs:   1, MaxArgs: 1,
		resolve: fixed([]*types.Type{types.String}, types.Int),
		impl: func(_ types.Random, args []any) (any, error) {
			return int64(utf8.RuneCountInString(args[0].(string))), nil
		},
	})
}

func fold(args []any, fi func(a, b int64) int64, ff func(a, b float64) float64) any {
	if acc, ok := args[0].(int64); ok {
		for _, a := range args[1:] {
			acc = fi(acc, a.(int64))
		}
		return acc
	}
	acc := args[0].(float64)
	for _, a := range args[1:] {
		acc = ff(acc, a.(float64))
	}
	return acc
}
