package translator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocondition/pkg/parser"
	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/types"
	"github.com/sandrolain/gocondition/pkg/world"
)

type fixture struct {
	wt     *world.Types
	town   *world.Site
	ada    *world.Person
	nomad  *world.Person
	vars   []types.Variable
	ctx    types.VariableContext
	global *types.Variable
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := registry.New()
	wt, err := world.Register(reg)
	require.NoError(t, err)

	town := world.NewSite("Town", 120, map[string]int64{"Health": 5, "Fear": 23, "Strength": 1})
	ada := world.NewPerson("Ada", 34, town, map[string]int64{"Health": 12})
	nomad := world.NewPerson("Nomad", 20, nil, nil)
	g := types.Var("Globals", wt.Globals)
	return &fixture{
		wt:    wt,
		town:  town,
		ada:   ada,
		nomad: nomad,
		vars: []types.Variable{
			types.Var("Subject", wt.Site),
			types.Var("P", wt.Person),
			types.Var("T", wt.Thing),
		},
		ctx:    types.VariableContext{"Subject": town, "P": ada, "T": town},
		global: &g,
	}
}

func (fx *fixture) request(mode types.Mode, text string, result *types.Type) Request {
	return Request{Mode: mode, Text: text, Signature: fx.vars, Result: result, Globals: fx.global}
}

func (fx *fixture) eval(t *testing.T, mode types.Mode, text string, result *types.Type) (any, error) {
	t.Helper()
	prog, err := New().Translate(fx.request(mode, text, result))
	require.NoError(t, err)
	slots, err := prog.Bind(fx.ctx)
	require.NoError(t, err)
	return prog.Run(Env{
		Vars:    slots,
		Globals: world.Globals{Year: 3, Season: "winter", Danger: 2},
		Random:  rand.New(rand.NewPCG(1, 2)),
	})
}

func codeOf(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var de *types.Error
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestScenarios(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		name     string
		mode     types.Mode
		text     string
		result   *types.Type
		expected any
	}{
		{"average", types.ModeSimple, "(Subject.Health + Subject.Fear)/2", types.Int, int64(14)},
		{"product", types.ModeSimple, "Subject.Health * Subject.Strength", types.Int, int64(5)},
		{"comparison", types.ModeSimple, "Subject.Health <= 0", types.Bool, false},
		{"text", types.ModeFormattedText, "{Subject.Name} has {Subject.Health} health", types.String, "Town has 5 health"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := fx.eval(t, tc.mode, tc.text, tc.result)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestExpressions(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		text     string
		result   *types.Type
		expected any
	}{
		{"1 + 2 * 3", types.Int, int64(7)},
		{"7 / 2", types.Int, int64(3)},
		{"-7 / 2", types.Int, int64(-3)},
		{"-7 % 3", types.Int, int64(-1)},
		{"7 / 2.0", types.Float, 3.5},
		{"7.5 % 2", types.Float, 1.5},
		{"1 + 2", types.Float, 3.0},
		{"'a' + 'b'", types.String, "ab"},
		{"'abc' < 'abd'", types.Bool, true},
		{"1 == 1.0", types.Bool, true},
		{"2 >= 2.5", types.Bool, false},
		{"0.0 / 0.0 <= 1.0", types.Bool, false},
		{"0.0 / 0.0 >= 1.0", types.Bool, false},
		{"0.0 / 0.0 < 1.0", types.Bool, false},
		{"0.0 / 0.0 > 1", types.Bool, false},
		{"0.0 / 0.0 == 0.0 / 0.0", types.Bool, false},
		{"0.0 / 0.0 != 0.0 / 0.0", types.Bool, true},
		{"1.0 / 0.0 >= 9223372036854775807", types.Bool, true},
		{"true && !false", types.Bool, true},
		{"not (1 > 2) and 3 >= 3", types.Bool, true},
		{"false or 1 != 1", types.Bool, false},
		{"1 < 2 ? 10 : 2.5", types.Float, 10.0},
		{"Subject.Health > 3 ? 'ok' : 'low'", types.String, "ok"},
		{"9223372036854775807 + 1", types.Int, int64(math.MaxInt64)},
		{"-9223372036854775807 - 2", types.Int, int64(math.MinInt64)},
		{"9223372036854775807 * -2", types.Int, int64(math.MinInt64)},
		{"-9223372036854775808", types.Int, int64(math.MinInt64)},
		{"-(-9223372036854775808)", types.Int, int64(math.MaxInt64)},
		{"false && 1 / 0 == 0", types.Bool, false},
		{"true || 1 / 0 == 0", types.Bool, true},
		{"Max(1, 5, 3)", types.Int, int64(5)},
		{"Min(2, 1.5)", types.Float, 1.5},
		{"Abs(-4)", types.Int, int64(4)},
		{"Clamp(15, 0, 10)", types.Int, int64(10)},
		{"Int(2.9)", types.Int, int64(2)},
		{"Round(2.5)", types.Int, int64(3)},
		{"Float(3) / 2", types.Float, 1.5},
		{"Len('héllo')", types.Int, int64(5)},
		{"Subject.Has('Health') && !Subject.Has('Wealth')", types.Bool, true},
		{"Subject.Attribute('Fear')", types.Int, int64(23)},
		{"Subject.Population", types.Int, int64(120)},
		{"P.LivesAt(P.Home)", types.Bool, true},
		{"P.LivesAt(Subject)", types.Bool, true},
		{"P.Home.Name", types.String, "Town"},
		{"P.Home == Subject", types.Bool, true},
		{"T == Subject", types.Bool, true},
		{"T.Health + P.Health", types.Int, int64(17)},
		{"Globals.Year + Globals.Danger", types.Int, int64(5)},
		{"Globals.Season == 'winter'", types.Bool, true},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			v, err := fx.eval(t, types.ModeSimple, tc.text, tc.result)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestObjectResult(t *testing.T) {
	fx := newFixture(t)

	v, err := fx.eval(t, types.ModeSimple, "Subject", fx.wt.Thing)
	require.NoError(t, err)
	assert.Same(t, fx.town, v)

	v, err = fx.eval(t, types.ModeSimple, "P.Health > 10 ? P.Home : Subject", fx.wt.Site)
	require.NoError(t, err)
	assert.Same(t, fx.town, v)
}

func TestCompileErrors(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		name   string
		mode   types.Mode
		text   string
		result *types.Type
		code   types.ErrorCode
	}{
		{"undeclared variable", types.ModeSimple, "Target.Health > 0", types.Bool, types.ErrUndeclared},
		{"undeclared function", types.ModeSimple, "Foo(1)", types.Int, types.ErrUndeclared},
		{"unknown member", types.ModeSimple, "Subject.Mana", types.Int, types.ErrUnknownMember},
		{"member of primitive", types.ModeSimple, "Subject.Health.Value", types.Int, types.ErrUnknownMember},
		{"inherited only downward", types.ModeSimple, "T.Population", types.Int, types.ErrUnknownMember},
		{"builtin arity", types.ModeSimple, "Random(1, 2)", types.Int, types.ErrArgumentCount},
		{"method arity", types.ModeSimple, "Subject.Has()", types.Bool, types.ErrArgumentCount},
		{"method argument", types.ModeSimple, "Subject.Has(1)", types.Bool, types.ErrArgumentType},
		{"method object argument", types.ModeSimple, "P.LivesAt(T)", types.Bool, types.ErrArgumentType},
		{"builtin argument", types.ModeSimple, "Max('a', 1)", types.Int, types.ErrArgumentType},
		{"arithmetic operands", types.ModeSimple, "1 + true", types.Int, types.ErrOperandType},
		{"string minus", types.ModeSimple, "'a' - 'b'", types.String, types.ErrOperandType},
		{"negate string", types.ModeSimple, "-'x'", types.String, types.ErrOperandType},
		{"not int", types.ModeSimple, "!1", types.Bool, types.ErrOperandType},
		{"logical int", types.ModeSimple, "1 && true", types.Bool, types.ErrOperandType},
		{"compare mixed", types.ModeSimple, "1 < 'a'", types.Bool, types.ErrOperandType},
		{"equal mixed", types.ModeSimple, "1 == 'a'", types.Bool, types.ErrOperandType},
		{"equal unrelated objects", types.ModeSimple, "P == Subject", types.Bool, types.ErrOperandType},
		{"ternary condition", types.ModeSimple, "1 ? 2 : 3", types.Int, types.ErrOperandType},
		{"ternary branches", types.ModeSimple, "true ? 1 : 'a'", types.Int, types.ErrOperandType},
		{"bool requested as int", types.ModeSimple, "Subject.Health <= 0", types.Int, types.ErrResultType},
		{"float requested as int", types.ModeSimple, "1.5", types.Int, types.ErrResultType},
		{"base requested as subtype", types.ModeSimple, "T", fx.wt.Site, types.ErrResultType},
		{"text requested as int", types.ModeFormattedText, "{Subject.Health}", types.Int, types.ErrResultType},
		{"globals in text", types.ModeFormattedText, "{Globals}", types.String, types.ErrNotStringifiable},
		{"missing return", types.ModeComplex, "if Subject.Health > 0 { return true; }", types.Bool, types.ErrMissingReturn},
		{"assign to variable", types.ModeComplex, "Subject = Subject; true", types.Bool, types.ErrAssignType},
		{"assign wrong type", types.ModeComplex, "let a = 1; a = 'x'; true", types.Bool, types.ErrAssignType},
		{"assign undeclared", types.ModeComplex, "b = 1; true", types.Bool, types.ErrUndeclared},
		{"return wrong type", types.ModeComplex, "return 'x';", types.Bool, types.ErrResultType},
		{"let shadows variable", types.ModeComplex, "let Subject = 1; true", types.Bool, types.ErrRedeclared},
		{"let twice", types.ModeComplex, "let a = 1; let a = 2; true", types.Bool, types.ErrRedeclared},
		{"let shadows builtin", types.ModeComplex, "let Max = 1; true", types.Bool, types.ErrRedeclared},
		{"let shadows outer local", types.ModeComplex, "let a = 1; if true { let a = 2; } true", types.Bool, types.ErrRedeclared},
		{"local out of scope", types.ModeComplex, "if true { let b = 1; } b > 0", types.Bool, types.ErrUndeclared},
		{"if condition", types.ModeComplex, "if 1 { return true; } false", types.Bool, types.ErrOperandType},
		{"unreachable", types.ModeComplex, "return true; return false;", types.Bool, types.ErrSyntaxError},
		{"builtin not called", types.ModeSimple, "Random", types.Int, types.ErrNotCallable},
		{"method not called", types.ModeSimple, "Subject.Has", types.Bool, types.ErrNotCallable},
		{"property called", types.ModeSimple, "Subject.Health()", types.Int, types.ErrNotCallable},
		{"variable called", types.ModeSimple, "Subject(1)", types.Int, types.ErrNotCallable},
		{"parse error", types.ModeSimple, "Subject.Health +", types.Int, types.ErrUnexpectedEnd},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Translate(fx.request(tc.mode, tc.text, tc.result))
			assert.Equal(t, tc.code, codeOf(t, err), "%v", err)
		})
	}
}

func TestUndeclaredVariableIsNamed(t *testing.T) {
	fx := newFixture(t)
	_, err := New().Translate(fx.request(types.ModeSimple, "Subject.Health > Target.Health", types.Bool))
	require.ErrorIs(t, err, types.ErrSignature)

	var de *types.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Target", de.Token)
	assert.Equal(t, 17, de.Position)
	assert.Contains(t, de.Message, `"Target"`)
}

func TestSignatureErrors(t *testing.T) {
	tests := []struct {
		name string
		sig  []types.Variable
		code types.ErrorCode
	}{
		{"bad identifier", []types.Variable{types.Var("1x", types.Int)}, types.ErrInvalidVariable},
		{"keyword", []types.Variable{types.Var("let", types.Int)}, types.ErrInvalidVariable},
		{"no type", []types.Variable{types.Var("a", nil)}, types.ErrInvalidVariable},
		{"duplicate", []types.Variable{types.Var("a", types.Int), types.Var("a", types.Float)}, types.ErrDuplicateVariable},
		{"globals name", []types.Variable{types.Var("Globals", types.Int)}, types.ErrDuplicateVariable},
	}
	g := types.Var("Globals", types.Int)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Translate(Request{
				Mode: types.ModeSimple, Text: "true", Signature: tc.sig, Result: types.Bool, Globals: &g,
			})
			assert.Equal(t, tc.code, codeOf(t, err))
			assert.ErrorIs(t, err, types.ErrSignature)
		})
	}

	_, err := New().Translate(Request{Mode: types.ModeSimple, Text: "true"})
	assert.Equal(t, types.ErrUnsupportedResult, codeOf(t, err))
}

func TestEvaluationErrors(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		name     string
		text     string
		result   *types.Type
		ctx      types.VariableContext
		code     types.ErrorCode
		position int
	}{
		{"division by zero", "Subject.Health / (Subject.Strength - 1)", types.Int, nil, types.ErrDivisionByZero, 15},
		{"modulo by zero", "1 % 0", types.Int, nil, types.ErrDivisionByZero, 2},
		{"missing attribute", "Subject.Wealth", types.Int, nil, types.ErrMemberAccess, 8},
		{"missing home", "P.Home.Name == ''", types.Bool,
			types.VariableContext{"P": fx.nomad}, types.ErrMemberAccess, 7},
		{"missing method receiver", "P.Home.Has('Fear')", types.Bool,
			types.VariableContext{"P": fx.nomad}, types.ErrMemberAccess, 7},
		{"clamp bounds", "Clamp(1, 5, 0)", types.Int, nil, types.ErrInvalidArgument, 0},
		{"random bound", "1 + Random(0)", types.Int, nil, types.ErrInvalidArgument, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := types.VariableContext{"Subject": fx.town, "P": fx.ada, "T": fx.town}
			for k, v := range tc.ctx {
				ctx[k] = v
			}
			prog, err := New().Translate(fx.request(types.ModeSimple, tc.text, tc.result))
			require.NoError(t, err)
			slots, err := prog.Bind(ctx)
			require.NoError(t, err)
			_, err = prog.Run(Env{Vars: slots, Random: rand.New(rand.NewPCG(1, 2))})

			var de *types.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.position, de.Position)
			assert.ErrorIs(t, err, types.ErrEvaluation)
		})
	}
}

func TestRandomNeedsSource(t *testing.T) {
	prog, err := New().Translate(Request{Mode: types.ModeSimple, Text: "Chance(0.5)", Result: types.Bool})
	require.NoError(t, err)
	_, err = prog.Run(Env{})
	assert.Equal(t, types.ErrInvalidArgument, codeOf(t, err))
}

func TestRandomIsReproducible(t *testing.T) {
	prog, err := New().Translate(Request{
		Mode: types.ModeSimple, Text: "RandomRange(1, 6) * 100 + Random(10)", Result: types.Int,
	})
	require.NoError(t, err)

	run := func(seed uint64) any {
		v, err := prog.Run(Env{Random: rand.New(rand.NewPCG(seed, seed))})
		require.NoError(t, err)
		return v
	}
	first := run(7)
	assert.Equal(t, first, run(7))

	n := first.(int64)
	assert.GreaterOrEqual(t, n, int64(100))
	assert.Less(t, n, int64(610))
}

func TestBind(t *testing.T) {
	fx := newFixture(t)
	prog, err := New().Translate(fx.request(types.ModeSimple, "Subject.Health > 0", types.Bool))
	require.NoError(t, err)

	_, err = prog.Bind(types.VariableContext{"Subject": fx.town, "P": fx.ada})
	assert.Equal(t, types.ErrMissingVariable, codeOf(t, err))

	_, err = prog.Bind(types.VariableContext{"Subject": fx.town, "P": fx.ada, "T": fx.town, "Extra": 1})
	assert.Equal(t, types.ErrUnexpectedVariable, codeOf(t, err))

	_, err = prog.Bind(types.VariableContext{"Subject": fx.ada, "P": fx.ada, "T": fx.town})
	assert.Equal(t, types.ErrVariableType, codeOf(t, err), "a Person is not a Site")

	_, err = prog.Bind(types.VariableContext{"Subject": nil, "P": fx.ada, "T": fx.town})
	assert.Equal(t, types.ErrVariableType, codeOf(t, err))

	slots, err := prog.Bind(types.VariableContext{"Subject": fx.town, "P": fx.ada, "T": fx.ada})
	require.NoError(t, err)
	assert.Len(t, slots, 3)
	assert.Same(t, fx.ada, slots[2])
}

func TestBindNormalizesPrimitives(t *testing.T) {
	prog, err := New().Translate(Request{
		Mode:      types.ModeSimple,
		Text:      "n + f",
		Signature: []types.Variable{types.Var("n", types.Int), types.Var("f", types.Float)},
		Result:    types.Float,
	})
	require.NoError(t, err)

	slots, err := prog.Bind(types.VariableContext{"n": int8(2), "f": 3})
	require.NoError(t, err)
	v, err := prog.Run(Env{Vars: slots})
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	_, err = prog.Bind(types.VariableContext{"n": 2.5, "f": 3})
	assert.Equal(t, types.ErrVariableType, codeOf(t, err))
}

func TestBlocks(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		text     string
		result   *types.Type
		expected any
	}{
		{
			`let total = Subject.Health + Subject.Fear;
			if total > 20 { return 'high'; } else if total > 10 { return 'mid'; }
			'low'`,
			types.String, "high",
		},
		{"let a = 1; if true { let b = 2; a = a + b; } a", types.Int, int64(3)},
		{"let x = 1.5; x = 2; x", types.Float, 2.0},
		{"if Subject.Health > 100 { return 1; } else { return 2; }", types.Int, int64(2)},
		{"var n = 0; if P.LivesAt(Subject) { n = 10; } n + Globals.Year", types.Int, int64(13)},
		{"let s = P.Home; s.Name", types.String, "Town"},
		{"return 1;", types.Float, 1.0},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			v, err := fx.eval(t, types.ModeComplex, tc.text, tc.result)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestTemplates(t *testing.T) {
	fx := newFixture(t)
	tests := []struct {
		text     string
		expected string
	}{
		{"{Subject.Health / 2.0} {Subject.Health > 1} {'x'}", "2.5 true x"},
		{"{{{Subject.Name}}}", "{Town}"},
		{"{P.Name} lives in {P.Home}", "Ada lives in Town"},
		{"Year {Globals.Year}, {Globals.Season}", "Year 3, winter"},
		{"no placeholders", "no placeholders"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			v, err := fx.eval(t, types.ModeFormattedText, tc.text, types.String)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestTemplateMissingObject(t *testing.T) {
	fx := newFixture(t)
	prog, err := New().Translate(fx.request(types.ModeFormattedText, "home: {P.Home}", types.String))
	require.NoError(t, err)
	slots, err := prog.Bind(types.VariableContext{"Subject": fx.town, "P": fx.nomad, "T": fx.town})
	require.NoError(t, err)
	_, err = prog.Run(Env{Vars: slots})
	assert.Equal(t, types.ErrMemberAccess, codeOf(t, err))
}

func TestProgram(t *testing.T) {
	fx := newFixture(t)
	tr := New()

	withGlobals, err := tr.Translate(fx.request(types.ModeSimple, "Globals.Year > 1", types.Bool))
	require.NoError(t, err)
	assert.True(t, withGlobals.UsesGlobals())

	prog, err := tr.Translate(fx.request(types.ModeSimple, "Subject.Health <= 0", types.Bool))
	require.NoError(t, err)
	assert.False(t, prog.UsesGlobals())
	assert.Equal(t, types.ModeSimple, prog.Mode())
	assert.Equal(t, "Subject.Health <= 0", prog.Source())
	assert.Equal(t, types.Bool, prog.Result())
	assert.Contains(t, prog.String(), `simple "Subject.Health <= 0" -> bool`)

	sig := prog.Signature()
	sig[0].Name = "changed"
	assert.Equal(t, "Subject", prog.Signature()[0].Name)

	again, err := tr.Translate(fx.request(types.ModeSimple, "Subject.Health <= 0", types.Bool))
	require.NoError(t, err)
	assert.NotEqual(t, prog.ID(), again.ID())
}

func TestTranslatorParseOptions(t *testing.T) {
	deep := "((((((1))))))"
	_, err := New().Translate(Request{Mode: types.ModeSimple, Text: deep, Result: types.Int})
	require.NoError(t, err)

	tr := New(WithParseOptions(parser.WithMaxDepth(3)))
	_, err = tr.Translate(Request{Mode: types.ModeSimple, Text: deep, Result: types.Int})
	assert.Equal(t, types.ErrTooDeep, codeOf(t, err))
}

func TestBuiltins(t *testing.T) {
	all := Builtins()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
	b, ok := LookupBuiltin("Clamp")
	require.True(t, ok)
	assert.Equal(t, 3, b.MinArgs)
	assert.NotEmpty(t, b.Doc)

	_, ok = LookupBuiltin("Nope")
	assert.False(t, ok)
}
