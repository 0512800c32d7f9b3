package gocondition_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocondition"
	"github.com/sandrolain/gocondition/pkg/compiler"
	"github.com/sandrolain/gocondition/pkg/types"
	"github.com/sandrolain/gocondition/pkg/world"
)

func TestCheck(t *testing.T) {
	reg := gocondition.NewRegistry()
	wt, err := world.Register(reg)
	require.NoError(t, err)
	c := gocondition.New(reg, world.Globals{})
	vars := []types.Variable{types.Var("Subject", wt.Site)}

	assert.NoError(t, gocondition.Check(c, types.ModeSimple, "Subject.Health > 0", vars, types.Bool))

	err = gocondition.Check(c, types.ModeSimple, "Subject.Health", vars, types.Bool)
	assert.ErrorIs(t, err, types.ErrType)
}

func TestMustSimple(t *testing.T) {
	reg := gocondition.NewRegistry()
	wt, err := world.Register(reg)
	require.NoError(t, err)
	c := gocondition.New(reg, world.Globals{})
	vars := []types.Variable{types.Var("Subject", wt.Site)}

	cond := gocondition.MustSimple[bool](c, "Subject.Health <= 0", vars)
	v, err := cond.Evaluate(nil, types.VariableContext{"Subject": world.NewSite("Town", 1, map[string]int64{"Health": 5})})
	require.NoError(t, err)
	assert.False(t, v)

	assert.Panics(t, func() { gocondition.MustSimple[bool](c, "Target.Health", vars) })
	assert.NotEmpty(t, gocondition.Version())
}

func Example() {
	reg := gocondition.NewRegistry()
	wt, _ := world.Register(reg)
	c := gocondition.New(reg, world.Globals{Year: 1})

	vars := []types.Variable{types.Var("Subject", wt.Site)}
	town := world.NewSite("Town", 120, map[string]int64{"Health": 5, "Fear": 23})
	ctx := types.VariableContext{"Subject": town}
	rng := rand.New(rand.NewPCG(1, 1))

	avg, _ := compiler.AsSimple[int](c, "(Subject.Health + Subject.Fear) / 2", vars)
	v, _ := avg.Evaluate(rng, ctx)
	fmt.Println(v)

	text, _ := compiler.AsFormattedText(c, "{Subject.Name} has {Subject.Health} health", vars)
	s, _ := text.Evaluate(rng, ctx)
	fmt.Println(s)
	// Output:
	// 14
	// Town has 5 health
}
