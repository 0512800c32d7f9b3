package world

import (
	"errors"
	"fmt"

	"github.com/sandrolain/gocondition/pkg/registry"
	"github.com/sandrolain/gocondition/pkg/types"
)

// Types holds the descriptors created by Register.
type Types struct {
	Thing   *types.Type
	Site    *types.Type
	Person  *types.Type
	Square  *types.Type
	Globals *types.Type
}

// Register describes the world domain in reg. Every name in attributes
// becomes an int property of Thing; DefaultAttributes is used when none are
// given. Reading an attribute a Thing does not carry is an evaluation error.
func Register(reg *registry.Registry, attributes ...string) (*Types, error) {
	if len(attributes) == 0 {
		attributes = DefaultAttributes
	}

	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	thing, err := registry.Object[Thing](reg, "Thing", nil)
	if err != nil {
		return nil, err
	}
	check(registry.Property(thing, "Name", types.String, func(t Thing) (any, error) {
		return t.ThingName(), nil
	}))
	for _, attr := range attributes {
		check(registry.Property(thing, attr, types.Int, func(t Thing) (any, error) {
			return attribute(t, attr)
		}))
	}
	check(registry.Method(thing, "Has", types.Bool,
		[]types.Param{{Name: "attribute", Type: types.String}},
		func(t Thing, args []any) (any, error) {
			_, ok := t.Attribute(args[0].(string))
			return ok, nil
		}))
	check(registry.Method(thing, "Attribute", types.Int,
		[]types.Param{{Name: "attribute", Type: types.String}},
		func(t Thing, args []any) (any, error) {
			return attribute(t, args[0].(string))
		}))
	check(registry.Document(thing, "Has", "Reports whether the thing carries the attribute."))

	site, err := registry.Object[*Site](reg, "Site", thing)
	if err != nil {
		return nil, err
	}
	check(registry.Property(site, "Population", types.Int, func(s *Site) (any, error) {
		return s.Population, nil
	}))

	person, err := registry.Object[*Person](reg, "Person", thing)
	if err != nil {
		return nil, err
	}
	check(registry.Property(person, "Age", types.Int, func(p *Person) (any, error) {
		return p.Age, nil
	}))
	check(registry.Property(person, "Home", site, func(p *Person) (any, error) {
		if p.Home == nil {
			return nil, nil
		}
		return p.Home, nil
	}))
	check(registry.Method(person, "LivesAt", types.Bool,
		[]types.Param{{Name: "site", Type: site}},
		func(p *Person, args []any) (any, error) {
			s, _ := args[0].(*Site)
			return p.Home != nil && p.Home == s, nil
		}))

	square, err := registry.Object[*Square](reg, "Square", thing)
	if err != nil {
		return nil, err
	}
	check(registry.Property(square, "X", types.Int, func(s *Square) (any, error) { return s.X, nil }))
	check(registry.Property(square, "Y", types.Int, func(s *Square) (any, error) { return s.Y, nil }))
	check(registry.Property(square, "Biome", types.String, func(s *Square) (any, error) { return s.Biome, nil }))
	check(registry.Method(square, "Distance", types.Int,
		[]types.Param{{Name: "other", Type: square}},
		func(s *Square, args []any) (any, error) {
			o, ok := args[0].(*Square)
			if !ok || o == nil {
				return nil, errors.New("other square is missing")
			}
			return s.Distance(o), nil
		}))

	globals, err := registry.Object[Globals](reg, "Globals", nil)
	if err != nil {
		return nil, err
	}
	check(registry.Property(globals, "Year", types.Int, func(g Globals) (any, error) { return g.Year, nil }))
	check(registry.Property(globals, "Season", types.String, func(g Globals) (any, error) { return g.Season, nil }))
	check(registry.Property(globals, "Danger", types.Int, func(g Globals) (any, error) { return g.Danger, nil }))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Types{
		Thing:   thing,
		Site:    site,
		Person:  person,
		Square:  square,
		Globals: globals,
	}, nil
}

func attribute(t Thing, name string) (any, error) {
	v, ok := t.Attribute(name)
	if !ok {
		return nil, fmt.Errorf("%s has no attribute %q", t.ThingName(), name)
	}
	return v, nil
}
