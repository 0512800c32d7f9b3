// Package world provides a small procedural-world domain of sites, people and
// map squares, registered for use in conditions. It backs the tests and the
// condcheck command, and shows how a host application describes its Things.
package world

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Attribute bounds. Writes outside the range are clamped to the nearest bound.
const (
	MaxAttribute int64 = math.MaxInt32
	MinAttribute int64 = -MaxAttribute
)

// DefaultAttributes are registered as properties when Register is called
// without an explicit list.
var DefaultAttributes = []string{"Health", "Fear", "Strength", "Wealth"}

// Thing is any named domain object with integer attributes.
type Thing interface {
	ThingName() string
	Attribute(name string) (int64, bool)
}

// Base implements Thing. It is embedded by the concrete Things and must not
// be copied after first use.
type Base struct {
	Name string

	mu    sync.RWMutex
	attrs map[string]int64
}

// ThingName returns the display name.
func (b *Base) ThingName() string {
	return b.Name
}

// Attribute returns the named attribute.
func (b *Base) Attribute(name string) (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.attrs[name]
	return v, ok
}

// Attributes returns the attribute names in sorted order.
func (b *Base) Attributes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.attrs))
	for k := range b.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetAttribute stores v clamped to [MinAttribute, MaxAttribute].
func (b *Base) SetAttribute(name string, v int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attrs == nil {
		b.attrs = make(map[string]int64)
	}
	b.attrs[name] = ClampAttribute(v)
}

// AddAttribute adds delta to the attribute (missing attributes start at zero)
// and returns the clamped result.
func (b *Base) AddAttribute(name string, delta int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attrs == nil {
		b.attrs = make(map[string]int64)
	}
	cur := b.attrs[name]
	var next int64
	switch {
	case delta > 0 && cur > math.MaxInt64-delta:
		next = MaxAttribute
	case delta < 0 && cur < math.MinInt64-delta:
		next = MinAttribute
	default:
		next = ClampAttribute(cur + delta)
	}
	b.attrs[name] = next
	return next
}

// ClampAttribute bounds v to the attribute range.
func ClampAttribute(v int64) int64 {
	switch {
	case v > MaxAttribute:
		return MaxAttribute
	case v < MinAttribute:
		return MinAttribute
	default:
		return v
	}
}

func (b *Base) init(name string, attrs map[string]int64) {
	b.Name = name
	for k, v := range attrs {
		b.SetAttribute(k, v)
	}
}

// Site is a settlement or landmark.
type Site struct {
	Base
	Population int64
}

// NewSite creates a site with the given attributes.
func NewSite(name string, population int64, attrs map[string]int64) *Site {
	s := &Site{Population: population}
	s.init(name, attrs)
	return s
}

// Person is an inhabitant, optionally living at a site.
type Person struct {
	Base
	Age  int64
	Home *Site
}

// NewPerson creates a person with the given attributes.
func NewPerson(name string, age int64, home *Site, attrs map[string]int64) *Person {
	p := &Person{Age: age, Home: home}
	p.init(name, attrs)
	return p
}

// Square is one cell of the world map.
type Square struct {
	Base
	X, Y  int64
	Biome string
}

// NewSquare creates a map square. Its name is derived from its coordinates.
func NewSquare(x, y int64, biome string, attrs map[string]int64) *Square {
	sq := &Square{X: x, Y: y, Biome: biome}
	sq.init(fmt.Sprintf("%s (%d,%d)", biome, x, y), attrs)
	return sq
}

// Distance is the Chebyshev distance between two squares.
func (s *Square) Distance(o *Square) int64 {
	dx, dy := s.X-o.X, s.Y-o.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// Globals is the world-wide state visible to every condition.
type Globals struct {
	Year   int64
	Season string
	Danger int64
}
