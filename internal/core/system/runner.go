package system

import (
	"fmt"
	"time"
)

// Runner steps engines in registration order each tick. Engines outside an
// OrderedGroup get no ordering guarantee beyond that.
type Runner struct {
	engines []Engine
}

func NewRunner() *Runner {
	return &Runner{
		engines: make([]Engine, 0, 16),
	}
}

func (r *Runner) Register(e Engine) {
	r.engines = append(r.engines, e)
}

// Engines returns the registered engines in tick order.
func (r *Runner) Engines() []Engine {
	return append([]Engine(nil), r.engines...)
}

// Tick steps every engine and stops at the first failure.
func (r *Runner) Tick(dt time.Duration) error {
	for _, e := range r.engines {
		if err := e.Step(dt); err != nil {
			return fmt.Errorf("engine %s: %w", e.Name(), err)
		}
	}
	return nil
}

// OrderedGroup steps its members strictly in the declared order: each member
// returns before the next one starts. Use it where engines touching the same
// data must run in sequence, such as damage before death before animation.
type OrderedGroup struct {
	name    string
	members []Engine
}

func NewOrderedGroup(name string, members ...Engine) *OrderedGroup {
	return &OrderedGroup{
		name:    name,
		members: append([]Engine(nil), members...),
	}
}

func (g *OrderedGroup) Name() string { return g.name }

func (g *OrderedGroup) Members() []Engine {
	return append([]Engine(nil), g.members...)
}

func (g *OrderedGroup) Step(dt time.Duration) error {
	for _, e := range g.members {
		if err := e.Step(dt); err != nil {
			return fmt.Errorf("%s/%s: %w", g.name, e.Name(), err)
		}
	}
	return nil
}
