package component

import "github.com/ecsdemos/runtime/internal/core/ecs"

// Arena demo components. Plain values; engines access them by index.

type Health struct {
	HP  int
	Max int
}

type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Armor struct {
	Value int
}

// DeathAnim is only declared by corpses, so it starts zeroed when an enemy
// is swapped into the dead group.
type DeathAnim struct {
	Started   bool
	Remaining int
}

var (
	EnemyDescriptor = ecs.MustDescriptor("Enemy",
		ecs.Component[Health](),
		ecs.Component[Position](),
		ecs.Component[Velocity](),
		ecs.Component[Armor](),
	)
	CorpseDescriptor = ecs.MustDescriptor("Corpse",
		ecs.Component[Health](),
		ecs.Component[Position](),
		ecs.Component[DeathAnim](),
	)
)

// Descriptors returns the descriptors group catalogs may refer to, by name.
func Descriptors() map[string]*ecs.Descriptor {
	return map[string]*ecs.Descriptor{
		EnemyDescriptor.Name():  EnemyDescriptor,
		CorpseDescriptor.Name(): CorpseDescriptor,
	}
}
