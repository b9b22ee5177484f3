package system

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ecsdemos/runtime/internal/component"
	"github.com/ecsdemos/runtime/internal/config"
	"github.com/ecsdemos/runtime/internal/core/ecs"
	"github.com/ecsdemos/runtime/internal/core/event"
	"github.com/ecsdemos/runtime/internal/core/root"
)

// SpawnEngine builds an enemy every SpawnEvery ticks while fewer than
// MaxEnemies are alive or dying. IDs come back to the pool when a corpse is
// removed.
type SpawnEngine struct {
	factory *root.Factory
	groups  Groups
	cfg     config.ArenaConfig
	ids     *ecs.IDPool
	rng     *rand.Rand
	ticks   int
}

func NewSpawnEngine(factory *root.Factory, bus *event.Bus, groups Groups, cfg config.ArenaConfig, seed int64) *SpawnEngine {
	s := &SpawnEngine{
		factory: factory,
		groups:  groups,
		cfg:     cfg,
		ids:     ecs.NewIDPool(1),
		rng:     rand.New(rand.NewSource(seed)),
	}
	event.Subscribe(bus, func(e event.EntityRemoved) {
		if e.EGID.Group == groups.Dead {
			s.ids.Release(e.EGID.ID)
		}
	})
	return s
}

func (s *SpawnEngine) Name() string { return "spawn" }

// Alive returns how many spawned enemies have not been removed yet.
func (s *SpawnEngine) Alive() int { return s.ids.InUse() }

func (s *SpawnEngine) Step(_ time.Duration) error {
	s.ticks++
	if s.ticks%s.cfg.SpawnEvery != 0 || s.ids.InUse() >= s.cfg.MaxEnemies {
		return nil
	}
	id := s.ids.Next()
	in, err := s.factory.Build(id, s.groups.Enemies, component.EnemyDescriptor, nil)
	if err != nil {
		s.ids.Release(id)
		return fmt.Errorf("spawn enemy %d: %w", id, err)
	}
	values := []error{
		ecs.Set(in, component.Health{HP: s.cfg.EnemyHP, Max: s.cfg.EnemyHP}),
		ecs.Set(in, component.Armor{Value: s.cfg.EnemyArmor}),
		ecs.Set(in, component.Position{X: s.rng.Float32()*100 - 50, Y: s.rng.Float32()*100 - 50}),
		ecs.Set(in, component.Velocity{DX: s.rng.Float32()*2 - 1, DY: s.rng.Float32()*2 - 1}),
	}
	for _, err := range values {
		if err != nil {
			return fmt.Errorf("spawn enemy %d: %w", id, err)
		}
	}
	return nil
}
