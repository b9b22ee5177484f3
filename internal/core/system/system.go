package system

import (
	"time"

	"github.com/ecsdemos/runtime/internal/core/ecs"
)

// Engine is a behavioral unit stepped once per logical tick. Engines read
// and write component values through the EntityDB and request structural
// changes through a factory or functions handle; they never resize storage.
type Engine interface {
	Name() string
	Step(dt time.Duration) error
}

// QueryingEngine receives the EntityDB when it is registered.
type QueryingEngine interface {
	SetEntitiesDB(db *ecs.EntityDB)
}

// ReadyEngine is notified once after registration, with the DB already set.
// Returning an error rejects the engine.
type ReadyEngine interface {
	Ready() error
}

// Composite is implemented by engines that step other engines, so a root
// can inject and track their members.
type Composite interface {
	Members() []Engine
}
