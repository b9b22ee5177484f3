package event

import "github.com/ecsdemos/runtime/internal/core/ecs"

// Entity lifecycle events emitted by a flush.

type EntityAdded struct {
	EGID ecs.EGID
}

// EntityRemoved is delivered after the entity's storage is gone; only its
// identity remains.
type EntityRemoved struct {
	EGID ecs.EGID
}

type EntitySwapped struct {
	From ecs.EGID
	To   ecs.EGID
}
