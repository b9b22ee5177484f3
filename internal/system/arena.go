package system

import "github.com/ecsdemos/runtime/internal/core/ecs"

// Groups names the arena groups the engines work on.
type Groups struct {
	Enemies ecs.GroupID
	Dead    ecs.GroupID
}

// dbHolder implements coresys.QueryingEngine for the arena engines.
type dbHolder struct {
	db *ecs.EntityDB
}

func (h *dbHolder) SetEntitiesDB(db *ecs.EntityDB) { h.db = db }
