package system

import (
	"context"
	"time"

	"github.com/ecsdemos/runtime/internal/component"
	"github.com/ecsdemos/runtime/internal/core/ecs"
)

// arenaHalf bounds positions to [-arenaHalf, arenaHalf] on both axes.
const arenaHalf = 50

// MotionEngine integrates enemy velocities, one worker per group.
type MotionEngine struct {
	dbHolder
	groups  []ecs.GroupID
	workers int
}

func NewMotionEngine(groups Groups, workers int) *MotionEngine {
	return &MotionEngine{groups: []ecs.GroupID{groups.Enemies}, workers: workers}
}

func (m *MotionEngine) Name() string { return "motion" }

func (m *MotionEngine) Ready() error {
	return m.db.ValidateQuery(m.groups, ecs.Component[component.Position](), ecs.Component[component.Velocity]())
}

func (m *MotionEngine) Step(dt time.Duration) error {
	secs := float32(dt.Seconds())
	return ecs.ParallelEach2(context.Background(), m.db, m.workers, m.groups,
		func(_ context.Context, r ecs.Rows2[component.Position, component.Velocity]) error {
			for i := 0; i < r.Count; i++ {
				p, v := &r.A[i], &r.B[i]
				p.X, v.DX = bounce(p.X+v.DX*secs, v.DX)
				p.Y, v.DY = bounce(p.Y+v.DY*secs, v.DY)
			}
			return nil
		})
}

func bounce(pos, vel float32) (float32, float32) {
	switch {
	case pos > arenaHalf:
		return arenaHalf, -vel
	case pos < -arenaHalf:
		return -arenaHalf, -vel
	}
	return pos, vel
}
