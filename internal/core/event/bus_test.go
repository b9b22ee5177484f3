package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecsdemos/runtime/internal/core/ecs"
)

func TestEventsDeliveredAfterSwap(t *testing.T) {
	b := NewBus()
	var got []any
	Subscribe(b, func(e EntityAdded) { got = append(got, e) })
	Subscribe(b, func(e EntityRemoved) { got = append(got, e) })

	Emit(b, EntityAdded{EGID: ecs.NewEGID(1, 0)})
	Emit(b, EntityRemoved{EGID: ecs.NewEGID(2, 0)})
	Emit(b, EntityAdded{EGID: ecs.NewEGID(3, 0)})
	assert.Equal(t, 3, b.Pending())

	assert.Zero(t, b.DispatchAll(), "nothing is delivered before the swap")
	assert.Empty(t, got)

	b.SwapBuffers()
	assert.Equal(t, 3, b.DispatchAll())
	assert.Equal(t, []any{
		EntityAdded{EGID: ecs.NewEGID(1, 0)},
		EntityRemoved{EGID: ecs.NewEGID(2, 0)},
		EntityAdded{EGID: ecs.NewEGID(3, 0)},
	}, got, "emission order is kept across types")

	b.SwapBuffers()
	assert.Zero(t, b.DispatchAll())
}

func TestEmitDuringDispatchWaitsForNextSwap(t *testing.T) {
	b := NewBus()
	swaps := 0
	Subscribe(b, func(e EntitySwapped) {
		swaps++
		Emit(b, EntitySwapped{From: e.To, To: e.From})
	})
	Emit(b, EntitySwapped{})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 1, swaps)
	assert.Equal(t, 1, b.Pending())
}
