package root

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ecsdemos/runtime/internal/core/ecs"
	"github.com/ecsdemos/runtime/internal/core/event"
	"github.com/ecsdemos/runtime/internal/core/submit"
	"github.com/ecsdemos/runtime/internal/core/system"
)

type health struct{ HP int }
type anim struct{ Frames int }

var (
	enemyDesc = ecs.MustDescriptor("Enemy", ecs.Component[health]())
	deadDesc  = ecs.MustDescriptor("Dead", ecs.Component[health](), ecs.Component[anim]())
)

type world struct {
	root    *EnginesRoot
	enemies ecs.GroupID
	dead    ecs.GroupID
}

func newWorld(t *testing.T, sched submit.Scheduler) *world {
	t.Helper()
	s := ecs.NewSchema()
	enemies, err := s.AddGroup("Enemies", enemyDesc)
	require.NoError(t, err)
	dead, err := s.AddGroup("Dead", deadDesc)
	require.NoError(t, err)
	r, err := New(s, sched, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(r.Dispose)
	return &world{root: r, enemies: enemies, dead: dead}
}

// funcEngine steps a closure.
type funcEngine struct {
	name string
	step func() error
	db   *ecs.EntityDB
}

func (e *funcEngine) Name() string                   { return e.name }
func (e *funcEngine) Step(time.Duration) error       { return e.step() }
func (e *funcEngine) SetEntitiesDB(db *ecs.EntityDB) { e.db = db }

func enemyHP(t *testing.T, w *world) []int {
	t.Helper()
	rows, err := ecs.Query1[health](w.root.DB(), w.enemies)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	hp := make([]int, 0, rows[0].Count)
	for _, h := range rows[0].A[:rows[0].Count] {
		hp = append(hp, h.HP)
	}
	return hp
}

func TestBuildRemoveScenario(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	egid := ecs.NewEGID(1, w.enemies)

	in, err := w.root.Factory().Build(1, w.enemies, enemyDesc, nil)
	require.NoError(t, err)
	require.NoError(t, ecs.Set(in, health{HP: 100}))
	assert.Empty(t, enemyHP(t, w))

	require.NoError(t, w.root.Tick(time.Millisecond))
	assert.Equal(t, []int{100}, enemyHP(t, w))

	require.NoError(t, w.root.Functions().Remove(egid))
	assert.Equal(t, []int{100}, enemyHP(t, w))
	require.NoError(t, w.root.Tick(time.Millisecond))
	assert.Empty(t, enemyHP(t, w))
}

func TestDuplicateBuildScenario(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	f := w.root.Factory()

	in, err := f.Build(5, w.enemies, enemyDesc, nil)
	require.NoError(t, err)
	require.NoError(t, ecs.Set(in, health{HP: 1}))
	_, err = f.Build(5, w.enemies, enemyDesc, nil)
	require.ErrorIs(t, err, ecs.ErrDuplicateBuild)
	assert.Contains(t, err.Error(), "EGID(5, Enemies)")

	require.NoError(t, w.root.Tick(time.Millisecond))
	assert.Equal(t, []int{1}, enemyHP(t, w))
}

func TestEngineBuildsVisibleOnlyAfterFlush(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	var seen []int
	builder := &funcEngine{name: "spawner"}
	builder.step = func() error {
		rows, err := ecs.Query1[health](builder.db, w.enemies)
		if err != nil {
			return err
		}
		seen = append(seen, rows[0].Count)
		in, err := w.root.Factory().Build(ecs.EntityID(len(seen)), w.enemies, enemyDesc, nil)
		if err != nil {
			return err
		}
		return ecs.Set(in, health{HP: len(seen)})
	}
	require.NoError(t, w.root.AddEngine(builder))
	require.Same(t, w.root.DB(), builder.db)

	for i := 0; i < 3; i++ {
		require.NoError(t, w.root.Tick(time.Millisecond))
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, uint64(3), w.root.Ticks())
}

func TestSwapGroupThroughRoot(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	in, err := w.root.Factory().Build(3, w.enemies, enemyDesc, "view")
	require.NoError(t, err)
	require.NoError(t, ecs.Set(in, health{HP: 0}))
	require.NoError(t, w.root.Tick(time.Millisecond))

	to, err := w.root.Functions().SwapGroup(in.EGID(), w.dead)
	require.NoError(t, err)
	require.NoError(t, w.root.Tick(time.Millisecond))

	a, err := ecs.Get[anim](w.root.DB(), to)
	require.NoError(t, err)
	assert.Zero(t, a.Frames)
	ext, err := w.root.DB().ExternalData(to)
	require.NoError(t, err)
	assert.Equal(t, "view", ext)
}

func TestLifecycleEventsNextTick(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	var log []string
	event.Subscribe(w.root.Events(), func(e event.EntityAdded) { log = append(log, "added "+e.EGID.String()) })
	event.Subscribe(w.root.Events(), func(e event.EntitySwapped) { log = append(log, "swapped "+e.To.String()) })
	event.Subscribe(w.root.Events(), func(e event.EntityRemoved) { log = append(log, "removed "+e.EGID.String()) })
	require.NoError(t, w.root.AddEngine(&funcEngine{name: "observer", step: func() error {
		log = append(log, "step")
		return nil
	}}))

	_, err := w.root.Factory().Build(1, w.enemies, enemyDesc, nil)
	require.NoError(t, err)
	require.NoError(t, w.root.Tick(time.Millisecond))
	_, err = w.root.Functions().SwapGroup(ecs.NewEGID(1, w.enemies), w.dead)
	require.NoError(t, err)
	require.NoError(t, w.root.Tick(time.Millisecond))
	require.NoError(t, w.root.Functions().Remove(ecs.NewEGID(1, w.dead)))
	require.NoError(t, w.root.Tick(time.Millisecond))
	require.NoError(t, w.root.Tick(time.Millisecond))

	assert.Equal(t, []string{
		"step",
		"added EGID(1, #0)", "step",
		"swapped EGID(1, #1)", "step",
		"removed EGID(1, #1)", "step",
	}, log)
}

func TestStaleHandlesAfterDispose(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	f, fn := w.root.Factory(), w.root.Functions()
	w.root.Dispose()
	w.root.Dispose()

	_, err := f.Build(1, w.enemies, enemyDesc, nil)
	require.ErrorIs(t, err, ErrStaleRoot)
	require.ErrorIs(t, f.Preallocate(w.enemies, enemyDesc, 10), ErrStaleRoot)
	require.ErrorIs(t, fn.Remove(ecs.NewEGID(1, w.enemies)), ErrStaleRoot)
	_, err = fn.SwapGroup(ecs.NewEGID(1, w.enemies), w.dead)
	require.ErrorIs(t, err, ErrStaleRoot)
	require.ErrorIs(t, fn.RemoveGroup(w.enemies), ErrStaleRoot)

	require.ErrorIs(t, w.root.Tick(time.Millisecond), ErrDisposed)
	require.ErrorIs(t, w.root.AddEngine(&funcEngine{name: "late"}), ErrDisposed)
	assert.Nil(t, f.link.root.Load(), "handle no longer references the root")
}

func TestReentrantTickIsBusy(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	var inner error
	require.NoError(t, w.root.AddEngine(&funcEngine{name: "reentrant", step: func() error {
		inner = w.root.Tick(time.Millisecond)
		return nil
	}}))
	require.NoError(t, w.root.Tick(time.Millisecond))
	require.ErrorIs(t, inner, ErrBusy)
}

func TestFlushFromEngineIsBusy(t *testing.T) {
	sched := submit.NewImmediate()
	w := newWorld(t, sched)
	var inner error
	require.NoError(t, w.root.AddEngine(&funcEngine{name: "flusher", step: func() error {
		inner = sched.EndOfTick()
		return nil
	}}))
	require.NoError(t, w.root.Tick(time.Millisecond))
	require.ErrorIs(t, inner, ErrBusy)
	require.ErrorIs(t, inner, submit.ErrFlushSkipped)
}

func TestPumpSchedulerSingleFlushPerTick(t *testing.T) {
	pump := submit.NewPump()
	w := newWorld(t, pump)

	_, err := w.root.Factory().Build(1, w.enemies, enemyDesc, nil)
	require.NoError(t, err)
	require.NoError(t, w.root.Tick(time.Millisecond))
	assert.Empty(t, enemyHP(t, w), "flush waits for the pump")
	require.ErrorIs(t, w.root.Tick(time.Millisecond), ErrSubmissionDue)

	ran, err := pump.Pump()
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Len(t, enemyHP(t, w), 1)
	require.NoError(t, w.root.Tick(time.Millisecond))
}

func TestAddEngineRejectsDuplicates(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	a := &funcEngine{name: "a", step: func() error { return nil }}
	b := &funcEngine{name: "b", step: func() error { return nil }}
	require.NoError(t, w.root.AddEngine(a))
	require.ErrorIs(t, w.root.AddEngine(system.NewOrderedGroup("g", b, a)), ErrAlreadyRegistered)
	require.ErrorIs(t, w.root.AddEngine(system.NewOrderedGroup("h", b, b)), ErrAlreadyRegistered)

	g := system.NewOrderedGroup("ok", b)
	require.NoError(t, w.root.AddEngine(g))
	assert.Same(t, w.root.DB(), b.db)
	require.ErrorIs(t, w.root.AddEngine(g), ErrAlreadyRegistered)
}

type readyEngine struct {
	funcEngine
	err error
}

func (e *readyEngine) Ready() error { return e.err }

func TestReadyErrorRejectsEngine(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	boom := errors.New("bad query")
	require.ErrorIs(t, w.root.AddEngine(&readyEngine{funcEngine: funcEngine{name: "r"}, err: boom}), boom)
	require.NoError(t, w.root.AddEngine(&readyEngine{funcEngine: funcEngine{name: "r", step: func() error { return nil }}}))
}

func TestEngineErrorSkipsFlush(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	boom := errors.New("boom")
	require.NoError(t, w.root.AddEngine(&funcEngine{name: "bad", step: func() error {
		_, err := w.root.Factory().Build(1, w.enemies, enemyDesc, nil)
		if err != nil {
			return err
		}
		return boom
	}}))
	err := w.root.Tick(time.Millisecond)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "engine bad")
	assert.Equal(t, 1, w.root.Pending())
}

func TestEmptyTickKeepsVersion(t *testing.T) {
	w := newWorld(t, submit.NewImmediate())
	require.NoError(t, w.root.Factory().Preallocate(w.enemies, enemyDesc, 32))
	require.ErrorIs(t, w.root.Factory().Preallocate(w.enemies, deadDesc, 32), ecs.ErrDescriptorMismatch)
	require.NoError(t, w.root.Tick(time.Millisecond))
	v := w.root.DB().Version()
	require.NoError(t, w.root.Tick(time.Millisecond))
	assert.Equal(t, v, w.root.DB().Version())
	assert.Zero(t, w.root.Pending())
}
