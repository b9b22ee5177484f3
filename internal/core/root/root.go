// Package root owns an EntityDB together with the engines stepping over it
// and the queue of structural operations flushed by its scheduler.
package root

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecsdemos/runtime/internal/core/ecs"
	"github.com/ecsdemos/runtime/internal/core/event"
	"github.com/ecsdemos/runtime/internal/core/submit"
	"github.com/ecsdemos/runtime/internal/core/system"
)

var (
	ErrStaleRoot         = errors.New("root: handle outlived its engines root")
	ErrDisposed          = errors.New("root: disposed")
	ErrBusy              = errors.New("root: tick or flush already in progress")
	ErrAlreadyRegistered = errors.New("root: engine already registered")
	ErrSubmissionDue     = errors.New("root: previous tick not flushed yet")
)

// link is the only thing Factory and Functions hold. Dispose clears it, so a
// handle kept past its root neither keeps the root reachable nor reaches it.
type link struct {
	root atomic.Pointer[EnginesRoot]
}

func (l *link) load() (*EnginesRoot, error) {
	r := l.root.Load()
	if r == nil {
		return nil, ErrStaleRoot
	}
	return r, nil
}

// EnginesRoot is driven by a single host goroutine: Tick steps engines and
// then hands over to the scheduler, which calls back into flush.
type EnginesRoot struct {
	id         string
	db         *ecs.EntityDB
	queue      *ecs.Queue
	runner     *system.Runner
	bus        *event.Bus
	scheduler  submit.Scheduler
	log        *zap.Logger
	link       *link
	registered map[any]struct{}

	phase    sync.Mutex // held by Tick and flush, taken with TryLock
	disposed bool
	ticks    uint64
	flushes  uint64
}

// New builds the EntityDB for schema, freezing it, and binds scheduler to the
// new root. A nil logger disables logging.
func New(schema *ecs.Schema, scheduler submit.Scheduler, log *zap.Logger) (*EnginesRoot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db := ecs.NewEntityDB(schema)
	r := &EnginesRoot{
		id:         uuid.NewString(),
		db:         db,
		queue:      ecs.NewQueue(db),
		runner:     system.NewRunner(),
		bus:        event.NewBus(),
		scheduler:  scheduler,
		link:       &link{},
		registered: make(map[any]struct{}, 16),
	}
	r.log = log.With(zap.String("root", r.id))
	if err := scheduler.Bind(r.flush); err != nil {
		return nil, fmt.Errorf("bind scheduler: %w", err)
	}
	r.link.root.Store(r)
	return r, nil
}

func (r *EnginesRoot) ID() string            { return r.id }
func (r *EnginesRoot) DB() *ecs.EntityDB     { return r.db }
func (r *EnginesRoot) Events() *event.Bus    { return r.bus }
func (r *EnginesRoot) Factory() *Factory     { return &Factory{link: r.link} }
func (r *EnginesRoot) Functions() *Functions { return &Functions{link: r.link} }
func (r *EnginesRoot) Ticks() uint64         { return r.ticks }
func (r *EnginesRoot) Pending() int          { return r.queue.Len() }

// AddEngine registers e, and the members of e when it is a composite. Engines
// tick in registration order; each engine may be registered once.
func (r *EnginesRoot) AddEngine(e system.Engine) error {
	if r.disposed {
		return ErrDisposed
	}
	all := flatten(e, nil)
	seen := make(map[any]struct{}, len(all))
	for _, m := range all {
		key, ok := engineKey(m)
		if !ok {
			continue
		}
		_, dupRoot := r.registered[key]
		_, dupSelf := seen[key]
		if dupRoot || dupSelf {
			return fmt.Errorf("add engine %s: %s: %w", e.Name(), m.Name(), ErrAlreadyRegistered)
		}
		seen[key] = struct{}{}
	}
	for _, m := range all {
		if q, ok := m.(system.QueryingEngine); ok {
			q.SetEntitiesDB(r.db)
		}
	}
	for _, m := range all {
		if rd, ok := m.(system.ReadyEngine); ok {
			if err := rd.Ready(); err != nil {
				return fmt.Errorf("add engine %s: %s not ready: %w", e.Name(), m.Name(), err)
			}
		}
	}
	for key := range seen {
		r.registered[key] = struct{}{}
	}
	r.runner.Register(e)
	r.log.Debug("engine registered", zap.String("engine", e.Name()), zap.Int("members", len(all)-1))
	return nil
}

// flatten lists e followed by its members, depth first.
func flatten(e system.Engine, out []system.Engine) []system.Engine {
	out = append(out, e)
	if c, ok := e.(system.Composite); ok {
		for _, m := range c.Members() {
			out = flatten(m, out)
		}
	}
	return out
}

// engineKey returns a map key identifying e. Non-comparable engine values
// cannot be tracked and are skipped.
func engineKey(e system.Engine) (any, bool) {
	if !reflect.TypeOf(e).Comparable() {
		return nil, false
	}
	return e, true
}

// Tick dispatches the lifecycle events of the previous flush, steps every
// engine, then signals the end of the tick to the scheduler.
func (r *EnginesRoot) Tick(dt time.Duration) error {
	if r.disposed {
		return ErrDisposed
	}
	if r.scheduler.Due() {
		return ErrSubmissionDue
	}
	if !r.phase.TryLock() {
		return fmt.Errorf("tick: %w", ErrBusy)
	}
	r.bus.SwapBuffers()
	r.bus.DispatchAll()
	err := r.runner.Tick(dt)
	r.ticks++
	r.phase.Unlock()
	if err != nil {
		return fmt.Errorf("tick %d: %w", r.ticks, err)
	}
	if err := r.scheduler.EndOfTick(); err != nil {
		return fmt.Errorf("tick %d: end of tick: %w", r.ticks, err)
	}
	return nil
}

// flush is the only place the EntityDB changes shape.
func (r *EnginesRoot) flush() error {
	if r.disposed {
		return fmt.Errorf("flush: %w: %w", ErrDisposed, submit.ErrFlushSkipped)
	}
	if !r.phase.TryLock() {
		return fmt.Errorf("flush: %w: %w", ErrBusy, submit.ErrFlushSkipped)
	}
	defer r.phase.Unlock()

	if r.queue.Len() == 0 {
		return nil
	}
	start := time.Now()
	pending := r.queue.Len()
	rep, err := r.queue.Apply()
	for _, egid := range rep.Built {
		event.Emit(r.bus, event.EntityAdded{EGID: egid})
	}
	for _, egid := range rep.Removed {
		event.Emit(r.bus, event.EntityRemoved{EGID: egid})
	}
	for _, s := range rep.Swapped {
		event.Emit(r.bus, event.EntitySwapped{From: s.From, To: s.To})
	}
	r.flushes++
	r.log.Debug("entities submitted",
		zap.Uint64("flush", r.flushes),
		zap.Int("ops", pending),
		zap.Int("built", len(rep.Built)),
		zap.Int("removed", len(rep.Removed)),
		zap.Int("swapped", len(rep.Swapped)),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		r.log.Error("flush failed", zap.Error(err))
		return fmt.Errorf("flush %d: %w", r.flushes, err)
	}
	return nil
}

// Dispose moves the root to its terminal state. Pending operations are
// discarded, the scheduler is closed and every handle becomes stale.
func (r *EnginesRoot) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.link.root.Store(nil)
	r.scheduler.Close()
	r.log.Info("engines root disposed",
		zap.Uint64("ticks", r.ticks),
		zap.Uint64("flushes", r.flushes),
		zap.Int("discarded_ops", r.queue.Len()),
	)
}
