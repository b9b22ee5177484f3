package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

type opKind uint8

const (
	opBuild opKind = iota
	opRemove
	opSwap
	opRemoveGroup
	opReserve
)

type op struct {
	kind  opKind
	egid  EGID
	to    GroupID
	n     int
	build *Initializer
}

// Initializer captures the initial component values of a pending build.
// Values are applied when the build is flushed; unset components start as
// zero values.
type Initializer struct {
	egid      EGID
	desc      *Descriptor
	values    map[reflect.Type]any
	external  any
	submitted bool
}

func (in *Initializer) EGID() EGID { return in.egid }

// Set records the initial value of component T.
func Set[T any](in *Initializer, value T) error {
	t := typeOf[T]()
	if in.submitted {
		return fmt.Errorf("set %s on %v: %w", t, in.egid, ErrSubmitted)
	}
	if !in.desc.Has(t) {
		return fmt.Errorf("set %s: descriptor %q has no such component: %w", t, in.desc.name, ErrInvalidQuery)
	}
	in.values[t] = value
	return nil
}

// Swap records one group change applied by a flush.
type Swap struct {
	From EGID
	To   EGID
}

// Report lists what a flush changed, in application order.
type Report struct {
	Built   []EGID
	Removed []EGID
	Swapped []Swap
}

func (r Report) Empty() bool {
	return len(r.Built) == 0 && len(r.Removed) == 0 && len(r.Swapped) == 0
}

// Queue buffers structural operations against one EntityDB until Apply.
// Every operation is validated at enqueue time against the projected state:
// the committed store plus the operations already queued in this window.
type Queue struct {
	db        *EntityDB
	ops       []op
	projected map[EGID]bool
}

func NewQueue(db *EntityDB) *Queue {
	return &Queue{
		db:        db,
		ops:       make([]op, 0, 64),
		projected: make(map[EGID]bool, 64),
	}
}

// Len returns the number of queued operations.
func (q *Queue) Len() int { return len(q.ops) }

func (q *Queue) exists(egid EGID) bool {
	if live, touched := q.projected[egid]; touched {
		return live
	}
	return q.db.Exists(egid)
}

func (q *Queue) checkGroup(g GroupID) (*Descriptor, error) {
	d, ok := q.db.schema.Descriptor(g)
	if !ok {
		return nil, fmt.Errorf("group %s: %w", q.db.schema.GroupName(g), ErrUnknownGroup)
	}
	return d, nil
}

// Build enqueues the creation of egid. A second build of an EGID that is
// live or already pending fails and is not enqueued, so the first
// definition is the one that gets flushed.
func (q *Queue) Build(egid EGID, d *Descriptor, external any) (*Initializer, error) {
	declared, err := q.checkGroup(egid.Group)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", q.db.schema.Format(egid), err)
	}
	if d != declared {
		name := "<nil>"
		if d != nil {
			name = d.name
		}
		return nil, fmt.Errorf("build %s with %q, group declares %q: %w",
			q.db.schema.Format(egid), name, declared.name, ErrDescriptorMismatch)
	}
	if q.exists(egid) {
		state := "live"
		if _, touched := q.projected[egid]; touched {
			state = "pending"
		}
		return nil, fmt.Errorf("build %s (%s): %w", q.db.schema.Format(egid), state, ErrDuplicateBuild)
	}
	in := &Initializer{
		egid:     egid,
		desc:     d,
		values:   make(map[reflect.Type]any, len(d.types)),
		external: external,
	}
	q.ops = append(q.ops, op{kind: opBuild, egid: egid, build: in})
	q.projected[egid] = true
	return in, nil
}

// Remove enqueues the removal of egid. Removing an EGID that neither exists
// nor is pending, including a second remove in the same window, fails.
func (q *Queue) Remove(egid EGID) error {
	if _, err := q.checkGroup(egid.Group); err != nil {
		return fmt.Errorf("remove %s: %w", q.db.schema.Format(egid), err)
	}
	if !q.exists(egid) {
		return fmt.Errorf("remove %s: %w", q.db.schema.Format(egid), ErrNotFound)
	}
	q.ops = append(q.ops, op{kind: opRemove, egid: egid})
	q.projected[egid] = false
	return nil
}

// Swap enqueues moving egid to group to and returns the EGID it will have
// after the flush.
func (q *Queue) Swap(egid EGID, to GroupID) (EGID, error) {
	if _, err := q.checkGroup(egid.Group); err != nil {
		return EGID{}, fmt.Errorf("swap %s: %w", q.db.schema.Format(egid), err)
	}
	if _, err := q.checkGroup(to); err != nil {
		return EGID{}, fmt.Errorf("swap %s: %w", q.db.schema.Format(egid), err)
	}
	if !q.exists(egid) {
		return EGID{}, fmt.Errorf("swap %s: %w", q.db.schema.Format(egid), ErrNotFound)
	}
	target := NewEGID(egid.ID, to)
	if target == egid {
		return target, nil
	}
	if q.exists(target) {
		return EGID{}, fmt.Errorf("swap %s to %s: %w", q.db.schema.Format(egid), q.db.schema.Format(target), ErrDuplicateBuild)
	}
	q.ops = append(q.ops, op{kind: opSwap, egid: egid, to: to})
	q.projected[egid] = false
	q.projected[target] = true
	return target, nil
}

// RemoveGroup enqueues the removal of every entity the group will hold at
// that point of the flush.
func (q *Queue) RemoveGroup(g GroupID) error {
	if _, err := q.checkGroup(g); err != nil {
		return fmt.Errorf("remove group: %w", err)
	}
	for _, id := range q.db.groups[g].ids {
		q.projected[NewEGID(id, g)] = false
	}
	for egid := range q.projected {
		if egid.Group == g {
			q.projected[egid] = false
		}
	}
	q.ops = append(q.ops, op{kind: opRemoveGroup, to: g})
	return nil
}

// Reserve enqueues a capacity hint for n more entities in g. It is applied
// at flush so live slices never move mid-tick.
func (q *Queue) Reserve(g GroupID, n int) error {
	if _, err := q.checkGroup(g); err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	if n <= 0 {
		return nil
	}
	q.ops = append(q.ops, op{kind: opReserve, to: g, n: n})
	return nil
}

// Apply runs every queued operation in enqueue order, then clears the queue.
// An empty queue leaves the store untouched.
func (q *Queue) Apply() (Report, error) {
	var rep Report
	if len(q.ops) == 0 {
		return rep, nil
	}
	var errs []error
	for _, o := range q.ops {
		switch o.kind {
		case opBuild:
			o.build.submitted = true
			if err := q.db.build(o.egid, o.build.values, o.build.external); err != nil {
				errs = append(errs, err)
				continue
			}
			rep.Built = append(rep.Built, o.egid)
		case opRemove:
			if err := q.db.remove(o.egid); err != nil {
				errs = append(errs, err)
				continue
			}
			rep.Removed = append(rep.Removed, o.egid)
		case opSwap:
			to, err := q.db.swap(o.egid, o.to)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			rep.Swapped = append(rep.Swapped, Swap{From: o.egid, To: to})
		case opRemoveGroup:
			ids, err := q.db.clearGroup(o.to)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, id := range ids {
				rep.Removed = append(rep.Removed, NewEGID(id, o.to))
			}
		case opReserve:
			if err := q.db.reserve(o.to, o.n); err != nil {
				errs = append(errs, err)
			}
		}
	}
	clear(q.ops)
	q.ops = q.ops[:0]
	clear(q.projected)
	if !rep.Empty() {
		q.db.version++
	}
	return rep, errors.Join(errs...)
}
