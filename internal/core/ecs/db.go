package ecs

import (
	"fmt"
	"reflect"
)

// groupStore holds the parallel columns of one group. Row i of every column,
// of ids and of external describes the same entity.
type groupStore struct {
	id       GroupID
	desc     *Descriptor
	ids      []EntityID
	rows     map[EntityID]int
	external []any
	columns  []column
}

func newGroupStore(id GroupID, d *Descriptor) *groupStore {
	g := &groupStore{
		id:      id,
		desc:    d,
		ids:     make([]EntityID, 0, 16),
		rows:    make(map[EntityID]int, 16),
		columns: make([]column, len(d.types)),
	}
	for i, ct := range d.types {
		g.columns[i] = ct.newColumn(16)
	}
	return g
}

func (g *groupStore) count() int { return len(g.ids) }

func (g *groupStore) column(t reflect.Type) (column, bool) {
	i, ok := g.desc.index[t]
	if !ok {
		return nil, false
	}
	return g.columns[i], true
}

// swapPlan maps each destination column to its source column, -1 when the
// source descriptor lacks that component.
type swapPlan []int

type planKey struct{ from, to *Descriptor }

// EntityDB is the group-partitioned component store. Engines read it and
// write component values in place; its shape changes only through Apply.
type EntityDB struct {
	schema  *Schema
	groups  []*groupStore
	plans   map[planKey]swapPlan
	version uint64
}

// NewEntityDB builds storage for every group in schema and freezes it.
func NewEntityDB(schema *Schema) *EntityDB {
	schema.frozen = true
	db := &EntityDB{
		schema: schema,
		groups: make([]*groupStore, len(schema.groups)),
		plans:  make(map[planKey]swapPlan),
	}
	for i, decl := range schema.groups {
		db.groups[i] = newGroupStore(GroupID(i), decl.desc)
	}
	return db
}

func (db *EntityDB) Schema() *Schema { return db.schema }

// Version increments once per flush that changed the shape of the store.
func (db *EntityDB) Version() uint64 { return db.version }

func (db *EntityDB) group(g GroupID) (*groupStore, error) {
	if int(g) >= len(db.groups) {
		return nil, fmt.Errorf("group %s: %w", db.schema.GroupName(g), ErrUnknownGroup)
	}
	return db.groups[g], nil
}

// Exists reports whether egid is committed.
func (db *EntityDB) Exists(egid EGID) bool {
	if int(egid.Group) >= len(db.groups) {
		return false
	}
	_, ok := db.groups[egid.Group].rows[egid.ID]
	return ok
}

// Count returns the number of committed entities in g.
func (db *EntityDB) Count(g GroupID) (int, error) {
	gs, err := db.group(g)
	if err != nil {
		return 0, err
	}
	return gs.count(), nil
}

// ExternalData returns the implementor data attached when egid was built.
func (db *EntityDB) ExternalData(egid EGID) (any, error) {
	gs, row, err := db.locate(egid)
	if err != nil {
		return nil, err
	}
	return gs.external[row], nil
}

// Row returns the current array index of egid in its group. Indexes change
// at every flush.
func (db *EntityDB) Row(egid EGID) (int, error) {
	_, row, err := db.locate(egid)
	return row, err
}

func (db *EntityDB) locate(egid EGID) (*groupStore, int, error) {
	gs, err := db.group(egid.Group)
	if err != nil {
		return nil, 0, err
	}
	row, ok := gs.rows[egid.ID]
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", db.schema.Format(egid), ErrNotFound)
	}
	return gs, row, nil
}

// ValidateQuery checks once that every group declares every type, so an
// engine can fail at registration instead of on its first tick.
func (db *EntityDB) ValidateQuery(groups []GroupID, types ...ComponentType) error {
	for _, g := range groups {
		gs, err := db.group(g)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		for _, ct := range types {
			if !gs.desc.Has(ct.typ) {
				return db.invalidQuery(g, ct.typ)
			}
		}
	}
	return nil
}

func (db *EntityDB) invalidQuery(g GroupID, t reflect.Type) error {
	return fmt.Errorf("group %s has no %s: %w", db.schema.GroupName(g), t, ErrInvalidQuery)
}

// Get returns a copy of egid's T component.
func Get[T any](db *EntityDB, egid EGID) (T, error) {
	var zero T
	gs, row, err := db.locate(egid)
	if err != nil {
		return zero, err
	}
	col, ok := gs.column(typeOf[T]())
	if !ok {
		return zero, db.invalidQuery(egid.Group, typeOf[T]())
	}
	return col.(*Column[T]).data[row], nil
}

// Values returns the live T column of group g.
func Values[T any](db *EntityDB, g GroupID) ([]T, error) {
	c, err := columnOf[T](db, g)
	if err != nil {
		return nil, err
	}
	return c.data, nil
}

func columnOf[T any](db *EntityDB, g GroupID) (*Column[T], error) {
	gs, err := db.group(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	col, ok := gs.column(typeOf[T]())
	if !ok {
		return nil, db.invalidQuery(g, typeOf[T]())
	}
	return col.(*Column[T]), nil
}

// ── shape mutations, reached only from Apply ──

func (db *EntityDB) build(egid EGID, values map[reflect.Type]any, external any) error {
	gs, err := db.group(egid.Group)
	if err != nil {
		return err
	}
	if _, dup := gs.rows[egid.ID]; dup {
		return fmt.Errorf("build %s: %w", db.schema.Format(egid), ErrDuplicateBuild)
	}
	for i, ct := range gs.desc.types {
		v, ok := values[ct.typ]
		if !ok {
			gs.columns[i].appendZero()
			continue
		}
		if err := gs.columns[i].appendValue(v); err != nil {
			// roll back the columns already grown so lengths stay equal
			for j := 0; j < i; j++ {
				gs.columns[j].swapRemove(gs.columns[j].Len() - 1)
			}
			return fmt.Errorf("build %s: %w", db.schema.Format(egid), err)
		}
	}
	gs.rows[egid.ID] = len(gs.ids)
	gs.ids = append(gs.ids, egid.ID)
	gs.external = append(gs.external, external)
	return nil
}

func (db *EntityDB) remove(egid EGID) error {
	gs, row, err := db.locate(egid)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	gs.removeRow(row)
	return nil
}

func (g *groupStore) removeRow(row int) {
	last := len(g.ids) - 1
	removed := g.ids[row]
	if row < last {
		moved := g.ids[last]
		g.ids[row] = moved
		g.external[row] = g.external[last]
		g.rows[moved] = row
	}
	for _, c := range g.columns {
		c.swapRemove(row)
	}
	g.external[last] = nil
	g.ids = g.ids[:last]
	g.external = g.external[:last]
	delete(g.rows, removed)
}

func (db *EntityDB) swap(from EGID, to GroupID) (EGID, error) {
	src, row, err := db.locate(from)
	if err != nil {
		return EGID{}, fmt.Errorf("swap: %w", err)
	}
	dst, err := db.group(to)
	if err != nil {
		return EGID{}, fmt.Errorf("swap %s: %w", db.schema.Format(from), err)
	}
	target := NewEGID(from.ID, to)
	if _, dup := dst.rows[target.ID]; dup {
		return EGID{}, fmt.Errorf("swap %s to %s: %w", db.schema.Format(from), db.schema.Format(target), ErrDuplicateBuild)
	}
	plan := db.plan(src.desc, dst.desc)
	dstRow := dst.count()
	for j, c := range dst.columns {
		c.appendZero()
		if s := plan[j]; s >= 0 {
			c.copyRow(dstRow, src.columns[s], row)
		}
	}
	dst.rows[target.ID] = dstRow
	dst.ids = append(dst.ids, target.ID)
	dst.external = append(dst.external, src.external[row])
	src.removeRow(row)
	return target, nil
}

// plan is cached per descriptor pair. Descriptors are shared by pointer, so
// groups declared with the same descriptors share a plan.
func (db *EntityDB) plan(from, to *Descriptor) swapPlan {
	key := planKey{from: from, to: to}
	if p, ok := db.plans[key]; ok {
		return p
	}
	p := make(swapPlan, len(to.types))
	for j, ct := range to.types {
		if i, ok := from.index[ct.typ]; ok {
			p[j] = i
		} else {
			p[j] = -1
		}
	}
	db.plans[key] = p
	return p
}

func (db *EntityDB) reserve(g GroupID, n int) error {
	gs, err := db.group(g)
	if err != nil {
		return err
	}
	for _, c := range gs.columns {
		c.reserve(n)
	}
	if free := cap(gs.ids) - len(gs.ids); free < n {
		ids := make([]EntityID, len(gs.ids), len(gs.ids)+n)
		copy(ids, gs.ids)
		gs.ids = ids
		ext := make([]any, len(gs.external), len(gs.external)+n)
		copy(ext, gs.external)
		gs.external = ext
	}
	return nil
}

// clearGroup drops every entity of g and returns the removed IDs in row order.
func (db *EntityDB) clearGroup(g GroupID) ([]EntityID, error) {
	gs, err := db.group(g)
	if err != nil {
		return nil, err
	}
	removed := append([]EntityID(nil), gs.ids...)
	for _, c := range gs.columns {
		c.truncate()
	}
	clear(gs.external)
	gs.external = gs.external[:0]
	gs.ids = gs.ids[:0]
	clear(gs.rows)
	return removed, nil
}
