package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type health struct{ HP int }
type position struct{ X, Y float32 }
type velocity struct{ DX, DY float32 }
type tag struct{ Name string }

var (
	enemyDesc  = MustDescriptor("Enemy", Component[health](), Component[position]())
	moverDesc  = MustDescriptor("Mover", Component[position](), Component[velocity]())
	corpseDesc = MustDescriptor("Corpse", Component[position](), Component[tag]())
)

type fixture struct {
	db      *EntityDB
	q       *Queue
	enemies GroupID
	movers  GroupID
	corpses GroupID
	empty   GroupID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := NewSchema()
	f := &fixture{}
	var err error
	f.enemies, err = s.AddGroup("Enemies", enemyDesc)
	require.NoError(t, err)
	f.movers, err = s.AddGroup("Movers", moverDesc)
	require.NoError(t, err)
	f.corpses, err = s.AddGroup("Corpses", corpseDesc)
	require.NoError(t, err)
	f.empty, err = s.AddGroup("Reserve", enemyDesc)
	require.NoError(t, err)
	f.db = NewEntityDB(s)
	f.q = NewQueue(f.db)
	return f
}

func (f *fixture) build(t *testing.T, id EntityID, g GroupID, d *Descriptor, values ...any) EGID {
	t.Helper()
	in, err := f.q.Build(NewEGID(id, g), d, nil)
	require.NoError(t, err)
	for _, v := range values {
		switch v := v.(type) {
		case health:
			require.NoError(t, Set(in, v))
		case position:
			require.NoError(t, Set(in, v))
		case velocity:
			require.NoError(t, Set(in, v))
		case tag:
			require.NoError(t, Set(in, v))
		default:
			t.Fatalf("unexpected component %T", v)
		}
	}
	return in.EGID()
}

func (f *fixture) flush(t *testing.T) Report {
	t.Helper()
	rep, err := f.q.Apply()
	require.NoError(t, err)
	return rep
}

// requireAligned checks that every column of every group has the group's
// entity count.
func requireAligned(t *testing.T, db *EntityDB) {
	t.Helper()
	for _, gs := range db.groups {
		require.Len(t, gs.external, len(gs.ids), "group %s external", db.schema.GroupName(gs.id))
		require.Len(t, gs.rows, len(gs.ids), "group %s index", db.schema.GroupName(gs.id))
		for i, c := range gs.columns {
			require.Equal(t, len(gs.ids), c.Len(), "group %s column %s", db.schema.GroupName(gs.id), gs.desc.types[i])
		}
		for row, id := range gs.ids {
			require.Equal(t, row, gs.rows[id])
		}
	}
}
