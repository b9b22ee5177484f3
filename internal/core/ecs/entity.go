package ecs

import "fmt"

// EntityID is unique within a group. The same value may be live in several
// groups at once; only the (EntityID, GroupID) pair is globally unique.
type EntityID uint32

// GroupID indexes a group declared in a Schema.
type GroupID uint32

// EGID is the composite identity of an entity. Swapping an entity to another
// group changes its EGID.
type EGID struct {
	ID    EntityID
	Group GroupID
}

func NewEGID(id EntityID, group GroupID) EGID {
	return EGID{ID: id, Group: group}
}

func (e EGID) String() string {
	return fmt.Sprintf("EGID(%d, #%d)", e.ID, e.Group)
}

// IDPool hands out entity IDs for one kind of entity, reusing released IDs
// before growing. It is not safe for concurrent use.
type IDPool struct {
	freeList []EntityID
	free     map[EntityID]struct{}
	first    EntityID
	next     EntityID
}

func NewIDPool(first EntityID) *IDPool {
	return &IDPool{
		freeList: make([]EntityID, 0, 64),
		free:     make(map[EntityID]struct{}, 64),
		first:    first,
		next:     first,
	}
}

// Next returns a free ID, preferring the most recently released one.
func (p *IDPool) Next() EntityID {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		delete(p.free, id)
		return id
	}
	id := p.next
	p.next++
	return id
}

// Release returns id to the pool and reports whether it was accepted. IDs
// never handed out, and IDs already released, are ignored.
func (p *IDPool) Release(id EntityID) bool {
	if id < p.first || id >= p.next {
		return false
	}
	if _, dup := p.free[id]; dup {
		return false
	}
	p.free[id] = struct{}{}
	p.freeList = append(p.freeList, id)
	return true
}

// InUse reports how many IDs are currently handed out.
func (p *IDPool) InUse() int {
	return int(p.next-p.first) - len(p.freeList)
}
