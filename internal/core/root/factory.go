package root

import (
	"fmt"

	"github.com/ecsdemos/runtime/internal/core/ecs"
)

// Factory enqueues entity builds. It does not own the root: once the root is
// disposed every call fails with ErrStaleRoot.
type Factory struct {
	link *link
}

// Build enqueues entity (id, group) of kind d. Component values set on the
// returned Initializer are applied at the next flush; the entity is not
// queryable before that.
func (f *Factory) Build(id ecs.EntityID, group ecs.GroupID, d *ecs.Descriptor, external any) (*ecs.Initializer, error) {
	egid := ecs.NewEGID(id, group)
	r, err := f.link.load()
	if err != nil {
		return nil, fmt.Errorf("build %v: %w", egid, err)
	}
	return r.queue.Build(egid, d, external)
}

// Preallocate hints that group will hold expected more entities of kind d.
// It has no visible effect besides avoiding reallocations at flush.
func (f *Factory) Preallocate(group ecs.GroupID, d *ecs.Descriptor, expected int) error {
	r, err := f.link.load()
	if err != nil {
		return fmt.Errorf("preallocate: %w", err)
	}
	schema := r.db.Schema()
	declared, ok := schema.Descriptor(group)
	if !ok {
		return fmt.Errorf("preallocate %s: %w", schema.GroupName(group), ecs.ErrUnknownGroup)
	}
	if declared != d {
		return fmt.Errorf("preallocate %s: %w", schema.GroupName(group), ecs.ErrDescriptorMismatch)
	}
	return r.queue.Reserve(group, expected)
}

// Functions enqueues removals and group swaps of existing entities, with the
// same deferral and staleness rules as Factory.
type Functions struct {
	link *link
}

// Remove enqueues the removal of egid. The entity stays queryable until the
// next flush.
func (fn *Functions) Remove(egid ecs.EGID) error {
	r, err := fn.link.load()
	if err != nil {
		return fmt.Errorf("remove %v: %w", egid, err)
	}
	return r.queue.Remove(egid)
}

// SwapGroup enqueues moving egid to group and returns its EGID after the
// flush. Components declared by both groups keep their values, components
// only the source declares are dropped, and components only the destination
// declares start as zero values.
func (fn *Functions) SwapGroup(egid ecs.EGID, group ecs.GroupID) (ecs.EGID, error) {
	r, err := fn.link.load()
	if err != nil {
		return ecs.EGID{}, fmt.Errorf("swap %v: %w", egid, err)
	}
	return r.queue.Swap(egid, group)
}

// RemoveGroup enqueues the removal of every entity in group.
func (fn *Functions) RemoveGroup(group ecs.GroupID) error {
	r, err := fn.link.load()
	if err != nil {
		return fmt.Errorf("remove group #%d: %w", group, err)
	}
	return r.queue.RemoveGroup(group)
}
