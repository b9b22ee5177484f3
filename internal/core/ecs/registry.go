package ecs

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Descriptor declares which components are allocated together for one kind
// of entity. It is validated once, at construction.
type Descriptor struct {
	name      string
	types     []ComponentType
	index     map[reflect.Type]int
	signature uint64
}

// NewDescriptor validates the component set: at least one component and no
// duplicates.
func NewDescriptor(name string, types ...ComponentType) (*Descriptor, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("descriptor %q has no components: %w", name, ErrInvalidDescriptor)
	}
	d := &Descriptor{
		name:  name,
		types: append([]ComponentType(nil), types...),
		index: make(map[reflect.Type]int, len(types)),
	}
	names := make([]string, 0, len(types))
	for i, ct := range types {
		if _, dup := d.index[ct.typ]; dup {
			return nil, fmt.Errorf("descriptor %q lists %s twice: %w", name, ct, ErrInvalidDescriptor)
		}
		d.index[ct.typ] = i
		names = append(names, ct.typ.String())
	}
	sort.Strings(names)
	d.signature = xxhash.Sum64String(strings.Join(names, ";"))
	return d, nil
}

// MustDescriptor is NewDescriptor for package-level declarations.
func MustDescriptor(name string, types ...ComponentType) *Descriptor {
	d, err := NewDescriptor(name, types...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Descriptor) Name() string { return d.name }

// Components returns the declared component types in declaration order.
func (d *Descriptor) Components() []ComponentType {
	return append([]ComponentType(nil), d.types...)
}

// Has reports whether the descriptor declares t.
func (d *Descriptor) Has(t reflect.Type) bool {
	_, ok := d.index[t]
	return ok
}

// Signature hashes the sorted component type names. It identifies the
// component set for logging and diagnostics; it says nothing about column
// order.
func (d *Descriptor) Signature() uint64 { return d.signature }

type groupDecl struct {
	name string
	desc *Descriptor
}

// Schema maps group names to descriptors. Groups are declared before any
// EntityDB is built from the schema; after that the schema is frozen.
type Schema struct {
	groups []groupDecl
	byName map[string]GroupID
	frozen bool
}

func NewSchema() *Schema {
	return &Schema{
		groups: make([]groupDecl, 0, 8),
		byName: make(map[string]GroupID, 8),
	}
}

// AddGroup declares a group holding entities of descriptor d. IDs are
// assigned densely in declaration order.
func (s *Schema) AddGroup(name string, d *Descriptor) (GroupID, error) {
	if s.frozen {
		return 0, fmt.Errorf("add group %q: %w", name, ErrSchemaFrozen)
	}
	if d == nil {
		return 0, fmt.Errorf("add group %q: nil descriptor: %w", name, ErrInvalidDescriptor)
	}
	if _, dup := s.byName[name]; dup {
		return 0, fmt.Errorf("add group %q: name already declared: %w", name, ErrInvalidDescriptor)
	}
	id := GroupID(len(s.groups))
	s.groups = append(s.groups, groupDecl{name: name, desc: d})
	s.byName[name] = id
	return id, nil
}

// Group looks up a group by name.
func (s *Schema) Group(name string) (GroupID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// GroupName returns the declared name, or "#<id>" for an unknown group.
func (s *Schema) GroupName(g GroupID) string {
	if int(g) < len(s.groups) {
		return s.groups[g].name
	}
	return fmt.Sprintf("#%d", g)
}

// Descriptor returns the descriptor declared for g.
func (s *Schema) Descriptor(g GroupID) (*Descriptor, bool) {
	if int(g) >= len(s.groups) {
		return nil, false
	}
	return s.groups[g].desc, true
}

// Groups returns every declared group ID in declaration order.
func (s *Schema) Groups() []GroupID {
	ids := make([]GroupID, len(s.groups))
	for i := range ids {
		ids[i] = GroupID(i)
	}
	return ids
}

// Format renders egid with its group name, for errors and logs.
func (s *Schema) Format(egid EGID) string {
	return fmt.Sprintf("EGID(%d, %s)", egid.ID, s.GroupName(egid.Group))
}
