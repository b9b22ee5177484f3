package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ecsdemos/runtime/internal/core/ecs"
)

// GroupEntry binds a group name to a descriptor declared in Go.
type GroupEntry struct {
	Name        string `yaml:"name"`
	Descriptor  string `yaml:"descriptor"`
	Preallocate int    `yaml:"preallocate"`
}

type catalogFile struct {
	Groups []GroupEntry `yaml:"groups"`
}

// GroupCatalog lists the groups of a world in declaration order.
type GroupCatalog struct {
	entries []GroupEntry
}

// LoadGroupCatalog loads a groups yaml file.
func LoadGroupCatalog(path string) (*GroupCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read group catalog: %w", err)
	}
	return ParseGroupCatalog(raw)
}

func ParseGroupCatalog(raw []byte) (*GroupCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse group catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Groups))
	for i, e := range f.Groups {
		if e.Name == "" || e.Descriptor == "" {
			return nil, fmt.Errorf("group catalog entry %d: name and descriptor are required", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("group catalog: group %q listed twice", e.Name)
		}
		if e.Preallocate < 0 {
			return nil, fmt.Errorf("group catalog: group %q: negative preallocate", e.Name)
		}
		seen[e.Name] = true
	}
	return &GroupCatalog{entries: f.Groups}, nil
}

// Declare adds every group to schema, resolving descriptor names against
// descriptors. It returns the declared IDs keyed by group name.
func (c *GroupCatalog) Declare(schema *ecs.Schema, descriptors map[string]*ecs.Descriptor) (map[string]ecs.GroupID, error) {
	ids := make(map[string]ecs.GroupID, len(c.entries))
	for _, e := range c.entries {
		d, ok := descriptors[e.Descriptor]
		if !ok {
			return nil, fmt.Errorf("group %q: unknown descriptor %q", e.Name, e.Descriptor)
		}
		id, err := schema.AddGroup(e.Name, d)
		if err != nil {
			return nil, err
		}
		ids[e.Name] = id
	}
	return ids, nil
}

// Entries returns the catalog entries in file order.
func (c *GroupCatalog) Entries() []GroupEntry {
	return append([]GroupEntry(nil), c.entries...)
}

// Count returns the total number of groups loaded.
func (c *GroupCatalog) Count() int {
	return len(c.entries)
}
