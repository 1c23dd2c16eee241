package capability

import (
	"fmt"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// Catalog is the read-only set of operation descriptors produced by
// Discover. It is safe for concurrent use by any number of sessions.
type Catalog struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

// List returns every descriptor in registration order.
func (c *Catalog) List() []*Descriptor {
	out := make([]*Descriptor, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Resolve looks up a descriptor by exact qualified name.
func (c *Catalog) Resolve(qualifiedName string) (*Descriptor, error) {
	d, ok := c.byName[qualifiedName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, qualifiedName)
	}
	return d, nil
}

// Len returns the number of operations in the catalog.
func (c *Catalog) Len() int { return len(c.ordered) }

// Providers returns provider names in registration order, without repeats.
func (c *Catalog) Providers() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, d := range c.ordered {
		if _, ok := seen[d.provider]; ok {
			continue
		}
		seen[d.provider] = struct{}{}
		names = append(names, d.provider)
	}
	return names
}

// Definitions returns the serialized catalog handed to the completion
// service, in registration order.
func (c *Catalog) Definitions() []schema.ToolDefinition {
	defs := make([]schema.ToolDefinition, 0, len(c.ordered))
	for _, d := range c.ordered {
		defs = append(defs, d.Definition())
	}
	return defs
}
