package capability

import "github.com/contactdesk/contactdesk/internal/schema"

// StaticProvider is a CapabilityProvider backed by a fixed operation list.
type StaticProvider struct {
	name        string
	description string
	ops         []schema.Operation
}

var _ schema.CapabilityProvider = (*StaticProvider)(nil)

func NewStaticProvider(name, description string, ops ...schema.Operation) *StaticProvider {
	return &StaticProvider{name: name, description: description, ops: ops}
}

func (p *StaticProvider) Name() string        { return p.name }
func (p *StaticProvider) Description() string { return p.description }

func (p *StaticProvider) Operations() []schema.Operation {
	out := make([]schema.Operation, len(p.ops))
	copy(out, p.ops)
	return out
}
