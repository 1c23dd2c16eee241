// Package capability turns host-supplied capability providers into the
// immutable tool catalog consulted by the orchestrator and the completion
// service.
package capability

import (
	"regexp"

	"github.com/contactdesk/contactdesk/internal/schema"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// RegistryBuilder accumulates providers during startup.
// Call Discover() to produce the Catalog.
type RegistryBuilder struct {
	providers []schema.CapabilityProvider
}

// NewRegistryBuilder returns a builder seeded with the given providers.
func NewRegistryBuilder(providers ...schema.CapabilityProvider) *RegistryBuilder {
	b := &RegistryBuilder{}
	return b.WithProviders(providers...)
}

// WithProvider appends a provider and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithProvider(p schema.CapabilityProvider) *RegistryBuilder {
	b.providers = append(b.providers, p)
	return b
}

// WithProviders appends several providers in order.
func (b *RegistryBuilder) WithProviders(ps ...schema.CapabilityProvider) *RegistryBuilder {
	b.providers = append(b.providers, ps...)
	return b
}

// Discover enumerates every provider's operations in registration order and
// builds the Catalog. It returns a *ConfigError and no catalog on duplicate
// qualified names, malformed names, providers with no operations, or an
// empty provider set. Discover does not mutate the builder and may be
// called repeatedly with the same result.
func (b *RegistryBuilder) Discover() (*Catalog, error) {
	if len(b.providers) == 0 {
		return nil, &ConfigError{Err: ErrEmptyCatalog}
	}

	cat := &Catalog{byName: make(map[string]*Descriptor)}
	for _, p := range b.providers {
		if p == nil {
			return nil, &ConfigError{Err: ErrInvalidName}
		}
		providerName := p.Name()
		if !namePattern.MatchString(providerName) {
			return nil, &ConfigError{Provider: providerName, Err: ErrInvalidName}
		}

		ops := p.Operations()
		if len(ops) == 0 {
			return nil, &ConfigError{Provider: providerName, Err: ErrNoOperations}
		}

		for _, op := range ops {
			d, err := newDescriptor(providerName, op)
			if err != nil {
				return nil, err
			}
			if _, exists := cat.byName[d.qualifiedName]; exists {
				return nil, &ConfigError{Provider: providerName, Operation: op.Name, Err: ErrDuplicateOperation}
			}
			cat.byName[d.qualifiedName] = d
			cat.ordered = append(cat.ordered, d)
		}
	}
	return cat, nil
}

func newDescriptor(provider string, op schema.Operation) (*Descriptor, error) {
	if !namePattern.MatchString(op.Name) {
		return nil, &ConfigError{Provider: provider, Operation: op.Name, Err: ErrInvalidName}
	}
	if op.Invoke == nil {
		return nil, &ConfigError{Provider: provider, Operation: op.Name, Err: ErrMissingInvoke}
	}

	seen := make(map[string]struct{}, len(op.Params))
	for _, p := range op.Params {
		if !namePattern.MatchString(p.Name) || !p.Type.Valid() {
			return nil, &ConfigError{Provider: provider, Operation: op.Name, Err: ErrInvalidParam}
		}
		if _, dup := seen[p.Name]; dup {
			return nil, &ConfigError{Provider: provider, Operation: op.Name, Err: ErrInvalidParam}
		}
		seen[p.Name] = struct{}{}
	}

	params := make([]schema.Param, len(op.Params))
	copy(params, op.Params)

	return &Descriptor{
		qualifiedName: QualifiedName(provider, op.Name),
		provider:      provider,
		operation:     op.Name,
		description:   op.Description,
		params:        params,
		invoke:        op.Invoke,
	}, nil
}
