package providers

import (
	"github.com/contactdesk/contactdesk/internal/schema"
)

// New creates the schema.LLMProvider for p, wrapped in a rate limiter when
// RequestsPerMinute is set.
func New(p Params) (schema.LLMProvider, error) {
	base, err := NewOpenAIProvider(p)
	if err != nil {
		return nil, err
	}
	if p.RequestsPerMinute > 0 {
		return NewRateLimited(base, p.RequestsPerMinute), nil
	}
	return base, nil
}
