package providers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// RateLimited throttles completion calls client-side. Waiting honours the
// caller's context, so a cancelled or timed-out turn fails like any other
// completion error.
type RateLimited struct {
	next    schema.LLMProvider
	limiter *rate.Limiter
}

var _ schema.LLMProvider = (*RateLimited)(nil)

// NewRateLimited allows perMinute calls per minute with a burst of one.
// A non-positive perMinute disables the limit.
func NewRateLimited(next schema.LLMProvider, perMinute int) *RateLimited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (r *RateLimited) Chat(ctx context.Context, messages schema.Messages, tools []schema.ToolDefinition, opts schema.ChatOptions) (schema.LLMResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return schema.LLMResponse{}, fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Chat(ctx, messages, tools, opts)
}

func (r *RateLimited) DefaultModel() string { return r.next.DefaultModel() }
