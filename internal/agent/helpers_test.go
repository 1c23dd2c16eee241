package agent

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

// step is one scripted completion outcome.
type step struct {
	resp  schema.LLMResponse
	err   error
	panic any
}

func text(content string) step {
	return step{resp: schema.LLMResponse{Content: content, FinishReason: "stop"}}
}

func calls(tcs ...schema.ToolCall) step {
	return step{resp: schema.LLMResponse{ToolCalls: tcs, FinishReason: "tool_calls"}}
}

func fail(err error) step { return step{err: err} }

type request struct {
	messages schema.Messages
	tools    []schema.ToolDefinition
	opts     schema.ChatOptions
}

// scriptedProvider replays steps in order and records every request.
type scriptedProvider struct {
	mu       sync.Mutex
	steps    []step
	requests []request
}

func newScriptedProvider(steps ...step) *scriptedProvider {
	return &scriptedProvider{steps: steps}
}

func (p *scriptedProvider) Chat(ctx context.Context, messages schema.Messages, tools []schema.ToolDefinition, opts schema.ChatOptions) (schema.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, request{messages: messages.Clone(), tools: tools, opts: opts})
	if len(p.steps) == 0 {
		return schema.LLMResponse{}, errors.New("script exhausted")
	}
	s := p.steps[0]
	p.steps = p.steps[1:]
	if s.panic != nil {
		panic(s.panic)
	}
	if err := ctx.Err(); err != nil {
		return schema.LLMResponse{}, err
	}
	return s.resp, s.err
}

func (p *scriptedProvider) DefaultModel() string { return "scripted-model" }

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// memTransport feeds fixed input lines and records everything written.
type memTransport struct {
	inputs   []string
	opened   bool
	begun    int
	replies  []Reply
	errs     []error
	progress []string
	summary  *Summary
}

func (t *memTransport) Open(context.Context) error { t.opened = true; return nil }

func (t *memTransport) ReadTurn(context.Context) (string, error) {
	if len(t.inputs) == 0 {
		return "", io.EOF
	}
	line := t.inputs[0]
	t.inputs = t.inputs[1:]
	return line, nil
}

func (t *memTransport) BeginTurn(context.Context) error { t.begun++; return nil }

func (t *memTransport) WriteReply(_ context.Context, r Reply) error {
	t.replies = append(t.replies, r)
	return nil
}

func (t *memTransport) WriteError(_ context.Context, err error) error {
	t.errs = append(t.errs, err)
	return nil
}

func (t *memTransport) WriteProgress(_ context.Context, text string) error {
	t.progress = append(t.progress, text)
	return nil
}

func (t *memTransport) Close(_ context.Context, s Summary) error {
	t.summary = &s
	return nil
}

type recordingSink struct {
	history schema.Messages
	summary Summary
	saved   int
}

func (r *recordingSink) SaveTranscript(history schema.Messages, summary Summary) error {
	r.history, r.summary = history, summary
	r.saved++
	return nil
}

func op(name string, fn schema.InvokeFunc, params ...schema.Param) schema.Operation {
	return schema.Operation{Name: name, Description: name, Params: params, Invoke: fn}
}

func returns(v any) schema.InvokeFunc {
	return func(context.Context, schema.Args) (any, error) { return v, nil }
}

func testCatalog(t *testing.T, providers ...schema.CapabilityProvider) *capability.Catalog {
	t.Helper()
	if len(providers) == 0 {
		providers = []schema.CapabilityProvider{
			capability.NewStaticProvider("Address", "Address checks",
				op("Validate", returns(map[string]any{"valid": true, "postalCode": "1030", "city": "Wien"}),
					schema.Param{Name: "address", Description: "Free-form address", Type: schema.TypeString})),
			capability.NewStaticProvider("Serviceability", "Coverage",
				op("CheckAddress", returns(map[string]any{"fiber": true, "maxDownMbps": 1000}),
					schema.Param{Name: "postalCode", Description: "Postal code", Type: schema.TypeString})),
			capability.NewStaticProvider("Billing", "Billing",
				op("GetBalance", returns(map[string]any{"balance": "42.50", "currency": "EUR"}),
					schema.Param{Name: "accountId", Description: "Account", Type: schema.TypeString})),
		}
	}
	cat, err := capability.NewRegistryBuilder(providers...).Discover()
	require.NoError(t, err)
	return cat
}

var testSettings = schema.AgentSettings{
	Model:            "test-model",
	MaxTokens:        1500,
	Temperature:      0.3,
	ParallelTools:    true,
	MaxParallelTools: 4,
}

func testOptions(extra ...Option) []Option {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * 15 * time.Second)
	}
	return append([]Option{WithLogger(logger.Nop()), WithClock(clock)}, extra...)
}

func newTestOrchestrator(t *testing.T, p schema.LLMProvider, settings schema.AgentSettings, opts ...Option) *Orchestrator {
	t.Helper()
	return NewOrchestrator(p, testCatalog(t), settings, "You are a test assistant.", testOptions(opts...)...)
}
