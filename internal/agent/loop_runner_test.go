package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/schema"
)

func TestNewSession_InsertsSingleSystemTurn(t *testing.T) {
	orch := newTestOrchestrator(t, newScriptedProvider(), testSettings)
	s := orch.NewSession()

	h := s.History()
	require.Equal(t, 1, h.Len())
	assert.Equal(t, schema.RoleSystem, h.Messages[0].Role)
	assert.Equal(t, "You are a test assistant.", h.Messages[0].Content)
	assert.Equal(t, StateAwaitingInput, s.State())
	assert.NotEmpty(t, s.ID())
}

func TestSend_PlainReply(t *testing.T) {
	p := newScriptedProvider(text("<think>greet</think>Hello! How can I help?"))
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	reply, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", reply.Content)
	assert.Zero(t, reply.Rounds)
	assert.Equal(t, StateAwaitingInput, s.State())

	h := s.History()
	require.Equal(t, 3, h.Len())
	assert.Equal(t, schema.RoleUser, h.Messages[1].Role)
	assert.Equal(t, schema.RoleAssistant, h.Messages[2].Role)

	require.Len(t, p.requests, 1)
	assert.Equal(t, schema.ChatOptions{Model: "test-model", MaxTokens: 1500, Temperature: 0.3}, p.requests[0].opts)
	assert.Len(t, p.requests[0].tools, 3)
}

func TestSend_SettingsPassedUnchangedOnEveryCall(t *testing.T) {
	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "c1", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A1"}}),
		text("Your balance is 42.50 EUR."),
		text("Anything else?"),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	_, err := s.Send(context.Background(), "balance?", nil)
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "thanks", nil)
	require.NoError(t, err)

	require.Len(t, p.requests, 3)
	for _, r := range p.requests {
		assert.Equal(t, p.requests[0].opts, r.opts)
		assert.Equal(t, p.requests[0].tools, r.tools)
	}
}

func TestSend_ModelDefaultsToProvider(t *testing.T) {
	p := newScriptedProvider(text("ok"))
	settings := testSettings
	settings.Model = ""
	s := newTestOrchestrator(t, p, settings).NewSession()

	_, err := s.Send(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "scripted-model", p.requests[0].opts.Model)
}

func TestSend_RoundTrip(t *testing.T) {
	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "call_1", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A1"}}),
		text("Your balance is 42.50 EUR."),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	reply, err := s.Send(context.Background(), "what do I owe?", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reply.Rounds)
	assert.Equal(t, []string{"Billing.GetBalance"}, reply.Tools)
	assert.Equal(t, 2, p.calls(), "exactly one further submission")

	h := s.History()
	require.Equal(t, 1, h.Count(schema.RoleTool))
	// system, user, assistant(directive), tool, assistant
	require.Equal(t, 5, h.Len())
	assistant := h.Messages[2]
	require.True(t, assistant.HasToolCalls())
	result := h.Messages[3]
	assert.Equal(t, schema.RoleTool, result.Role)
	assert.Equal(t, "call_1", result.ToolCallID)
	assert.Equal(t, "Billing.GetBalance", result.ToolName)
	assert.False(t, result.IsError)

	want, _ := json.Marshal(map[string]any{"balance": "42.50", "currency": "EUR"})
	assert.Equal(t, string(want), result.Content)

	// The second submission sees the tool result.
	second := p.requests[1].messages
	assert.Equal(t, 4, second.Len())
	assert.Equal(t, schema.RoleTool, second.Messages[3].Role)
}

func TestSend_UnknownOperation(t *testing.T) {
	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "c1", Name: "Billing.NonExistentOp", Arguments: map[string]any{}}),
		text("Sorry, I can't do that."),
		text("Sure."),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	_, err := s.Send(context.Background(), "do the impossible", nil)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, s.State())

	h := s.History()
	result := h.Messages[3]
	require.Equal(t, schema.RoleTool, result.Role)
	assert.True(t, result.IsError)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(result.Content), &payload))
	assert.Contains(t, payload["error"], "operation not found")
	assert.Equal(t, "Billing.NonExistentOp", payload["operation"])

	_, err = s.Send(context.Background(), "ok then", nil)
	assert.NoError(t, err)
}

func TestSend_ChainedDispatch(t *testing.T) {
	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "a", Name: "Address.Validate", Arguments: map[string]any{"address": "1030 Wien"}}),
		calls(schema.ToolCall{ID: "b", Name: "Serviceability.CheckAddress", Arguments: map[string]any{"postalCode": "1030"}}),
		text("Your address is valid and fiber up to 1000 Mbps is available."),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	var progress []string
	reply, err := s.Send(context.Background(), "check my address 1030 Wien and tell me available plans", func(p string) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, reply.Rounds)
	assert.Equal(t, []string{"Address.Validate", "Serviceability.CheckAddress"}, reply.Tools)
	assert.Equal(t, 3, p.calls())
	assert.Equal(t, []string{`Address.Validate("1030 Wien")`, `Serviceability.CheckAddress("1030")`}, progress)

	var order []string
	for _, m := range s.History().Messages {
		if m.Role == schema.RoleTool {
			order = append(order, m.ToolName)
		}
	}
	assert.Equal(t, []string{"Address.Validate", "Serviceability.CheckAddress"}, order)
	assert.Equal(t, 2, s.Summary().ToolInvocations)
}

func TestSend_CapabilityFailureIsToolResult(t *testing.T) {
	cat, err := capability.NewRegistryBuilder(capability.NewStaticProvider("Orders", "",
		op("Create", func(context.Context, schema.Args) (any, error) {
			return nil, errors.New("product out of stock")
		}),
	)).Discover()
	require.NoError(t, err)

	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "c1", Name: "Orders.Create"}),
		text("That product is out of stock."),
	)
	s := NewOrchestrator(p, cat, testSettings, "sys", testOptions()...).NewSession()

	_, err = s.Send(context.Background(), "order it", nil)
	require.NoError(t, err)

	result := s.History().Messages[3]
	assert.True(t, result.IsError)
	assert.JSONEq(t, `{"error":"product out of stock","operation":"Orders.Create"}`, result.Content)
}

func TestSend_InvalidArgumentsIsToolResult(t *testing.T) {
	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "c1", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": 7.0}}),
		text("Which account?"),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	_, err := s.Send(context.Background(), "balance", nil)
	require.NoError(t, err)

	result := s.History().Messages[3]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "invalid arguments")
}

func TestSend_CapabilityPanicIsToolResult(t *testing.T) {
	cat, err := capability.NewRegistryBuilder(capability.NewStaticProvider("Device", "",
		op("Reset", func(context.Context, schema.Args) (any, error) { panic("nil modem") }),
	)).Discover()
	require.NoError(t, err)

	p := newScriptedProvider(calls(schema.ToolCall{ID: "c1", Name: "Device.Reset"}), text("Reset failed."))
	s := NewOrchestrator(p, cat, testSettings, "sys", testOptions()...).NewSession()

	_, err = s.Send(context.Background(), "reset my modem", nil)
	require.NoError(t, err)
	assert.Contains(t, s.History().Messages[3].Content, "capability panicked")
}

func TestSend_MissingCallIDsAreFilled(t *testing.T) {
	p := newScriptedProvider(
		calls(schema.ToolCall{Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A1"}}),
		text("done"),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	_, err := s.Send(context.Background(), "balance", nil)
	require.NoError(t, err)

	h := s.History()
	id := h.Messages[2].ToolCalls[0].ID
	assert.NotEmpty(t, id)
	assert.Equal(t, id, h.Messages[3].ToolCallID)
}

func TestSend_CompletionErrorRollsBack(t *testing.T) {
	outage := errors.New("503 service unavailable")
	p := newScriptedProvider(
		calls(schema.ToolCall{ID: "c1", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A1"}}),
		fail(outage),
		text("Back online."),
	)
	s := newTestOrchestrator(t, p, testSettings).NewSession()

	_, err := s.Send(context.Background(), "balance", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletion)
	assert.ErrorIs(t, err, outage)
	assert.True(t, IsRecoverable(err))

	var ce *CompletionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Turn)

	h := s.History()
	require.Equal(t, 3, h.Len(), "system, user, notice")
	assert.Equal(t, schema.RoleUser, h.Messages[1].Role)
	assert.True(t, h.Messages[2].IsError)
	assert.Zero(t, h.Count(schema.RoleTool))
	assert.Equal(t, StateAwaitingInput, s.State())

	reply, err := s.Send(context.Background(), "try again", nil)
	require.NoError(t, err)
	assert.Equal(t, "Back online.", reply.Content)
}

func TestSend_CompletionTimeout(t *testing.T) {
	slow := &blockingProvider{}
	settings := testSettings
	settings.CompletionTimeout = 20 * time.Millisecond
	s := newTestOrchestrator(t, slow, settings).NewSession()

	_, err := s.Send(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletion)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateAwaitingInput, s.State())
}

// blockingProvider waits for its context to end.
type blockingProvider struct{}

func (blockingProvider) Chat(ctx context.Context, _ schema.Messages, _ []schema.ToolDefinition, _ schema.ChatOptions) (schema.LLMResponse, error) {
	<-ctx.Done()
	return schema.LLMResponse{}, ctx.Err()
}

func (blockingProvider) DefaultModel() string { return "slow" }

func TestSend_ToolRoundLimit(t *testing.T) {
	loop := schema.ToolCall{ID: "c", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A1"}}
	p := newScriptedProvider(calls(loop), calls(loop), calls(loop))
	settings := testSettings
	settings.MaxToolRounds = 2
	s := newTestOrchestrator(t, p, settings).NewSession()

	_, err := s.Send(context.Background(), "loop forever", nil)
	assert.ErrorIs(t, err, ErrToolRoundLimit)
	assert.True(t, IsRecoverable(err))
	assert.Equal(t, 2, p.calls())
	h := s.History()
	assert.Equal(t, 3, h.Len())
}

func TestSend_CancellationLetsInFlightToolsFinish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finished := false
	cat, err := capability.NewRegistryBuilder(capability.NewStaticProvider("Provisioning", "",
		op("ActivateESim", func(ictx context.Context, _ schema.Args) (any, error) {
			cancel()
			assert.NoError(t, ictx.Err(), "invocation context stays live")
			finished = true
			return "activated", nil
		}),
	)).Discover()
	require.NoError(t, err)

	p := newScriptedProvider(calls(schema.ToolCall{ID: "c1", Name: "Provisioning.ActivateESim"}), text("unused"))
	s := NewOrchestrator(p, cat, testSettings, "sys", testOptions()...).NewSession()

	_, err = s.Send(ctx, "activate", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, finished)
	assert.Equal(t, 1, p.calls(), "no submission after cancellation")
	h := s.History()
	assert.Equal(t, 3, h.Len(), "rolled back to user turn plus notice")
}

func TestSend_ParallelDispatchKeepsDirectiveOrder(t *testing.T) {
	release := make(chan struct{})
	slow := op("Slow", func(context.Context, schema.Args) (any, error) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return "slow", nil
	})
	fast := op("Fast", func(context.Context, schema.Args) (any, error) {
		defer close(release)
		return "fast", nil
	})
	cat, err := capability.NewRegistryBuilder(capability.NewStaticProvider("Probe", "", slow, fast)).Discover()
	require.NoError(t, err)

	p := newScriptedProvider(
		calls(
			schema.ToolCall{ID: "1", Name: "Probe.Slow"},
			schema.ToolCall{ID: "2", Name: "Probe.Fast"},
		),
		text("done"),
	)
	s := NewOrchestrator(p, cat, testSettings, "sys", testOptions()...).NewSession()

	_, err = s.Send(context.Background(), "go", nil)
	require.NoError(t, err)

	h := s.History()
	assert.Equal(t, "1", h.Messages[3].ToolCallID)
	assert.Equal(t, "slow", h.Messages[3].Content)
	assert.Equal(t, "2", h.Messages[4].ToolCallID)
	assert.Equal(t, "fast", h.Messages[4].Content)
}

func TestSend_RejectsEmptyAndTerminated(t *testing.T) {
	s := newTestOrchestrator(t, newScriptedProvider(), testSettings).NewSession()

	_, err := s.Send(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyTurn)
	assert.Zero(t, s.UserTurns())

	s.Terminate(StatusCompleted)
	_, err = s.Send(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrSessionTerminated)
}
