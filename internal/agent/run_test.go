package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contactdesk/internal/schema"
)

func TestIsExitTurn(t *testing.T) {
	for _, in := range []string{"", "   ", "\t", "quit", "QUIT", " Exit ", "exit"} {
		assert.True(t, IsExitTurn(in), "%q", in)
	}
	for _, in := range []string{"quit now", "exit?", "hello", "q"} {
		assert.False(t, IsExitTurn(in), "%q", in)
	}
}

func TestRun_FirstTurnExit(t *testing.T) {
	for _, first := range []string{"", "exit", "  Quit  "} {
		t.Run(first, func(t *testing.T) {
			p := newScriptedProvider()
			tr := &memTransport{inputs: []string{first, "never read"}}

			summary, err := newTestOrchestrator(t, p, testSettings).Run(context.Background(), tr)
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, summary.Status)
			assert.Zero(t, summary.UserTurns)
			assert.Equal(t, 1, summary.TotalTurns)
			assert.Zero(t, p.calls())
			assert.True(t, tr.opened)
			require.NotNil(t, tr.summary)
			assert.Equal(t, summary, *tr.summary)
		})
	}
}

func TestRun_EndOfInputCompletes(t *testing.T) {
	p := newScriptedProvider(text("Hi there"))
	tr := &memTransport{inputs: []string{"hello"}}

	summary, err := newTestOrchestrator(t, p, testSettings).Run(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, 1, summary.UserTurns)
	assert.Equal(t, 3, summary.TotalTurns)
	assert.Equal(t, 1, summary.CompletionRequests)
	require.Len(t, tr.replies, 1)
	assert.Equal(t, "Hi there", tr.replies[0].Content)
}

func TestRun_OutageMidSession(t *testing.T) {
	p := newScriptedProvider(
		text("answer 1"),
		text("answer 2"),
		fail(errors.New("provider outage")),
		text("answer 4"),
		text("answer 5"),
	)
	sink := &recordingSink{}
	tr := &memTransport{inputs: []string{"one", "two", "three", "four", "five", "quit"}}

	summary, err := newTestOrchestrator(t, p, testSettings, WithTranscripts(sink)).Run(context.Background(), tr)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, 5, summary.UserTurns)
	// system + 4 successful turns x2 + failed user turn + notice
	assert.Equal(t, 11, summary.TotalTurns)
	assert.Len(t, tr.replies, 4)
	require.Len(t, tr.errs, 1)
	assert.ErrorIs(t, tr.errs[0], ErrCompletion)
	assert.Equal(t, 5, tr.begun)

	require.Equal(t, 1, sink.saved)
	h := sink.history
	require.Equal(t, 11, h.Len())
	assert.Equal(t, "three", h.Messages[5].Content)
	assert.True(t, h.Messages[6].IsError)
	assert.Equal(t, "four", h.Messages[7].Content)
	assert.Equal(t, summary, sink.summary)
}

func TestRun_CancelledBetweenTurns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newScriptedProvider(text("first"))
	tr := &cancelAfterReply{memTransport: memTransport{inputs: []string{"hello", "again"}}, cancel: cancel}

	summary, err := newTestOrchestrator(t, p, testSettings).Run(ctx, tr)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, summary.Status)
	assert.Equal(t, 1, summary.UserTurns)
	assert.Equal(t, 1, p.calls())
	require.NotNil(t, tr.summary, "transport closed despite cancellation")
}

type cancelAfterReply struct {
	memTransport
	cancel context.CancelFunc
}

func (c *cancelAfterReply) WriteReply(ctx context.Context, r Reply) error {
	c.cancel()
	return c.memTransport.WriteReply(ctx, r)
}

func TestRun_PanicFailsSession(t *testing.T) {
	p := newScriptedProvider(step{panic: "corrupted state"})
	tr := &memTransport{inputs: []string{"hello"}}

	summary, err := newTestOrchestrator(t, p, testSettings).Run(context.Background(), tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionFailed)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Equal(t, 1, summary.UserTurns)
	require.NotNil(t, tr.summary)
}

func TestRun_ProgressIsForwarded(t *testing.T) {
	p := newScriptedProvider(
		step{resp: schema.LLMResponse{
			Content:   "Let me check that.",
			ToolCalls: []schema.ToolCall{{ID: "1", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A1"}}},
		}},
		text("42.50 EUR"),
	)
	tr := &memTransport{inputs: []string{"balance"}}

	_, err := newTestOrchestrator(t, p, testSettings).Run(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, []string{"Let me check that.", `Billing.GetBalance("A1")`}, tr.progress)
}

func TestSummary_Clock(t *testing.T) {
	assert.Equal(t, "01:15", Summary{Duration: 75 * time.Second}.Clock())
	assert.Equal(t, "00:00", Summary{}.Clock())
	assert.Equal(t, "61:01", Summary{Duration: time.Hour + 61*time.Second}.Clock())
}

func TestTerminate_IsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	s := newTestOrchestrator(t, newScriptedProvider(), testSettings, WithTranscripts(sink)).NewSession()

	first := s.Terminate(StatusCompleted)
	second := s.Terminate(StatusFailed)
	assert.Equal(t, first, second)
	assert.Equal(t, StatusCompleted, second.Status)
	assert.Equal(t, 1, sink.saved)
	assert.Equal(t, StateTerminated, s.State())
	assert.Equal(t, 15*time.Second, first.Duration)
}

func TestPersonas(t *testing.T) {
	assert.Equal(t, []Persona{PersonaContact, PersonaGuided}, Personas())

	contact, err := PersonaContact.Prompt()
	require.NoError(t, err)
	assert.Contains(t, contact, "customer service representative")

	guided, err := PersonaGuided.Prompt()
	require.NoError(t, err)
	assert.Contains(t, guided, "eSIM provisioning")

	_, err = Persona("pirate").Prompt()
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "tool_dispatch", StateToolDispatch.String())
	assert.Equal(t, "unknown", State(42).String())
}
