package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/internal/shared/llmutils"
)

const (
	failureNotice = "Sorry, I couldn't process that request. Please try again."
	roundsNotice  = "Sorry, that request needed too many steps. Please try rephrasing it."
	cancelNotice  = "Request cancelled."
)

// Reply is the outcome of one successful user turn.
type Reply struct {
	Content string
	Rounds  int      // tool dispatch rounds performed before the final reply
	Tools   []string // qualified names requested, in dispatch order
}

// Send appends a user turn and runs the completion ↔ tool loop until the
// completion service answers without directives. onProgress, if non-nil,
// receives partial text and a hint for each dispatch round.
//
// A completion failure rolls the history back to the user turn, appends an
// error notice and returns a *CompletionError; the session stays usable.
// Cancellation of ctx is observed before each completion call; capability
// invocations already started always run to completion.
func (s *Session) Send(ctx context.Context, input string, onProgress func(string)) (Reply, error) {
	if s.state == StateTerminated {
		return Reply{}, ErrSessionTerminated
	}
	if strings.TrimSpace(input) == "" {
		return Reply{}, ErrEmptyTurn
	}
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	s.history.AddUser(input)
	s.userTurns++
	checkpoint := s.history.Len()
	s.state = StateProcessing

	var reply Reply
	for {
		if err := ctx.Err(); err != nil {
			s.rollback(checkpoint, cancelNotice)
			return Reply{}, err
		}
		if limit := s.orch.settings.MaxToolRounds; limit > 0 && reply.Rounds >= limit {
			s.log.Warnw("Tool round limit reached", "turn", s.userTurns, "rounds", reply.Rounds)
			s.rollback(checkpoint, roundsNotice)
			return Reply{}, fmt.Errorf("%w after %d rounds", ErrToolRoundLimit, reply.Rounds)
		}

		resp, err := s.complete(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.rollback(checkpoint, cancelNotice)
				return Reply{}, ctx.Err()
			}
			s.log.Errorw("Completion failed", "turn", s.userTurns, "err", err)
			s.rollback(checkpoint, failureNotice)
			return Reply{}, &CompletionError{Turn: s.userTurns, Err: err}
		}

		if !resp.HasToolCalls() {
			reply.Content = llmutils.StripThink(resp.Content)
			s.history.AddAssistant(reply.Content, nil)
			s.state = StateResponded
			s.log.Infow("Response", "turn", s.userTurns, "rounds", reply.Rounds, "length", len(reply.Content))
			s.state = StateAwaitingInput
			return reply, nil
		}

		calls := withCallIDs(resp.ToolCalls)
		if onProgress != nil {
			if clean := llmutils.StripThink(resp.Content); clean != "" {
				onProgress(clean)
			}
			onProgress(llmutils.ToolHint(calls))
		}

		s.state = StateToolDispatch
		s.history.AddAssistant(resp.Content, calls)
		outcomes := s.dispatch(ctx, calls)
		for i, tc := range calls {
			s.history.AddToolResult(tc.ID, tc.Name, outcomes[i].content, outcomes[i].isError)
			reply.Tools = append(reply.Tools, tc.Name)
		}
		s.toolInvocations += len(calls)
		reply.Rounds++
		s.state = StateProcessing
	}
}

// complete submits the full history and catalog with the session's fixed
// settings, applying the optional host timeout.
func (s *Session) complete(ctx context.Context) (schema.LLMResponse, error) {
	o := s.orch
	if o.settings.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.settings.CompletionTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.provider.Chat(ctx, s.history.Clone(), o.definitions, o.settings.ChatOptions())
	s.completionRequests++
	o.metrics.RecordCompletion(o.settings.Model, time.Since(start), err, resp.Usage)
	return resp, err
}

// rollback drops the speculative turns after the user turn and records a
// notice in their place.
func (s *Session) rollback(checkpoint int, notice string) {
	s.history.Truncate(checkpoint)
	s.history.AddNotice(notice)
	s.state = StateAwaitingInput
}

// withCallIDs copies calls, filling in IDs the completion service omitted so
// every tool result can be matched to its directive.
func withCallIDs(calls []schema.ToolCall) []schema.ToolCall {
	out := make([]schema.ToolCall, len(calls))
	for i, tc := range calls {
		if tc.ID == "" {
			tc.ID = "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
		}
		if tc.Arguments == nil {
			tc.Arguments = map[string]any{}
		}
		out[i] = tc
	}
	return out
}
