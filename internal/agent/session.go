package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

// Session is one conversation: its ordered history and counters. A session
// is driven by one goroutine at a time; it is not safe for concurrent Send.
type Session struct {
	orch *Orchestrator
	log  *logger.Logger

	id      string
	history schema.Messages
	state   State
	status  Status

	started time.Time
	ended   time.Time

	userTurns          int
	toolInvocations    int
	completionRequests int
}

// NewSession creates a session with its system turn inserted and moves it
// to AwaitingInput.
func (o *Orchestrator) NewSession() *Session {
	id := uuid.NewString()
	s := &Session{
		orch:    o,
		log:     o.log.With("session", id),
		id:      id,
		history: schema.NewMessages(),
		state:   StateIdle,
		started: o.now(),
	}
	s.history.AddSystem(o.prompt)
	s.state = StateAwaitingInput
	o.metrics.SessionStarted()
	s.log.Debugw("Session started", "model", o.settings.Model, "tools", len(o.definitions))
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) State() State    { return s.state }
func (s *Session) UserTurns() int  { return s.userTurns }
func (s *Session) TotalTurns() int { return s.history.Len() }

// History returns a copy of the conversation so far.
func (s *Session) History() schema.Messages { return s.history.Clone() }

// Terminate ends the session with the given status and returns its summary.
// Calling it again returns the original summary unchanged.
func (s *Session) Terminate(status Status) Summary {
	if s.state == StateTerminated {
		return s.Summary()
	}
	s.state = StateTerminated
	s.status = status
	s.ended = s.orch.now()

	summary := s.Summary()
	s.orch.metrics.SessionEnded(string(status), s.userTurns)
	s.log.Infow("Session ended",
		"status", status,
		"duration", summary.Clock(),
		"userTurns", summary.UserTurns,
		"totalTurns", summary.TotalTurns,
		"toolInvocations", summary.ToolInvocations,
	)

	if s.orch.transcripts != nil {
		if err := s.orch.transcripts.SaveTranscript(s.history.Clone(), summary); err != nil {
			s.log.Warnw("Failed to save transcript", "err", err)
		}
	}
	return summary
}

// Summary reports the session counters. Before termination EndTime is the
// current time and Status is empty.
func (s *Session) Summary() Summary {
	end := s.ended
	if end.IsZero() {
		end = s.orch.now()
	}
	return Summary{
		SessionID:          s.id,
		Status:             s.status,
		StartTime:          s.started,
		EndTime:            end,
		Duration:           end.Sub(s.started),
		UserTurns:          s.userTurns,
		TotalTurns:         s.history.Len(),
		ToolInvocations:    s.toolInvocations,
		CompletionRequests: s.completionRequests,
	}
}
