package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Transport is the conversational surface a session is driven through.
// ReadTurn returns io.EOF when the other side has gone away.
type Transport interface {
	Open(ctx context.Context) error
	ReadTurn(ctx context.Context) (string, error)
	BeginTurn(ctx context.Context) error
	WriteReply(ctx context.Context, reply Reply) error
	WriteError(ctx context.Context, err error) error
	Close(ctx context.Context, summary Summary) error
}

// ProgressWriter is implemented by transports that show intermediate text
// and tool hints while a turn is being processed.
type ProgressWriter interface {
	WriteProgress(ctx context.Context, text string) error
}

var exitTokens = map[string]bool{
	"quit": true,
	"exit": true,
}

// IsExitTurn reports whether input ends the session: blank input or an exit
// keyword, case-insensitively.
func IsExitTurn(input string) bool {
	trimmed := strings.TrimSpace(input)
	return trimmed == "" || exitTokens[strings.ToLower(trimmed)]
}

// Run drives a fresh session over t until an exit turn, end of input,
// cancellation of ctx, or an unrecoverable fault. The returned summary is
// always populated; the error is non-nil only when the session failed.
func (o *Orchestrator) Run(ctx context.Context, t Transport) (Summary, error) {
	s := o.NewSession()
	status, runErr := s.converse(ctx, t)
	summary := s.Terminate(status)

	if err := t.Close(context.WithoutCancel(ctx), summary); err != nil {
		s.log.Warnw("Transport close failed", "err", err)
	}
	return summary, runErr
}

func (s *Session) converse(ctx context.Context, t Transport) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Session aborted", "panic", r)
			status, err = StatusFailed, fmt.Errorf("%w: %v", ErrSessionFailed, r)
		}
	}()

	if err := t.Open(ctx); err != nil {
		return StatusFailed, fmt.Errorf("open transport: %w", err)
	}

	var onProgress func(string)
	if pw, ok := t.(ProgressWriter); ok {
		onProgress = func(text string) { _ = pw.WriteProgress(ctx, text) }
	}

	for {
		if ctx.Err() != nil {
			return StatusCancelled, nil
		}

		input, err := t.ReadTurn(ctx)
		switch {
		case ctx.Err() != nil:
			return StatusCancelled, nil
		case errors.Is(err, io.EOF):
			return StatusCompleted, nil
		case err != nil:
			return StatusFailed, fmt.Errorf("read turn: %w", err)
		}

		if IsExitTurn(input) {
			return StatusCompleted, nil
		}

		if err := t.BeginTurn(ctx); err != nil {
			return StatusFailed, fmt.Errorf("begin turn: %w", err)
		}

		reply, err := s.Send(ctx, input, onProgress)
		if err != nil {
			if ctx.Err() != nil {
				return StatusCancelled, nil
			}
			if !IsRecoverable(err) {
				return StatusFailed, err
			}
			if err := t.WriteError(ctx, err); err != nil {
				return StatusFailed, fmt.Errorf("write error: %w", err)
			}
			continue
		}

		if err := t.WriteReply(ctx, reply); err != nil {
			return StatusFailed, fmt.Errorf("write reply: %w", err)
		}
	}
}
