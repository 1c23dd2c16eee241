package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/internal/shared/llmutils"
)

type toolOutcome struct {
	content string
	isError bool
}

type errorPayload struct {
	Error     string `json:"error"`
	Operation string `json:"operation"`
}

// dispatch runs one round of directives and returns outcomes indexed like
// calls. Invocations are detached from ctx cancellation so a directive is
// never left unanswered.
func (s *Session) dispatch(ctx context.Context, calls []schema.ToolCall) []toolOutcome {
	ctx = context.WithoutCancel(ctx)
	outcomes := make([]toolOutcome, len(calls))

	settings := s.orch.settings
	if !settings.ParallelTools || len(calls) == 1 {
		for i, tc := range calls {
			outcomes[i] = s.invoke(ctx, tc)
		}
		return outcomes
	}

	var g errgroup.Group
	if settings.MaxParallelTools > 0 {
		g.SetLimit(settings.MaxParallelTools)
	}
	for i, tc := range calls {
		g.Go(func() error {
			outcomes[i] = s.invoke(ctx, tc)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Session) invoke(ctx context.Context, tc schema.ToolCall) (out toolOutcome) {
	o := s.orch
	start := time.Now()
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			status = "error"
			out = failure(tc.Name, fmt.Sprintf("capability panicked: %v", r))
		}
		o.metrics.RecordTool(tc.Name, status, time.Since(start))
		s.log.Infow("Tool call",
			"name", tc.Name,
			"args", llmutils.Truncate(argsJSON(tc.Arguments), 200),
			"status", status,
			"duration", time.Since(start),
		)
	}()

	d, err := o.catalog.Resolve(tc.Name)
	if err != nil {
		status = "not_found"
		return failure(tc.Name, err.Error())
	}

	result, err := d.Invoke(ctx, tc.Arguments)
	if err != nil {
		status = "error"
		if errors.Is(err, capability.ErrInvalidArguments) {
			status = "invalid_arguments"
		}
		return failure(tc.Name, err.Error())
	}

	content, err := encodeResult(result)
	if err != nil {
		status = "error"
		return failure(tc.Name, fmt.Sprintf("encode result: %v", err))
	}
	return toolOutcome{content: content}
}

func failure(operation, reason string) toolOutcome {
	b, _ := json.Marshal(errorPayload{Error: reason, Operation: operation})
	return toolOutcome{content: string(b), isError: true}
}

// encodeResult passes strings through and serialises everything else as JSON.
func encodeResult(v any) (string, error) {
	switch r := v.(type) {
	case string:
		return r, nil
	case []byte:
		return string(r), nil
	case json.RawMessage:
		return string(r), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func argsJSON(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}
