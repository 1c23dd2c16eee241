package providers

import (
	"encoding/json"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// Function names on the wire may only contain letters, digits, '_' and '-'.
// Qualified names use '.', so the adapter swaps it for '-' on the way out
// and maps names back on the way in.

func wireName(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "-")
}

// nameTable maps wire names back to qualified names for one request.
type nameTable map[string]string

func newNameTable(defs []schema.ToolDefinition) nameTable {
	t := make(nameTable, len(defs))
	for _, d := range defs {
		t[wireName(d.Name)] = d.Name
	}
	return t
}

// qualified returns the catalog name for a wire name. Names the model
// invented pass through unchanged so the orchestrator can report them.
func (t nameTable) qualified(wire string) string {
	if q, ok := t[wire]; ok {
		return q
	}
	return wire
}

func toolParams(defs []schema.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, d := range defs {
		params := d.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        wireName(d.Name),
			Description: openai.String(d.Description),
			Parameters:  shared.FunctionParameters(params),
		}))
	}
	return out
}

// messageParams converts the history. Error notices are transcript-only
// and are not replayed to the model.
func messageParams(messages schema.Messages) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, messages.Len())
	for _, m := range messages.Messages {
		switch m.Role {
		case schema.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case schema.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case schema.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case schema.RoleAssistant:
			if m.IsError {
				continue
			}
			out = append(out, assistantParam(m))
		}
	}
	return out
}

func assistantParam(m schema.Message) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{}
	if m.Content != "" || len(m.ToolCalls) == 0 {
		msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
	}
	for _, tc := range m.ToolCalls {
		args, err := json.Marshal(tc.Arguments)
		if err != nil || tc.Arguments == nil {
			args = []byte("{}")
		}
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      wireName(tc.Name),
					Arguments: string(args),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

// parseCompletion normalises the first choice into an LLMResponse.
func parseCompletion(resp *openai.ChatCompletion, names nameTable) schema.LLMResponse {
	out := schema.LLMResponse{
		Usage: map[string]int{
			"input_tokens":  int(resp.Usage.PromptTokens),
			"output_tokens": int(resp.Usage.CompletionTokens),
		},
	}
	if len(resp.Choices) == 0 {
		out.FinishReason = "empty"
		return out
	}

	choice := resp.Choices[0]
	out.Content = choice.Message.Content
	out.FinishReason = choice.FinishReason
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:        tc.ID,
			Name:      names.qualified(tc.Function.Name),
			Arguments: parseArguments(tc.Function.Arguments),
		})
	}
	return out
}

// parseArguments decodes the model's argument JSON. Models occasionally
// wrap it in a code fence or trail garbage; anything undecodable becomes an
// empty map and argument validation reports what is missing.
func parseArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil && args != nil {
		return args
	}
	if i := strings.LastIndex(raw, "}"); i > 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &args); err == nil && args != nil {
			return args
		}
	}
	return map[string]any{}
}
