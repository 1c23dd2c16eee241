package session

import (
	"encoding/json"

	"github.com/contactdesk/contactdesk/internal/schema"
)

// wireMessage is the on-disk JSON representation of a turn. Tool calls use
// the OpenAI wire layout so transcripts can be replayed against the API.
type wireMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []map[string]any `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	IsError    bool             `json:"is_error,omitempty"`
}

func messageToWire(msg schema.Message) wireMessage {
	w := wireMessage{
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		Name:       msg.ToolName,
		IsError:    msg.IsError,
	}
	for _, tc := range msg.ToolCalls {
		w.ToolCalls = append(w.ToolCalls, tc.ToWireMap())
	}
	return w
}

func wireToMessage(w wireMessage) schema.Message {
	msg := schema.Message{
		Role:       schema.Role(w.Role),
		Content:    w.Content,
		ToolCallID: w.ToolCallID,
		ToolName:   w.Name,
		IsError:    w.IsError,
	}
	for _, tcm := range w.ToolCalls {
		fn, _ := tcm["function"].(map[string]any)
		id, _ := tcm["id"].(string)
		name, _ := fn["name"].(string)
		argsStr, _ := fn["arguments"].(string)
		var args map[string]any
		_ = json.Unmarshal([]byte(argsStr), &args)
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{ID: id, Name: name, Arguments: args})
	}
	return msg
}
