package schema

// Messages is the ordered, append-only history of a conversation.
// It owns typed append methods so callers never construct raw turns.
type Messages struct {
	Messages []Message
}

// NewMessages returns a Messages initialised with the given messages.
// Called with no arguments it returns an empty Messages ready for use.
func NewMessages(msgs ...Message) Messages {
	if len(msgs) == 0 {
		return Messages{Messages: make([]Message, 0)}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return Messages{Messages: out}
}

// AddSystem appends a system message.
func (mh *Messages) AddSystem(content string) {
	mh.Messages = append(mh.Messages, NewSystemMessage(content))
}

// AddUser appends a user message.
func (mh *Messages) AddUser(content string) {
	mh.Messages = append(mh.Messages, NewUserMessage(content))
}

// AddAssistant appends an assistant message with optional tool calls.
func (mh *Messages) AddAssistant(content string, toolCalls []ToolCall) {
	mh.Messages = append(mh.Messages, NewAssistantMessage(content, toolCalls))
}

// AddNotice appends an assistant message flagged as an error notice.
func (mh *Messages) AddNotice(content string) {
	msg := NewAssistantMessage(content, nil)
	msg.IsError = true
	mh.Messages = append(mh.Messages, msg)
}

// AddToolResult appends a tool-result message.
func (mh *Messages) AddToolResult(toolCallID, toolName, result string, isError bool) {
	mh.Messages = append(mh.Messages, NewToolResultMessage(toolCallID, toolName, result, isError))
}

// Len returns the number of turns.
func (mh *Messages) Len() int { return len(mh.Messages) }

// Truncate drops every turn at position n and beyond.
func (mh *Messages) Truncate(n int) {
	if n < 0 || n >= len(mh.Messages) {
		return
	}
	clear(mh.Messages[n:])
	mh.Messages = mh.Messages[:n]
}

// Count returns how many turns have the given role.
func (mh *Messages) Count(role Role) int {
	n := 0
	for _, m := range mh.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Clone returns a copy of mh with an independent backing slice.
func (mh *Messages) Clone() Messages {
	cloned := make([]Message, len(mh.Messages))
	copy(cloned, mh.Messages)
	return Messages{Messages: cloned}
}
