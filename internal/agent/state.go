package agent

// State is the position of a session in the conversation state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateProcessing
	StateToolDispatch
	StateResponded
	StateTerminated
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateAwaitingInput: "awaiting_input",
	StateProcessing:    "processing",
	StateToolDispatch:  "tool_dispatch",
	StateResponded:     "responded",
	StateTerminated:    "terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
