package schema

import "time"

// AgentSettings are the per-session generation and dispatch settings.
type AgentSettings struct {
	Model             string
	MaxTokens         int
	Temperature       float64
	MaxToolRounds     int           // 0 means the completion service alone decides when to stop
	ParallelTools     bool          // run the calls of one dispatch round concurrently
	MaxParallelTools  int           // concurrency limit when ParallelTools is set
	CompletionTimeout time.Duration // 0 means no host-imposed timeout
}

func NewAgentSettings(model string, maxTokens int, temperature float64) AgentSettings {
	return AgentSettings{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// ChatOptions returns the completion options derived from the settings.
func (s AgentSettings) ChatOptions() ChatOptions {
	return NewChatOptions(s.Model, s.MaxTokens, s.Temperature)
}
