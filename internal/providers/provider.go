// Package providers adapts OpenAI-compatible chat completion endpoints to
// the schema.LLMProvider contract. Adapters translate directives only; they
// never execute tools.
package providers

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	ProviderName string // registry name, e.g. "openai", "azure", "openrouter"
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string

	AzureEndpoint   string
	AzureAPIVersion string
	Deployment      string // Azure deployment name; used as the model

	RequestsPerMinute int // 0 disables client-side rate limiting
	MaxRetries        int
}
