package providers

import (
	"os"
	"strings"
)

// ProviderSpec is the metadata record for one OpenAI-compatible backend.
type ProviderSpec struct {
	Name        string   // config name, e.g. "openrouter"
	Keywords    []string // model-name keywords for matching (lowercase)
	EnvKey      string   // env var conventionally holding the API key
	DisplayName string   // shown in `contactdesk status`

	IsGateway           bool   // routes any model (OpenRouter, ...)
	IsLocal             bool   // local deployment (vLLM, Ollama)
	IsAzure             bool   // Azure OpenAI: endpoint + deployment + api-version
	DetectByKeyPrefix   string // match api key prefix to identify gateway
	DetectByBaseKeyword string // match substring in api base URL
	DefaultAPIBase      string // fallback base URL when none is configured

	StripModelPrefix bool // strip "<name>/" before sending the model name
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// Providers is the registry. Order = match priority.
var Providers = []ProviderSpec{
	{
		Name:        "custom",
		DisplayName: "Custom",
	},
	{
		Name:                "azure",
		Keywords:            []string{"azure"},
		EnvKey:              "AZURE_OPENAI_API_KEY",
		DisplayName:         "Azure OpenAI",
		IsAzure:             true,
		DetectByBaseKeyword: "openai.azure.com",
		StripModelPrefix:    true,
	},
	{
		Name:                "openrouter",
		Keywords:            []string{"openrouter"},
		EnvKey:              "OPENROUTER_API_KEY",
		DisplayName:         "OpenRouter",
		IsGateway:           true,
		DetectByKeyPrefix:   "sk-or-",
		DetectByBaseKeyword: "openrouter",
		DefaultAPIBase:      "https://openrouter.ai/api/v1",
	},
	{
		Name:             "openai",
		Keywords:         []string{"openai", "gpt"},
		EnvKey:           "OPENAI_API_KEY",
		DisplayName:      "OpenAI",
		StripModelPrefix: true,
	},
	{
		Name:             "deepseek",
		Keywords:         []string{"deepseek"},
		EnvKey:           "DEEPSEEK_API_KEY",
		DisplayName:      "DeepSeek",
		DefaultAPIBase:   "https://api.deepseek.com/v1",
		StripModelPrefix: true,
	},
	{
		Name:             "groq",
		Keywords:         []string{"groq"},
		EnvKey:           "GROQ_API_KEY",
		DisplayName:      "Groq",
		DefaultAPIBase:   "https://api.groq.com/openai/v1",
		StripModelPrefix: true,
	},
	{
		Name:             "moonshot",
		Keywords:         []string{"moonshot", "kimi"},
		EnvKey:           "MOONSHOT_API_KEY",
		DisplayName:      "Moonshot",
		DefaultAPIBase:   "https://api.moonshot.ai/v1",
		StripModelPrefix: true,
	},
	{
		Name:             "vllm",
		Keywords:         []string{"vllm"},
		EnvKey:           "HOSTED_VLLM_API_KEY",
		DisplayName:      "vLLM/Local",
		IsLocal:          true,
		DefaultAPIBase:   "http://localhost:8000/v1",
		StripModelPrefix: true,
	},
}

// FindByModel matches a standard provider by model-name keyword (case-insensitive).
// Gateways and local providers are matched by api key / api base instead.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	modelPrefix, _, _ := strings.Cut(modelLower, "/")

	var std []int
	for i := range Providers {
		if !Providers[i].IsGateway && !Providers[i].IsLocal {
			std = append(std, i)
		}
	}

	// Prefer explicit provider prefix.
	for _, i := range std {
		if modelPrefix != "" && modelPrefix != modelLower && modelPrefix == Providers[i].Name {
			return &Providers[i]
		}
	}

	for _, i := range std {
		for _, kw := range Providers[i].Keywords {
			if strings.Contains(modelLower, kw) {
				return &Providers[i]
			}
		}
	}
	return nil
}

// FindGateway detects a gateway, local or Azure deployment.
// Priority: (1) explicit provider name, (2) api key prefix, (3) api base keyword.
func FindGateway(providerName, apiKey, apiBase string) *ProviderSpec {
	if providerName != "" {
		if s := FindByName(providerName); s != nil && (s.IsGateway || s.IsLocal || s.IsAzure) {
			return s
		}
	}
	for i := range Providers {
		spec := &Providers[i]
		if spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
		if spec.DetectByBaseKeyword != "" && strings.Contains(apiBase, spec.DetectByBaseKeyword) {
			return spec
		}
	}
	return nil
}

// EnvAPIKey returns the API key held in the conventional environment
// variable of the backend p resolves to, or "" when there is none.
func EnvAPIKey(p Params) string {
	spec := Resolve(p.ProviderName, p.APIKey, p.APIBase, p.DefaultModel)
	if p.AzureEndpoint != "" {
		spec = FindByName("azure")
	}
	if spec == nil || spec.EnvKey == "" {
		return ""
	}
	return os.Getenv(spec.EnvKey)
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range Providers {
		if Providers[i].Name == name {
			return &Providers[i]
		}
	}
	return nil
}

// Resolve picks the spec for a configuration: gateway detection first, then
// model keywords, then the explicit name.
func Resolve(providerName, apiKey, apiBase, model string) *ProviderSpec {
	if s := FindGateway(providerName, apiKey, apiBase); s != nil {
		return s
	}
	if providerName != "" {
		if s := FindByName(providerName); s != nil {
			return s
		}
	}
	return FindByModel(model)
}
