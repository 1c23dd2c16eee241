package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"

	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

const defaultAzureAPIVersion = "2024-10-21"

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint,
// including Azure OpenAI deployments, through the official SDK.
type OpenAIProvider struct {
	client       openai.Client
	defaultModel string
	spec         *ProviderSpec
	log          *logger.Logger
}

var _ schema.LLMProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds the SDK client for p. Azure is selected when the
// provider name is "azure" or an Azure endpoint is configured.
func NewOpenAIProvider(p Params) (*OpenAIProvider, error) {
	spec := Resolve(p.ProviderName, p.APIKey, p.APIBase, p.DefaultModel)
	if p.AzureEndpoint != "" {
		spec = FindByName("azure")
	}

	opts := []option.RequestOption{option.WithMaxRetries(p.MaxRetries)}
	model := p.DefaultModel

	if spec != nil && spec.IsAzure {
		endpoint := p.AzureEndpoint
		if endpoint == "" {
			endpoint = p.APIBase
		}
		if endpoint == "" {
			return nil, errors.New("azure provider requires an endpoint")
		}
		version := p.AzureAPIVersion
		if version == "" {
			version = defaultAzureAPIVersion
		}
		opts = append(opts, azure.WithEndpoint(endpoint, version), azure.WithAPIKey(p.APIKey))
		if p.Deployment != "" {
			model = p.Deployment
		}
	} else {
		base := p.APIBase
		if base == "" && spec != nil {
			base = spec.DefaultAPIBase
		}
		if base != "" {
			opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
		}
		if p.APIKey != "" {
			opts = append(opts, option.WithAPIKey(p.APIKey))
		}
	}
	for k, v := range p.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}

	if model == "" {
		return nil, errors.New("no model configured")
	}

	label := "openai-compatible"
	if spec != nil {
		label = spec.Name
	}
	return &OpenAIProvider{
		client:       openai.NewClient(opts...),
		defaultModel: model,
		spec:         spec,
		log:          logger.Get().With("component", "provider", "provider", label, "model", model),
	}, nil
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// Spec returns the matched registry entry, or nil for an unknown backend.
func (p *OpenAIProvider) Spec() *ProviderSpec { return p.spec }

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []schema.ToolDefinition,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}
	model = p.resolveModel(model)

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messageParams(messages),
		Tools:       toolParams(tools),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return schema.LLMResponse{}, friendlyError(err)
	}

	out := parseCompletion(resp, newNameTable(tools))
	p.log.Debugw("Completion",
		"finish", out.FinishReason,
		"toolCalls", len(out.ToolCalls),
		"inputTokens", out.Usage["input_tokens"],
		"outputTokens", out.Usage["output_tokens"],
	)
	return out, nil
}

// resolveModel strips a "provider/" prefix that only this process uses for
// routing. Gateways route on the full name and keep it.
func (p *OpenAIProvider) resolveModel(model string) string {
	if p.spec == nil || !p.spec.StripModelPrefix {
		return model
	}
	prefix := p.spec.Name + "/"
	if strings.HasPrefix(strings.ToLower(model), prefix) {
		return model[len(prefix):]
	}
	return model
}

func friendlyError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion: %w", err)
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("chat completion: rate limit exceeded: %w", err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("chat completion: credentials rejected: %w", err)
	}
	return fmt.Errorf("chat completion: HTTP %d: %w", apiErr.StatusCode, err)
}
