// Package dependency wires core contactdesk services using go.uber.org/dig.
package dependency

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/contactdesk/contactdesk/internal/agent"
	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/config"
	"github.com/contactdesk/contactdesk/internal/metrics"
	"github.com/contactdesk/contactdesk/internal/notify"
	"github.com/contactdesk/contactdesk/internal/plugins"
	"github.com/contactdesk/contactdesk/internal/providers"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/internal/session"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

// Container resolves services lazily: listing the catalog never needs a
// completion provider, so commands that only inspect tools work without an
// API key. Callers use the typed getters; they never need to import dig.
type Container struct {
	d *dig.Container
}

// SystemPrompt is a named string type so dig can tell the persona prompt
// apart from plain strings.
type SystemPrompt string

// New registers all constructors for cfg. Nothing is built until a getter
// asks for it.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		logger.Get,
		metrics.New,
		newNotifier,
		newProviders,
		newCatalog,
		newLLMProvider,
		newTranscripts,
		newSystemPrompt,
		newOrchestrator,
	}
	for _, c := range constructors {
		if err := d.Provide(c); err != nil {
			return nil, err
		}
	}
	return &Container{d: d}, nil
}

func (c *Container) Catalog() (*capability.Catalog, error) {
	var cat *capability.Catalog
	err := c.d.Invoke(func(x *capability.Catalog) { cat = x })
	return cat, unwrap(err)
}

func (c *Container) Metrics() (*metrics.Metrics, error) {
	var m *metrics.Metrics
	err := c.d.Invoke(func(x *metrics.Metrics) { m = x })
	return m, unwrap(err)
}

func (c *Container) Provider() (schema.LLMProvider, error) {
	var p schema.LLMProvider
	err := c.d.Invoke(func(x schema.LLMProvider) { p = x })
	return p, unwrap(err)
}

// Transcripts returns the transcript store, or nil when persistence is
// disabled.
func (c *Container) Transcripts() (*session.Store, error) {
	var st *session.Store
	err := c.d.Invoke(func(x *session.Store) { st = x })
	return st, unwrap(err)
}

func (c *Container) Orchestrator() (*agent.Orchestrator, error) {
	var o *agent.Orchestrator
	err := c.d.Invoke(func(x *agent.Orchestrator) { o = x })
	return o, unwrap(err)
}

// unwrap strips dig's resolution chain so callers see the constructor's
// own error, e.g. a *capability.ConfigError.
func unwrap(err error) error {
	if err == nil {
		return nil
	}
	return dig.RootCause(err)
}

func newNotifier(cfg *config.Config, l *logger.Logger) (notify.Sender, error) {
	return notify.New(cfg.NotifyConfig(), l)
}

func newProviders(n notify.Sender, l *logger.Logger) []schema.CapabilityProvider {
	return plugins.All(plugins.Deps{Notifier: n, Log: l})
}

func newCatalog(ps []schema.CapabilityProvider) (*capability.Catalog, error) {
	return capability.NewRegistryBuilder(ps...).Discover()
}

func newLLMProvider(cfg *config.Config) (schema.LLMProvider, error) {
	p := cfg.ProviderParams()
	if p.APIKey == "" {
		p.APIKey = providers.EnvAPIKey(p)
	}
	if p.APIKey == "" {
		if spec := providers.FindByName(p.ProviderName); spec == nil || !spec.IsLocal {
			return nil, fmt.Errorf("no API key configured for model %q: edit %s or set OPENAI_API_KEY", p.DefaultModel, config.ConfigPath())
		}
	}
	return providers.New(p)
}

// newTranscripts returns nil when persistence is disabled.
func newTranscripts(cfg *config.Config, l *logger.Logger) (*session.Store, error) {
	if !cfg.Transcripts.Enabled {
		return nil, nil
	}
	return session.NewStore(cfg.Transcripts.Dir, l)
}

func newSystemPrompt(cfg *config.Config) (SystemPrompt, error) {
	persona := agent.Persona(cfg.Agent.Persona)
	if persona == "" {
		persona = agent.DefaultPersona
	}
	prompt, err := persona.Prompt()
	return SystemPrompt(prompt), err
}

func newOrchestrator(
	cfg *config.Config,
	p schema.LLMProvider,
	cat *capability.Catalog,
	prompt SystemPrompt,
	store *session.Store,
	m *metrics.Metrics,
	l *logger.Logger,
) *agent.Orchestrator {
	opts := []agent.Option{agent.WithLogger(l), agent.WithMetrics(m)}
	if store != nil {
		opts = append(opts, agent.WithTranscripts(store))
	}
	return agent.NewOrchestrator(p, cat, cfg.AgentSettings(), string(prompt), opts...)
}
