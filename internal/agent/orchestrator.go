package agent

import (
	"time"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/metrics"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

// TranscriptSink persists the history of a terminated session.
type TranscriptSink interface {
	SaveTranscript(history schema.Messages, summary Summary) error
}

// Orchestrator drives conversation sessions against one completion service
// and one catalog. It holds no per-session state, so any number of sessions
// may run concurrently.
type Orchestrator struct {
	provider    schema.LLMProvider
	catalog     *capability.Catalog
	definitions []schema.ToolDefinition
	settings    schema.AgentSettings
	prompt      string

	log         *logger.Logger
	metrics     *metrics.Metrics
	transcripts TranscriptSink
	now         func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithTranscripts(sink TranscriptSink) Option {
	return func(o *Orchestrator) { o.transcripts = sink }
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator binds a provider and catalog. prompt becomes the single
// system turn of every session. An empty settings.Model falls back to the
// provider's default model.
func NewOrchestrator(
	provider schema.LLMProvider,
	catalog *capability.Catalog,
	settings schema.AgentSettings,
	prompt string,
	opts ...Option,
) *Orchestrator {
	if settings.Model == "" {
		settings.Model = provider.DefaultModel()
	}
	o := &Orchestrator{
		provider:    provider,
		catalog:     catalog,
		definitions: catalog.Definitions(),
		settings:    settings,
		prompt:      prompt,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	o.log = o.log.Named("orchestrator")
	return o
}

// Settings returns the generation settings passed on every completion call.
func (o *Orchestrator) Settings() schema.AgentSettings { return o.settings }

// Catalog returns the catalog shared by every session.
func (o *Orchestrator) Catalog() *capability.Catalog { return o.catalog }
