package config

import (
	"time"

	"github.com/contactdesk/contactdesk/internal/notify"
	"github.com/contactdesk/contactdesk/internal/providers"
	"github.com/contactdesk/contactdesk/internal/schema"
)

// Config is the root configuration object, stored as YAML at ConfigPath().
type Config struct {
	Agent         AgentConfig         `yaml:"agent"`
	Provider      ProviderConfig      `yaml:"provider"`
	Transcripts   TranscriptsConfig   `yaml:"transcripts"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
}

type AgentConfig struct {
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"maxTokens"`
	Temperature       float64       `yaml:"temperature"`
	MaxToolRounds     int           `yaml:"maxToolRounds"`
	ParallelTools     bool          `yaml:"parallelTools"`
	MaxParallelTools  int           `yaml:"maxParallelTools"`
	CompletionTimeout time.Duration `yaml:"completionTimeout"`
	Persona           string        `yaml:"persona"`
}

type ProviderConfig struct {
	Name              string            `yaml:"name"`
	APIKey            string            `yaml:"apiKey"`
	APIBase           string            `yaml:"apiBase,omitempty"`
	AzureEndpoint     string            `yaml:"azureEndpoint,omitempty"`
	AzureAPIVersion   string            `yaml:"azureApiVersion,omitempty"`
	Deployment        string            `yaml:"deployment,omitempty"`
	ExtraHeaders      map[string]string `yaml:"extraHeaders,omitempty"`
	RequestsPerMinute int               `yaml:"requestsPerMinute"`
	MaxRetries        int               `yaml:"maxRetries"`
}

type TranscriptsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chatId"`
}

// NotificationsConfig selects where customer notifications are mirrored.
// With neither section configured they are only logged.
type NotificationsConfig struct {
	Slack    SlackConfig    `yaml:"slack"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	MetricsPath    string   `yaml:"metricsPath"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:            "gpt-4o-mini",
			MaxTokens:        1500,
			Temperature:      0.3,
			ParallelTools:    true,
			MaxParallelTools: 4,
			Persona:          "contact",
		},
		Provider: ProviderConfig{
			MaxRetries: 2,
		},
		Transcripts: TranscriptsConfig{
			Enabled: true,
			Dir:     "~/.contactdesk/sessions",
		},
		Server: ServerConfig{
			Addr:        ":8088",
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level: "info",
			Env:   "development",
		},
	}
}

// AgentSettings projects the agent section onto the orchestrator settings.
func (c *Config) AgentSettings() schema.AgentSettings {
	s := schema.NewAgentSettings(c.Agent.Model, c.Agent.MaxTokens, c.Agent.Temperature)
	s.MaxToolRounds = c.Agent.MaxToolRounds
	s.ParallelTools = c.Agent.ParallelTools
	s.MaxParallelTools = c.Agent.MaxParallelTools
	s.CompletionTimeout = c.Agent.CompletionTimeout
	if c.Provider.Deployment != "" {
		s.Model = c.Provider.Deployment
	}
	return s
}

func (c *Config) ProviderParams() providers.Params {
	return providers.Params{
		ProviderName:      c.Provider.Name,
		APIKey:            c.Provider.APIKey,
		APIBase:           c.Provider.APIBase,
		ExtraHeaders:      c.Provider.ExtraHeaders,
		DefaultModel:      c.Agent.Model,
		AzureEndpoint:     c.Provider.AzureEndpoint,
		AzureAPIVersion:   c.Provider.AzureAPIVersion,
		Deployment:        c.Provider.Deployment,
		RequestsPerMinute: c.Provider.RequestsPerMinute,
		MaxRetries:        c.Provider.MaxRetries,
	}
}

func (c *Config) NotifyConfig() notify.Config {
	return notify.Config{
		SlackToken:     c.Notifications.Slack.Token,
		SlackChannel:   c.Notifications.Slack.Channel,
		TelegramToken:  c.Notifications.Telegram.Token,
		TelegramChatID: c.Notifications.Telegram.ChatID,
	}
}

// ProviderLabel returns the display name of the backend the configuration
// resolves to, or "" when nothing matches.
func (c *Config) ProviderLabel() string {
	p := c.ProviderParams()
	if p.AzureEndpoint != "" {
		return providers.FindByName("azure").Label()
	}
	if s := providers.Resolve(p.ProviderName, p.APIKey, p.APIBase, p.DefaultModel); s != nil {
		return s.Label()
	}
	return ""
}
