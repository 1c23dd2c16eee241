package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/contactdesk/contactdesk/pkg/logger"
)

// ConfigPath returns the default config file path: ~/.contactdesk/config.yaml
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns ~/.contactdesk
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".contactdesk")
}

// env holds the variables that override file values when set. Empty values
// leave the file untouched.
type env struct {
	OpenAIKey       string `envconfig:"OPENAI_API_KEY"`
	AzureEndpoint   string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureKey        string `envconfig:"AZURE_OPENAI_API_KEY"`
	AzureDeployment string `envconfig:"AZURE_OPENAI_DEPLOYMENT"`
	Model           string `envconfig:"CONTACTDESK_MODEL"`
	LogLevel        string `envconfig:"LOG_LEVEL"`
	AppEnv          string `envconfig:"APP_ENV"`
	SlackToken      string `envconfig:"SLACK_BOT_TOKEN"`
	TelegramToken   string `envconfig:"TELEGRAM_BOT_TOKEN"`
}

// Load reads config from path (or ConfigPath() if empty), then applies
// .env and environment overrides. A missing file yields defaults; a file
// that fails to parse is reported and also yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		parsed := DefaultConfig()
		if err := yaml.Unmarshal(data, parsed); err != nil {
			logger.Get().Warnw("Failed to parse config, using defaults", "path", path, "err", err)
		} else {
			cfg = parsed
		}
	}

	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return fmt.Errorf("process env config: %w", err)
	}

	if e.AzureEndpoint != "" {
		cfg.Provider.Name = "azure"
		cfg.Provider.AzureEndpoint = e.AzureEndpoint
		if e.AzureKey != "" {
			cfg.Provider.APIKey = e.AzureKey
		}
	} else {
		setIf(&cfg.Provider.APIKey, e.OpenAIKey)
	}
	setIf(&cfg.Provider.Deployment, e.AzureDeployment)
	setIf(&cfg.Agent.Model, e.Model)
	setIf(&cfg.Log.Level, e.LogLevel)
	setIf(&cfg.Log.Env, e.AppEnv)
	setIf(&cfg.Notifications.Slack.Token, e.SlackToken)
	setIf(&cfg.Notifications.Telegram.Token, e.TelegramToken)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Save writes cfg to path as YAML with 0600 permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
