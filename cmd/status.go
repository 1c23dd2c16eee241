package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/dependency"
	"github.com/contactdesk/contactdesk/internal/providers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show contactdesk status",
	RunE:  runStatus,
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func runStatus(_ *cobra.Command, _ []string) error {
	fmt.Printf("%s contactdesk Status\n\n", logo)

	_, statErr := os.Stat(configPath)
	fmt.Printf("Config:      %s %s\n", configPath, mark(statErr == nil))
	fmt.Printf("Model:       %s\n", cfg.AgentSettings().Model)

	label := cfg.ProviderLabel()
	if label == "" {
		label = "(unresolved)"
	}
	hasKey := cfg.Provider.APIKey != "" || providers.EnvAPIKey(cfg.ProviderParams()) != ""
	fmt.Printf("Provider:    %s (api key %s)\n", label, mark(hasKey))
	fmt.Printf("Persona:     %s\n", cfg.Agent.Persona)

	if cfg.Transcripts.Enabled {
		fmt.Printf("Transcripts: %s\n", cfg.Transcripts.Dir)
	} else {
		fmt.Println("Transcripts: disabled")
	}

	switch {
	case cfg.Notifications.Slack.Token != "":
		fmt.Printf("Notify:      Slack %s\n", cfg.Notifications.Slack.Channel)
	case cfg.Notifications.Telegram.Token != "":
		fmt.Printf("Notify:      Telegram chat %s\n", cfg.Notifications.Telegram.ChatID)
	default:
		fmt.Println("Notify:      log only")
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	cat, err := container.Catalog()
	if err != nil {
		fmt.Printf("Catalog:     ✗ %v\n", err)
		return nil
	}
	fmt.Printf("Catalog:     %d operations, %d providers\n", cat.Len(), len(cat.Providers()))
	return nil
}
