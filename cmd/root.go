// Package cmd implements the contactdesk CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/config"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

const version = "0.1.0"
const logo = "🤖"

var (
	configPath string
	cfg        *config.Config
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "contactdesk",
	Short: logo + " contactdesk: AI contact assistant for telecom customer care",
	Long: logo + ` contactdesk runs a conversational assistant that answers customers by
calling back-office capabilities (addresses, billing, CRM, orders, porting...)
chosen by a language model.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and exits on error.
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, exitMessage(err))
		os.Exit(1)
	}
}

// exitMessage singles out capability configuration errors: they are fixed
// in code, not by retrying or editing the config file.
func exitMessage(err error) string {
	if capability.IsConfigError(err) {
		return "capability registry is invalid, no session can start: " + err.Error()
	}
	return err.Error()
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.contactdesk/config.yaml)")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// loadConfig runs before every subcommand: it resolves the config file and
// initialises the global logger from it.
func loadConfig(_ *cobra.Command, _ []string) error {
	if configPath == "" {
		configPath = config.ConfigPath()
	}
	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(loaded.Log.Level, loaded.Log.Env); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg = loaded
	return nil
}
