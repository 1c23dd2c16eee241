package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		if err := config.Save(cfg, configPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", configPath)
	} else {
		if err := config.Save(config.DefaultConfig(), configPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", configPath)
	}

	fmt.Printf("\n%s contactdesk is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your API key to %s (or set OPENAI_API_KEY / AZURE_OPENAI_*)\n", configPath)
	fmt.Println("  2. List tools: contactdesk tools")
	fmt.Println("  3. Chat:       contactdesk chat -m \"Is fiber available at 1030 Wien?\"")
	return nil
}
