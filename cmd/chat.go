package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/agent"
	"github.com/contactdesk/contactdesk/internal/channels"
	"github.com/contactdesk/contactdesk/internal/dependency"
)

var (
	chatMessage string
	chatPersona string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant on the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().StringVar(&chatPersona, "persona", "", "System prompt persona: contact or guided")
}

func runChat(_ *cobra.Command, _ []string) error {
	if chatPersona != "" {
		cfg.Agent.Persona = chatPersona
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	orch, err := container.Orchestrator()
	if err != nil {
		return err
	}

	// The first signal cancels the session; the console observes it while
	// waiting for input and between completion rounds.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var transport agent.Transport
	if chatMessage != "" {
		transport = channels.NewQuietConsole(strings.NewReader(chatMessage+"\n"), os.Stdout)
	} else {
		transport = channels.NewConsole(os.Stdin, os.Stdout)
	}

	summary, err := orch.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("session %s failed: %w", summary.SessionID, err)
	}
	return nil
}
