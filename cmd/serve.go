package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contactdesk/contactdesk/internal/channels"
	"github.com/contactdesk/contactdesk/internal/dependency"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversations over WebSocket",
	Long: `Serve conversations over WebSocket at /ws. Every connection is an
independent session. Prometheus metrics and a health check are served on
the same address.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8088)")
}

func runServe(_ *cobra.Command, _ []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	orch, err := container.Orchestrator()
	if err != nil {
		return err
	}
	m, err := container.Metrics()
	if err != nil {
		return err
	}

	srv := channels.NewServer(orch,
		channels.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		channels.WithMetricsHandler(cfg.Server.MetricsPath, m.Handler()),
		channels.WithServerLogger(logger.Get()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s contactdesk serving %d tools on %s (ws: /ws)\n", logo, orch.Catalog().Len(), addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
