// Package cli serve command.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hausakte/hausakte/internal/server"
)

// newServeCmd creates the 'serve' command.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP-Server für das Web-Frontend starten",
		Long: `Startet den HTTP-Server mit der Listing-API (/api/listing),
Healthcheck (/healthz) und Prometheus-Metriken (/metrics).

Die Listenadresse kommt aus der Konfiguration (metrics_addr) und kann
mit --addr überschrieben werden.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.MetricsAddr = addr
			}

			e, err := newEngine(cfg)
			if err != nil {
				return err
			}

			srv := server.New(cfg.MetricsAddr, e.controller, e.metrics)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-GetContext().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("Server konnte nicht sauber beendet werden: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listenadresse, z.B. :9184")
	return cmd
}
