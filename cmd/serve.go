package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/coursemarketer/internal/handlers"
	"github.com/lehigh-university-libraries/coursemarketer/internal/storage"
	"github.com/lehigh-university-libraries/coursemarketer/internal/telemetry"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API",
		Long: `Starts the Coursemarketer HTTP API on the specified port.

Each browser workspace walks through course input, strategy selection and
content generation; workspaces expire after two hours without use.`,
		Example: `  # Start server on default port 8888
  coursemarketer serve

  # Start server on custom port
  coursemarketer serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			shutdownTracing, err := telemetry.Init(ctx, a.cfg.Tracing, cmd.Root().Version)
			if err != nil {
				slog.Warn("Tracing disabled", "err", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracing(flushCtx)
			}()

			gin.SetMode(gin.ReleaseMode)
			handler := handlers.New(storage.New(a.cfg.Server.WorkspaceTTL), a.keys, a.newMachine)
			router := handlers.NewRouter(handler, a.cfg.Server, a.cfg.Tracing.ServiceName)

			addr := ":" + a.cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Coursemarketer API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
