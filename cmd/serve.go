package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookbuddy-app/bookbuddy/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an in-memory development backend",
		Long: `Starts a development backend on the specified port that implements the
BookBuddy HTTP API with in-memory storage.

Text is not really simplified: whitespace is normalized and the result is
stored as a page. Image extraction reports the decoded format and size.
Everything is lost when the server stops.`,
		Example: `  # Start server on default port 8000
  bookbuddy serve

  # Start server on custom port and point the client at it
  bookbuddy serve --port 3000
  bookbuddy --api-url http://localhost:3000/api books list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := handlers.New()

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("BookBuddy development backend available", "addr", addr, "url", "http://localhost"+addr+"/api")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
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

	cmd.Flags().StringVarP(&port, "port", "p", "8000", "Port to listen on")

	return cmd
}
