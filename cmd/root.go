package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bookbuddy-app/bookbuddy/internal/api"
	"github.com/bookbuddy-app/bookbuddy/internal/config"
	"github.com/bookbuddy-app/bookbuddy/internal/prefs"
	"github.com/bookbuddy-app/bookbuddy/internal/session"
)

// rootOptions carries global flags and the loaded configuration to subcommands.
type rootOptions struct {
	configPath string
	apiURL     string
	verbose    bool

	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bookbuddy",
		Short: "Turn hard text into easy-to-read books",
		Long: `BookBuddy simplifies text into short, easy-to-read pages and keeps them
as books in your library.

Text can be typed, piped in or read from a photo of a page. Books are
stored by the BookBuddy backend; this tool talks to it over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Backend base URL (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newSimplifyCmd(opts))
	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newBooksCmd(opts))
	cmd.AddCommand(newReadCmd(opts))
	cmd.AddCommand(newPrefsCmd(opts))
	cmd.AddCommand(newServeCmd())

	return cmd
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	o.cfg = cfg

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	slog.Debug("Configuration loaded", "api", cfg.API.BaseURL, "timeout", cfg.API.Timeout, "prefs", cfg.Prefs.Path)
	return nil
}

func (o *rootOptions) client() *api.Client {
	return api.NewClient(o.cfg.API.BaseURL, &http.Client{Timeout: o.cfg.API.Timeout})
}

func (o *rootOptions) prefs() (*prefs.Store, error) {
	store, err := prefs.Open(o.cfg.Prefs.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return store, nil
}

func (o *rootOptions) session() (*session.Orchestrator, *prefs.Store, error) {
	store, err := o.prefs()
	if err != nil {
		return nil, nil, err
	}
	return session.New(o.client(), store), store, nil
}

// sessionError prefers the message the session shows a reader over the
// underlying error.
func sessionError(orch *session.Orchestrator, err error) error {
	if msg := orch.Snapshot().Err; msg != "" {
		return errors.New(msg)
	}
	return err
}

func parseBookID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}
