package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookbuddy-app/bookbuddy/internal/images"
	"github.com/bookbuddy-app/bookbuddy/internal/tui"
)

func newReadCmd(opts *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "read [BOOK_ID]",
		Short: "Open the interactive reader",
		Long: `Opens a full screen reader with your library on the left and either a
draft editor or the current page on the right.

Keys:
  ctrl+s  simplify the draft         ←/→  turn page
  ctrl+o  read text from an image    a    add a page to the open book
  ctrl+n  start a new book           r    rename the open book
  tab     switch to the library      ctrl+b  hide or show the library
  ctrl+t  toggle dark mode           ctrl+c  quit`,
		Example: `  bookbuddy read
  bookbuddy read 3 --log-file /tmp/bookbuddy.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bookID int64
			if len(args) == 1 {
				id, err := parseBookID(args[0])
				if err != nil {
					return err
				}
				bookID = id
			}

			// the reader owns the terminal, so logs go to a file or nowhere
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.cfg.SlogLevel()})))

			orch, store, err := opts.session()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), orch, store, tui.Options{
				InitialBookID: bookID,
				ReadFile:      images.NewFetcher().ReadFile,
			})
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file while the reader runs")

	return cmd
}
