package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
	"github.com/bookbuddy-app/bookbuddy/internal/session"
)

func newSimplifyCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		bookID int64
	)

	cmd := &cobra.Command{
		Use:   "simplify [text|-]",
		Short: "Simplify text into a new book or a new page",
		Long: `Sends text to the backend for simplification and prints the resulting page.

Text is taken from the arguments, from --file, or from standard input when
no arguments are given or the only argument is "-". Text longer than 2000
characters is cut to the limit before sending.`,
		Example: `  # Start a new book
  bookbuddy simplify "Photosynthesis is the process by which plants..."

  # Add a page to book 3 from a file
  bookbuddy simplify --book 3 --file chapter.txt

  # Pipe text in
  pbpaste | bookbuddy simplify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			orch, _, err := opts.session()
			if err != nil {
				return err
			}
			defer orch.Close()
			ctx := cmd.Context()

			if bookID != 0 {
				if err := orch.SelectBook(ctx, bookID); err != nil {
					return sessionError(orch, err)
				}
				if err := orch.AddPage(); err != nil {
					return err
				}
				orch.DismissTitlePrompt()
			}

			truncated, err := orch.SetDraft(text)
			if err != nil {
				return err
			}
			if truncated {
				slog.Warn("Text cut to the length limit", "limit", models.MaxTextLength)
			}

			if err := orch.Submit(ctx); err != nil {
				return sessionError(orch, err)
			}

			reading, ok := orch.Snapshot().Mode.(session.Reading)
			if !ok {
				return fmt.Errorf("unexpected session state after submit")
			}
			printPage(cmd.OutOrStdout(), reading)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read text from a file")
	cmd.Flags().Int64VarP(&bookID, "book", "b", 0, "Append to this book instead of starting a new one")

	return cmd
}

func readInput(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	default:
		return strings.Join(args, " "), nil
	}
}

func printPage(w io.Writer, r session.Reading) {
	page := r.Page()
	fmt.Fprintf(w, "Book %d: %s\n", r.BookID, r.DisplayTitle())
	fmt.Fprintf(w, "Page %d of %d\n\n", page.PageNumber, len(r.Pages))
	fmt.Fprintln(w, page.Content)
}
