package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookbuddy-app/bookbuddy/internal/export"
	"github.com/bookbuddy-app/bookbuddy/internal/library"
	"github.com/bookbuddy-app/bookbuddy/internal/models"
)

func newBooksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List, show, rename and export books in your library",
	}

	cmd.AddCommand(newBooksListCmd(opts))
	cmd.AddCommand(newBooksShowCmd(opts))
	cmd.AddCommand(newBooksRenameCmd(opts))
	cmd.AddCommand(newBooksExportCmd(opts))

	return cmd
}

func newBooksListCmd(opts *rootOptions) *cobra.Command {
	var find string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, most recently edited first",
		Example: `  bookbuddy books list
  bookbuddy books list --find "water cycle"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.prefs()
			if err != nil {
				return err
			}
			userID, err := store.UserID()
			if err != nil {
				return err
			}

			lib := library.New(opts.client())
			if err := lib.Refresh(cmd.Context(), userID); err != nil {
				return fmt.Errorf("failed to load library: %w", err)
			}

			books := lib.Books()
			if find != "" {
				books = lib.Find(find)
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	cmd.Flags().StringVar(&find, "find", "", "Only show books whose title is close to this")

	return cmd
}

func newBooksShowCmd(opts *rootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "show BOOK_ID",
		Short: "Print the pages of a book",
		Example: `  bookbuddy books show 3
  bookbuddy books show 3 --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			store, err := opts.prefs()
			if err != nil {
				return err
			}
			userID, err := store.UserID()
			if err != nil {
				return err
			}

			book, err := opts.client().FetchBook(cmd.Context(), bookID, userID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Book %d: %s (%d pages)\n", book.ID, book.DisplayTitle(), len(book.Pages))
			for _, p := range book.Pages {
				if page != 0 && p.PageNumber != page {
					continue
				}
				fmt.Fprintf(w, "\n--- Page %d ---\n%s\n", p.PageNumber, p.Content)
			}
			if page != 0 && (page < 1 || page > len(book.Pages)) {
				return fmt.Errorf("book %d has no page %d", book.ID, page)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "Only print this page (1-based)")

	return cmd
}

func newBooksRenameCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rename BOOK_ID TITLE",
		Short:   "Set a book's title",
		Example: `  bookbuddy books rename 3 "The Water Cycle"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")

			orch, _, err := opts.session()
			if err != nil {
				return err
			}
			defer orch.Close()

			if err := orch.Rename(cmd.Context(), bookID, title); err != nil {
				return sessionError(orch, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d renamed to %q\n", bookID, strings.TrimSpace(title))
			return nil
		},
	}

	return cmd
}

func newBooksExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every book with all its pages",
		Long: `Writes the whole library to YAML (one document) or Parquet (one row per page).

Output goes to standard output unless --output is given. Parquet output
requires --output.`,
		Example: `  bookbuddy books export > library.yaml
  bookbuddy books export --format parquet --output library.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == export.FormatParquet && output == "" {
				return fmt.Errorf("--output is required for parquet export")
			}

			store, err := opts.prefs()
			if err != nil {
				return err
			}
			userID, err := store.UserID()
			if err != nil {
				return err
			}

			client := opts.client()
			summaries, err := client.FetchLibrary(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load library: %w", err)
			}

			books := make([]models.Book, 0, len(summaries))
			for _, s := range summaries {
				if s.PageCount() == 0 {
					continue
				}
				book, err := client.FetchBook(cmd.Context(), s.ID, userID)
				if err != nil {
					return fmt.Errorf("failed to load book %d: %w", s.ID, err)
				}
				books = append(books, *book)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}

			if err := export.Write(w, f, userID, books, time.Now()); err != nil {
				return err
			}
			if output != "" {
				slog.Info("Library exported", "books", len(books), "format", f, "path", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or parquet")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of standard output")

	return cmd
}

func printBooks(w io.Writer, books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	fmt.Fprintf(w, "%-6s %-40s %5s  %s\n", "ID", "TITLE", "PAGES", "LAST EDITED")
	for _, b := range books {
		edited := ""
		if t := b.LastActivity(); !t.IsZero() {
			edited = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-6s %-40s %5d  %s\n", strconv.FormatInt(b.ID, 10), truncateTitle(b.DisplayTitle(), 40), b.PageCount(), edited)
	}
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
