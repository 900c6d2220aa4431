package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookbuddy-app/bookbuddy/internal/images"
	"github.com/bookbuddy-app/bookbuddy/internal/session"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var simplify bool

	cmd := &cobra.Command{
		Use:   "extract IMAGE|URL",
		Short: "Read the text in a photo of a page",
		Long: `Uploads an image to the backend and prints the text found in it. The image
can be a local file or an http(s) URL.

With --simplify the extracted text is also simplified into a new book.`,
		Example: `  bookbuddy extract page.jpg
  bookbuddy extract --simplify page.jpg
  bookbuddy extract https://example.com/scans/page-12.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := images.NewFetcher().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			orch, _, err := opts.session()
			if err != nil {
				return err
			}
			defer orch.Close()
			ctx := cmd.Context()

			if err := orch.ExtractImage(ctx, data, name); err != nil {
				return sessionError(orch, err)
			}
			if !simplify {
				fmt.Fprintln(cmd.OutOrStdout(), orch.Snapshot().Draft)
				return nil
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

	cmd.Flags().BoolVar(&simplify, "simplify", false, "Simplify the extracted text into a new book")

	return cmd
}
