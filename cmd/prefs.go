package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPrefsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change local preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the preferences file and its values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.prefs()
			if err != nil {
				return err
			}
			p := store.Snapshot()
			userID := p.UserID
			if userID == "" {
				userID = "(assigned on first use)"
			}
			theme := "light"
			if p.DarkMode {
				theme = "dark"
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File:    %s\n", store.Path())
			fmt.Fprintf(w, "User ID: %s\n", userID)
			fmt.Fprintf(w, "Theme:   %s\n", theme)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "theme dark|light",
		Short:     "Set the reader's color theme",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.prefs()
			if err != nil {
				return err
			}
			if err := store.SetDarkMode(args[0] == "dark"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", args[0])
			return nil
		},
	})

	return cmd
}
