package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlexpr/internal/ui"
	"github.com/satishbabariya/sqlexpr/internal/version"
)

func newVersionCommand() *cobra.Command {
	var full bool
	var latest string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), info.String())
			}
			if latest == "" {
				return nil
			}
			newer, err := version.Newer(info.Version, latest)
			if err != nil {
				return err
			}
			if newer {
				(&ui.Printer{W: cmd.OutOrStdout()}).Warning("version %s is available", latest)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "print build details")
	cmd.Flags().StringVar(&latest, "latest", "", "compare against a released version")
	return cmd
}
