package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlexpr/internal/config"
	"github.com/satishbabariya/sqlexpr/internal/ui"
)

func newInitCommand(opts *Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the current settings to a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".sqlexpr.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			exists, err := afero.Exists(config.AppFs, path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := config.Save(config.AppFs, path, opts.cfg); err != nil {
				return err
			}
			(&ui.Printer{W: cmd.OutOrStdout()}).Success("wrote %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
