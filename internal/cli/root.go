// Package cli implements the sqlexpr command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlexpr/internal/config"
	"github.com/satishbabariya/sqlexpr/internal/debug"
	"github.com/satishbabariya/sqlexpr/query/sqlgen"
	"github.com/satishbabariya/sqlexpr/schema"
)

// Options holds global flags.
type Options struct {
	ConfigFile  string
	Dialect     string
	Models      string
	DatabaseURL string
	Debug       bool

	cfg *config.Config
}

// NewRootCommand creates the sqlexpr root command.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "sqlexpr",
		Short:         "Compile expression queries to SQL",
		Long:          "sqlexpr compiles YAML query documents with lambda filters into SQL for MySQL, PostgreSQL, SQLite and SQL Server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default .sqlexpr.yaml)")
	flags.StringVarP(&opts.Dialect, "dialect", "d", "", "SQL dialect (postgres|mysql|sqlite|sqlserver)")
	flags.StringVarP(&opts.Models, "models", "m", "", "model definitions file")
	flags.StringVar(&opts.DatabaseURL, "database-url", "", "database connection URL")
	flags.BoolVar(&opts.Debug, "debug", false, "log compiled clauses to stderr")

	cmd.AddCommand(newCompileCommand(opts))
	cmd.AddCommand(newExecCommand(opts))
	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// load resolves configuration, letting explicitly set flags win.
func (o *Options) load(cmd *cobra.Command) error {
	cfg, err := (&config.Loader{File: o.ConfigFile}).Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dialect") {
		cfg.Dialect = o.Dialect
	}
	if flags.Changed("models") {
		cfg.ModelsPath = o.Models
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = o.DatabaseURL
	}
	if flags.Changed("debug") {
		cfg.Debug = o.Debug
	}
	debug.InitWriter(cfg.Debug, cmd.ErrOrStderr())
	o.cfg = cfg
	return nil
}

func (o *Options) dialect() (sqlgen.Dialect, error) {
	return sqlgen.New(o.cfg.Dialect)
}

// registry loads the models file into a new registry.
func (o *Options) registry() (*schema.Registry, error) {
	reg := schema.NewRegistry(schema.Options{
		PluralizeTables: o.cfg.PluralizeTables,
		CacheSize:       o.cfg.CacheSize,
	})
	f, err := config.AppFs.Open(o.cfg.ModelsPath)
	if err != nil {
		return nil, fmt.Errorf("open models: %w", err)
	}
	defer f.Close()
	if _, err := reg.LoadYAML(f); err != nil {
		return nil, fmt.Errorf("%s: %w", o.cfg.ModelsPath, err)
	}
	return reg, nil
}
