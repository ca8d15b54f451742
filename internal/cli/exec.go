package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlexpr/internal/adapters/database"
	"github.com/satishbabariya/sqlexpr/internal/ui"
	"github.com/satishbabariya/sqlexpr/query/executor"
	"github.com/satishbabariya/sqlexpr/query/statement"
)

// ErrNoDatabase is returned by exec when no database URL is configured.
var ErrNoDatabase = errors.New("no database url configured; set database_url, SQLEXPR_DATABASE_URL or DATABASE_URL")

// confirm is replaced in tests.
var confirm = ui.Confirm

func newExecCommand(opts *Options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "exec <query.yaml>",
		Short: "Run a query document against the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.DatabaseURL == "" {
				return ErrNoDatabase
			}
			docs, err := opts.buildDocuments(args)
			if err != nil {
				return err
			}
			stmt := docs[0].stmt
			p := &ui.Printer{W: cmd.OutOrStdout()}

			if mutates(stmt) && !yes {
				text, err := stmt.ToSQL()
				if err != nil {
					return err
				}
				if err := p.SQL(text); err != nil {
					return err
				}
				ok, err := confirm(fmt.Sprintf("Run this %s on %s?", stmt.Kind(), stmt.TableName()))
				if err != nil {
					return err
				}
				if !ok {
					p.Warning("aborted")
					return nil
				}
			}

			ctx := cmd.Context()
			a, err := database.Open(ctx, database.Config{Dialect: opts.cfg.Dialect, URL: opts.cfg.DatabaseURL})
			if err != nil {
				return err
			}
			defer a.Disconnect(ctx)
			ex := executor.New(a)

			switch s := stmt.(type) {
			case *statement.Count:
				n, err := ex.Count(ctx, s)
				if err != nil {
					return err
				}
				fmt.Fprintln(p.W, n)
			case *statement.Select:
				columns, rows, err := ex.Rows(ctx, s)
				if err != nil {
					return err
				}
				cells := make([][]string, len(rows))
				for i, row := range rows {
					cells[i] = make([]string, len(columns))
					for j, c := range columns {
						cells[i][j] = ui.Cell(row[c])
					}
				}
				if err := p.Table(columns, cells); err != nil {
					return err
				}
				p.Success("%d rows", len(rows))
			default:
				n, err := ex.Exec(ctx, s)
				if err != nil {
					return err
				}
				p.Success("%d rows affected", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation for insert, update and delete")
	return cmd
}

func mutates(s statement.Statement) bool {
	switch s.Kind() {
	case statement.KindInsert, statement.KindUpdate, statement.KindDelete:
		return true
	}
	return false
}
