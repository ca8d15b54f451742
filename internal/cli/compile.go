package cli

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlexpr/internal/config"
	"github.com/satishbabariya/sqlexpr/internal/querydoc"
	"github.com/satishbabariya/sqlexpr/internal/ui"
	"github.com/satishbabariya/sqlexpr/internal/watch"
	"github.com/satishbabariya/sqlexpr/query/statement"
)

type compileOptions struct {
	pretty bool
	watch  bool
	bind   bool
}

func newCompileCommand(opts *Options) *cobra.Command {
	co := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>...",
		Short: "Print the SQL for query documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &ui.Printer{W: cmd.OutOrStdout(), Pretty: co.pretty}
			run := func() error {
				docs, err := opts.buildDocuments(args)
				if err != nil {
					return err
				}
				for _, d := range docs {
					if err := printStatement(p, d, co.bind); err != nil {
						return err
					}
				}
				return nil
			}
			if !co.watch {
				return run()
			}

			files := append([]string{opts.cfg.ModelsPath}, args...)
			w, err := watch.New(run, files...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			p.Success("watching %d files, press Ctrl+C to stop", len(files))
			return w.Run(ctx, func(err error) { p.Error("%v", err) })
		},
	}

	cmd.Flags().BoolVar(&co.pretty, "pretty", false, "render highlighted output")
	cmd.Flags().BoolVarP(&co.watch, "watch", "w", false, "recompile when the documents or models change")
	cmd.Flags().BoolVar(&co.bind, "bind", false, "print driver placeholders and ordered arguments")
	return cmd
}

// document is one built query document.
type document struct {
	path string
	stmt statement.Statement
}

func (o *Options) buildDocuments(paths []string) ([]document, error) {
	d, err := o.dialect()
	if err != nil {
		return nil, err
	}
	reg, err := o.registry()
	if err != nil {
		return nil, err
	}

	out := make([]document, 0, len(paths))
	for _, path := range paths {
		f, err := config.AppFs.Open(path)
		if err != nil {
			return nil, err
		}
		doc, err := querydoc.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		stmt, err := doc.Build(d, reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, document{path: path, stmt: stmt})
	}
	return out, nil
}

func printStatement(p *ui.Printer, d document, bind bool) error {
	if p.Pretty {
		p.Header(d.path, fmt.Sprintf("%s %s", d.stmt.Kind(), d.stmt.TableName()))
	} else {
		fmt.Fprintf(p.W, "-- %s\n", d.path)
	}

	if !bind {
		text, err := d.stmt.ToSQL()
		if err != nil {
			return err
		}
		if err := p.SQL(text); err != nil {
			return err
		}
		params := d.stmt.Parameters().All()
		names := make([]string, len(params))
		values := make([]any, len(params))
		for i, prm := range params {
			names[i], values[i] = prm.Name, prm.Value
		}
		p.Params(names, values)
		return nil
	}

	text, args, err := d.stmt.Bind()
	if err != nil {
		return err
	}
	if err := p.SQL(text); err != nil {
		return err
	}
	names := make([]string, len(args))
	values := make([]any, len(args))
	for i, a := range args {
		if named, ok := a.(sql.NamedArg); ok {
			names[i], values[i] = "@"+named.Name, named.Value
			continue
		}
		names[i], values[i] = strconv.Itoa(i+1), a
	}
	p.Params(names, values)
	return nil
}
