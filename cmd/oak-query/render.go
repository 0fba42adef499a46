package main

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/OAK-Technology/oak-query/internal/cli"
	"github.com/OAK-Technology/oak-query/internal/stmtfile"
)

var (
	renderFormat      string
	renderInterpolate bool
	renderStrict      bool
	renderParallelism int
)

var renderCmd = &cobra.Command{
	Use:   "render <file>...",
	Short: "Render statement files",
	Long: `Assemble statement files and print the SQL text and its arguments.

Files are rendered concurrently and printed in argument order. Conditions and
rows the assembler leaves out are reported as warnings, or as errors with
--strict.`,
	Example: `  # Print SQL and arguments
  oak-query render statements/active_users.yaml

  # Inline the arguments as SQL literals (for reading, not for running)
  oak-query render --interpolate statements/*.yaml

  # Machine-readable output
  oak-query render --format yaml statements/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := renderOptions{
			format:      resolveString(renderFormat, cfg.Render.Format),
			interpolate: resolveBool(renderInterpolate, cfg.Render.Interpolate),
			strict:      resolveBool(renderStrict, cfg.Render.Strict),
			parallelism: renderParallelism,
		}
		if opts.parallelism == 0 {
			opts.parallelism = cfg.Render.Parallelism
		}

		results, err := renderFiles(cmd.Context(), args, opts)
		if err != nil {
			return err
		}
		return writeRendered(cmd.OutOrStdout(), results, opts.format)
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFormat, "format", "", "output format: text or yaml")
	f.BoolVar(&renderInterpolate, "interpolate", false, "inline arguments as SQL literals")
	f.BoolVar(&renderStrict, "strict", false, "fail when a condition or row would be left out")
	f.IntVar(&renderParallelism, "parallelism", 0, "files rendered concurrently (default: one per CPU)")
}

type renderOptions struct {
	format      string
	interpolate bool
	strict      bool
	parallelism int
}

// rendered is the outcome for one statement file.
type rendered struct {
	Path   string   `json:"path"`
	Kind   string   `json:"kind"`
	SQL    string   `json:"sql"`
	Args   []any    `json:"args,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// renderFiles assembles every file concurrently. The first failure cancels
// the remaining work.
func renderFiles(ctx context.Context, paths []string, opts renderOptions) ([]rendered, error) {
	limit := opts.parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]rendered, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := renderFile(path, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderFile(path string, opts renderOptions) (rendered, error) {
	f, err := stmtfile.Load(path)
	if err != nil {
		return rendered{}, cli.StatementFileError("loading "+path, err)
	}
	a, err := f.Assembler()
	if err != nil {
		return rendered{}, cli.StatementFileError(path, err)
	}

	stmt := a.Build()
	if opts.strict {
		if stmt, err = a.BuildStrict(); err != nil {
			return rendered{}, cli.StatementFileError(path, err)
		}
	}

	r := rendered{Path: path, Kind: f.Kind, SQL: stmt.SQL()}
	for _, is := range a.Issues() {
		logger.Warn("statement element left out", "file", path, "issue", is.Error())
		r.Issues = append(r.Issues, is.Error())
	}

	if opts.interpolate {
		if r.SQL, err = stmt.Interpolate(); err != nil {
			return rendered{}, cli.StatementFileError(path, err)
		}
		return r, nil
	}
	for _, arg := range stmt.Args() {
		r.Args = append(r.Args, displayArg(arg))
	}
	return r, nil
}

// displayArg resolves driver.Valuer arguments (arrays, dates, JSON objects)
// to the value the driver would send.
func displayArg(arg any) any {
	v, ok := arg.(driver.Valuer)
	if !ok {
		return arg
	}
	dv, err := v.Value()
	if err != nil {
		return arg
	}
	return dv
}

func writeRendered(w io.Writer, results []rendered, format string) error {
	if format == "yaml" {
		out, err := yaml.Marshal(results)
		if err != nil {
			return cli.GeneralError("encoding output", err)
		}
		_, err = w.Write(out)
		return err
	}

	for i, r := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "-- %s (%s)\n", r.Path, r.Kind)
		if r.SQL == "" {
			_, _ = fmt.Fprintln(w, "-- (empty statement)")
		} else {
			_, _ = fmt.Fprintln(w, strings.TrimRight(r.SQL, "\n"))
		}
		for n, arg := range r.Args {
			_, _ = fmt.Fprintf(w, "-- $%d = %v\n", n+1, arg)
		}
	}
	return nil
}
