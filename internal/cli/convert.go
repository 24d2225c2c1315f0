package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	"github.com/matzehuels/circuitdag/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	format  string // source format; derived from the extension when empty
	share   bool   // attach source payloads instead of copying them
	recurse bool   // convert if_else bodies into graphs
	output  string // json or text
	out     string // output file (stdout if empty)
	name    string // override the program name
	refresh bool   // ignore cached exports
	stats   bool   // print a summary line
	cache   cacheFlags
}

func (o *convertOpts) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		Format:  o.format,
		Recurse: o.recurse,
		Output:  o.output,
		Name:    o.name,
		Refresh: o.refresh,
	}
	if o.share {
		opts.Ownership = "share"
	}
	return opts
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	opts := convertOpts{output: pipeline.OutputJSON}

	cmd := &cobra.Command{
		Use:   "convert <file|->",
		Short: "Build the dependency graph of a program",
		Long: `Build the dependency graph of a quantum program and export it.

The source format is derived from the file extension (.qasm, .toml, .json)
unless --format is given. Use "-" to read from stdin (OpenQASM by default).

Examples:
  circuitdag convert teleport.qasm                  # JSON graph to stdout
  circuitdag convert teleport.qasm --output text    # schedule, one op per line
  circuitdag convert program.toml --recurse -o g.json
  cat bell.qasm | circuitdag convert -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "source format: qasm, toml or json")
	cmd.Flags().BoolVar(&opts.share, "share", false, "share operation payloads with the source instead of copying")
	cmd.Flags().BoolVarP(&opts.recurse, "recurse", "r", false, "convert if_else bodies into nested graphs")
	cmd.Flags().StringVar(&opts.output, "output", opts.output, "export format: json or text")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "program name (defaults to the file name)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached exports")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print a graph summary to stderr")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, arg string, opts convertOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	popts := opts.pipelineOptions()
	popts.Logger = logger
	if arg == "-" {
		src, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), apperr.MaxSourceBytes+1))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		popts.Source = string(src)
		if popts.Name == "" {
			popts.Name = "stdin"
		}
	} else {
		popts.Path = arg
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	logger.Debug("run complete", "run", res.RunID, "source", res.SourceHash[:12])
	prog.done(fmt.Sprintf("Converted %s", res.Program))

	if opts.out == "" {
		if _, err := cmd.OutOrStdout().Write(res.Output); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(opts.out, res.Output, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
		printSuccess("Wrote %s graph", res.Program)
		printFile(opts.out)
	}
	if opts.stats {
		printStats(res.Stats, res.CacheHit)
	}
	return nil
}
