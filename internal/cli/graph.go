package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pcc/pkg/errors"
	"github.com/matzehuels/pcc/pkg/pipeline"
	"github.com/matzehuels/pcc/pkg/render/nodelink"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	projectOpts
	format   string // dot, svg or json
	output   string // output file path (stdout if empty)
	detailed bool   // add importer counts to labels
	absolute bool   // label files with absolute paths
}

// graphCommand creates the command that renders the import graph.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: pipeline.GraphFormatSVG}

	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Render the import graph of a project",
		Long: `Render the import graph reachable from the given files.

Entry files are highlighted and the import that closes each cycle is drawn
dashed in red. The json format can be read back by other tools; it lists
every file with the files that reach it.`,
		Example: `  pcc graph src/index.ts -o deps.svg
  pcc graph src/ --format dot | dot -Tpng > deps.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(opts.targets) == 0 {
				return errors.New(errors.ErrCodeNoEntryPoints, "either <paths> or --target must be specified")
			}
			if err := pipeline.ValidateGraphFormat(opts.format); err != nil {
				return err
			}
			return c.runGraph(cmd, args, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show importer counts in labels")
	cmd.Flags().BoolVar(&opts.absolute, "absolute", false, "label files with absolute paths")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, paths []string, opts *graphOpts) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "working directory")
	}
	popts, err := opts.pipelineOptions(cfg, cwd, paths)
	if err != nil {
		return err
	}
	popts.OnDiagnostic = c.logDiagnostic

	ctx, cancel := opts.withTimeout(cmd.Context())
	defer cancel()

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, err := runner.Graph(ctx, popts)
	if err != nil {
		return timeoutError(err, opts.timeout)
	}
	prog.done(fmt.Sprintf("Built graph of %d files", g.NodeCount()))

	labels := nodelink.Options{Detailed: opts.detailed}
	if !opts.absolute {
		labels.Root = cwd
		if real, err := filepath.EvalSymlinks(cwd); err == nil {
			labels.Root = real
		}
	}
	data, err := runner.RenderGraph(ctx, g, opts.format, labels)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := c.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", opts.output)
	}
	printSuccess("Rendered import graph")
	printStats(g.NodeCount(), g.EdgeCount(), len(g.Cycles()))
	printFile(opts.output)
	return nil
}
