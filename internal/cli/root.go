package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcc/pkg/config"
	"github.com/matzehuels/pcc/pkg/deps/resolve"
	"github.com/matzehuels/pcc/pkg/errors"
	"github.com/matzehuels/pcc/pkg/pipeline"
	"github.com/matzehuels/pcc/pkg/sink"
)

// defaultWorkers is used when neither --workers nor resolve.workers is set.
const defaultWorkers = 8

// projectOpts holds the flags shared by commands that build an import graph.
type projectOpts struct {
	targets      []string      // files to be modified (entry points)
	references   []string      // context-only files
	ignore       []string      // extra ignore patterns
	ignoreFile   string        // gitignore-format file with more patterns
	noGitignore  bool          // do not read .gitignore files
	aliases      []string      // PATTERN=TARGET alias overrides
	external     []string      // specifier roots never resolved locally
	tsconfig     string        // tsconfig.json to read paths from
	workers      int           // concurrent file loads
	reportMisses bool          // report relative imports that name no file
	noCache      bool          // disable the specifier cache
	timeout      time.Duration // abort the run after this long
}

func (o *projectOpts) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&o.targets, "target", nil, "file to be modified; listed under <targets> (repeatable)")
	f.StringArrayVar(&o.references, "reference", nil, "context-only file; listed under <references> (repeatable)")
	f.StringArrayVar(&o.ignore, "ignore", nil, "ignore pattern in .gitignore syntax (repeatable)")
	f.StringVar(&o.ignoreFile, "ignore-file-path", "", "file with ignore patterns in .gitignore format")
	f.BoolVar(&o.noGitignore, "no-gitignore", false, "do not read .gitignore files")
	f.StringArrayVar(&o.aliases, "alias", nil, "import alias PATTERN=TARGET, e.g. '@app/*=src/*' (repeatable)")
	f.StringArrayVar(&o.external, "external", nil, "specifier root that is never resolved locally (repeatable)")
	f.StringVar(&o.tsconfig, "tsconfig", "", "tsconfig.json to read compilerOptions.paths from")
	f.IntVar(&o.workers, "workers", 0, "files loaded concurrently while building the graph (default 8)")
	f.BoolVar(&o.reportMisses, "report-misses", false, "warn about relative imports that name no file")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the specifier cache")
	f.DurationVar(&o.timeout, "timeout", 0, "abort after this duration (e.g. 30s)")
}

// apply merges the flags into cfg. Flags win over the config file.
func (o *projectOpts) apply(cfg *config.Config) error {
	cfg.Default.IgnorePatterns = append(cfg.Default.IgnorePatterns, o.ignore...)
	cfg.Resolve.External = append(cfg.Resolve.External, o.external...)
	if o.tsconfig != "" {
		cfg.Resolve.TSConfig = o.tsconfig
	}
	if o.workers > 0 {
		cfg.Resolve.Workers = o.workers
	}
	if o.reportMisses {
		cfg.Resolve.ReportMisses = true
	}
	for _, spec := range o.aliases {
		a, err := resolve.ParseAlias(spec)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "--alias %s", spec)
		}
		if cfg.Resolve.Aliases == nil {
			cfg.Resolve.Aliases = make(map[string]string)
		}
		cfg.Resolve.Aliases[a.Pattern] = a.Targets[0]
	}
	return nil
}

// pipelineOptions builds runner options for paths under cwd.
func (o *projectOpts) pipelineOptions(cfg *config.Config, cwd string, paths []string) (pipeline.Options, error) {
	rc, err := cfg.ResolutionContext(cwd)
	if err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeConfig, err, "resolver configuration")
	}
	workers := cfg.Resolve.Workers
	if workers == 0 {
		workers = defaultWorkers
	}
	return pipeline.Options{
		Root:           cwd,
		Paths:          paths,
		Targets:        o.targets,
		References:     o.references,
		IgnorePatterns: cfg.Default.IgnorePatterns,
		IgnoreFile:     o.ignoreFile,
		NoGitignore:    o.noGitignore,
		Resolve:        rc,
		Workers:        workers,
		ReportMisses:   cfg.Resolve.ReportMisses,
		CacheTTL:       cfg.Cache.TTL.Duration,
	}, nil
}

// withTimeout applies --timeout to ctx.
func (o *projectOpts) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// combineOpts holds the flags of the root command.
type combineOpts struct {
	projectOpts
	deps       bool   // follow imports
	copy       bool   // copy to clipboard
	save       bool   // save to a file
	print      bool   // print to stdout
	outputPath string // file to save to
	format     string // document format
	relative   bool   // list files relative to the working directory
}

// action returns the action chosen by flags, or "" when none was given.
func (o *combineOpts) action() (string, error) {
	var chosen []string
	if o.copy {
		chosen = append(chosen, config.ActionCopy)
	}
	if o.save {
		chosen = append(chosen, config.ActionSave)
	}
	if o.print {
		chosen = append(chosen, config.ActionPrint)
	}
	if len(chosen) > 1 {
		return "", errors.New(errors.ErrCodeInvalidInput, "--copy, --save and --print are mutually exclusive")
	}
	if len(chosen) == 1 {
		return chosen[0], nil
	}
	return "", nil
}

// combineCommand creates the command that combines project files.
func (c *CLI) combineCommand() *cobra.Command {
	opts := combineOpts{relative: true}

	cmd := &cobra.Command{
		Use:   "pcc [paths...]",
		Short: "pcc combines project source files into one document",
		Long: `pcc combines project source files into a single XML, JSON or YAML document,
ready to paste into a language model.

Paths may be files or directories. With --deps, the relative and aliased
imports of TypeScript and JavaScript files are followed and every reachable
file is added under <dependencies>, annotated with the files that import it.

Settings are read from ~/.pcc_config.toml (or $PCC_CONFIG) and PCC_*
environment variables; flags take precedence.`,
		Example: `  pcc src/ --deps --copy
  pcc --target src/app.ts --reference README.md --deps
  pcc src/index.ts --deps --format json --save -o context.json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(opts.targets) == 0 && len(opts.references) == 0 {
				return errors.New(errors.ErrCodeNoEntryPoints, "either <paths> or --target/--reference must be specified")
			}
			return c.runCombine(cmd, args, &opts)
		},
	}

	opts.register(cmd)
	f := cmd.Flags()
	f.BoolVar(&opts.deps, "deps", false, "resolve dependencies of entry points")
	f.BoolVar(&opts.copy, "copy", false, "copy the result to the clipboard")
	f.BoolVar(&opts.save, "save", false, "save the result to a file")
	f.BoolVar(&opts.print, "print", false, "print the result to stdout")
	f.StringVarP(&opts.outputPath, "output-path", "o", "", "file to save to (implies --save)")
	f.StringVarP(&opts.format, "format", "f", "", "output format: xml (default), json, yaml")
	f.BoolVar(&opts.relative, "relative", opts.relative, "list files relative to the working directory")

	return cmd
}

func (c *CLI) runCombine(cmd *cobra.Command, paths []string, opts *combineOpts) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}
	if opts.format != "" {
		cfg.Default.Format = opts.format
	}
	if err := pipeline.ValidateFormat(cfg.Default.Format); err != nil {
		return err
	}
	if cmd.Flags().Changed("relative") {
		cfg.Default.UseRelativePaths = &opts.relative
	}
	if opts.outputPath != "" {
		opts.save = true
	}
	action, err := opts.action()
	if err != nil {
		return err
	}
	if action == "" {
		action = cfg.Default.Action
	}

	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "working directory")
	}
	popts, err := opts.pipelineOptions(cfg, cwd, paths)
	if err != nil {
		return err
	}
	popts.Deps = opts.deps || cfg.Default.Deps
	popts.Format = cfg.Default.Format
	popts.Relative = cfg.Default.RelativePaths()
	popts.OnDiagnostic = c.logDiagnostic

	ctx, cancel := opts.withTimeout(cmd.Context())
	defer cancel()

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	var spinner *Spinner
	if popts.Deps && isatty.IsTerminal(os.Stderr.Fd()) {
		spinner = newSpinnerWithContext(ctx, "Resolving imports...")
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return timeoutError(err, opts.timeout)
	}

	var dest string
	if action == config.ActionSave {
		if dest, err = cfg.OutputPath(opts.outputPath, cwd); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "output path")
		}
	}
	out, err := sink.New(action, dest, c.Stdout)
	if err != nil {
		return err
	}
	if err := out.Write(ctx, res.Output); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Combined %d files and %d dependencies", res.Stats.Files, res.Stats.Dependencies))
	if action == config.ActionCopy || action == config.ActionSave {
		printSuccess("Project code combined successfully")
		printFile(out.String())
	}
	if res.Stats.Cycles > 0 {
		printWarning("%d circular import(s) found; see <cycles>", res.Stats.Cycles)
	}
	return nil
}

// loadConfig loads the user configuration and reports unknown keys.
func loadConfig(c *CLI) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "load config")
	}
	if cfg.Source != "" {
		c.Logger.Debug("loaded config", "path", cfg.Source)
	}
	for _, k := range cfg.Unknown {
		c.Logger.Warn("unknown config key", "key", k, "file", cfg.Source)
	}
	return cfg, nil
}

// timeoutError tags deadline errors caused by --timeout.
func timeoutError(err error, timeout time.Duration) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "timed out after %s", timeout)
	}
	return err
}
