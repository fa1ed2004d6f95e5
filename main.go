package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/callgraph"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/config"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/ir"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/output"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/version"
)

// options mirrors the command-line flags. Flags that were not set leave the
// configuration file values alone.
type options struct {
	packages          []string
	dir               string
	irFile            string
	configFile        string
	entryPoints       []string
	noDedup           bool
	withoutArgs       bool
	expandStdlib      bool
	tests             bool
	findCallers       []string
	findCallersByHash []string
	format            string
	outputDir         string
	timerOutput       string
	timerFormat       string
	workers           int
	verbose           bool
	quiet             bool
	showVersion       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "golang-callgraph-generator",
		Short: "Build weighted call graphs of Go programs and find transitive callers",
		Long: `Builds the call graph of a Go program with generics instantiated and every
edge weighted by the number of branch decisions guarding it. With
--find-callers it reports every function that can reach the named targets.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.showVersion {
				if opts.verbose {
					fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersionString())
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionWithCommit())
				}
				return nil
			}
			return run(cmd.Context(), cmd.Flags(), opts, cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.packages, "package", "p", nil, "Go package patterns to analyze (default from config, usually ./...)")
	f.StringVar(&opts.dir, "dir", "", "Directory to load packages from")
	f.StringVar(&opts.irFile, "ir", "", "Read the program from a JSON IR document instead of loading Go packages")
	f.StringVar(&opts.configFile, "config", "", "Configuration file (TOML, or YAML with a .yaml/.yml extension)")
	f.StringSliceVar(&opts.entryPoints, "entry-point", nil, "Entry point patterns (default: main/init of main packages, else the exported API)")
	f.BoolVar(&opts.noDedup, "no-dedup", false, "Keep one edge per call site instead of collapsing parallel call sites")
	f.BoolVar(&opts.withoutArgs, "without-args", false, "Omit type arguments from function names in reports")
	f.BoolVar(&opts.expandStdlib, "expand-stdlib", false, "Follow calls into standard library function bodies")
	f.BoolVar(&opts.tests, "tests", false, "Include test packages")
	f.StringArrayVar(&opts.findCallers, "find-callers", nil, "Report transitive callers of functions matching this path (repeatable)")
	f.StringArrayVar(&opts.findCallersByHash, "find-callers-by-hash", nil, "Report transitive callers of the function with this identity hash (repeatable)")
	f.StringVar(&opts.format, "format", "", "Report format: text, json or dot")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for report files")
	f.StringVar(&opts.timerOutput, "timer-output", "", "Write the phase timing report to this file")
	f.StringVar(&opts.timerFormat, "timer-format", "", "Timing report format: table or prometheus")
	f.IntVar(&opts.workers, "workers", 0, "Parallel workers for extraction and queries (0 uses GOMAXPROCS)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Only log errors")
	f.BoolVar(&opts.showVersion, "version", false, "Show version information and exit")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.DefaultConfig()
}

// applyFlags copies every explicitly set flag over the configuration
func applyFlags(flags *pflag.FlagSet, cfg *config.Config, opts *options) {
	if flags.Changed("package") {
		cfg.Analysis.Packages = opts.packages
	}
	if flags.Changed("entry-point") {
		cfg.Analysis.EntryPoints = opts.entryPoints
	}
	if flags.Changed("no-dedup") {
		cfg.Analysis.Deduplicate = !opts.noDedup
	}
	if flags.Changed("without-args") {
		cfg.Analysis.WithoutArgs = opts.withoutArgs
	}
	if flags.Changed("expand-stdlib") {
		cfg.Analysis.ExpandStdlib = opts.expandStdlib
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = opts.workers
	}
	if flags.Changed("find-callers") {
		cfg.Query.FindCallers = opts.findCallers
	}
	if flags.Changed("find-callers-by-hash") {
		cfg.Query.FindCallersByHash = opts.findCallersByHash
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if flags.Changed("timer-output") {
		cfg.Output.TimerOutput = opts.timerOutput
	}
	if flags.Changed("timer-format") {
		cfg.Output.TimerFormat = opts.timerFormat
	}
}

func run(ctx context.Context, flags *pflag.FlagSet, opts *options, stderr io.Writer) error {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}
	applyFlags(flags, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, runID := utils.WithRunID(utils.NewLogger(stderr, opts.verbose, opts.quiet))
	logger.Debug("Starting run", "version", version.GetVersionWithCommit())
	timer := utils.NewTimer(logger)

	provider, classifier, err := acquire(ctx, cfg, opts, logger, timer)
	if err != nil {
		return err
	}

	analysis := callgraph.NewAnalysis(cfg.ToAnalysisConfig(opts.verbose), logger,
		callgraph.WithTimer(timer), callgraph.WithClassifier(classifier))
	graph, err := analysis.Run(provider)
	if err != nil {
		return fmt.Errorf("failed to build call graph: %w", err)
	}

	var results []*callgraph.Result
	if cfg.HasQueries() {
		queries := callgraph.QueriesFrom(cfg.Query.FindCallers, cfg.Query.FindCallersByHash)
		_ = timer.Measure("find_callers", func() error {
			results = graph.FindCallersAll(queries, cfg.Analysis.Workers)
			return nil
		})
	}

	writer := output.NewWriter(cfg.Output.Dir, cfg.Output.Format, cfg.Analysis.WithoutArgs, logger)
	var written []string
	writeErr := timer.Measure("serialize", func() error {
		var err error
		written, err = writer.WriteAll(graph, results)
		return err
	})

	if err := writeTimerReport(cfg, timer); err != nil {
		logger.Error("Timer report failed", "error", err)
	}

	if v := utils.NewVerboseLogger(opts.verbose); v.IsVerbose() {
		v.Logf("Run: %s\n", runID)
		for _, path := range written {
			v.Logf("Report: %s\n", path)
		}
		v.Logf("Memory: %s\n", utils.GetMemoryUsage())
	}
	return writeErr
}

// acquire returns the IR provider for the run together with the classifier
// used for the package summary.
func acquire(ctx context.Context, cfg *config.Config, opts *options, logger *slog.Logger, timer *utils.Timer) (ir.Provider, *config.ContextAwareConfig, error) {
	if opts.irFile != "" {
		var p *ir.MemoryProvider
		err := timer.Measure("load", func() error {
			doc, err := ir.LoadDocument(opts.irFile)
			if err != nil {
				return err
			}
			p, err = ir.NewMemoryProvider(doc)
			return err
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read IR document: %w", err)
		}
		return p, config.NewContextAwareConfig(cfg, ""), nil
	}

	dir := opts.dir
	if dir == "" {
		dir = "."
	} else if !utils.DirectoryExists(dir) {
		return nil, nil, fmt.Errorf("directory %s does not exist", dir)
	}
	root := ""
	if mod, err := ir.FindMainModule(dir); err == nil {
		root = mod.Name
	}
	classifier := config.NewContextAwareConfig(cfg, root)

	var p *ir.SSAProvider
	err := timer.Measure("load", func() error {
		var err error
		p, err = ir.Load(ctx, cfg.Analysis.Packages, ir.LoadOptions{
			Dir:          opts.dir,
			Tests:        opts.tests,
			ExpandStdlib: cfg.Analysis.ExpandStdlib,
			EntryPoints:  cfg.Analysis.EntryPoints,
			Classifier:   classifier,
			Logger:       logger,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return p, classifier, nil
}

func writeTimerReport(cfg *config.Config, timer *utils.Timer) (err error) {
	if cfg.Output.TimerOutput == "" {
		return nil
	}
	file, err := utils.SafeCreateFile(cfg.Output.TimerOutput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if cfg.Output.TimerFormat == config.TimerPrometheus {
		return timer.WritePrometheus(file)
	}
	return timer.WriteTable(file)
}
