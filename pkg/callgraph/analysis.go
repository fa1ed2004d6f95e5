// Package callgraph builds a weighted call graph from an ir.Provider and
// answers find-callers queries over it.
package callgraph

import (
	"log/slog"
	"runtime"
	"sort"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/index"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/ir"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

// PackageClassifier labels a package path as stdlib, dependency or user code
type PackageClassifier interface {
	Classify(packagePath string) string
}

// Stats counts what happened during one run. Every skipped symbol is counted
// here so that reduced output can be traced back to its cause.
type Stats struct {
	EntryPoints      int
	Instances        int
	Generic          int
	Expanded         int
	Abstract         int
	External         int
	Unresolved       int
	Malformed        int
	UnreachableCalls int
	CallSites        int
	Edges            int
}

// Analysis owns the state of one run: the instance index, the visited set
// and the call-site sequence. Runs never share state.
type Analysis struct {
	cfg        models.AnalysisConfig
	logger     *slog.Logger
	timer      *utils.Timer
	classifier PackageClassifier

	index      *index.Index
	visited    map[models.ID]bool
	unresolved map[models.ID]bool
	seq        int
	stats      Stats
}

// Option customizes an Analysis
type Option func(*Analysis)

// WithTimer records phase durations in timer
func WithTimer(timer *utils.Timer) Option {
	return func(a *Analysis) { a.timer = timer }
}

// WithClassifier enables the per-class instance summary
func WithClassifier(c PackageClassifier) Option {
	return func(a *Analysis) { a.classifier = c }
}

// NewAnalysis creates the context for one run
func NewAnalysis(cfg models.AnalysisConfig, logger *slog.Logger, opts ...Option) *Analysis {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analysis{
		cfg:        cfg,
		logger:     logger,
		index:      index.New(),
		visited:    make(map[models.ID]bool),
		unresolved: make(map[models.ID]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Index returns the instance index filled during collection
func (a *Analysis) Index() *index.Index {
	return a.index
}

// Stats returns the counters of the run so far
func (a *Analysis) Stats() Stats {
	return a.stats
}

func (a *Analysis) workers() int {
	if a.cfg.Workers > 0 {
		return a.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Run collects every instance reachable from the provider's entry points
// and builds the call graph.
func (a *Analysis) Run(p ir.Provider) (*Graph, error) {
	var sites []models.CallSite
	err := a.timer.Measure("collect", func() error {
		var err error
		sites, err = a.Collect(p)
		return err
	})
	if err != nil {
		return nil, err
	}

	var g *Graph
	_ = a.timer.Measure("build_graph", func() error {
		g = Build(a.index, sites, a.cfg.Deduplicate, a.logger)
		return nil
	})
	a.stats.Edges = g.EdgeCount()
	g.stats = a.stats
	a.summarize()
	return g, nil
}

func (a *Analysis) summarize() {
	s := a.stats
	a.logger.Info("Call graph built",
		"entry_points", s.EntryPoints,
		"instances", s.Instances,
		"generic", s.Generic,
		"expanded", s.Expanded,
		"abstract", s.Abstract,
		"external", s.External,
		"call_sites", s.CallSites,
		"edges", s.Edges)
	if s.Unresolved > 0 || s.Malformed > 0 {
		a.logger.Warn("Symbols skipped during collection",
			"unresolved", s.Unresolved,
			"malformed", s.Malformed)
	}
	if s.UnreachableCalls > 0 {
		a.logger.Debug("Calls in unreachable blocks dropped", "count", s.UnreachableCalls)
	}
	if a.classifier == nil {
		return
	}
	counts := make(map[string]int)
	for _, inst := range a.index.All() {
		counts[a.classifier.Classify(inst.Package)]++
	}
	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	args := make([]any, 0, 2*len(classes))
	for _, class := range classes {
		args = append(args, class, counts[class])
	}
	a.logger.Debug("Instances by package class", args...)
}
