package callgraph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/ir"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

func TestCollectDropsUnresolvedTargets(t *testing.T) {
	doc := &ir.Document{
		EntryPoints: []string{"app.main"},
		Functions: []ir.FunctionDoc{
			fn("app.main", blk(nil, false, call("m1", "app.setup"), call("m2", "app.removed"), dispatch("m3", "app.removed", "app.setup"))),
			fn("app.setup"),
		},
	}
	g, a := analyze(t, doc, true)

	assert.Equal(t, 1, a.Stats().Unresolved)
	_, ok := lookupNamed(g, "app.removed")
	assert.False(t, ok, "unresolved symbols leave the index")

	main := mustNamed(t, g, "app.main")
	edges := g.Callees(main.ID)
	require.Len(t, edges, 1)
	setup := mustNamed(t, g, "app.setup")
	assert.Equal(t, setup.ID, edges[0].Callee)
	assert.Equal(t, 2, edges[0].Multiplicity)
}

func TestCollectSkipsMalformedBodies(t *testing.T) {
	doc := &ir.Document{
		EntryPoints: []string{"app.main"},
		Functions: []ir.FunctionDoc{
			fn("app.main", blk(nil, false, call("", "app.broken"), call("", "app.fine"))),
			fn("app.broken", blk([]int{9}, false, call("", "app.hidden"))),
			fn("app.fine", blk(nil, false, call("", "app.leaf"))),
			fn("app.leaf"),
			fn("app.hidden"),
		},
	}
	g, a := analyze(t, doc, true)

	assert.Equal(t, 1, a.Stats().Malformed)
	broken := mustNamed(t, g, "app.broken")
	assert.Empty(t, g.Callees(broken.ID))
	_, ok := lookupNamed(g, "app.hidden")
	assert.False(t, ok, "calls of a skipped body are never followed")
	assert.Len(t, edgesBetween(t, g, "app.fine", "app.leaf"), 1)
}

func TestCollectDoesNotExpandAbstractOrExternal(t *testing.T) {
	doc := &ir.Document{
		EntryPoints: []string{"app.main"},
		Functions: []ir.FunctionDoc{
			fn("app.main", blk(nil, false, call("", "app.Sum"), call("", "fmt.Println"))),
			{Name: "app.Sum", Kind: "abstract", Blocks: []ir.BlockDoc{{Calls: []ir.CallDoc{call("", "app.never")}}}},
			{Name: "fmt.Println", Kind: "external", Module: models.Module{Name: "std", Version: "1.25"}},
			fn("app.never"),
		},
	}
	g, a := analyze(t, doc, true)

	s := a.Stats()
	assert.Equal(t, 1, s.Expanded)
	assert.Equal(t, 1, s.Abstract)
	assert.Equal(t, 1, s.Generic)
	assert.Equal(t, 1, s.External)
	assert.Equal(t, 3, s.Instances)
	assert.Zero(t, s.Malformed)
	assert.Zero(t, s.Unresolved)

	sum := mustNamed(t, g, "app.Sum")
	assert.Equal(t, models.KindAbstract, sum.Kind)
	printer := mustNamed(t, g, "fmt.Println")
	assert.Equal(t, "std", printer.Module.Name)
	assert.Len(t, g.Callees(mustNamed(t, g, "app.main").ID), 2)
}

func TestCollectVisitsEachInstanceOnce(t *testing.T) {
	doc := &ir.Document{
		EntryPoints: []string{"app.main", "app.a"},
		Functions: []ir.FunctionDoc{
			fn("app.main", blk(nil, false, call("", "app.a"), call("", "app.b"))),
			fn("app.a", blk(nil, false, call("", "app.b"), call("", "app.a"))),
			fn("app.b", blk(nil, false, call("", "app.a"))),
		},
	}
	_, a := analyze(t, doc, true)
	assert.Equal(t, 3, a.Stats().Expanded)
	assert.Equal(t, 3, a.Stats().Instances)
	assert.Equal(t, 2, a.Stats().EntryPoints)
}

func TestCollectSeqFollowsTraversalOrder(t *testing.T) {
	doc := &ir.Document{
		EntryPoints: []string{"app.main"},
		Functions: []ir.FunctionDoc{
			fn("app.main", blk(nil, false, call("m1", "app.x"), call("m2", "app.y"))),
			fn("app.x", blk(nil, false, call("x1", "app.leaf"))),
			fn("app.y", blk(nil, false, call("y1", "app.leaf"))),
			fn("app.leaf"),
		},
	}
	p, err := ir.NewMemoryProvider(doc)
	require.NoError(t, err)

	for _, workers := range []int{1, 8} {
		cfg := models.DefaultAnalysisConfig()
		cfg.Workers = workers
		a := NewAnalysis(cfg, utils.NewLogger(&bytes.Buffer{}, false, true))
		sites, err := a.Collect(p)
		require.NoError(t, err)

		var order []string
		for i, s := range sites {
			assert.Equal(t, i, s.Seq)
			order = append(order, s.Pos)
		}
		assert.Equal(t, []string{"m1", "m2", "x1", "y1"}, order)
	}
}

type failingProvider struct{}

func (failingProvider) EntryPoints() ([]ir.Symbol, error) {
	return nil, ir.ErrUnresolvedSymbol
}

func (failingProvider) Body(ir.Symbol) (*ir.Body, error) {
	return nil, ir.ErrNoBody
}

func TestRunFailsWhenEntryPointsError(t *testing.T) {
	a := NewAnalysis(models.DefaultAnalysisConfig(), utils.NewLogger(&bytes.Buffer{}, false, true))
	_, err := a.Run(failingProvider{})
	assert.ErrorIs(t, err, ir.ErrUnresolvedSymbol)
}

func TestRunWithEmptyProgram(t *testing.T) {
	g, a := analyze(t, &ir.Document{EntryPoints: []string{}}, true)
	assert.Zero(t, g.EdgeCount())
	assert.Zero(t, a.Stats().Instances)
}

type countingClassifier map[string]int

func (c countingClassifier) Classify(pkg string) string {
	c[pkg]++
	return "user"
}

func TestRunReportsClassesAndTimers(t *testing.T) {
	p, err := ir.NewMemoryProvider(fourSites())
	require.NoError(t, err)

	timer := utils.NewTimer(nil)
	classes := countingClassifier{}
	a := NewAnalysis(models.DefaultAnalysisConfig(), utils.NewLogger(&bytes.Buffer{}, true, false), WithTimer(timer), WithClassifier(classes))
	_, err = a.Run(p)
	require.NoError(t, err)

	assert.Equal(t, 2, classes[""])
	var names []string
	for _, s := range timer.Stats() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"build_graph", "collect"}, names)
}
