package callgraph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/ir"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

func fn(name string, bs ...ir.BlockDoc) ir.FunctionDoc {
	if len(bs) == 0 {
		bs = []ir.BlockDoc{{}}
	}
	return ir.FunctionDoc{Name: name, Module: models.Module{Name: "app", Version: "(devel)"}, Blocks: bs}
}

func blk(succs []int, branch bool, calls ...ir.CallDoc) ir.BlockDoc {
	return ir.BlockDoc{Succs: succs, Branch: branch, Calls: calls}
}

func call(pos string, target string) ir.CallDoc {
	return ir.CallDoc{Targets: []string{target}, Pos: pos}
}

func dispatch(pos string, targets ...string) ir.CallDoc {
	return ir.CallDoc{Kind: "dynamic", Targets: targets, Pos: pos}
}

func analyze(t *testing.T, doc *ir.Document, dedup bool) (*Graph, *Analysis) {
	t.Helper()
	p, err := ir.NewMemoryProvider(doc)
	require.NoError(t, err)

	cfg := models.DefaultAnalysisConfig()
	cfg.Deduplicate = dedup
	cfg.Workers = 4
	a := NewAnalysis(cfg, utils.NewLogger(&bytes.Buffer{}, true, false), WithTimer(utils.NewTimer(nil)))
	g, err := a.Run(p)
	require.NoError(t, err)
	return g, a
}

func lookupNamed(g *Graph, name string) (*models.Instance, bool) {
	for _, inst := range g.Index().All() {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}

func mustNamed(t *testing.T, g *Graph, name string) *models.Instance {
	t.Helper()
	inst, ok := lookupNamed(g, name)
	require.True(t, ok, "instance %s not registered", name)
	return inst
}

// edgesBetween returns every edge from caller to callee by display name
func edgesBetween(t *testing.T, g *Graph, caller, callee string) []models.Edge {
	t.Helper()
	from := mustNamed(t, g, caller)
	to := mustNamed(t, g, callee)
	var out []models.Edge
	for _, e := range g.Callees(from.ID) {
		if e.Callee == to.ID {
			out = append(out, e)
		}
	}
	return out
}

// callerWeights maps caller display names to their accumulated weight
func callerWeights(g *Graph, res *Result) map[string]int {
	out := make(map[string]int)
	for _, c := range res.Callers {
		inst, _ := g.Instance(c.ID)
		out[inst.Name] = c.Weight
	}
	return out
}
