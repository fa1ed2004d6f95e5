package callgraph

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/index"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// Graph is the call graph of one run. It is read-only after Build and safe
// for concurrent queries.
type Graph struct {
	index        *index.Index
	out          map[models.ID][]models.Edge
	edgeCount    int
	deduplicated bool
	stats        Stats

	reverseOnce sync.Once
	in          map[models.ID][]models.Edge
}

type pairKey struct {
	caller, callee models.ID
}

// Build turns call sites into edges. Dynamic sites expand into one edge per
// candidate. With dedup every (caller, callee) pair keeps a single edge with
// the minimum weight and the number of sites it stands for; among sites of
// equal minimum weight the one discovered first is the witness. Without dedup
// every (site, candidate) pair is its own edge. Endpoints missing from idx
// are ignored.
func Build(idx *index.Index, sites []models.CallSite, dedup bool, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	ordered := make([]models.CallSite, len(sites))
	copy(ordered, sites)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	g := &Graph{
		index:        idx,
		out:          make(map[models.ID][]models.Edge),
		deduplicated: dedup,
	}

	expanded := 0
	byPair := make(map[pairKey]int) // position of the pair's edge in g.out[caller]
	for _, site := range ordered {
		if !idx.Contains(site.Caller) {
			continue
		}
		for _, callee := range site.Callees {
			if !idx.Contains(callee) {
				continue
			}
			expanded++
			edge := models.Edge{
				Caller:       site.Caller,
				Callee:       callee,
				Weight:       site.Weight,
				Multiplicity: 1,
				Kind:         site.Kind,
				Pos:          site.Pos,
				Seq:          site.Seq,
			}
			if !dedup {
				g.out[site.Caller] = append(g.out[site.Caller], edge)
				continue
			}
			key := pairKey{site.Caller, callee}
			pos, seen := byPair[key]
			if !seen {
				byPair[key] = len(g.out[site.Caller])
				g.out[site.Caller] = append(g.out[site.Caller], edge)
				continue
			}
			existing := &g.out[site.Caller][pos]
			existing.Multiplicity++
			if edge.Weight < existing.Weight {
				existing.Weight = edge.Weight
				existing.Kind = edge.Kind
				existing.Pos = edge.Pos
				existing.Seq = edge.Seq
			}
		}
	}

	for caller, edges := range g.out {
		g.sortEdges(edges, func(e models.Edge) models.ID { return e.Callee })
		g.out[caller] = edges
		g.edgeCount += len(edges)
	}

	if dedup {
		logger.Info(fmt.Sprintf("Deduplicated call sites: %d -> %d entries", expanded, g.edgeCount))
	}
	return g
}

// sortEdges orders edges by the display name of the endpoint returned by
// other, then weight, then identity, then discovery order.
func (g *Graph) sortEdges(edges []models.Edge, other func(models.Edge) models.ID) {
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := other(edges[i]), other(edges[j])
		if na, nb := g.name(a), g.name(b); na != nb {
			return na < nb
		}
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight < edges[j].Weight
		}
		if a != b {
			return a.Less(b)
		}
		return edges[i].Seq < edges[j].Seq
	})
}

func (g *Graph) name(id models.ID) string {
	if inst, ok := g.index.Get(id); ok {
		return inst.Name
	}
	return ""
}

// Index returns the instance index the graph was built over
func (g *Graph) Index() *index.Index {
	return g.index
}

// Instance returns a registered instance
func (g *Graph) Instance(id models.ID) (*models.Instance, bool) {
	return g.index.Get(id)
}

// Instances returns every node in display order
func (g *Graph) Instances() []*models.Instance {
	return g.index.All()
}

// Callers returns the instances with at least one outgoing edge, in display order
func (g *Graph) Callers() []*models.Instance {
	out := make([]*models.Instance, 0, len(g.out))
	for id := range g.out {
		if inst, ok := g.index.Get(id); ok {
			out = append(out, inst)
		}
	}
	index.SortInstances(out)
	return out
}

// Callees returns the outgoing edges of id in display order of the callee
func (g *Graph) Callees(id models.ID) []models.Edge {
	return g.out[id]
}

// Incoming returns the edges into id in display order of the caller. The
// reverse index is built on first use.
func (g *Graph) Incoming(id models.ID) []models.Edge {
	g.reverseOnce.Do(g.buildReverse)
	return g.in[id]
}

func (g *Graph) buildReverse() {
	g.in = make(map[models.ID][]models.Edge)
	for _, edges := range g.out {
		for _, e := range edges {
			g.in[e.Callee] = append(g.in[e.Callee], e)
		}
	}
	for callee, edges := range g.in {
		g.sortEdges(edges, func(e models.Edge) models.ID { return e.Caller })
		g.in[callee] = edges
	}
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Deduplicated reports whether parallel call sites were collapsed
func (g *Graph) Deduplicated() bool {
	return g.deduplicated
}

// Stats returns the counters of the run that produced the graph
func (g *Graph) Stats() Stats {
	return g.stats
}
