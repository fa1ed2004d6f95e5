package callgraph

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/ir"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

type bodyResult struct {
	calls   []extracted
	dropped int
	err     error
}

// Collect walks the program breadth-first from the provider's entry points.
// Each frontier is extracted in parallel and merged in frontier order, so the
// returned call sites (and their Seq numbers) do not depend on scheduling.
func (a *Analysis) Collect(p ir.Provider) ([]models.CallSite, error) {
	entries, err := p.EntryPoints()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry points: %w", err)
	}
	a.stats.EntryPoints = len(entries)
	if len(entries) == 0 {
		a.logger.Warn("No entry points found, the call graph is empty")
	}

	var frontier []ir.Symbol
	for _, sym := range entries {
		if a.register(sym) {
			frontier = append(frontier, sym)
		}
	}

	var sites []models.CallSite
	for depth := 0; len(frontier) > 0; depth++ {
		a.logger.Debug("Expanding frontier", "depth", depth, "instances", len(frontier))
		results := a.extractFrontier(p, frontier)

		var next []ir.Symbol
		for i, sym := range frontier {
			r := results[i]
			if r == nil {
				continue
			}
			if r.err != nil {
				a.recordFailure(sym, r.err)
				continue
			}
			a.stats.Expanded++
			a.stats.UnreachableCalls += r.dropped
			if r.dropped > 0 {
				a.logger.Debug("Dropped calls in unreachable blocks", "function", sym.Name, "count", r.dropped)
			}
			for _, c := range r.calls {
				site := models.CallSite{
					Caller: sym.ID(),
					Kind:   c.call.Kind,
					Weight: c.weight,
					Pos:    c.call.Pos,
					Seq:    a.seq,
				}
				a.seq++
				for _, target := range c.call.Targets {
					if a.register(target) {
						next = append(next, target)
					}
					site.Callees = append(site.Callees, target.ID())
				}
				if c.call.Kind == models.CallDynamic && len(site.Callees) == 0 {
					a.logger.Debug("Dynamic call without candidates", "function", sym.Name, "pos", c.call.Pos)
				}
				sites = append(sites, site)
			}
		}
		frontier = next
	}

	sites = a.dropUnresolved(sites)
	a.stats.Instances = a.index.Len()
	a.stats.CallSites = len(sites)
	return sites, nil
}

// extractFrontier fetches and extracts the bodies of every concrete instance
// in the frontier. Abstract and external instances get a nil result.
func (a *Analysis) extractFrontier(p ir.Provider, frontier []ir.Symbol) []*bodyResult {
	results := make([]*bodyResult, len(frontier))
	progress := utils.NewProgressTracker(a.logger, "extract", len(frontier))

	var g errgroup.Group
	g.SetLimit(a.workers())
	for i, sym := range frontier {
		if sym.Kind != models.KindConcrete {
			continue
		}
		g.Go(func() error {
			results[i] = extractBody(p, sym)
			progress.Update(1)
			return nil
		})
	}
	_ = g.Wait()
	progress.Complete()
	return results
}

func extractBody(p ir.Provider, sym ir.Symbol) *bodyResult {
	body, err := p.Body(sym)
	if err != nil {
		return &bodyResult{err: err}
	}
	if err := ValidateBody(sym, body); err != nil {
		return &bodyResult{err: err}
	}
	calls, dropped := extractCalls(body)
	return &bodyResult{calls: calls, dropped: dropped}
}

// register adds sym to the index the first time it is seen and reports
// whether it still needs to be processed.
func (a *Analysis) register(sym ir.Symbol) bool {
	id := sym.ID()
	if a.visited[id] {
		return false
	}
	a.visited[id] = true
	inst, _ := a.index.Register(sym.Instance())
	if inst.IsGeneric() {
		a.stats.Generic++
	}
	switch sym.Kind {
	case models.KindAbstract:
		a.stats.Abstract++
	case models.KindExternal:
		a.stats.External++
	}
	return true
}

func (a *Analysis) recordFailure(sym ir.Symbol, err error) {
	switch {
	case errors.Is(err, ir.ErrUnresolvedSymbol):
		a.stats.Unresolved++
		a.unresolved[sym.ID()] = true
		a.index.Remove(sym.ID())
		a.logger.Warn("Dropping unresolved symbol", "function", sym.Name, "error", err)
	case errors.Is(err, ir.ErrMalformedBody):
		a.stats.Malformed++
		a.logger.Warn("Skipping malformed function body", "function", sym.Name, "error", err)
	case errors.Is(err, ir.ErrNoBody):
		a.stats.External++
		a.logger.Debug("Function has no body", "function", sym.Name)
	default:
		a.stats.Malformed++
		a.logger.Warn("Skipping function", "function", sym.Name, "error", err)
	}
}

// dropUnresolved removes every edge into a symbol the provider could not resolve
func (a *Analysis) dropUnresolved(sites []models.CallSite) []models.CallSite {
	if len(a.unresolved) == 0 {
		return sites
	}
	kept := sites[:0]
	for _, site := range sites {
		if a.unresolved[site.Caller] {
			continue
		}
		callees := site.Callees[:0]
		for _, id := range site.Callees {
			if !a.unresolved[id] {
				callees = append(callees, id)
			}
		}
		site.Callees = callees
		if len(callees) == 0 && site.Kind != models.CallDynamic {
			continue
		}
		kept = append(kept, site)
	}
	return kept
}
