package output

import (
	"encoding/json"
	"io"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/callgraph"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

func functionRef(inst *models.Instance, withArgs bool, depth int) models.FunctionRef {
	return models.FunctionRef{
		Name:            inst.Display(withArgs),
		Version:         inst.Module.Version,
		Path:            inst.Path,
		ConstraintDepth: depth,
		PathHash:        inst.ID.String(),
	}
}

// BuildGraphEntries converts the graph into its JSON report. A caller's
// constraint depth is the largest weight among its outgoing edges.
func BuildGraphEntries(g *callgraph.Graph, withArgs bool) []models.CallGraphEntry {
	entries := make([]models.CallGraphEntry, 0)
	for _, caller := range g.Callers() {
		edges := g.Callees(caller.ID)
		callees := make([]models.FunctionRef, 0, len(edges))
		depth := 0
		for _, e := range edges {
			callee, ok := g.Instance(e.Callee)
			if !ok {
				continue
			}
			ref := functionRef(callee, withArgs, e.Weight)
			ref.Module = callee.Module.Name
			ref.Multiplicity = e.Multiplicity
			callees = append(callees, ref)
			depth = max(depth, e.Weight)
		}
		entries = append(entries, models.CallGraphEntry{
			Caller: functionRef(caller, withArgs, depth),
			Callee: callees,
		})
	}
	return entries
}

// BuildCallersReport converts one query result into its JSON report
func BuildCallersReport(g *callgraph.Graph, res *callgraph.Result, withArgs bool) models.CallersReport {
	report := models.CallersReport{
		Target:         res.Query.Text,
		MatchedTargets: make([]string, 0, len(res.Targets)),
		Callers:        make([]models.CallerRef, 0, len(res.Callers)),
	}
	for _, id := range res.Targets {
		if inst, ok := g.Instance(id); ok {
			report.MatchedTargets = append(report.MatchedTargets, inst.Display(withArgs))
		}
	}
	for _, c := range res.Callers {
		inst, ok := g.Instance(c.ID)
		if !ok {
			continue
		}
		path := make([]string, 0, len(c.Path))
		for _, hop := range c.Path {
			if h, ok := g.Instance(hop); ok {
				path = append(path, h.Display(withArgs))
			}
		}
		report.Callers = append(report.Callers, models.CallerRef{
			Name:            inst.Display(withArgs),
			Version:         inst.Module.Version,
			Path:            inst.Path,
			PathHash:        inst.ID.String(),
			PathConstraints: c.Weight,
			CallPath:        path,
		})
	}
	report.TotalCallers = len(report.Callers)
	return report
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteGraphJSON writes the JSON call graph report
func WriteGraphJSON(w io.Writer, g *callgraph.Graph, withArgs bool) error {
	return encodeJSON(w, BuildGraphEntries(g, withArgs))
}

// WriteCallersJSON writes the JSON caller report of one query
func WriteCallersJSON(w io.Writer, g *callgraph.Graph, res *callgraph.Result, withArgs bool) error {
	return encodeJSON(w, BuildCallersReport(g, res, withArgs))
}
