package output

import (
	"io"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/callgraph"
)

// BuildLattice flattens the graph into display names. Without type arguments
// distinct instantiations share a node.
func BuildLattice(g *callgraph.Graph, withArgs bool) *lattice.Graph {
	lg := &lattice.Graph{}
	for _, inst := range g.Instances() {
		lg.Nodes = append(lg.Nodes, inst.Display(withArgs))
	}
	for _, caller := range g.Callers() {
		from := caller.Display(withArgs)
		for _, e := range g.Callees(caller.ID) {
			callee, ok := g.Instance(e.Callee)
			if !ok {
				continue
			}
			lg.Edges = append(lg.Edges, lattice.Edge{Caller: from, Callee: callee.Display(withArgs)})
		}
	}
	lg.Dedup()
	return lg
}

// WriteGraphDOT renders the graph as Graphviz DOT
func WriteGraphDOT(w io.Writer, g *callgraph.Graph, withArgs bool, title string) error {
	_, err := io.WriteString(w, render.DOT(BuildLattice(g, withArgs), title))
	return err
}
