package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/callgraph"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// label renders an instance for the text reports
func label(inst *models.Instance, withArgs bool) string {
	name := inst.Display(withArgs)
	if inst.Kind == models.KindAbstract {
		name += " (abstract)"
	}
	return name
}

// labelOf renders a node by identity. Unknown identities fall back to the hash.
func labelOf(g *callgraph.Graph, id models.ID, withArgs bool) string {
	if inst, ok := g.Instance(id); ok {
		return label(inst, withArgs)
	}
	return id.String()
}

// WriteGraphText writes every caller with its direct callees
func WriteGraphText(w io.Writer, g *callgraph.Graph, withArgs bool) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("Call Graph:\n")
	bw.WriteString("===========\n\n")

	for _, caller := range g.Callers() {
		fmt.Fprintf(bw, "Function: %s [%s]\n", label(caller, withArgs), caller.ID)
		for _, e := range g.Callees(caller.ID) {
			fmt.Fprintf(bw, "  -> %s [%s] [constraint: %d]", labelOf(g, e.Callee, withArgs), e.Callee, e.Weight)
			if e.Multiplicity > 1 {
				fmt.Fprintf(bw, " [sites: %d]", e.Multiplicity)
			}
			bw.WriteString("\n")
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteCallersText writes the answer to one find-callers query
func WriteCallersText(w io.Writer, g *callgraph.Graph, res *callgraph.Result, withArgs bool) error {
	bw := bufio.NewWriter(w)
	if !res.Found() {
		fmt.Fprintf(bw, "No function found matching '%s'\n", res.Query.Text)
		return bw.Flush()
	}

	header := fmt.Sprintf("Callers of functions matching '%s':", res.Query.Text)
	bw.WriteString(header + "\n")
	bw.WriteString(strings.Repeat("=", len(header)) + "\n\n")

	bw.WriteString("Matched:\n")
	for _, id := range res.Targets {
		fmt.Fprintf(bw, "  %s [%s]\n", labelOf(g, id, withArgs), id)
	}
	bw.WriteString("\n")

	for _, c := range res.Callers {
		fmt.Fprintf(bw, "- %s [%s] [constraint: %d]\n", labelOf(g, c.ID, withArgs), c.ID, c.Weight)
		hops := make([]string, len(c.Path))
		for i, id := range c.Path {
			hops[i] = labelOf(g, id, withArgs)
		}
		fmt.Fprintf(bw, "    via %s\n", strings.Join(hops, " -> "))
	}
	fmt.Fprintf(bw, "\nTotal: %d callers found\n", len(res.Callers))
	return bw.Flush()
}
