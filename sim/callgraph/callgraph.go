// Package callgraph turns a demarcation decision trace into the call graph
// that was actually observed at run time.
package callgraph

import (
	"fmt"
	"os"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"github.com/nf-analysis/stateless-trace/sim/trace"
)

// Root stands in for the caller of calls made before any frame is known.
const Root = "<entry>"

// Build constructs a lattice.Graph from recorded call decisions. Every caller
// and callee becomes a node, in order of first appearance. Modelled callees
// appear under their display name. Debug intrinsics are skipped.
func Build(dt *trace.DemarcationTrace) *lattice.Graph {
	g := &lattice.Graph{}
	if dt == nil {
		return g
	}
	seen := make(map[string]bool)
	addNode := func(name string) {
		if !seen[name] {
			seen[name] = true
			g.Nodes = append(g.Nodes, name)
		}
	}
	for _, c := range dt.Calls {
		if c.Outcome == trace.OutcomeDebug {
			continue
		}
		caller := c.Caller
		if caller == "" {
			caller = Root
		}
		callee := c.Callee
		if c.Outcome != trace.OutcomePassthrough {
			callee = c.DisplayName
		}
		addNode(caller)
		addNode(callee)
		g.Edges = append(g.Edges, lattice.Edge{
			Caller: caller,
			Callee: callee,
		})
	}
	g.Dedup()
	return g
}

// WriteDOT renders g as Graphviz DOT to path.
func WriteDOT(g *lattice.Graph, path, title string) error {
	dot := render.DOT(g, title)
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
