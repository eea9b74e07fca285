package analysis

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// BlockingCycles returns groups of unclosed issues that block each other in
// a loop. Each group is a strongly connected component of the blocks
// relation with more than one member, ids sorted; groups are ordered by
// their first id. Closed issues no longer block and are left out.
func BlockingCycles(g *model.Graph) [][]string {
	if g.Len() == 0 {
		return nil
	}

	dg := simple.NewDirectedGraph()
	idToNode := make(map[string]int64, len(g.Issues))
	nodeToID := make(map[int64]string, len(g.Issues))
	for _, is := range g.Issues {
		if is.Status == model.StatusClosed {
			continue
		}
		n := dg.NewNode()
		dg.AddNode(n)
		idToNode[is.ID] = n.ID()
		nodeToID[n.ID()] = is.ID
	}

	for _, is := range g.Issues {
		from, ok := idToNode[is.ID]
		if !ok {
			continue
		}
		for _, blocked := range is.Blocks {
			to, ok := idToNode[blocked]
			if !ok || to == from {
				continue
			}
			dg.SetEdge(dg.NewEdge(dg.Node(from), dg.Node(to)))
		}
	}

	var cycles [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, nodeToID[n.ID()])
		}
		slices.Sort(ids)
		cycles = append(cycles, ids)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
