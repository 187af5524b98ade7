package scheduler

import "gonum.org/v1/gonum/graph/simple"

// bfsRows yields the breadth-first "rows" of a tree one call at a time:
// all nodes at the same depth from the root. Because every node produced
// by Schedule has at most one incoming edge, a node can only ever appear in
// the row one level below its unique parent — so collecting an entire
// frontier before advancing already gives each successor to its correct,
// later row without any extra lookahead bookkeeping.
type bfsRows struct {
	g       *simple.DirectedGraph
	current []*txNode
}

func newBfsRows(g *simple.DirectedGraph, root *txNode) *bfsRows {
	return &bfsRows{g: g, current: []*txNode{root}}
}

// next returns the next row, or nil once the tree is exhausted.
func (b *bfsRows) next() []*txNode {
	if len(b.current) == 0 {
		return nil
	}
	row := b.current

	var frontier []*txNode
	for _, n := range row {
		it := b.g.From(n.ID())
		for it.Next() {
			frontier = append(frontier, it.Node().(*txNode))
		}
	}
	b.current = frontier
	return row
}
