package scheduler

import "gonum.org/v1/gonum/graph/simple"

// txNode is one dependency-graph node: a stable integer id for gonum plus
// the transaction slot it guards. After the node is visited the slot is
// empty; the node itself lives for the lifetime of the Schedule.
type txNode struct {
	id   int64
	slot *txSlot
}

func (n *txNode) ID() int64 { return n.id }

// Schedule is the dependency graph built for one batch: a sparse DAG over
// submission order plus the root of every weakly connected component
// (every independent "tree" that can run fully in parallel with the
// others).
type Schedule struct {
	graph *simple.DirectedGraph
	nodes []*txNode
	roots []*txNode
}

// NewSchedule performs reference analysis over txs against state, builds
// the dependency graph, and partitions it into its independent trees.
func NewSchedule(txs []Transaction, state State) *Schedule {
	refs := make([]TransactionRefs, len(txs))
	for i, tx := range txs {
		refs[i] = newTransactionRefs(tx, state)
	}

	g := simple.NewDirectedGraph()
	nodes := make([]*txNode, len(txs))
	for i, tx := range txs {
		n := &txNode{id: int64(i), slot: newTxSlot(tx, i)}
		nodes[i] = n
		g.AddNode(n)
	}

	// Iterate from last to first; for each t_j scan predecessors backwards
	// and add an edge from the first conflicting one only, then stop. This
	// produces a transitive-reduction-like sparse DAG where every node has
	// at most one incoming edge — i.e. a forest, not a general DAG.
	for j := len(txs) - 1; j >= 0; j-- {
		for k := j - 1; k >= 0; k-- {
			if conflicts(refs[j], refs[k]) {
				g.SetEdge(g.NewEdge(nodes[k], nodes[j]))
				break
			}
		}
	}

	s := &Schedule{graph: g, nodes: nodes}
	s.roots = s.findRoots()
	return s
}

// findRoots treats the DAG as undirected for partitioning: union-find over
// every edge labels each node by component. For each component, it walks
// incoming edges backward from an arbitrary member until it reaches a node
// with none — the root. Because construction gives every node at most one
// incoming edge, this walk is unambiguous and terminates in at most len
// steps.
func (s *Schedule) findRoots() []*txNode {
	n := len(s.nodes)
	uf := newUnionFind(n)

	edges := s.graph.Edges()
	for edges.Next() {
		e := edges.Edge()
		uf.union(int(e.From().ID()), int(e.To().ID()))
	}

	rootOf := make(map[int]*txNode, n)
	for i := 0; i < n; i++ {
		label := uf.find(i)
		if _, done := rootOf[label]; done {
			continue
		}
		rootOf[label] = s.rootFrom(s.nodes[i])
	}

	roots := make([]*txNode, 0, len(rootOf))
	for _, r := range rootOf {
		roots = append(roots, r)
	}
	return roots
}

func (s *Schedule) rootFrom(n *txNode) *txNode {
	for {
		it := s.graph.To(n.ID())
		if !it.Next() {
			return n
		}
		n = it.Node().(*txNode)
	}
}
