package scheduler

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// TestScheduleIsAForestOfValidEdges drives random batches of transactions
// over a small address universe and checks the structural invariants the
// scheduling scheme depends on: every node has at most one incoming edge,
// and every edge that does exist corresponds to a real conflict with an
// earlier transaction.
func TestScheduleIsAForestOfValidEdges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		state := newFakeState()

		universe := make([]Address, 5)
		for i := range universe {
			universe[i] = Address(fmt.Sprintf("addr-%d", i))
		}

		n := rapid.IntRange(1, 25).Draw(rt, "n")
		txs := make([]Transaction, n)
		for i := range txs {
			write := universe[rapid.IntRange(0, len(universe)-1).Draw(rt, "write")]
			tx := Transaction{Proposals: map[Address][]byte{write: []byte("v")}}

			if rapid.Bool().Draw(rt, "hasRead") {
				read := universe[rapid.IntRange(0, len(universe)-1).Draw(rt, "read")]
				tx.Intents = []Intent{
					{Expectations: []Predicate{{Params: []Param{refParam(read)}}}},
				}
			}
			txs[i] = tx
		}

		refs := make([]TransactionRefs, n)
		for i, tx := range txs {
			refs[i] = newTransactionRefs(tx, state)
		}

		schedule := NewSchedule(txs, state)

		inDegree := make(map[int64]int)
		edges := schedule.graph.Edges()
		for edges.Next() {
			e := edges.Edge()
			from, to := e.From().ID(), e.To().ID()
			inDegree[to]++

			if from >= to {
				rt.Fatalf("edge %d->%d does not point forward in submission order", from, to)
			}
			if !conflicts(refs[to], refs[from]) {
				rt.Fatalf("edge %d->%d exists without a real conflict", from, to)
			}
		}
		for _, deg := range inDegree {
			if deg > 1 {
				rt.Fatalf("node has in-degree %d, expected at most 1", deg)
			}
		}

		if len(schedule.roots) == 0 {
			rt.Fatalf("expected at least one root for a non-empty batch")
		}
	})
}
