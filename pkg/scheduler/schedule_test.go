package scheduler

import (
	"context"
	"testing"
)

// TestBasicDependencyOrdering checks that a transaction reading an address
// another transaction writes only executes after that write is visible,
// even though both run through the same ExecuteMany call.
func TestBasicDependencyOrdering(t *testing.T) {
	state := newFakeState()
	txs := []Transaction{
		{Proposals: map[Address][]byte{"A": []byte("v0")}},
		{
			Proposals: map[Address][]byte{"B": []byte("v1")},
			Intents: []Intent{
				{Expectations: []Predicate{{Params: []Param{refParam("A")}}}},
			},
		},
	}

	results, err := ExecuteMany(context.Background(), state, nil, txs, &countingExecution{}, nil)
	if err != nil {
		t.Fatalf("ExecuteMany: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byIndex := make(map[int]Result, len(results))
	for _, r := range results {
		byIndex[r.Index] = r
	}

	if got := len(byIndex[0].Diff["A"].Predicates); got != 1 {
		t.Fatalf("expected tx0's write to A to carry 1 predicate, got %d", got)
	}
	if got := len(byIndex[1].Diff["B"].Predicates); got != 2 {
		t.Fatalf("expected tx1's write to B to reflect tx0's prior write (2 predicates), got %d", got)
	}
}

// TestIndependentTransactionsFormSeparateTrees checks that transactions
// touching disjoint addresses end up as separate roots and both execute
// successfully.
func TestIndependentTransactionsFormSeparateTrees(t *testing.T) {
	state := newFakeState()
	txs := []Transaction{
		{Proposals: map[Address][]byte{"A": []byte("v0")}},
		{Proposals: map[Address][]byte{"B": []byte("v1")}},
	}

	schedule := NewSchedule(txs, state)
	if len(schedule.roots) != 2 {
		t.Fatalf("expected 2 independent trees, got %d", len(schedule.roots))
	}

	results, err := ExecuteMany(context.Background(), state, nil, txs, &countingExecution{}, nil)
	if err != nil {
		t.Fatalf("ExecuteMany: %v", err)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("tx %d: unexpected error %v", r.Index, r.Err)
		}
	}
}

// TestRowLevelErrorIsolation checks that a failing transaction's error is
// reported at its own index without aborting its tree's later rows or a
// sibling tree.
func TestRowLevelErrorIsolation(t *testing.T) {
	state := newFakeState()
	txs := []Transaction{
		{Proposals: map[Address][]byte{"A": []byte("v0")}}, // index 0: fails
		{ // index 1: independent of A, its own sibling tree, must still succeed
			Proposals: map[Address][]byte{"C": []byte("v2")},
		},
		{ // index 2: depends on A, runs in a later row regardless of tx0's error
			Proposals: map[Address][]byte{"B": []byte("v1")},
			Intents: []Intent{
				{Expectations: []Predicate{{Params: []Param{refParam("A")}}}},
			},
		},
	}

	exec := &selectiveFailExecution{fail: map[int]bool{0: true}, inner: &countingExecution{}}
	results, err := ExecuteMany(context.Background(), state, nil, txs, exec, nil)
	if err != nil {
		t.Fatalf("ExecuteMany: %v", err)
	}

	byIndex := make(map[int]Result, len(results))
	for _, r := range results {
		byIndex[r.Index] = r
	}

	if byIndex[0].Err == nil {
		t.Fatalf("expected tx0 to report an error")
	}
	if byIndex[1].Err != nil {
		t.Fatalf("expected tx1 (in a sibling tree) to succeed, got %v", byIndex[1].Err)
	}
	if byIndex[2].Err != nil {
		t.Fatalf("expected tx2 (later row) to still execute despite tx0's failure, got %v", byIndex[2].Err)
	}
	// A never committed since tx0 failed; tx2 sees no predicates from it.
	if got := len(byIndex[2].Diff["B"].Predicates); got != 1 {
		t.Fatalf("expected tx2's write to reflect no committed predecessor (1 predicate), got %d", got)
	}
}

type selectiveFailExecution struct {
	fail  map[int]bool
	inner Execution
}

func (e *selectiveFailExecution) Execute(ctx context.Context, tx Transaction, state State, cache Cache) (StateDiff, error) {
	// Execute carries no submission index, so identify tx0 by its
	// distinctive write set instead.
	if _, ok := tx.Proposals["A"]; ok && e.fail[0] {
		return nil, errBoom
	}
	return e.inner.Execute(ctx, tx, state, cache)
}
