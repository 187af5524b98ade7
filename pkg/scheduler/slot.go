package scheduler

import "sync"

// txSlot holds a transaction and its submission index at most once. take
// empties the slot and returns what it held; a second call reports failure.
// This is the scheduler's interior-mutability invariant: the BFS rowizer
// guarantees every node is visited exactly once, so the slot itself never
// needs to be read under the graph's own lock — only the mutex guarding the
// single take.
type txSlot struct {
	mu    sync.Mutex
	tx    Transaction
	index int
	taken bool
}

func newTxSlot(tx Transaction, index int) *txSlot {
	return &txSlot{tx: tx, index: index}
}

func (s *txSlot) take() (Transaction, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken {
		return Transaction{}, 0, false
	}
	s.taken = true
	return s.tx, s.index, true
}
