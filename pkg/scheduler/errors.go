package scheduler

import "errors"

var (
	// ErrReadWriteOverlap is never returned or checked anywhere; it names
	// the invariant TransactionRefs construction enforces (reads ∩ writes =
	// ∅) by never inserting a written address into reads.
	ErrReadWriteOverlap = errors.New("scheduler: address present in both reads and writes")

	// ErrSlotAlreadyTaken is the panic value raised when a graph node's
	// transaction slot is visited more than once. The BFS rowizer is the
	// only caller that should ever take a slot; a second take means a bug in
	// the traversal, not ordinary operation, and terminates the batch.
	ErrSlotAlreadyTaken = errors.New("scheduler: transaction slot already visited")
)

// ExecutionError wraps a failure from the execution collaborator, keeping
// the transaction's submission index alongside the underlying cause for
// callers that want to correlate failures back to their batch.
type ExecutionError struct {
	Index int
	Err   error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
