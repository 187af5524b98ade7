package scheduler

import "context"

// Execution is the sandbox collaborator that actually runs one transaction;
// the scheduler never executes transaction logic itself. Execute must be
// deterministic given identical inputs, must not
// touch any address outside tx's declared reads/writes, and must return an
// error rather than panic on a semantically invalid transaction — violating
// either breaks the serializability the scheduler promises.
type Execution interface {
	Execute(ctx context.Context, tx Transaction, state State, cache Cache) (StateDiff, error)
}

// Cache is an opaque, execution-collaborator-defined side channel (e.g. a
// compiled-predicate cache); the scheduler only threads it through
// unmodified to every Execute call.
type Cache interface{}
