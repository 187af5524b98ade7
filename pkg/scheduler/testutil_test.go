package scheduler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeState is an in-memory State for tests: accounts and an ancestor map,
// neither mutated by reference analysis or execution.
type fakeState struct {
	accounts  map[Address]Account
	ancestors map[Address][]Address
}

func newFakeState() *fakeState {
	return &fakeState{
		accounts:  make(map[Address]Account),
		ancestors: make(map[Address][]Address),
	}
}

func (s *fakeState) Account(addr Address) (Account, bool) {
	acct, ok := s.accounts[addr]
	return acct, ok
}

func (s *fakeState) Ancestors(addr Address) []Address {
	return s.ancestors[addr]
}

func refParam(addr Address) Param {
	return Param{Kind: ParamAccountRef, Ref: addr}
}

// countingExecution writes, for every address a transaction proposes, an
// Account whose predicate count is one more than the highest predicate
// count visible among the addresses its intents' expectations reference —
// so a later
// transaction's output only reflects an earlier one's if the scheduler
// actually ran them in dependency order and threaded the diff through.
type countingExecution struct{}

func (e *countingExecution) Execute(_ context.Context, tx Transaction, state State, _ Cache) (StateDiff, error) {
	diff := StateDiff{}

	highest := 0
	for _, intent := range tx.Intents {
		for _, p := range intent.Expectations {
			for _, param := range p.Params {
				if param.Kind != ParamAccountRef {
					continue
				}
				if acct, ok := state.Account(param.Ref); ok {
					if n := len(acct.Predicates); n > highest {
						highest = n
					}
				}
			}
		}
	}

	for addr := range tx.Proposals {
		diff[addr] = Account{Predicates: make([]Predicate, highest+1)}
	}
	return diff, nil
}

var errBoom = errors.New("boom")
