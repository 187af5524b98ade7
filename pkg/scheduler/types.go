// Package scheduler executes an ordered batch of transactions concurrently
// while preserving the read/write dependency ordering implied by their
// submission order. Dependencies are tracked sparsely: each transaction is
// ordered after its nearest earlier conflicting transaction only. Two
// conflicting transactions therefore run in submission order when they are
// linked through such a chain of nearest conflicts; a conflict with an
// older transaction that is not on that chain is not tracked, and the two
// may run in parallel (e.g. t0 writes A, t1 writes B, t2 writes A and B:
// t2 follows t1, while t0 runs independently of both).
package scheduler

// Address identifies an account in State.
type Address string

// ParamKind distinguishes the two shapes a predicate Param can take.
type ParamKind int

const (
	ParamLiteral ParamKind = iota
	ParamAccountRef
)

// Param is either an opaque literal or a reference to another account,
// carried by validity predicates and intent expectations alike.
type Param struct {
	Kind    ParamKind
	Literal []byte
	Ref     Address
}

// CodeKind distinguishes a predicate's two code shapes.
type CodeKind int

const (
	CodeInline CodeKind = iota
	CodeAccountRef
)

// Code is a predicate's executable body: either inlined, or a reference to
// the account whose code should run (with an opaque selector, e.g. an entry
// point name).
type Code struct {
	Kind     CodeKind
	Inline   []byte
	Ref      Address
	Selector []byte
}

// Predicate is one validity check an account imposes on transactions that
// touch it.
type Predicate struct {
	Params []Param
	Code   Code
}

// Account is what State exposes for an address: its ordered validity
// predicates, checked before any proposed mutation is accepted.
type Account struct {
	Predicates []Predicate
}

// Intent is a transaction's declared expectation of some side effect;
// Expectations are predicates evaluated the same way account predicates
// are, for reference-analysis purposes.
type Intent struct {
	Expectations []Predicate
}

// Transaction is one unit of work in a submitted batch. Proposals maps
// every address this transaction intends to mutate to its proposed new
// content; its keys are exactly the transaction's write set.
type Transaction struct {
	Proposals map[Address][]byte
	Intents   []Intent
}

// State is the read side of account storage the scheduler consults for
// reference analysis and exposes to the execution collaborator. It is
// implemented outside this package by the persistent key-value store that
// backs account state.
type State interface {
	Account(addr Address) (Account, bool)
	Ancestors(addr Address) []Address
}

// StateDiff is an accumulable set of account mutations. Apply layers d on
// top of base: entries in d win over matching entries in base, and the
// union is returned. Composition is commutative within a single BFS row
// (disjoint write sets by construction) but ordered across rows.
type StateDiff map[Address]Account

// Apply returns base with d layered on top.
func (d StateDiff) Apply(base StateDiff) StateDiff {
	merged := make(StateDiff, len(base)+len(d))
	for addr, acct := range base {
		merged[addr] = acct
	}
	for addr, acct := range d {
		merged[addr] = acct
	}
	return merged
}

// Result is one transaction's outcome, always reported at its original
// submission index.
type Result struct {
	Index int
	Diff  StateDiff
	Err   error
}
