package scheduler

// TransactionRefs is the address footprint of one transaction: every
// address it writes, and every address it merely reads on the way to
// evaluating predicates. The two sets are always disjoint — an address
// already in writes is never inserted into reads.
type TransactionRefs struct {
	Reads  map[Address]struct{}
	Writes map[Address]struct{}
}

// newTransactionRefs walks tx's proposals (the write set) and then, for
// every written account and its ancestors, every predicate's params and
// code for AccountRef shapes (the read set); the same walk applies to each
// intent's expectations. state is consulted for account and ancestor
// lookups; a missing account contributes no further reads.
func newTransactionRefs(tx Transaction, state State) TransactionRefs {
	writes := make(map[Address]struct{}, len(tx.Proposals))
	for addr := range tx.Proposals {
		writes[addr] = struct{}{}
	}

	reads := make(map[Address]struct{})
	insertRead := func(addr Address) {
		if _, isWrite := writes[addr]; !isWrite {
			reads[addr] = struct{}{}
		}
	}

	walkPredicate := func(p Predicate) {
		for _, param := range p.Params {
			if param.Kind == ParamAccountRef {
				insertRead(param.Ref)
			}
		}
		if p.Code.Kind == CodeAccountRef {
			insertRead(p.Code.Ref)
		}
	}

	visited := make(map[Address]struct{})
	var walkAccount func(addr Address)
	walkAccount = func(addr Address) {
		if _, ok := visited[addr]; ok {
			return
		}
		visited[addr] = struct{}{}

		acct, ok := state.Account(addr)
		if !ok {
			return
		}
		for _, p := range acct.Predicates {
			walkPredicate(p)
		}
		for _, ancestor := range state.Ancestors(addr) {
			walkAccount(ancestor)
		}
	}

	for addr := range writes {
		walkAccount(addr)
	}
	for _, intent := range tx.Intents {
		for _, p := range intent.Expectations {
			walkPredicate(p)
		}
	}

	return TransactionRefs{Reads: reads, Writes: writes}
}

// conflicts reports whether j (the later transaction) depends on k (the
// earlier one): j reads something k writes, or both write the same
// address. Pure read-read overlap is not a conflict.
func conflicts(j, k TransactionRefs) bool {
	for addr := range j.Reads {
		if _, ok := k.Writes[addr]; ok {
			return true
		}
	}
	for addr := range j.Writes {
		if _, ok := k.Writes[addr]; ok {
			return true
		}
	}
	return false
}
