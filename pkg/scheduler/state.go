package scheduler

// Overlayed is the scheduler-side read-through facade: it answers Account
// lookups from an accumulated diff first, falling back to the batch's base
// State; Ancestors lookups always go to the base State. Later rows in the same tree see every prior row's
// committed mutations through this facade without the base State ever
// being mutated itself.
type Overlayed struct {
	base State
	diff StateDiff
}

// NewOverlayed builds a read-through view of base layered with diff.
func NewOverlayed(base State, diff StateDiff) *Overlayed {
	return &Overlayed{base: base, diff: diff}
}

func (o *Overlayed) Account(addr Address) (Account, bool) {
	if acct, ok := o.diff[addr]; ok {
		return acct, true
	}
	return o.base.Account(addr)
}

func (o *Overlayed) Ancestors(addr Address) []Address {
	return o.base.Ancestors(addr)
}
