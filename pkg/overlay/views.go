package overlay

import (
	"math/rand"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// starved reports whether the active view is below the minimum size.
func (t *Topic) starved() bool {
	return len(t.active) < t.netConfig.minActiveViewSize()
}

// saturated reports whether the active view is at or above the maximum
// size.
func (t *Topic) saturated() bool {
	return len(t.active) >= t.netConfig.maxActiveViewSize()
}

// admitActive adds id (with addrs merged into whatever addresses are
// already known for it) to the active view, evicting a uniformly random
// active peer other than evictExcept to the passive view first if the
// active view is saturated. It never admits the local identity.
func (t *Topic) admitActive(id peer.ID, addrs addrSet, evictExcept peer.ID) {
	if id == t.self.ID {
		return
	}
	if t.saturated() {
		t.evictRandomActive(evictExcept, id)
	}
	delete(t.passive, id)
	existing, ok := t.active[id]
	if !ok {
		existing = addrSet{}
		t.active[id] = existing
	}
	for k, v := range addrs {
		existing[k] = v
	}
}

// evictRandomActive moves one uniformly random active peer, other than
// except1 and except2, to the passive view. A fresh random draw is taken
// every call rather than a cached iterator, to avoid pathological clustering.
func (t *Topic) evictRandomActive(except1, except2 peer.ID) {
	candidates := make([]peer.ID, 0, len(t.active))
	for id := range t.active {
		if id == except1 || id == except2 {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return
	}
	victim := candidates[t.rng.Intn(len(candidates))]
	addrs := t.active[victim]
	delete(t.active, victim)
	t.insertPassive(AddressablePeer{ID: victim, Addresses: addrs})
}

// insertPassive adds p to the passive view, evicting a uniform-random entry
// (possibly p itself) if this overflows max_passive_view_size. Addresses are
// merged if the peer is already present.
func (t *Topic) insertPassive(p AddressablePeer) {
	if p.ID == t.self.ID {
		return
	}
	if _, active := t.active[p.ID]; active {
		return
	}
	existing, ok := t.passive[p.ID]
	if !ok {
		existing = addrSet{}
		t.passive[p.ID] = existing
	}
	for k, v := range p.Addresses {
		existing[k] = v
	}

	if len(t.passive) > t.netConfig.maxPassiveViewSize() {
		ids := make([]peer.ID, 0, len(t.passive))
		for id := range t.passive {
			ids = append(ids, id)
		}
		victim := ids[t.rng.Intn(len(ids))]
		delete(t.passive, victim)
	}
}

// randomActiveExcept returns a uniformly random active peer id other than
// except, and whether one was found.
func (t *Topic) randomActiveExcept(except peer.ID) (peer.ID, bool) {
	candidates := make([]peer.ID, 0, len(t.active))
	for id := range t.active {
		if id != except {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[t.rng.Intn(len(candidates))], true
}

// activeSizeExcluding returns len(active) not counting except, used to
// detect the "active view is currently empty besides the sender" case in
// consumeForwardJoin.
func (t *Topic) activeSizeExcluding(except peer.ID) int {
	n := len(t.active)
	if _, ok := t.active[except]; ok {
		n--
	}
	return n
}

// randomPassivePeer returns a uniformly random passive peer not currently
// in dial backoff, and whether one was found.
func (t *Topic) randomPassivePeer() (peer.ID, addrSet, bool) {
	now := time.Now()
	candidates := make([]peer.ID, 0, len(t.passive))
	for id := range t.passive {
		if until, ok := t.backoffUntil[id]; ok && until.After(now) {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return "", nil, false
	}
	id := candidates[t.rng.Intn(len(candidates))]
	return id, t.passive[id], true
}

// sampleIDs draws up to n elements uniformly without replacement from ids.
func sampleIDs(rng *rand.Rand, ids []peer.ID, n int) []peer.ID {
	if n >= len(ids) {
		out := make([]peer.ID, len(ids))
		copy(out, ids)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
	idx := rng.Perm(len(ids))[:n]
	out := make([]peer.ID, n)
	for i, j := range idx {
		out[i] = ids[j]
	}
	return out
}
