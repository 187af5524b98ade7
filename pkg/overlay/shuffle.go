package overlay

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// shuffleLoop drives the periodic passive-view refresh. It runs until ctx is
// canceled by Close.
func (t *Topic) shuffleLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.netConfig.ShuffleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.closed {
				t.onShuffleTick()
			}
			t.mu.Unlock()
		}
	}
}

// onShuffleTick picks one random active peer and sends it a sample of this
// node's own views (including, per the protocol, this node's own identity)
// so distant nodes can learn of it.
func (t *Topic) onShuffleTick() {
	if t.rng.Float64() > t.netConfig.ShuffleProbability {
		return
	}

	target, ok := t.randomActiveExcept("")
	if !ok {
		return
	}

	sample := t.sampleOwnViews(t.netConfig.ShuffleSampleSize, target, true, nil)
	if len(sample) == 0 {
		return
	}

	t.sendMessage(target, Shuffle{
		Origin: t.self.clone(),
		Peers:  sample,
		Hop:    0,
	})
}

// sampleOwnViews draws up to n peers from the union of the active and
// passive views, excluding except. If includeSelf, the local identity is
// itself eligible. exclude additionally filters out any peer id present in
// it, used to avoid echoing back peers the caller already knows about.
func (t *Topic) sampleOwnViews(n int, except peer.ID, includeSelf bool, exclude map[peer.ID]struct{}) []AddressablePeer {
	ids := make([]peer.ID, 0, len(t.active)+len(t.passive)+1)
	add := func(id peer.ID) {
		if id == except {
			return
		}
		if _, skip := exclude[id]; skip {
			return
		}
		ids = append(ids, id)
	}
	for id := range t.active {
		add(id)
	}
	for id := range t.passive {
		add(id)
	}
	if includeSelf {
		add(t.self.ID)
	}

	chosen := sampleIDs(t.rng, ids, n)
	out := make([]AddressablePeer, 0, len(chosen))
	for _, id := range chosen {
		if id == t.self.ID {
			out = append(out, t.self.clone())
			continue
		}
		addrs := t.active[id]
		if addrs == nil {
			addrs = t.passive[id]
		}
		out = append(out, AddressablePeer{ID: id, Addresses: addrs})
	}
	return out
}

// consumeShuffle relays the message one hop further while the hop budget
// and active view allow it; otherwise it absorbs the sampled peers into its
// own passive view and answers the origin with a complementary sample drawn
// from peers the origin did not already report knowing about.
func (t *Topic) consumeShuffle(from peer.ID, s Shuffle) {
	if int(s.Hop) < t.netConfig.ShuffleHopsCount && t.activeSizeExcluding(from) > 0 {
		if next, ok := t.randomActiveExcept(from); ok {
			t.sendMessage(next, Shuffle{Origin: s.Origin, Peers: s.Peers, Hop: s.Hop + 1})
			return
		}
	}

	reported := make(map[peer.ID]struct{}, len(s.Peers))
	for _, p := range s.Peers {
		reported[p.ID] = struct{}{}
		t.insertPassive(p.clone())
	}

	if s.Origin.ID == t.self.ID {
		return
	}

	reply := t.sampleOwnViews(t.netConfig.ShufflePassiveSize, s.Origin.ID, false, reported)
	t.sendMessage(s.Origin.ID, ShuffleReply{Peers: reply})
}

// consumeShuffleReply merges the responder's sample into the passive view,
// completing one shuffle round.
func (t *Topic) consumeShuffleReply(_ peer.ID, r ShuffleReply) {
	for _, p := range r.Peers {
		t.insertPassive(p.clone())
	}
}
