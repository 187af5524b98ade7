package overlay

import (
	"log/slog"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// maxDialFailures caps the exponential backoff applied to a passive peer;
// beyond this the delay is held at its ceiling rather than grown further.
const maxDialFailures = 6

// handlePeerConnected reacts to a newly established connection. One that
// completes a promotion dial (one the topic itself initiated to fill a
// starved active view) is admitted locally and answered with Neighbor;
// admission is otherwise deferred — a bootstrap or reactive connection only
// sends our own Join while starved, and waits for the peer's Neighbor reply
// before joining its active view.
func (t *Topic) handlePeerConnected(p AddressablePeer) {
	if p.ID == t.self.ID {
		return
	}

	var promotion *AddressablePeer
	for _, addr := range p.AddrList() {
		key := addr.String()
		if promo, ok := t.pendingPromotions[key]; ok {
			promotion = &promo
			delete(t.pendingPromotions, key)
		}
		delete(t.pendingDials, key)
	}

	delete(t.failures, p.ID)
	delete(t.backoffUntil, p.ID)
	t.knownAddrs[p.ID] = newAddrSet(p.AddrList()...)

	if promotion != nil {
		highPriority := t.starved()
		t.admitActive(p.ID, newAddrSet(p.AddrList()...), p.ID)
		t.sendMessage(p.ID, Neighbor{HighPriority: highPriority})
		return
	}

	if _, active := t.active[p.ID]; t.starved() && !active {
		t.sendMessage(p.ID, Join{Node: t.self.clone()})
	}
}

// handlePeerDisconnected removes p from the active view. A graceful
// disconnect demotes it to the passive view; an ungraceful one simply drops
// it. Either way, a resulting starved active view triggers a promotion from
// the passive view.
func (t *Topic) handlePeerDisconnected(p peer.ID, graceful bool) {
	addrs, wasActive := t.active[p]
	delete(t.active, p)

	slog.Info("overlay: peer disconnected", "topic", t.name, "peer", p, "graceful", graceful)

	if graceful && wasActive {
		t.insertPassive(AddressablePeer{ID: p, Addresses: addrs})
	}

	if t.starved() {
		t.promoteFromPassive()
	}
}

// handleDialFailed releases a dial attempt. If it was a promotion, the
// target peer is restored to the passive view under exponential backoff so
// repeated failures don't create a retry storm; a bare bootstrap dial is
// simply forgotten.
func (t *Topic) handleDialFailed(addr ma.Multiaddr) {
	key := addr.String()
	delete(t.pendingDials, key)

	promo, ok := t.pendingPromotions[key]
	if !ok {
		return
	}
	delete(t.pendingPromotions, key)

	t.insertPassive(promo)

	n := t.failures[promo.ID] + 1
	if n > maxDialFailures {
		n = maxDialFailures
	}
	t.failures[promo.ID] = n

	backoff := dialBackoffBase * time.Duration(1<<uint(n-1))
	if ceiling := t.netConfig.ShuffleInterval; ceiling > 0 && backoff > ceiling {
		backoff = ceiling
	}
	t.backoffUntil[promo.ID] = time.Now().Add(backoff)

	slog.Debug("overlay: dial failed", "topic", t.name, "peer", promo.ID, "backoff", backoff)
}

// promoteFromPassive dials a single random, non-backed-off passive peer in
// an attempt to refill a starved active view. A no-op if the passive view
// has nothing eligible.
func (t *Topic) promoteFromPassive() {
	id, addrs, ok := t.randomPassivePeer()
	if !ok {
		return
	}
	peerAddrs := make([]ma.Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		peerAddrs = append(peerAddrs, a)
	}
	if len(peerAddrs) == 0 {
		return
	}

	delete(t.passive, id)

	target := AddressablePeer{ID: id, Addresses: addrs}
	addr := peerAddrs[0]
	t.pendingDials.insert(addr)
	t.pendingPromotions[addr.String()] = target
	t.net.Connect(addr, t.name)
}

// handleMessageReceived dispatches a wire message to its action-specific
// consumer. Messages are deduplicated only for Gossip; membership messages
// are always processed once received, since re-sending them would be a bug
// in the sender rather than ordinary re-broadcast.
func (t *Topic) handleMessageReceived(from peer.ID, msg Message) {
	if msg.Topic != t.name {
		return
	}

	action := msg.Action
	t.metrics.incReceived(t.name, actionName(action))

	switch a := action.(type) {
	case Join:
		t.consumeJoin(from, a)
	case ForwardJoin:
		t.consumeForwardJoin(from, a)
	case Neighbor:
		t.consumeNeighbor(from, a)
	case Shuffle:
		t.consumeShuffle(from, a)
	case ShuffleReply:
		t.consumeShuffleReply(from, a)
	case Disconnect:
		t.consumeDisconnect(from, a)
	case Gossip:
		t.consumeGossip(msg.ID, from, a)
	}
}

func actionName(a Action) string {
	switch a.(type) {
	case Join:
		return "join"
	case ForwardJoin:
		return "forward_join"
	case Neighbor:
		return "neighbor"
	case Shuffle:
		return "shuffle"
	case ShuffleReply:
		return "shuffle_reply"
	case Disconnect:
		return "disconnect"
	case Gossip:
		return "gossip"
	default:
		return "unknown"
	}
}

// consumeJoin, while the active view has room, admits the sender, answers
// with a high-priority Neighbor, and propagates the advertisement to every
// other active peer as a ForwardJoin starting at hop zero. The entire
// sequence is skipped outright once the active view is saturated.
func (t *Topic) consumeJoin(from peer.ID, j Join) {
	if j.Node.ID == t.self.ID {
		return
	}
	if t.saturated() {
		return
	}

	t.admitActive(j.Node.ID, newAddrSet(j.Node.AddrList()...), from)
	t.sendMessage(j.Node.ID, Neighbor{HighPriority: true})

	for id := range t.active {
		if id == j.Node.ID {
			continue
		}
		t.sendMessage(id, ForwardJoin{Peer: j.Node, Hop: 0})
	}
}

// consumeForwardJoin admits the advertised peer directly once the hop count
// has reached the configured bound, or if this node's active view
// (excluding the sender) is currently empty. Otherwise it seeds the passive
// view with the advertised peer while the active view is not saturated, and
// in either case relays the advertisement one hop further to one random
// active peer other than the sender.
func (t *Topic) consumeForwardJoin(from peer.ID, fj ForwardJoin) {
	if fj.Peer.ID == t.self.ID {
		return
	}

	if fj.Hop == uint16(t.netConfig.ForwardJoinHopsCount) || t.activeSizeExcluding(from) == 0 {
		t.admitActive(fj.Peer.ID, newAddrSet(fj.Peer.AddrList()...), from)
		t.sendMessage(fj.Peer.ID, Neighbor{HighPriority: true})
		return
	}

	if !t.saturated() {
		_, inActive := t.active[fj.Peer.ID]
		_, inPassive := t.passive[fj.Peer.ID]
		if !inActive && !inPassive {
			t.insertPassive(fj.Peer.clone())
		}
	}

	next, ok := t.randomActiveExcept(from)
	if !ok {
		return
	}
	t.sendMessage(next, ForwardJoin{Peer: fj.Peer, Hop: fj.Hop + 1})
}

// consumeNeighbor accepts the sender into the active view. A high-priority
// request must always be accepted, evicting a random incumbent if
// necessary; a low-priority one is accepted only while the active view has
// room, and otherwise the sender is recorded in the passive view and sent a
// Disconnect.
func (t *Topic) consumeNeighbor(from peer.ID, n Neighbor) {
	addrs := t.active[from]
	if addrs == nil {
		addrs = t.passive[from]
	}
	if addrs == nil {
		addrs = t.knownAddrs[from]
	}
	if n.HighPriority || !t.saturated() {
		t.admitActive(from, addrs, from)
		return
	}
	t.insertPassive(AddressablePeer{ID: from, Addresses: addrs})
	t.sendMessage(from, Disconnect{})
}

// consumeDisconnect removes the sender from the active view, demoting it to
// passive, and attempts to refill the active view if this leaves it
// starved.
func (t *Topic) consumeDisconnect(from peer.ID, _ Disconnect) {
	addrs, ok := t.active[from]
	if !ok {
		return
	}
	delete(t.active, from)
	t.insertPassive(AddressablePeer{ID: from, Addresses: addrs})
	t.net.Disconnect(from, t.name)

	if t.starved() {
		t.promoteFromPassive()
	}
}

// consumeGossip delivers a novel payload to the local subscriber and
// re-broadcasts it to every other active peer (flood-with-dedup). Payloads
// already in the recent-id window are dropped silently; this is the sole
// place re-broadcast loops are cut.
func (t *Topic) consumeGossip(id MessageID, from peer.ID, g Gossip) {
	if t.seen.contains(id) {
		return
	}
	t.seen.add(id)
	t.metrics.setGossipSize(t.name, len(g.Data))

	select {
	case t.out <- g.Data:
	default:
		t.metrics.incDropped(t.name, "subscriber_slow")
		slog.Warn("overlay: dropping gossip, subscriber channel full", "topic", t.name)
	}

	msg := Message{ID: id, Topic: t.name, Action: g}
	for peerID := range t.active {
		if peerID == from {
			continue
		}
		t.net.SendMessage(peerID, msg)
	}
}
