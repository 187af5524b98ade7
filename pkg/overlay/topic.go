// Package overlay implements HyParView, a reactive/cyclic membership
// protocol for reliable gossip-based broadcast over unreliable transports.
//
// Leitão, João & Pereira, José & Rodrigues, Luís. (2007). 419-429.
// 10.1109/DSN.2007.56.
package overlay

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// outboundQueueCapacity bounds the local subscriber channel. A topic whose
// subscriber falls behind drops the newest gossip payload rather than
// blocking protocol processing.
const outboundQueueCapacity = 1024

// dialBackoffBase is the starting delay of the exponential backoff applied
// to a passive peer after a failed promotion dial; it is doubled per
// consecutive failure and capped at the topic's shuffle interval, so a
// promotion dial failure never turns into a retry storm.
const dialBackoffBase = 1 * time.Second

// Topic is one instance of the HyParView overlay for a single logical
// broadcast channel. All mutating operations are serialized behind a single
// writer lock; the publish fan-out reads the active view under the reader
// lock. The outbound subscriber channel is read without any lock.
//
// A Topic is used by reference: construct once with New, share the pointer.
type Topic struct {
	mu sync.RWMutex

	name      string
	topicCfg  TopicConfig
	netConfig NetworkConfig
	self      AddressablePeer
	net       Network
	metrics   *Metrics

	active  map[peer.ID]addrSet
	passive map[peer.ID]addrSet

	// pendingDials holds every address currently being dialed, whether from
	// bootstrap or from a passive-view promotion. Keyed by address string.
	pendingDials addrSet

	// pendingPromotions remembers, by dialed address string, the full
	// AddressablePeer a promotion dial targets — so a failed dial can
	// restore the whole entry to the passive view, and a successful one
	// knows to answer with Neighbor (high priority while the active view is
	// starved) rather than Join.
	pendingPromotions map[string]AddressablePeer

	failures     map[peer.ID]int
	backoffUntil map[peer.ID]time.Time

	// knownAddrs remembers the addresses a PeerConnected event reported for
	// a peer, for the one message (Neighbor) that carries no
	// AddressablePeer of its own to admit with.
	knownAddrs map[peer.ID]addrSet

	seen *recentIDs
	out  chan []byte

	rng *rand.Rand

	closed bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Topic and dials every bootstrap address unconditionally;
// no identity is assumed for any of them. It starts
// one background goroutine driving the periodic ShuffleTick.
func New(topicCfg TopicConfig, bootstrap []ma.Multiaddr, netCfg NetworkConfig, self AddressablePeer, net Network, metrics *Metrics) *Topic {
	ctx, cancel := context.WithCancel(context.Background())

	t := &Topic{
		name:              topicCfg.Name,
		topicCfg:          topicCfg,
		netConfig:         netCfg,
		self:              self.clone(),
		net:               net,
		metrics:           metrics,
		active:            make(map[peer.ID]addrSet),
		passive:           make(map[peer.ID]addrSet),
		pendingDials:      addrSet{},
		pendingPromotions: make(map[string]AddressablePeer),
		failures:          make(map[peer.ID]int),
		backoffUntil:      make(map[peer.ID]time.Time),
		knownAddrs:        make(map[peer.ID]addrSet),
		seen:              newRecentIDs(),
		out:               make(chan []byte, outboundQueueCapacity),
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
		cancel:            cancel,
	}

	for _, addr := range bootstrap {
		t.pendingDials.insert(addr)
		t.net.Connect(addr, t.name)
	}

	if netCfg.ShuffleInterval > 0 {
		t.wg.Add(1)
		go t.shuffleLoop(ctx)
	}

	return t
}

// Close stops the shuffle ticker and waits for it to exit. Dropping the
// outbound command sink is how a topic's lifetime normally ends; Close
// plays that role here since Go has no destructor.
func (t *Topic) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}

// Messages returns the channel of gossip payloads delivered to this node in
// arrival order.
func (t *Topic) Messages() <-chan []byte {
	return t.out
}

// Publish fans a payload out to every current active peer under a freshly
// minted message id. It is a silent no-op if the active view is empty.
func (t *Topic) Publish(data []byte) {
	t.mu.RLock()
	peers := make([]peer.ID, 0, len(t.active))
	for id := range t.active {
		peers = append(peers, id)
	}
	name := t.name
	t.mu.RUnlock()

	if len(peers) == 0 {
		return
	}

	msg := Message{ID: newMessageID(), Topic: name, Action: Gossip{Data: data}}
	for _, p := range peers {
		t.net.SendMessage(p, msg)
	}
}

// InjectEvent delivers a network-layer event to the topic. Safe for
// concurrent use; events are processed one at a time under the writer lock,
// preserving per-peer FIFO ordering.
func (t *Topic) InjectEvent(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	slog.Debug("overlay: event", "topic", t.name, "kind", ev.eventTag())

	switch e := ev.(type) {
	case LocalAddressDiscovered:
		t.handleLocalAddressDiscovered(e.Addr)
	case PeerConnected:
		t.handlePeerConnected(e.Peer)
	case PeerDisconnected:
		t.handlePeerDisconnected(e.Peer, e.Graceful)
	case MessageReceived:
		t.handleMessageReceived(e.Peer, e.Msg)
	case DialFailed:
		t.handleDialFailed(e.Addr)
	}
}

func (t *Topic) handleLocalAddressDiscovered(addr ma.Multiaddr) {
	t.self.Addresses[addr.String()] = addr
}

func newMessageID() MessageID {
	return MessageID(uuid.New())
}

func (t *Topic) sendMessage(p peer.ID, a Action) {
	t.net.SendMessage(p, Message{ID: newMessageID(), Topic: t.name, Action: a})
}
