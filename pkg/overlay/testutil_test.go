package overlay

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// fakeNetwork is a minimal in-memory Network used by this package's tests.
// It never actually connects anything; tests simulate the network layer's
// reaction by calling InjectEvent directly, as the real network would after
// performing the requested I/O.
type fakeNetwork struct {
	mu      sync.Mutex
	dials   []ma.Multiaddr
	sent    []sentMessage
	dropped int
}

type sentMessage struct {
	To  peer.ID
	Msg Message
}

func (n *fakeNetwork) Connect(addr ma.Multiaddr, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dials = append(n.dials, addr)
}

func (n *fakeNetwork) Disconnect(peer.ID, string) {}

func (n *fakeNetwork) SendMessage(p peer.ID, msg Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{To: p, Msg: msg})
}

func (n *fakeNetwork) sentTo(p peer.ID) []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Message
	for _, s := range n.sent {
		if s.To == p {
			out = append(out, s.Msg)
		}
	}
	return out
}

func (n *fakeNetwork) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func mustAddr(s string) ma.Multiaddr {
	a, err := ma.NewMultiaddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func testPeer(id string, addr string) AddressablePeer {
	return NewAddressablePeer(peer.ID(id), mustAddr(addr))
}

func noShuffleConfig() NetworkConfig {
	cfg := DefaultNetworkConfig()
	cfg.ShuffleInterval = 0 // disable the background ticker for deterministic tests
	return cfg
}
