package overlay

import (
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// Network is the opaque transport facade the overlay core drives. It owns
// sockets, framing, and peer handshakes; the core only ever issues these
// three commands. Implementations must be non-blocking: a Topic calls these while
// holding no lock it cannot release quickly, and expects the call to enqueue
// work rather than perform it synchronously.
type Network interface {
	// Connect asks the network layer to dial addr on behalf of topic. The
	// resulting connection surfaces later as a PeerConnected event.
	Connect(addr ma.Multiaddr, topic string)

	// Disconnect tears down the connection to peer on topic.
	Disconnect(p peer.ID, topic string)

	// SendMessage delivers msg to peer on the topic named in msg.Topic. A
	// send that cannot reach the peer is a silently lost message; the
	// protocol is tolerant of this.
	SendMessage(p peer.ID, msg Message)
}

// Event is the tagged union of notifications the network layer injects into
// a Topic.
type Event interface {
	eventTag() string
}

// LocalAddressDiscovered reports a new address at which this node is
// reachable (e.g. after NAT traversal or interface discovery).
type LocalAddressDiscovered struct {
	Addr ma.Multiaddr
}

func (LocalAddressDiscovered) eventTag() string { return "local_address_discovered" }

// PeerConnected reports that a full-duplex connection now exists to Peer.
type PeerConnected struct {
	Peer AddressablePeer
}

func (PeerConnected) eventTag() string { return "peer_connected" }

// PeerDisconnected reports that the connection to Peer ended. Graceful
// disconnects are the only authoritative evidence of voluntary departure;
// anything else (timeout, reset) is reported as ungraceful.
type PeerDisconnected struct {
	Peer     peer.ID
	Graceful bool
}

func (PeerDisconnected) eventTag() string { return "peer_disconnected" }

// MessageReceived reports a wire Message arriving from Peer. Per-peer
// ordering is preserved: this matches the underlying connection's FIFO.
type MessageReceived struct {
	Peer peer.ID
	Msg  Message
}

func (MessageReceived) eventTag() string { return "message_received" }

// DialFailed reports that a Connect requested by the topic never produced a
// PeerConnected event. This is not part of the wire protocol; it closes a
// gap left by the network facade so the overlay can release a pending
// promotion back to the passive view and apply dial backoff instead of
// waiting forever for a connection that will never arrive.
type DialFailed struct {
	Addr ma.Multiaddr
}

func (DialFailed) eventTag() string { return "dial_failed" }
