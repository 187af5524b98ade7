package overlay

import "fmt"

// MessageID is a random 128-bit value minted by the originating node and
// used by receivers to deduplicate re-broadcast gossip.
type MessageID [16]byte

// Action is the tagged union of HyParView/gossip wire actions. The tag
// assignment in the comment on each concrete type matches the byte layout
// pkg/overlay/wire encodes so it can round-trip it exactly.
type Action interface {
	actionTag() byte
}

// Join (tag 0) requests that the receiver consider admitting the sender
// into its active view, forwarding the request onward if it cannot.
type Join struct {
	Node AddressablePeer
}

func (Join) actionTag() byte { return 0 }

// ForwardJoin (tag 1) propagates a Join advertisement N hops through the
// active-view mesh.
type ForwardJoin struct {
	Peer AddressablePeer
	Hop  uint16
}

func (ForwardJoin) actionTag() byte { return 1 }

// Neighbor (tag 2) asks the receiver to accept the sender into its active
// view. HighPriority neighbor requests must always be accepted.
type Neighbor struct {
	HighPriority bool
}

func (Neighbor) actionTag() byte { return 2 }

// Shuffle (tag 3) is a periodic peer-sample exchange that refreshes passive
// views.
type Shuffle struct {
	Origin AddressablePeer
	Peers  []AddressablePeer
	Hop    uint16
}

func (Shuffle) actionTag() byte { return 3 }

// ShuffleReply (tag 4) answers a Shuffle with a complementary sample.
type ShuffleReply struct {
	Peers []AddressablePeer
}

func (ShuffleReply) actionTag() byte { return 4 }

// Disconnect (tag 5) tells the receiver the sender is dropping it from its
// active view.
type Disconnect struct{}

func (Disconnect) actionTag() byte { return 5 }

// Gossip (tag 6) carries an application payload for broadcast.
type Gossip struct {
	Data []byte
}

func (Gossip) actionTag() byte { return 6 }

// Message is the topic-internal wire form: an id for dedup, the topic name
// for demultiplexing, and the action payload.
type Message struct {
	ID     MessageID
	Topic  string
	Action Action
}

func (m Message) String() string {
	return fmt.Sprintf("Message{id=%x topic=%q action=%T}", m.ID[:4], m.Topic, m.Action)
}
