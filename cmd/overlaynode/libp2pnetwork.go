package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/shurlinet/shurlichain/pkg/overlay"
	"github.com/shurlinet/shurlichain/pkg/overlay/wire"
)

// gossipProtocol is the libp2p stream protocol this node speaks for every
// overlay topic; the topic a frame belongs to is carried inside the wire
// message itself (see pkg/overlay/wire), not in the protocol id.
const gossipProtocol protocol.ID = "/overlaynode/gossip/1.0.0"

const dialTimeout = 15 * time.Second

// libp2pNetwork implements overlay.Network over a real libp2p host. One
// instance is shared by every topic on the node; topics register themselves
// by name so inbound events can be routed back to the right Topic.
type libp2pNetwork struct {
	host host.Host

	mu          sync.Mutex
	topics      map[string]*overlay.Topic
	pendingDial map[string]string // addr string -> topic name, cleared on connect or failure
	streams     map[peer.ID]network.Stream
}

func newLibp2pNetwork(h host.Host) *libp2pNetwork {
	n := &libp2pNetwork{
		host:        h,
		topics:      make(map[string]*overlay.Topic),
		pendingDial: make(map[string]string),
		streams:     make(map[peer.ID]network.Stream),
	}
	h.SetStreamHandler(gossipProtocol, n.handleStream)
	h.Network().Notify(&network.NotifyBundle{
		DisconnectedF: n.onDisconnected,
	})
	return n
}

func (n *libp2pNetwork) register(name string, t *overlay.Topic) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics[name] = t
}

// Connect implements overlay.Network.
func (n *libp2pNetwork) Connect(addr ma.Multiaddr, topicName string) {
	n.mu.Lock()
	n.pendingDial[addr.String()] = topicName
	n.mu.Unlock()

	go func() {
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			n.failDial(addr)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		if err := n.host.Connect(ctx, *info); err != nil {
			slog.Warn("overlaynode: dial failed", "addr", addr, "err", err)
			n.failDial(addr)
			return
		}

		n.mu.Lock()
		delete(n.pendingDial, addr.String())
		topic, ok := n.topics[topicName]
		n.mu.Unlock()

		if ok {
			topic.InjectEvent(overlay.PeerConnected{
				Peer: overlay.NewAddressablePeer(info.ID, addr),
			})
		}
	}()
}

func (n *libp2pNetwork) failDial(addr ma.Multiaddr) {
	n.mu.Lock()
	topicName, ok := n.pendingDial[addr.String()]
	delete(n.pendingDial, addr.String())
	topic := n.topics[topicName]
	n.mu.Unlock()

	if ok && topic != nil {
		topic.InjectEvent(overlay.DialFailed{Addr: addr})
	}
}

// Disconnect implements overlay.Network.
func (n *libp2pNetwork) Disconnect(p peer.ID, _ string) {
	_ = n.host.Network().ClosePeer(p)
}

// SendMessage implements overlay.Network. Streams are opened lazily and
// kept around per remote peer; a write failure drops the cached stream so
// the next send retries a fresh one.
func (n *libp2pNetwork) SendMessage(p peer.ID, msg overlay.Message) {
	s, err := n.streamTo(p)
	if err != nil {
		slog.Debug("overlaynode: send dropped, no stream", "peer", p, "err", err)
		return
	}
	if err := wire.WriteFrame(s, msg); err != nil {
		slog.Debug("overlaynode: send failed, discarding stream", "peer", p, "err", err)
		n.mu.Lock()
		delete(n.streams, p)
		n.mu.Unlock()
		s.Close()
	}
}

func (n *libp2pNetwork) streamTo(p peer.ID) (network.Stream, error) {
	n.mu.Lock()
	if s, ok := n.streams[p]; ok {
		n.mu.Unlock()
		return s, nil
	}
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	s, err := n.host.NewStream(ctx, p, gossipProtocol)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.streams[p] = s
	n.mu.Unlock()
	return s, nil
}

// handleStream reads frames off an inbound stream until it closes or a
// frame fails to decode, broadcasting each as a MessageReceived event to
// every topic registered on this node (the wire message's own Topic field
// lets each Topic ignore traffic addressed elsewhere).
func (n *libp2pNetwork) handleStream(s network.Stream) {
	remote := s.Conn().RemotePeer()
	defer s.Close()

	for {
		msg, err := wire.ReadFrame(s)
		if err != nil {
			if errors.Is(err, overlay.ErrMalformedMessage) || errors.Is(err, overlay.ErrUnknownActionTag) {
				slog.Warn("overlaynode: discarding malformed frame", "peer", remote, "err", err)
			}
			return
		}

		// Snapshot under the lock, inject outside it: a Topic handler may
		// call back into SendMessage, which takes n.mu.
		n.mu.Lock()
		topics := make([]*overlay.Topic, 0, len(n.topics))
		for _, topic := range n.topics {
			topics = append(topics, topic)
		}
		n.mu.Unlock()

		for _, topic := range topics {
			topic.InjectEvent(overlay.MessageReceived{Peer: remote, Msg: msg})
		}
	}
}

func (n *libp2pNetwork) onDisconnected(_ network.Network, c network.Conn) {
	remote := c.RemotePeer()
	n.mu.Lock()
	delete(n.streams, remote)
	topics := make([]*overlay.Topic, 0, len(n.topics))
	for _, topic := range n.topics {
		topics = append(topics, topic)
	}
	n.mu.Unlock()

	for _, topic := range topics {
		topic.InjectEvent(overlay.PeerDisconnected{Peer: remote, Graceful: false})
	}
}
