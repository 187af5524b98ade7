package wire

import (
	"bytes"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/shurlinet/shurlichain/pkg/overlay"
)

func mustAddr(t *testing.T, s string) ma.Multiaddr {
	t.Helper()
	a, err := ma.NewMultiaddr(s)
	if err != nil {
		t.Fatalf("bad multiaddr %q: %v", s, err)
	}
	return a
}

func samplePeer(t *testing.T, id string, addrs ...string) overlay.AddressablePeer {
	t.Helper()
	mas := make([]ma.Multiaddr, len(addrs))
	for i, a := range addrs {
		mas[i] = mustAddr(t, a)
	}
	return overlay.NewAddressablePeer(peer.ID(id), mas...)
}

func roundTrip(t *testing.T, msg overlay.Message) overlay.Message {
	t.Helper()
	body, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripEachAction(t *testing.T) {
	peerA := samplePeer(t, "node-a", "/ip4/1.2.3.4/tcp/4001", "/ip4/1.2.3.4/udp/4001/quic-v1")
	peerB := samplePeer(t, "node-b", "/ip4/5.6.7.8/tcp/4001")

	cases := []overlay.Action{
		overlay.Join{Node: peerA},
		overlay.ForwardJoin{Peer: peerA, Hop: 4},
		overlay.Neighbor{HighPriority: true},
		overlay.Neighbor{HighPriority: false},
		overlay.Shuffle{Origin: peerA, Peers: []overlay.AddressablePeer{peerB}, Hop: 2},
		overlay.ShuffleReply{Peers: []overlay.AddressablePeer{peerA, peerB}},
		overlay.Disconnect{},
		overlay.Gossip{Data: []byte("the quick brown fox")},
	}

	for _, action := range cases {
		msg := overlay.Message{ID: overlay.MessageID{1, 2, 3}, Topic: "demo-topic", Action: action}
		got := roundTrip(t, msg)

		if got.ID != msg.ID || got.Topic != msg.Topic {
			t.Fatalf("envelope mismatch: got %+v, want %+v", got, msg)
		}

		// Encoding is deterministic, so the decoded action must re-encode
		// to exactly the original bytes.
		want, err := Encode(msg)
		if err != nil {
			t.Fatalf("Encode original: %v", err)
		}
		again, err := Encode(got)
		if err != nil {
			t.Fatalf("Encode decoded: %v", err)
		}
		if !bytes.Equal(again, want) {
			t.Fatalf("action %T did not round-trip: got %+v", action, got.Action)
		}
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	msg := overlay.Message{ID: overlay.MessageID{9}, Topic: "x", Action: overlay.Disconnect{}}
	body, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// The tag byte follows a 16-byte id and a 2-byte length-prefixed topic.
	tagOffset := 16 + 2 + len("x")
	corrupt := append([]byte(nil), body...)
	corrupt[tagOffset] = 0xFF

	if _, err := Decode(corrupt); err == nil {
		t.Fatalf("expected an error decoding an unknown action tag")
	}
}

func TestWriteReadFrame(t *testing.T) {
	msg := overlay.Message{
		ID:     overlay.MessageID{0xAA},
		Topic:  "frame-topic",
		Action: overlay.Gossip{Data: []byte("framed payload")},
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, msg); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Topic != msg.Topic {
		t.Fatalf("got topic %q, want %q", got.Topic, msg.Topic)
	}
	gossip, ok := got.Action.(overlay.Gossip)
	if !ok {
		t.Fatalf("expected Gossip action, got %T", got.Action)
	}
	if string(gossip.Data) != "framed payload" {
		t.Fatalf("got payload %q", gossip.Data)
	}
}
