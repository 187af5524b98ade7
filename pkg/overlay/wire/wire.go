// Package wire encodes and decodes overlay.Message values to the
// length-prefixed binary record described for this protocol, so a real
// transport can exchange them byte-for-byte compatibly with another
// implementation. The overlay core itself never imports this package: it
// exchanges overlay.Message values directly through the Network facade, and
// only a concrete Network adapter needs a wire form at all.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/shurlinet/shurlichain/pkg/overlay"
)

// Action tags. Must match overlay's actionTag() assignment exactly.
const (
	tagJoin         byte = 0
	tagForwardJoin  byte = 1
	tagNeighbor     byte = 2
	tagShuffle      byte = 3
	tagShuffleReply byte = 4
	tagDisconnect   byte = 5
	tagGossip       byte = 6
)

// maxFrameSize bounds a single decoded record, guarding against a corrupt or
// hostile length prefix driving an unbounded allocation.
const maxFrameSize = 16 << 20 // 16 MiB

// WriteFrame writes msg to w as a 4-byte big-endian length prefix followed
// by its encoded record.
func WriteFrame(w io.Writer, msg overlay.Message) error {
	body, err := Encode(msg)
	if err != nil {
		return err
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed record from r and decodes it.
func ReadFrame(r io.Reader) (overlay.Message, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return overlay.Message{}, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n > maxFrameSize {
		return overlay.Message{}, fmt.Errorf("%w: frame of %d bytes exceeds limit", overlay.ErrMalformedMessage, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return overlay.Message{}, err
	}
	return Decode(body)
}

// Encode serializes msg as { id: 16 bytes, topic: length-prefixed utf-8,
// action: 1-byte tag + tag-specific body }.
func Encode(msg overlay.Message) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(msg.ID[:])
	if err := writeString(&buf, msg.Topic); err != nil {
		return nil, err
	}

	switch a := msg.Action.(type) {
	case overlay.Join:
		buf.WriteByte(tagJoin)
		if err := writePeer(&buf, a.Node); err != nil {
			return nil, err
		}
	case overlay.ForwardJoin:
		buf.WriteByte(tagForwardJoin)
		if err := writePeer(&buf, a.Peer); err != nil {
			return nil, err
		}
		writeUint16(&buf, a.Hop)
	case overlay.Neighbor:
		buf.WriteByte(tagNeighbor)
		if a.HighPriority {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case overlay.Shuffle:
		buf.WriteByte(tagShuffle)
		if err := writePeer(&buf, a.Origin); err != nil {
			return nil, err
		}
		writeUint16(&buf, a.Hop)
		writeUint16(&buf, uint16(len(a.Peers)))
		for _, p := range a.Peers {
			if err := writePeer(&buf, p); err != nil {
				return nil, err
			}
		}
	case overlay.ShuffleReply:
		buf.WriteByte(tagShuffleReply)
		writeUint16(&buf, uint16(len(a.Peers)))
		for _, p := range a.Peers {
			if err := writePeer(&buf, p); err != nil {
				return nil, err
			}
		}
	case overlay.Disconnect:
		buf.WriteByte(tagDisconnect)
	case overlay.Gossip:
		buf.WriteByte(tagGossip)
		writeUint32(&buf, uint32(len(a.Data)))
		buf.Write(a.Data)
	default:
		return nil, fmt.Errorf("wire: %w: unrecognized action %T", overlay.ErrUnknownActionTag, msg.Action)
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode.
func Decode(body []byte) (overlay.Message, error) {
	r := bytes.NewReader(body)

	var msg overlay.Message
	if _, err := io.ReadFull(r, msg.ID[:]); err != nil {
		return overlay.Message{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}

	topic, err := readString(r)
	if err != nil {
		return overlay.Message{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}
	msg.Topic = topic

	tag, err := r.ReadByte()
	if err != nil {
		return overlay.Message{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}

	switch tag {
	case tagJoin:
		p, err := readPeer(r)
		if err != nil {
			return overlay.Message{}, err
		}
		msg.Action = overlay.Join{Node: p}
	case tagForwardJoin:
		p, err := readPeer(r)
		if err != nil {
			return overlay.Message{}, err
		}
		hop, err := readUint16(r)
		if err != nil {
			return overlay.Message{}, err
		}
		msg.Action = overlay.ForwardJoin{Peer: p, Hop: hop}
	case tagNeighbor:
		b, err := r.ReadByte()
		if err != nil {
			return overlay.Message{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
		}
		msg.Action = overlay.Neighbor{HighPriority: b != 0}
	case tagShuffle:
		origin, err := readPeer(r)
		if err != nil {
			return overlay.Message{}, err
		}
		hop, err := readUint16(r)
		if err != nil {
			return overlay.Message{}, err
		}
		peers, err := readPeerList(r)
		if err != nil {
			return overlay.Message{}, err
		}
		msg.Action = overlay.Shuffle{Origin: origin, Peers: peers, Hop: hop}
	case tagShuffleReply:
		peers, err := readPeerList(r)
		if err != nil {
			return overlay.Message{}, err
		}
		msg.Action = overlay.ShuffleReply{Peers: peers}
	case tagDisconnect:
		msg.Action = overlay.Disconnect{}
	case tagGossip:
		n, err := readUint32(r)
		if err != nil {
			return overlay.Message{}, err
		}
		if uint64(n) > uint64(maxFrameSize) {
			return overlay.Message{}, fmt.Errorf("wire: %w: gossip payload of %d bytes", overlay.ErrMalformedMessage, n)
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return overlay.Message{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
		}
		msg.Action = overlay.Gossip{Data: data}
	default:
		return overlay.Message{}, fmt.Errorf("wire: %w: tag %d", overlay.ErrUnknownActionTag, tag)
	}

	if r.Len() != 0 {
		return overlay.Message{}, fmt.Errorf("wire: %w: %d trailing bytes", overlay.ErrMalformedMessage, r.Len())
	}

	return msg, nil
}

// writePeer encodes an AddressablePeer as its peer id, length-prefixed, then
// a length-prefixed list of length-prefixed multiaddr strings. A literal
// fixed 32-byte peer-id field does not survive real libp2p keys of varying
// multihash length, so the id itself carries its own 2-byte length prefix.
func writePeer(buf *bytes.Buffer, p overlay.AddressablePeer) error {
	idBytes := []byte(p.ID)
	writeUint16(buf, uint16(len(idBytes)))
	buf.Write(idBytes)

	addrs := p.AddrList()
	writeUint16(buf, uint16(len(addrs)))
	for _, a := range addrs {
		if err := writeString(buf, a.String()); err != nil {
			return err
		}
	}
	return nil
}

func readPeer(r *bytes.Reader) (overlay.AddressablePeer, error) {
	idLen, err := readUint16(r)
	if err != nil {
		return overlay.AddressablePeer{}, err
	}
	idBytes := make([]byte, idLen)
	if _, err := io.ReadFull(r, idBytes); err != nil {
		return overlay.AddressablePeer{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}

	addrCount, err := readUint16(r)
	if err != nil {
		return overlay.AddressablePeer{}, err
	}
	addrs := make([]ma.Multiaddr, 0, addrCount)
	for i := uint16(0); i < addrCount; i++ {
		s, err := readString(r)
		if err != nil {
			return overlay.AddressablePeer{}, err
		}
		addr, err := ma.NewMultiaddr(s)
		if err != nil {
			return overlay.AddressablePeer{}, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
		}
		addrs = append(addrs, addr)
	}

	return overlay.NewAddressablePeer(peer.ID(idBytes), addrs...), nil
}

func readPeerList(r *bytes.Reader) ([]overlay.AddressablePeer, error) {
	count, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	out := make([]overlay.AddressablePeer, 0, count)
	for i := uint16(0); i < count; i++ {
		p, err := readPeer(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 1<<16-1 {
		return fmt.Errorf("wire: string of %d bytes exceeds length-prefix range", len(s))
	}
	writeUint16(buf, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}
	return string(b), nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("wire: %w: %v", overlay.ErrMalformedMessage, err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
