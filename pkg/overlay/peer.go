package overlay

import (
	"sort"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// AddressablePeer is a peer identity plus every network address it is
// currently known to be reachable at. Addresses are keyed by their string
// form because ma.Multiaddr is an interface and not safe to use as a map
// key directly.
type AddressablePeer struct {
	ID        peer.ID
	Addresses map[string]ma.Multiaddr
}

// NewAddressablePeer builds an AddressablePeer from a peer ID and a list of
// addresses, deduplicating by string form.
func NewAddressablePeer(id peer.ID, addrs ...ma.Multiaddr) AddressablePeer {
	p := AddressablePeer{ID: id, Addresses: make(map[string]ma.Multiaddr, len(addrs))}
	for _, a := range addrs {
		p.Addresses[a.String()] = a
	}
	return p
}

// AddrList returns the peer's addresses as a slice, sorted for deterministic
// wire encoding and test assertions.
func (p AddressablePeer) AddrList() []ma.Multiaddr {
	out := make([]ma.Multiaddr, 0, len(p.Addresses))
	for _, a := range p.Addresses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// clone returns a deep-enough copy safe to store outside the caller's lock.
func (p AddressablePeer) clone() AddressablePeer {
	cp := AddressablePeer{ID: p.ID, Addresses: make(map[string]ma.Multiaddr, len(p.Addresses))}
	for k, v := range p.Addresses {
		cp.Addresses[k] = v
	}
	return cp
}

// addrSet is a set of multiaddrs keyed by string form.
type addrSet map[string]ma.Multiaddr

func newAddrSet(addrs ...ma.Multiaddr) addrSet {
	s := make(addrSet, len(addrs))
	for _, a := range addrs {
		s[a.String()] = a
	}
	return s
}

func (s addrSet) contains(a ma.Multiaddr) bool {
	_, ok := s[a.String()]
	return ok
}

func (s addrSet) insert(a ma.Multiaddr) {
	s[a.String()] = a
}

func (s addrSet) remove(a ma.Multiaddr) bool {
	if _, ok := s[a.String()]; !ok {
		return false
	}
	delete(s, a.String())
	return true
}
