package overlay

import (
	"fmt"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	"pgregory.net/rapid"
)

// TestViewInvariants drives random sequences of admissions, evictions, and
// passive insertions and checks the view-shape invariants that must always
// hold: views stay disjoint, neither ever contains the local identity, and
// neither ever exceeds its configured bound.
func TestViewInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		net := &fakeNetwork{}
		topic := newTestTopic(net)
		defer topic.Close()

		universe := make([]peer.ID, 12)
		for i := range universe {
			universe[i] = peer.ID(fmt.Sprintf("peer-%d", i))
		}

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := universe[rapid.IntRange(0, len(universe)-1).Draw(rt, "peer")]

			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				topic.admitActive(id, addrSet{}, "")
			case 1:
				topic.insertPassive(AddressablePeer{ID: id, Addresses: addrSet{}})
			case 2:
				delete(topic.active, id)
				delete(topic.passive, id)
			}

			checkViewInvariants(rt, topic)
		}
	})
}

func checkViewInvariants(t *rapid.T, topic *Topic) {
	t.Helper()

	if len(topic.active) > topic.netConfig.maxActiveViewSize() {
		t.Fatalf("active view size %d exceeds bound %d", len(topic.active), topic.netConfig.maxActiveViewSize())
	}
	if len(topic.passive) > topic.netConfig.maxPassiveViewSize() {
		t.Fatalf("passive view size %d exceeds bound %d", len(topic.passive), topic.netConfig.maxPassiveViewSize())
	}
	if _, ok := topic.active[topic.self.ID]; ok {
		t.Fatalf("active view contains self")
	}
	if _, ok := topic.passive[topic.self.ID]; ok {
		t.Fatalf("passive view contains self")
	}
	for id := range topic.active {
		if _, ok := topic.passive[id]; ok {
			t.Fatalf("peer %v present in both active and passive views", id)
		}
	}
}
