package core

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/encodeous/routesim/state"
)

var epoch = time.Unix(1_700_000_000, 0)

func at(d time.Duration) time.Time {
	return epoch.Add(d)
}

// RouterHarness records every event a router emits
type RouterHarness struct {
	events []Event
}

func (h *RouterHarness) Emit(ev Event) {
	h.events = append(h.events, ev)
}

// GetEvents returns and clears the recorded events
func (h *RouterHarness) GetEvents() HarnessEvents {
	x := h.events
	h.events = make([]Event, 0)
	return x
}

type HarnessEvents []Event

func (e HarnessEvents) String() string {
	out := make([]string, 0)
	for _, ev := range e {
		out = append(out, ev.String())
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

func (e HarnessEvents) contains(kind RouterEvent, peer state.DeviceId) bool {
	for _, ev := range e {
		if ev.Kind == kind && (peer == "" || ev.Peer == peer) {
			return true
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, kind RouterEvent, peer state.DeviceId) {
	t.Helper()
	if e.contains(kind, peer) {
		return
	}
	t.Fatalf("expected event not found: %s peer=%s in\n%s", kind, peer, e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, kind RouterEvent) {
	t.Helper()
	if e.contains(kind, "") {
		t.Fatalf("unexpected event found: %s in\n%s", kind, e)
	}
}

type testNet struct {
	router *Router
	events *RouterHarness
	gate   *Gate
	// neighbour mailboxes, keyed by neighbour id
	out map[state.DeviceId]*Mailbox
}

// newTestNet builds a router named id linked to each of neighs, and starts it at epoch
func newTestNet(id state.DeviceId, neighs ...state.DeviceId) *testNet {
	n := &testNet{
		events: &RouterHarness{},
		gate:   &Gate{},
		out:    make(map[state.DeviceId]*Mailbox),
	}
	for _, neigh := range neighs {
		n.out[neigh] = NewMailbox()
	}
	n.router = NewRouter(state.DeviceCfg{Id: id}, state.DefaultSimCfg(), NewMailbox(), NewLinks(n.out), n.gate, n.events)
	n.router.start(epoch)
	return n
}

// deliver places pkt into the router's inbox
func (n *testNet) deliver(t *testing.T, pkt state.Packet) {
	t.Helper()
	if err := n.router.Inbox.Put(pkt); err != nil {
		t.Fatal(err)
	}
}

// drain returns every packet sent to neigh so far
func (n *testNet) drain(neigh state.DeviceId) []state.Packet {
	pkts := make([]state.Packet, 0)
	for {
		pkt, ok := n.out[neigh].TryTake()
		if !ok {
			return pkts
		}
		pkts = append(pkts, pkt)
	}
}

// drainProbes returns every non-hello packet sent to neigh so far
func (n *testNet) drainProbes(neigh state.DeviceId) []state.Packet {
	pkts := make([]state.Packet, 0)
	for _, pkt := range n.drain(neigh) {
		if pkt.Type() != state.HelloPacket {
			pkts = append(pkts, pkt)
		}
	}
	return pkts
}
