package core

import (
	"maps"
	"slices"
	"time"

	"github.com/encodeous/routesim/state"
)

// Routes are single hop: a router only ever learns about itself and the neighbours it hears
// hellos from. Nothing is advertised onwards.

func (r *Router) handlePacket(pkt state.Packet, now time.Time) {
	switch pkt := pkt.(type) {
	case state.Hello:
		r.handleHello(pkt, now)
	case state.PingRequest:
		r.handlePingRequest(pkt, now)
	case state.PingReply:
		r.handlePingReply(pkt, now)
	default:
		r.emit(Event{Kind: UnknownPacket, At: now})
	}
}

func (r *Router) handleHello(pkt state.Hello, now time.Time) {
	if pkt.Source == r.Id {
		return
	}
	r.liveness[pkt.Source] = now
	r.dirty = true
	if _, ok := r.table[pkt.Source]; !ok {
		r.table[pkt.Source] = state.RoutingEntry{
			NextHop: pkt.Source,
			Cost:    1,
		}
		r.emit(Event{Kind: LinkEstablished, Peer: pkt.Source, At: now})
	}
}

func (r *Router) handlePingRequest(pkt state.PingRequest, now time.Time) {
	if pkt.Destination == r.Id {
		r.emit(Event{Kind: ProbeAnswered, Peer: pkt.Source, Target: pkt.Destination, Probe: pkt.Id, At: now})
		reply := state.PingReply{
			Source:      r.Id,
			Destination: pkt.Source,
			Id:          pkt.Id,
		}
		entry, ok := r.table[pkt.Source]
		if !ok {
			r.emit(Event{Kind: ReplyDropped, Target: pkt.Source, Probe: pkt.Id, At: now})
			return
		}
		if err := r.Links.Send(entry.NextHop, reply); err != nil {
			r.emit(Event{Kind: ReplyDropped, Peer: entry.NextHop, Target: pkt.Source, Probe: pkt.Id, At: now})
		}
		return
	}

	entry, ok := r.table[pkt.Destination]
	if !ok {
		r.emit(Event{Kind: ProbeNoRoute, Target: pkt.Destination, Probe: pkt.Id, At: now})
		return
	}
	if err := r.forward(entry.NextHop, pkt); err != nil {
		r.emit(Event{Kind: ProbeLinkDown, Peer: entry.NextHop, Target: pkt.Destination, Probe: pkt.Id, At: now})
		return
	}
	kind := ProbeForwarded
	if pkt.Source == r.Id {
		kind = ProbeSent
	}
	r.emit(Event{Kind: kind, Peer: entry.NextHop, Target: pkt.Destination, Probe: pkt.Id, At: now})
}

func (r *Router) handlePingReply(pkt state.PingReply, now time.Time) {
	if pkt.Destination != r.Id {
		r.emit(Event{Kind: ReplyMisdelivered, Peer: pkt.Source, Target: pkt.Destination, Probe: pkt.Id, At: now})
		return
	}
	r.emit(Event{Kind: ProbeReplied, Peer: pkt.Source, Target: pkt.Destination, Probe: pkt.Id, At: now})
}

// checkLiveness declares every neighbour not heard from within the timeout down. The routing
// entry, liveness entry and outgoing link are dropped together.
func (r *Router) checkLiveness(now time.Time) {
	for _, neigh := range slices.Sorted(maps.Keys(r.liveness)) {
		if now.Sub(r.liveness[neigh]) <= r.Sim.NeighbourTimeout {
			continue
		}
		delete(r.table, neigh)
		delete(r.liveness, neigh)
		r.Links.Remove(neigh)
		r.dirty = true
		r.emit(Event{Kind: LinkTimedOut, Peer: neigh, At: now})
	}
}
