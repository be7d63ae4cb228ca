package core

import (
	"time"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
)

// sendHello advertises this router on every link it still has. A link that disappears
// concurrently is skipped.
func (r *Router) sendHello(now time.Time) {
	hello := state.Hello{Source: r.Id}
	sent, failed := r.Links.Broadcast(hello)
	perf.HellosSent.Add(float64(sent))
	for _, neigh := range failed {
		r.emit(Event{Kind: HelloSendFailed, Peer: neigh, At: now})
	}
}

func (r *Router) forward(nh state.DeviceId, pkt state.Packet) error {
	err := r.Links.Send(nh, pkt)
	if err == nil {
		perf.ProbesForwarded.Add(1)
	}
	return err
}
