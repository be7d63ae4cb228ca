package core

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
)

// Router is the actor simulating one device. Its routing table, liveness map and timers are only
// ever touched by the goroutine running Run; other goroutines observe it through Snapshot.
type Router struct {
	Id    state.DeviceId
	Cfg   state.DeviceCfg
	Sim   state.SimCfg
	Inbox *Mailbox
	Links *Links

	gate *Gate
	sink EventSink

	table     state.RoutingTable
	liveness  state.Liveness
	nextHello time.Time
	nextCheck time.Time
	pausedAt  time.Time
	dirty     bool

	status atomic.Int32
	snap   atomic.Pointer[state.RouterSnapshot]
	done   chan struct{}
}

func NewRouter(cfg state.DeviceCfg, sim state.SimCfg, inbox *Mailbox, links *Links, gate *Gate, sink EventSink) *Router {
	r := &Router{
		Id:       cfg.Id,
		Cfg:      cfg,
		Sim:      sim,
		Inbox:    inbox,
		Links:    links,
		gate:     gate,
		sink:     sink,
		table:    state.NewRoutingTable(cfg.Id),
		liveness: make(state.Liveness),
		done:     make(chan struct{}),
	}
	r.status.Store(int32(state.Starting))
	r.publish(time.Now())
	return r
}

func (r *Router) Status() state.Status {
	return state.Status(r.status.Load())
}

func (r *Router) setStatus(s state.Status) {
	r.status.Store(int32(s))
	r.dirty = true
}

// Done is closed once the router has stopped
func (r *Router) Done() <-chan struct{} {
	return r.done
}

// Snapshot returns the state published at the end of the router's last tick
func (r *Router) Snapshot() *state.RouterSnapshot {
	return r.snap.Load()
}

// Run drives the router until ctx is cancelled. Cancellation is observed between ticks.
func (r *Router) Run(ctx context.Context) {
	defer func() {
		r.setStatus(state.Stopped)
		now := time.Now()
		r.publish(now)
		r.emit(Event{Kind: DeviceStopped, At: now})
		close(r.done)
	}()

	r.start(time.Now())

	ticker := time.NewTicker(r.Sim.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.Tick(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Router) start(now time.Time) {
	r.nextHello = time.Time{} // hello on the first tick
	r.nextCheck = now.Add(r.Sim.LivenessCheckInterval())
	r.setStatus(state.Running)
	r.emit(Event{Kind: DeviceBooted, At: now})
	r.publish(now)
}

// Tick runs one iteration of the router: hello if due, at most one packet, liveness sweep if due
func (r *Router) Tick(now time.Time) {
	if r.gate.Paused() {
		if r.Status() != state.Paused {
			r.pausedAt = now
			r.setStatus(state.Paused)
			r.emit(Event{Kind: DevicePaused, At: now})
			r.publish(now)
		}
		return
	}
	if r.Status() == state.Paused {
		r.resume(now)
	}
	start := time.Now()

	if now.After(r.nextHello) {
		r.sendHello(now)
		r.nextHello = now.Add(r.Sim.HelloInterval)
	}

	if pkt, ok := r.Inbox.TryTake(); ok {
		r.handlePacket(pkt, now)
		perf.PacketsProcessed.Add(1)
	}

	if now.After(r.nextCheck) {
		r.checkLiveness(now)
		r.nextCheck = now.Add(r.Sim.LivenessCheckInterval())
	}

	if r.dirty {
		r.publish(now)
	}
	perf.TickLatency.Add(float64(time.Since(start).Microseconds()))
}

// resume shifts every timer by the time spent paused, so that none of it counts as elapsed
func (r *Router) resume(now time.Time) {
	paused := now.Sub(r.pausedAt)
	r.nextHello = r.nextHello.Add(paused)
	r.nextCheck = r.nextCheck.Add(paused)
	for n, heard := range r.liveness {
		r.liveness[n] = heard.Add(paused)
	}
	r.setStatus(state.Running)
	r.emit(Event{Kind: DeviceResumed, At: now})
}

func (r *Router) emit(ev Event) {
	ev.Device = r.Id
	r.sink.Emit(ev)
}

func (r *Router) publish(now time.Time) {
	r.snap.Store(&state.RouterSnapshot{
		Id:       r.Id,
		Status:   r.Status(),
		Routes:   maps.Clone(r.table),
		Liveness: maps.Clone(r.liveness),
		Links:    r.Links.Ids(),
		Taken:    now,
	})
	r.dirty = false
}
