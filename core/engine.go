package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
	"github.com/google/uuid"
)

var (
	ErrUnknownDevice  = errors.New("unknown device")
	ErrNoLink         = errors.New("no link")
	ErrAlreadyStarted = errors.New("engine already started")
)

// Engine builds one router per device of a topology, wires them together through their
// mailboxes and owns their lifecycle
type Engine struct {
	Topo  *state.Topology
	Sim   state.SimCfg
	Log   *slog.Logger
	Trace *Trace

	gate    Gate
	inboxes map[state.DeviceId]*Mailbox
	routers map[state.DeviceId]*Router
	probes  *ProbeTracker

	setupOnce sync.Once
	started   atomic.Bool
	stopping  atomic.Bool
	cancel    context.CancelCauseFunc
	wg        sync.WaitGroup
}

func NewEngine(topo *state.Topology, sim state.SimCfg, logger *slog.Logger) *Engine {
	e := &Engine{
		Topo:  topo,
		Sim:   sim,
		Log:   logger,
		Trace: NewTrace(state.TraceBufferLen),
	}
	e.probes = NewProbeTracker(sim.ProbeTimeout, e.probeLost)
	return e
}

// Setup allocates every mailbox, link set and router. It only does anything the first time it is called.
func (e *Engine) Setup() {
	e.setupOnce.Do(func() {
		e.inboxes = make(map[state.DeviceId]*Mailbox)
		e.routers = make(map[state.DeviceId]*Router)
		for _, id := range e.Topo.Ids() {
			e.inboxes[id] = NewMailbox()
		}
		for _, id := range e.Topo.Ids() {
			// a device's outgoing links are the inboxes of its neighbours
			out := make(map[state.DeviceId]*Mailbox)
			for _, neigh := range e.Topo.Neighbours(id) {
				out[neigh] = e.inboxes[neigh]
			}
			e.routers[id] = NewRouter(e.Topo.Devices[id], e.Sim, e.inboxes[id], NewLinks(out), &e.gate, e)
		}
		e.Log.Debug("engine setup complete", "devices", len(e.routers))
	})
}

// Start launches every router. Routers do not depend on each other's start order.
func (e *Engine) Start(ctx context.Context) error {
	if e.started.Swap(true) {
		return ErrAlreadyStarted
	}
	e.Setup()
	ctx, e.cancel = context.WithCancelCause(ctx)

	sub := e.Trace.Subscribe(state.TraceBufferLen)
	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.probes.Run(ctx, e.Sim.TickInterval)
	}()
	go func() {
		defer e.wg.Done()
		defer sub.Close()
		e.watchProbes(ctx, sub)
	}()

	for _, r := range e.routers {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			r.Run(ctx)
		}()
	}
	e.Log.Info("simulation started", "devices", len(e.routers), "links", len(e.Topo.Edges()))
	return nil
}

// Settle waits for the initial hello exchange
func (e *Engine) Settle(ctx context.Context) error {
	e.Log.Info(fmt.Sprintf("network settling, please wait %s...", e.Sim.SettleDelay))
	select {
	case <-time.After(e.Sim.SettleDelay):
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Stop signals every router and waits until all of them have stopped. Anything still queued
// in a mailbox is discarded.
func (e *Engine) Stop() {
	if e.stopping.Swap(true) {
		return // don't stop twice
	}
	e.Log.Info("stopping simulation")
	if e.started.Load() {
		e.cancel(context.Canceled)
		e.wg.Wait()
	}
	e.probes.Close()
	discarded := 0
	for _, mb := range e.inboxes {
		discarded += mb.Close()
	}
	err := e.Trace.Close()
	if err != nil {
		e.Log.Error("error occurred while closing trace", "error", err)
	}
	e.Log.Info("simulation stopped", "discarded", discarded)
}

// Router returns the router for id, or nil
func (e *Engine) Router(id state.DeviceId) *Router {
	e.Setup()
	return e.routers[id]
}

func (e *Engine) resolve(name string) (state.DeviceId, error) {
	id, ok := e.Topo.Resolve(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	return id, nil
}

// Emit implements EventSink for every router of the engine
func (e *Engine) Emit(ev Event) {
	switch ev.Kind {
	case ProbeAnswered:
		perf.ProbesAnswered.Add(1)
	case LinkTimedOut:
		perf.LinksTimedOut.Add(1)
	case ProbeNoRoute, ProbeLinkDown, ReplyDropped:
		perf.ProbesDropped.Add(1)
	}
	if e.Log.Enabled(context.Background(), ev.Kind.Level()) {
		args := []any{"device", ev.Device, "event", ev.Kind}
		if ev.Probe != uuid.Nil {
			args = append(args, "probe", ev.Probe.String()[:8])
		}
		e.Log.Log(context.Background(), ev.Kind.Level(), ev.describe(), args...)
	}
	e.Trace.Publish(ev)
}

func (e *Engine) watchProbes(ctx context.Context, sub *Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.C:
			ev, ok := m.(Event)
			if !ok || (ev.Kind != ProbeReplied && !ev.Kind.IsDrop()) || ev.Kind == ProbeLost {
				continue
			}
			probe, ok := e.probes.Resolve(ev.Probe)
			if !ok {
				continue
			}
			if ev.Kind == ProbeReplied {
				rtt := ev.At.Sub(probe.SentAt)
				perf.ProbeRtt.Add(float64(rtt.Milliseconds()))
				e.Log.Info(fmt.Sprintf("probe %s -> %s succeeded", probe.Src, probe.Dst), "rtt", rtt.Round(time.Millisecond))
			} else {
				e.Log.Info(fmt.Sprintf("probe %s -> %s failed", probe.Src, probe.Dst), "at", ev.Device, "reason", ev.Kind)
			}
		}
	}
}

func (e *Engine) probeLost(p Probe) {
	perf.ProbesLost.Add(1)
	e.Emit(Event{
		Kind:   ProbeLost,
		Device: p.Src,
		Target: p.Dst,
		Probe:  p.Id,
		At:     time.Now(),
	})
}
