//go:build integration

package integration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"sync"
	"testing"
	"time"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/encodeous/tint"
)

type Signal chan bool

func NewSignal() Signal {
	return make(chan bool)
}
func (s Signal) Trigger() {
	select {
	case <-s:
	default:
		close(s)
	}
}
func (s Signal) Triggered() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}
func (s Signal) Wait() {
	<-s
}

// VirtualHarness runs an in-process engine over a topology described with the graph syntax
type VirtualHarness struct {
	Devices []state.DeviceCfg
	Graph   []string
	Sim     state.SimCfg
	Context context.Context
	Cancel  context.CancelCauseFunc
	Engine  *core.Engine

	mu      sync.Mutex
	events  []core.Event
	waiters []*eventWaiter
	sub     *core.Subscription
	done    chan struct{}
}

type eventWaiter struct {
	match func(core.Event) bool
	sig   Signal
}

func NewVirtualHarness() *VirtualHarness {
	return &VirtualHarness{
		Sim: state.SimCfg{
			TickInterval:     5 * time.Millisecond,
			HelloInterval:    50 * time.Millisecond,
			NeighbourTimeout: 300 * time.Millisecond,
			SettleDelay:      200 * time.Millisecond,
			ProbeTimeout:     5 * time.Second,
		},
	}
}

func (v *VirtualHarness) NewNode(ids ...state.DeviceId) {
	for _, id := range ids {
		v.Devices = append(v.Devices, state.DeviceCfg{Id: id})
	}
}

func (v *VirtualHarness) Start(t *testing.T) {
	t.Helper()
	cfg := state.TopologyCfg{
		Devices: v.Devices,
		Graph:   v.Graph,
	}
	topo, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:        slog.LevelDebug,
		CustomPrefix: t.Name(),
		TimeFormat:   "15:04:05.000",
	}))

	v.Context, v.Cancel = context.WithCancelCause(context.Background())
	v.Engine = core.NewEngine(topo, v.Sim, logger)
	v.Engine.Setup()
	v.sub = v.Engine.Trace.Subscribe(state.TraceBufferLen)
	v.done = make(chan struct{})
	go func() {
		defer close(v.done)
		pprof.Do(v.Context, pprof.Labels("harness", t.Name()), func(ctx context.Context) {
			v.collect(ctx)
		})
	}()
	if err := v.Engine.Start(v.Context); err != nil {
		t.Fatal(err)
	}
}

func (v *VirtualHarness) collect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-v.sub.C:
			ev, ok := m.(core.Event)
			if !ok {
				continue
			}
			v.mu.Lock()
			v.events = append(v.events, ev)
			for _, w := range v.waiters {
				if w.match(ev) {
					w.sig.Trigger()
				}
			}
			v.mu.Unlock()
		}
	}
}

// On returns a signal that is triggered by the first event matching match, including events
// that were already seen
func (v *VirtualHarness) On(match func(core.Event) bool) Signal {
	v.mu.Lock()
	defer v.mu.Unlock()
	w := &eventWaiter{match: match, sig: NewSignal()}
	for _, ev := range v.events {
		if match(ev) {
			w.sig.Trigger()
			break
		}
	}
	v.waiters = append(v.waiters, w)
	return w.sig
}

// Events returns every event seen so far
func (v *VirtualHarness) Events() []core.Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]core.Event(nil), v.events...)
}

// Probe pings dst from src and waits for the outcome event
func (v *VirtualHarness) Probe(t *testing.T, src, dst state.DeviceId) core.Event {
	t.Helper()
	id, err := v.Engine.Ping(string(src), string(dst))
	if err != nil {
		t.Fatal(err)
	}
	outcome := func(ev core.Event) bool {
		return ev.Probe == id && (ev.Kind == core.ProbeReplied || ev.Kind.IsDrop())
	}
	WaitFor(t, v.On(outcome), 5*time.Second, fmt.Sprintf("probe %s -> %s", src, dst))
	for _, ev := range v.Events() {
		if outcome(ev) {
			return ev
		}
	}
	panic("unreachable")
}

// WaitConverged waits until every router has a route to each of its topology neighbours
func (v *VirtualHarness) WaitConverged(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v.converged() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("network did not converge")
}

// WaitStatus waits until every router has reached status
func (v *VirtualHarness) WaitStatus(t *testing.T, status state.Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		reached := true
		for _, id := range v.Engine.Topo.Ids() {
			if v.Engine.Router(id).Status() != status {
				reached = false
			}
		}
		if reached {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("routers did not reach %s", status)
}

func (v *VirtualHarness) converged() bool {
	for _, id := range v.Engine.Topo.Ids() {
		routes := v.Engine.Router(id).Snapshot().Routes
		for _, neigh := range v.Engine.Topo.Neighbours(id) {
			if _, ok := routes[neigh]; !ok {
				return false
			}
		}
	}
	return true
}

func (v *VirtualHarness) Stop() {
	v.Cancel(fmt.Errorf("stopping harness"))
	<-v.done
	v.sub.Close()
	v.Engine.Stop()
}

func WaitFor(t *testing.T, s Signal, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-s:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}
