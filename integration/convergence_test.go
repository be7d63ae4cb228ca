//go:build integration

package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/encodeous/routesim/core"
	"github.com/encodeous/routesim/state"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := NewVirtualHarness()
	vh.NewNode("node1", "node2", "node3")
	vh.Graph = []string{
		"node1, node2, node3",
	}
	vh.Start(t)
	vh.WaitConverged(t)
	vh.Stop()

	for _, id := range vh.Engine.Topo.Ids() {
		assert.Equal(t, state.Stopped, vh.Engine.Router(id).Status())
	}
}

func TestMeshConvergence(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := NewVirtualHarness()
	vh.NewNode("c1", "c2", "c3", "e1", "e2", "e3", "e4")
	vh.Graph = []string{
		"Core = c1, c2, c3",
		"Edge = e1, e2, e3, e4",
		"Core, Core",
		"Core, Edge",
	}
	vh.Start(t)
	defer vh.Stop()
	vh.WaitConverged(t)

	for _, id := range vh.Engine.Topo.Ids() {
		for _, neigh := range vh.Engine.Topo.Neighbours(id) {
			ev := vh.Probe(t, id, neigh)
			assert.Equal(t, core.ProbeReplied, ev.Kind, "probe %s -> %s", id, neigh)
		}
	}

	// edges are not linked to each other, and routes are never learned second hand
	ev := vh.Probe(t, "e1", "e2")
	assert.Equal(t, core.ProbeNoRoute, ev.Kind)
	assert.Equal(t, state.DeviceId("e1"), ev.Device)
}

func TestConcurrentProbes(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := NewVirtualHarness()
	vh.NewNode("a", "b", "c", "d")
	vh.Graph = []string{
		"a, b, c, d",
	}
	vh.Start(t)
	defer vh.Stop()
	vh.WaitConverged(t)

	ids := vh.Engine.Topo.Ids()
	probes := make(chan uuid.UUID, 64)
	wg := sync.WaitGroup{}
	for round := 0; round < 4; round++ {
		for _, src := range ids {
			for _, dst := range ids {
				if src == dst {
					continue
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					id, err := vh.Engine.Ping(string(src), string(dst))
					assert.NoError(t, err)
					probes <- id
				}()
			}
		}
	}
	wg.Wait()
	close(probes)

	n := 0
	for id := range probes {
		replied := vh.On(func(ev core.Event) bool {
			return ev.Probe == id && ev.Kind == core.ProbeReplied
		})
		WaitFor(t, replied, 5*time.Second, "probe "+id.String())
		n++
	}
	assert.Equal(t, 4*len(ids)*(len(ids)-1), n)
}

func TestLateNeighbourDiscovery(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := NewVirtualHarness()
	vh.NewNode("a", "b")
	vh.Graph = []string{
		"a, b",
	}
	// hellos are slow enough that the first probe may race them
	vh.Sim.HelloInterval = 100 * time.Millisecond
	vh.Sim.NeighbourTimeout = 500 * time.Millisecond

	vh.Start(t)
	defer vh.Stop()
	established := vh.On(func(ev core.Event) bool {
		return ev.Kind == core.LinkEstablished && ev.Device == "a" && ev.Peer == "b"
	})
	WaitFor(t, established, 5*time.Second, "a to discover b")

	ev := vh.Probe(t, "a", "b")
	assert.Equal(t, core.ProbeReplied, ev.Kind)
}
