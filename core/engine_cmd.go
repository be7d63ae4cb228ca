package core

import (
	"fmt"
	"time"

	"github.com/encodeous/routesim/perf"
	"github.com/encodeous/routesim/state"
	"github.com/google/uuid"
)

// Ping injects a probe into src's mailbox as though src had originated it. dst is not checked;
// an unreachable destination is observed asynchronously as a drop inside the network.
func (e *Engine) Ping(src, dst string) (uuid.UUID, error) {
	e.Setup()
	srcId, err := e.resolve(src)
	if err != nil {
		return uuid.Nil, fmt.Errorf("source device: %w", err)
	}
	dstId, ok := e.Topo.Resolve(dst)
	if !ok {
		dstId = state.DeviceId(dst)
	}
	probe := Probe{
		Id:     uuid.New(),
		Src:    srcId,
		Dst:    dstId,
		SentAt: time.Now(),
	}
	e.probes.Track(probe)
	err = e.inboxes[srcId].Put(state.PingRequest{
		Source:      srcId,
		Destination: dstId,
		Sender:      state.EngineSender,
		Id:          probe.Id,
	})
	if err != nil {
		e.probes.Resolve(probe.Id)
		return uuid.Nil, err
	}
	perf.ProbesInjected.Add(1)
	e.Log.Info(fmt.Sprintf("sending probe from %s to %s", srcId, dstId), "probe", probe.Id.String()[:8])
	return probe.Id, nil
}

// FailLink cuts the link between a and b in both directions immediately. The routers keep their
// routing entries until the neighbour times out.
func (e *Engine) FailLink(a, b string) error {
	e.Setup()
	aId, err := e.resolve(a)
	if err != nil {
		return err
	}
	bId, err := e.resolve(b)
	if err != nil {
		return err
	}
	e.Log.Info(fmt.Sprintf("simulating link failure between %s and %s", aId, bId))
	removedA := e.routers[aId].Links.Remove(bId)
	removedB := e.routers[bId].Links.Remove(aId)
	if !removedA && !removedB {
		return fmt.Errorf("%w between %s and %s", ErrNoLink, aId, bId)
	}
	return nil
}

// Pause halts every router at its next tick. Returns false if the simulation was already paused.
func (e *Engine) Pause() bool {
	if !e.gate.Pause() {
		return false
	}
	e.probes.Pause()
	e.Log.Info("pausing simulation")
	return true
}

// Resume restarts every router. Time spent paused is not counted against any timer.
func (e *Engine) Resume() bool {
	if !e.gate.Resume() {
		return false
	}
	e.probes.Resume()
	e.Log.Info("resuming simulation")
	return true
}

func (e *Engine) Paused() bool {
	return e.gate.Paused()
}

// Snapshot returns the last published state of a device
func (e *Engine) Snapshot(name string) (*state.RouterSnapshot, error) {
	e.Setup()
	id, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	return e.routers[id].Snapshot(), nil
}
