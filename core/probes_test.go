package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestProbeTrackerResolve(t *testing.T) {
	p := NewProbeTracker(time.Minute, func(Probe) {
		t.Error("probe should not be lost")
	})
	probe := Probe{Id: uuid.New(), Src: "A", Dst: "B", SentAt: time.Now()}
	p.Track(probe)
	assert.Equal(t, 1, p.Outstanding())

	got, ok := p.Resolve(probe.Id)
	assert.True(t, ok)
	assert.Equal(t, probe, got)
	assert.Equal(t, 0, p.Outstanding())

	_, ok = p.Resolve(probe.Id)
	assert.False(t, ok)
}

func TestProbeTrackerExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	mu := sync.Mutex{}
	lost := make([]Probe, 0)
	p := NewProbeTracker(50*time.Millisecond, func(probe Probe) {
		mu.Lock()
		defer mu.Unlock()
		lost = append(lost, probe)
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, 5*time.Millisecond)
	}()
	defer func() {
		cancel()
		<-done
		p.Close()
	}()

	kept := Probe{Id: uuid.New(), Src: "A", Dst: "B", SentAt: time.Now()}
	dropped := Probe{Id: uuid.New(), Src: "A", Dst: "C", SentAt: time.Now()}
	p.Track(kept)
	p.Track(dropped)
	_, ok := p.Resolve(kept.Id)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lost) == 1
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, dropped.Id, lost[0].Id)
	mu.Unlock()
}

func TestProbeTrackerPause(t *testing.T) {
	defer goleak.VerifyNone(t)

	lost := atomic.Int32{}
	p := NewProbeTracker(50*time.Millisecond, func(Probe) {
		lost.Add(1)
	})
	defer p.Close()

	before := Probe{Id: uuid.New(), Src: "A", Dst: "B"}
	during := Probe{Id: uuid.New(), Src: "A", Dst: "C"}
	answered := Probe{Id: uuid.New(), Src: "A", Dst: "D"}
	p.Track(before)
	p.Pause()
	p.Pause()
	p.Track(during)
	p.Track(answered)

	// paused time is not counted
	time.Sleep(150 * time.Millisecond)
	p.Expire()
	assert.Equal(t, int32(0), lost.Load())
	assert.Equal(t, 3, p.Outstanding())

	got, ok := p.Resolve(answered.Id)
	assert.True(t, ok)
	assert.Equal(t, answered, got)

	p.Resume()
	p.Expire()
	assert.Equal(t, int32(0), lost.Load())
	assert.Equal(t, 2, p.Outstanding())

	assert.Eventually(t, func() bool {
		p.Expire()
		return lost.Load() == 2
	}, time.Second, 10*time.Millisecond)
	_, ok = p.Resolve(answered.Id)
	assert.False(t, ok)
}

func TestProbeTrackerCloseWaitsForCallbacks(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	finished := atomic.Bool{}
	p := NewProbeTracker(time.Millisecond, func(Probe) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})
	p.Track(Probe{Id: uuid.New(), Src: "A", Dst: "B"})
	time.Sleep(5 * time.Millisecond)
	p.Expire()

	<-started
	p.Close()
	assert.True(t, finished.Load())

	// nothing is reported once closed
	p.Track(Probe{Id: uuid.New(), Src: "A", Dst: "C"})
	time.Sleep(5 * time.Millisecond)
	p.Expire()
	assert.Equal(t, 0, p.Outstanding())
}

func TestTraceSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := NewTrace(8)
	sub := tr.Subscribe(8)
	assert.True(t, tr.Publish(Event{Kind: DeviceBooted, Device: "A"}))

	select {
	case m := <-sub.C:
		assert.Equal(t, Event{Kind: DeviceBooted, Device: "A"}, m)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
	sub.Close()
	assert.NoError(t, tr.Close())
}
