package core

import (
	"context"
	"sync"
	"time"

	"github.com/encodeous/routesim/state"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Probe is a ping injected by the engine that has not yet been resolved
type Probe struct {
	Id     uuid.UUID
	Src    state.DeviceId
	Dst    state.DeviceId
	SentAt time.Time
}

// ProbeTracker remembers outstanding probes until a reply or a drop is observed for them.
// Probes that see neither within the TTL are reported as lost. Time spent paused does not count
// against the TTL.
type ProbeTracker struct {
	cache       *ttlcache.Cache[uuid.UUID, Probe]
	ttl         time.Duration
	unsubscribe func()

	mu     sync.Mutex
	paused bool
	frozen map[uuid.UUID]time.Duration // remaining ttl of each probe held while paused
}

func NewProbeTracker(ttl time.Duration, onLost func(Probe)) *ProbeTracker {
	cache := ttlcache.New[uuid.UUID, Probe](
		ttlcache.WithTTL[uuid.UUID, Probe](ttl),
		ttlcache.WithDisableTouchOnHit[uuid.UUID, Probe](),
	)
	unsubscribe := cache.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[uuid.UUID, Probe]) {
		if reason == ttlcache.EvictionReasonExpired {
			onLost(item.Value())
		}
	})
	return &ProbeTracker{
		cache:       cache,
		ttl:         ttl,
		unsubscribe: unsubscribe,
		frozen:      make(map[uuid.UUID]time.Duration),
	}
}

func (p *ProbeTracker) Track(probe Probe) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.frozen[probe.Id] = p.ttl
		p.cache.Set(probe.Id, probe, ttlcache.NoTTL)
		return
	}
	p.cache.Set(probe.Id, probe, ttlcache.DefaultTTL)
}

// Resolve forgets the probe, returning it if it was still outstanding
func (p *ProbeTracker) Resolve(id uuid.UUID) (Probe, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.frozen, id)
	item, ok := p.cache.GetAndDelete(id)
	if !ok {
		return Probe{}, false
	}
	return item.Value(), true
}

// Pause stops the TTL of every outstanding probe, and of every probe tracked until Resume
func (p *ProbeTracker) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	now := time.Now()
	for id, item := range p.cache.Items() {
		p.frozen[id] = max(item.ExpiresAt().Sub(now), time.Nanosecond)
		p.cache.Set(id, item.Value(), ttlcache.NoTTL)
	}
}

// Resume restarts every stopped TTL with the time it had left
func (p *ProbeTracker) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	for id, left := range p.frozen {
		if item := p.cache.Get(id); item != nil {
			p.cache.Set(id, item.Value(), left)
		}
	}
	clear(p.frozen)
}

func (p *ProbeTracker) Outstanding() int {
	return p.cache.Len()
}

// Expire reports every probe whose TTL has run out as lost
func (p *ProbeTracker) Expire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.DeleteExpired()
}

// Run expires probes every interval until ctx is cancelled
func (p *ProbeTracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Expire()
		}
	}
}

// Close waits for every pending lost callback. No probe is reported lost afterwards.
func (p *ProbeTracker) Close() {
	p.unsubscribe()
}
