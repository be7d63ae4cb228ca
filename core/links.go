package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/encodeous/routesim/state"
)

var ErrLinkDown = errors.New("link down")

// Links is a router's set of outgoing links: neighbour -> that neighbour's mailbox.
// It is written by both the owning router (liveness expiry) and the engine (fault injection), so
// every access is guarded. It can only shrink.
type Links struct {
	mu  sync.RWMutex
	out map[state.DeviceId]*Mailbox
}

func NewLinks(out map[state.DeviceId]*Mailbox) *Links {
	return &Links{
		out: maps.Clone(out),
	}
}

func (l *Links) Send(to state.DeviceId, pkt state.Packet) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	mb, ok := l.out[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLinkDown, to)
	}
	return mb.Put(pkt)
}

// Broadcast sends pkt on every link, returning how many deliveries succeeded and the neighbours
// that could not be reached
func (l *Links) Broadcast(pkt state.Packet) (int, []state.DeviceId) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sent := 0
	failed := make([]state.DeviceId, 0)
	for id, mb := range l.out {
		if err := mb.Put(pkt); err != nil {
			failed = append(failed, id)
			continue
		}
		sent++
	}
	return sent, failed
}

// Remove severs the link to id, returning false if there was none
func (l *Links) Remove(id state.DeviceId) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.out[id]
	delete(l.out, id)
	return ok
}

func (l *Links) Has(id state.DeviceId) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.out[id]
	return ok
}

// Ids returns the currently linked neighbours, sorted
func (l *Links) Ids() []state.DeviceId {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.out))
}

func (l *Links) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.out)
}
