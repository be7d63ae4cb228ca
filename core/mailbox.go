package core

import (
	"errors"
	"sync"

	"github.com/encodeous/routesim/state"
)

var ErrMailboxClosed = errors.New("mailbox closed")

// Mailbox is a device's single point of ingress. Any number of goroutines may Put, exactly one
// (the owning router) takes. It is unbounded and never blocks.
type Mailbox struct {
	mu     sync.Mutex
	queue  []state.Packet
	closed bool
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		queue: make([]state.Packet, 0),
	}
}

func (m *Mailbox) Put(pkt state.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMailboxClosed
	}
	m.queue = append(m.queue, pkt)
	return nil
}

// TryTake removes the oldest packet, if there is one
func (m *Mailbox) TryTake() (state.Packet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	pkt := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	if len(m.queue) == 0 {
		m.queue = nil
	}
	return pkt, true
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close rejects further packets and discards anything still queued, returning how many were dropped
func (m *Mailbox) Close() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	n := len(m.queue)
	m.queue = nil
	return n
}
