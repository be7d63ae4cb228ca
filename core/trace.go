package core

import (
	"github.com/dustin/go-broadcast"
)

// Trace fans every router event out to any number of subscribers
type Trace struct {
	broadcast.Broadcaster
}

func NewTrace(buflen int) *Trace {
	return &Trace{
		Broadcaster: broadcast.NewBroadcaster(buflen),
	}
}

// Publish never blocks; if the trace is backed up the event is only logged
func (t *Trace) Publish(ev Event) bool {
	return t.TrySubmit(ev)
}

// Subscription receives events on C until Close is called. Subscribers must keep draining C,
// a stalled subscriber stalls the whole trace.
type Subscription struct {
	C     chan any
	trace *Trace
}

func (t *Trace) Subscribe(buflen int) *Subscription {
	ch := make(chan any, buflen)
	t.Register(ch)
	return &Subscription{
		C:     ch,
		trace: t,
	}
}

func (s *Subscription) Close() {
	// keep draining so the broadcaster can accept the unregistration
	go func() {
		for range s.C {
		}
	}()
	s.trace.Unregister(s.C)
	close(s.C)
}
