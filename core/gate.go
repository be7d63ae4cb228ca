package core

import "sync/atomic"

// Gate is the pause signal shared by every router of an engine. Routers sample it once per tick.
type Gate struct {
	paused atomic.Bool
}

// Pause closes the gate, returning false if it was already closed
func (g *Gate) Pause() bool {
	return !g.paused.Swap(true)
}

// Resume opens the gate, returning false if it was already open
func (g *Gate) Resume() bool {
	return g.paused.Swap(false)
}

func (g *Gate) Paused() bool {
	return g.paused.Load()
}
