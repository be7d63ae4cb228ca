package state

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// RoutingEntry is the next hop and cost for reaching a device. A zero NextHop means the entry
// refers to the router itself.
type RoutingEntry struct {
	NextHop DeviceId
	Cost    uint32
}

func (e RoutingEntry) String() string {
	if e.NextHop == "" {
		return fmt.Sprintf("self, cost %d", e.Cost)
	}
	return fmt.Sprintf("via %s, cost %d", e.NextHop, e.Cost)
}

// RoutingTable must only be mutated by the router that owns it
type RoutingTable map[DeviceId]RoutingEntry

// Liveness maps a neighbour to the last time one of its hellos was processed
type Liveness map[DeviceId]time.Time

func NewRoutingTable(self DeviceId) RoutingTable {
	return RoutingTable{
		self: {NextHop: "", Cost: 0},
	}
}

// RouterSnapshot is an immutable copy of a router's state, safe to read from any goroutine
type RouterSnapshot struct {
	Id       DeviceId
	Status   Status
	Routes   RoutingTable
	Liveness Liveness
	Links    []DeviceId
	Taken    time.Time
}

func (s *RouterSnapshot) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Device %s (%s)\n", s.Id, s.Status))

	sb.WriteString("Routes:\n")
	rt := make([]string, 0)
	for dst, entry := range s.Routes {
		rt = append(rt, fmt.Sprintf(" - %s %s", dst, entry))
	}
	slices.Sort(rt)
	sb.WriteString(strings.Join(rt, "\n") + "\n")

	sb.WriteString("Neighbours:\n")
	rt = make([]string, 0)
	if len(s.Liveness) == 0 {
		rt = append(rt, " (none)")
	}
	for _, n := range slices.Sorted(maps.Keys(s.Liveness)) {
		rt = append(rt, fmt.Sprintf(" - %s heard %.2fs ago", n, s.Taken.Sub(s.Liveness[n]).Seconds()))
	}
	sb.WriteString(strings.Join(rt, "\n") + "\n")

	sb.WriteString("Links:\n")
	rt = make([]string, 0)
	if len(s.Links) == 0 {
		rt = append(rt, " (none)")
	}
	for _, l := range s.Links {
		rt = append(rt, fmt.Sprintf(" - %s", l))
	}
	sb.WriteString(strings.Join(rt, "\n") + "\n")
	return sb.String()
}
