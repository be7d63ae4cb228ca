package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/encodeous/routesim/state"
	"github.com/google/uuid"
)

type RouterEvent int

// lifecycle & discovery events

const (
	DeviceBooted RouterEvent = iota
	DevicePaused
	DeviceResumed
	DeviceStopped
	LinkEstablished
	LinkTimedOut
)

// probe events

const (
	ProbeSent RouterEvent = iota + 100
	ProbeForwarded
	ProbeAnswered
	ProbeReplied
)

// drop events

const (
	ProbeNoRoute RouterEvent = iota + 1000
	ProbeLinkDown
	ReplyDropped
	ReplyMisdelivered
	HelloSendFailed
	UnknownPacket
	ProbeLost
)

var eventNames = map[RouterEvent]string{
	DeviceBooted:      "DEVICE_BOOTED",
	DevicePaused:      "DEVICE_PAUSED",
	DeviceResumed:     "DEVICE_RESUMED",
	DeviceStopped:     "DEVICE_STOPPED",
	LinkEstablished:   "LINK_ESTABLISHED",
	LinkTimedOut:      "LINK_TIMED_OUT",
	ProbeSent:         "PROBE_SENT",
	ProbeForwarded:    "PROBE_FORWARDED",
	ProbeAnswered:     "PROBE_ANSWERED",
	ProbeReplied:      "PROBE_REPLIED",
	ProbeNoRoute:      "PROBE_NO_ROUTE",
	ProbeLinkDown:     "PROBE_LINK_DOWN",
	ReplyDropped:      "REPLY_DROPPED",
	ReplyMisdelivered: "REPLY_MISDELIVERED",
	HelloSendFailed:   "HELLO_SEND_FAILED",
	UnknownPacket:     "UNKNOWN_PACKET",
	ProbeLost:         "PROBE_LOST",
}

func (e RouterEvent) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

// Level is the log level an event is reported at
func (e RouterEvent) Level() slog.Level {
	switch e {
	case DevicePaused, DeviceResumed, HelloSendFailed, UnknownPacket, ReplyMisdelivered, ProbeLinkDown, ReplyDropped:
		return slog.LevelDebug
	case LinkTimedOut, ProbeLost:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// IsDrop reports whether the event ends a probe without a reply reaching its requester
func (e RouterEvent) IsDrop() bool {
	return e >= ProbeNoRoute && e != HelloSendFailed && e != UnknownPacket
}

// Event is a single observable occurrence inside a router
type Event struct {
	Kind   RouterEvent
	Device state.DeviceId
	// Peer is the neighbour, next hop or replying device involved, if any
	Peer state.DeviceId
	// Target is the probe destination, if any
	Target state.DeviceId
	Probe  uuid.UUID
	At     time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s peer=%s target=%s", e.Device, e.Kind, e.Peer, e.Target)
}

func (e Event) describe() string {
	switch e.Kind {
	case DeviceBooted:
		return "booting up"
	case DevicePaused:
		return "paused"
	case DeviceResumed:
		return "resumed"
	case DeviceStopped:
		return "stopped"
	case LinkEstablished:
		return fmt.Sprintf("established link with %s", e.Peer)
	case LinkTimedOut:
		return fmt.Sprintf("link to %s timed out, removing route", e.Peer)
	case ProbeSent:
		return fmt.Sprintf("sending probe for %s via %s", e.Target, e.Peer)
	case ProbeForwarded:
		return fmt.Sprintf("forwarding probe for %s via %s", e.Target, e.Peer)
	case ProbeAnswered:
		return fmt.Sprintf("received probe from %s, sending reply", e.Peer)
	case ProbeReplied:
		return fmt.Sprintf("received probe reply from %s", e.Peer)
	case ProbeNoRoute:
		return fmt.Sprintf("no route to %s, dropping probe", e.Target)
	case ProbeLinkDown:
		return fmt.Sprintf("link to next hop %s is down, dropping probe for %s", e.Peer, e.Target)
	case ReplyDropped:
		return fmt.Sprintf("cannot reach %s, dropping probe reply", e.Target)
	case ReplyMisdelivered:
		return fmt.Sprintf("ignoring probe reply for %s", e.Target)
	case HelloSendFailed:
		return fmt.Sprintf("hello to %s failed, ignoring", e.Peer)
	case UnknownPacket:
		return "ignoring unrecognized packet"
	case ProbeLost:
		return fmt.Sprintf("probe to %s timed out", e.Target)
	}
	return e.Kind.String()
}

// EventSink receives every event a router produces. Emit is called from router goroutines and
// must not block.
type EventSink interface {
	Emit(ev Event)
}
