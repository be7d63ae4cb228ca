package state

import "fmt"

// DeviceId identifies a simulated router for the lifetime of a run
type DeviceId string

type Status int32

const (
	Starting Status = iota
	Running
	Paused
	Stopped
)

func (s Status) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}
