package state

import (
	"fmt"

	"github.com/google/uuid"
)

type PacketType int

const (
	HelloPacket PacketType = iota
	PingRequestPacket
	PingReplyPacket
)

func (t PacketType) String() string {
	switch t {
	case HelloPacket:
		return "HELLO"
	case PingRequestPacket:
		return "PING_REQUEST"
	case PingReplyPacket:
		return "PING_REPLY"
	}
	return fmt.Sprintf("PacketType(%d)", int(t))
}

// Packet is anything that can be placed in a Mailbox
type Packet interface {
	Type() PacketType
}

// Hello is the neighbour discovery beacon
type Hello struct {
	Source DeviceId
}

// PingRequest travels towards Destination. Sender is either EngineSender or a device id.
type PingRequest struct {
	Source      DeviceId
	Destination DeviceId
	Sender      string
	Id          uuid.UUID
}

// PingReply travels back to Destination, which names the original requester
type PingReply struct {
	Source      DeviceId
	Destination DeviceId
	Id          uuid.UUID
}

func (Hello) Type() PacketType       { return HelloPacket }
func (PingRequest) Type() PacketType { return PingRequestPacket }
func (PingReply) Type() PacketType   { return PingReplyPacket }

func (p Hello) String() string {
	return fmt.Sprintf("HELLO(src: %s)", p.Source)
}

func (p PingRequest) String() string {
	return fmt.Sprintf("PING_REQUEST(src: %s, dst: %s, sender: %s)", p.Source, p.Destination, p.Sender)
}

func (p PingReply) String() string {
	return fmt.Sprintf("PING_REPLY(src: %s, dst: %s)", p.Source, p.Destination)
}
