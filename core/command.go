package core

import "fmt"

// CommandKind tags the variant a Command carries.
type CommandKind uint8

const (
	CommandAddSender CommandKind = iota
	CommandRemoveSender
	CommandSetPacketDropRate
	CommandCrash
)

func (k CommandKind) String() string {
	switch k {
	case CommandAddSender:
		return "AddSender"
	case CommandRemoveSender:
		return "RemoveSender"
	case CommandSetPacketDropRate:
		return "SetPacketDropRate"
	case CommandCrash:
		return "Crash"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// Command is the tagged variant the controller sends on a drone's inbound
// command channel. Only the fields relevant to Kind are meaningful; the
// command handler ignores any Kind it does not recognize, for forward
// compatibility.
type Command struct {
	Kind CommandKind

	// AddSender / RemoveSender
	NeighborId NodeId
	Channel    chan<- *Packet // only set for AddSender

	// SetPacketDropRate
	DropRate float64
}

// NewAddSender builds an AddSender command.
func NewAddSender(id NodeId, ch chan<- *Packet) Command {
	return Command{Kind: CommandAddSender, NeighborId: id, Channel: ch}
}

// NewRemoveSender builds a RemoveSender command.
func NewRemoveSender(id NodeId) Command {
	return Command{Kind: CommandRemoveSender, NeighborId: id}
}

// NewSetPacketDropRate builds a SetPacketDropRate command.
func NewSetPacketDropRate(rate float64) Command {
	return Command{Kind: CommandSetPacketDropRate, DropRate: rate}
}

// NewCrash builds a Crash command.
func NewCrash() Command {
	return Command{Kind: CommandCrash}
}
