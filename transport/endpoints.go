// Package transport defines the boundary between a drone's in-process
// neighbor channels and the outside world. A bridge (bridge/mqtt,
// bridge/serial) implements Transport to carry packets to and from a
// physical or logical link that isn't just another goroutine.
package transport

import (
	"context"

	"github.com/dronemesh/flypath/core"
)

// Transport is the interface every bridge implements.
type Transport interface {
	// Start begins the transport's connection and message handling. The
	// provided context controls the transport's lifetime.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the transport.
	Stop() error
	// IsConnected returns true if the transport is currently connected.
	IsConnected() bool
	// SetPacketHandler sets the callback for packets arriving over the
	// transport, destined for the local drone.
	SetPacketHandler(fn PacketHandler)
	// SetStateHandler sets the callback for transport state changes.
	SetStateHandler(fn StateHandler)
	// SendPacket encodes and transmits a packet over the transport.
	SendPacket(pkt *core.Packet) error
}

// PacketHandler is called when a packet arrives over a transport.
type PacketHandler func(pkt *core.Packet, source PacketSource)

// StateHandler is called when a transport's connection state changes.
type StateHandler func(t Transport, event Event)

// Event is a transport connection state change.
type Event int

const (
	EventConnected Event = iota
	EventDisconnected
	EventReconnecting
	EventError
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventReconnecting:
		return "reconnecting"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// PacketSource identifies which kind of transport a packet arrived over.
type PacketSource int

const (
	PacketSourceMQTT PacketSource = iota
	PacketSourceSerial
	PacketSourceLocal
)

func (s PacketSource) String() string {
	switch s {
	case PacketSourceMQTT:
		return "mqtt"
	case PacketSourceSerial:
		return "serial"
	case PacketSourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Endpoints binds a drone's neighbor table to the bridges that implement
// its off-process neighbors. Channel exposes a neighbor id as a
// regular chan<- *core.Packet the drone can send to like any in-process
// neighbor, while the other direction is driven by the bridge's
// PacketHandler pushing onto the drone's inbound Packets channel.
type Endpoints struct {
	neighborID core.NodeId
	transport  Transport
	outbound   chan *core.Packet
}

// NewEndpoint starts forwarding packets sent on the endpoint's Channel
// out over t, unchanged, for the neighbor neighborID. A failed
// SendPacket is skipped without retry. Call Close to stop the forwarding
// goroutine once the bridge is no longer needed.
func NewEndpoint(neighborID core.NodeId, t Transport) *Endpoints {
	e := &Endpoints{
		neighborID: neighborID,
		transport:  t,
		outbound:   make(chan *core.Packet, 16),
	}
	go e.run()
	return e
}

// Channel returns the channel a drone can register as this neighbor's
// send side via core.NewAddSender.
func (e *Endpoints) Channel() chan<- *core.Packet {
	return e.outbound
}

// Close stops forwarding outbound packets. It does not stop the
// underlying transport.
func (e *Endpoints) Close() {
	close(e.outbound)
}

func (e *Endpoints) run() {
	for pkt := range e.outbound {
		if err := e.transport.SendPacket(pkt); err != nil {
			continue
		}
	}
}
