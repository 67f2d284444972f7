package drone

import (
	"testing"

	"github.com/dronemesh/flypath/core"
)

func newConfiguredDrone(self core.NodeId, neighbors map[core.NodeId]chan<- *core.Packet, dropRate float64, opts ...func(*Config)) (*Drone, chan *core.Packet, chan core.ControllerEvent) {
	pkts := make(chan *core.Packet, 4)
	events := make(chan core.ControllerEvent, 8)
	cfg := Config{
		SelfID:    self,
		Events:    events,
		Commands:  make(chan core.Command),
		Packets:   pkts,
		Neighbors: neighbors,
		DropRate:  dropRate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg), pkts, events
}

// S1 — forwarding success: drop_rate = 0 always forwards a Fragment,
// incrementing hop index, and emits exactly one PacketSent.
func TestForward_S1_Success(t *testing.T) {
	client := make(chan *core.Packet, 1)
	droneCh := make(chan *core.Packet, 1)
	d, _, events := newConfiguredDrone(11, map[core.NodeId]chan<- *core.Packet{1: client, 12: droneCh}, 0)

	pkt := fragment([]core.NodeId{1, 11, 12, 21}, 1, 1, repeat(1, 128))
	d.handlePacket(pkt)

	sent := recvPacket(t, droneCh)
	if sent.Route.HopIndex != 2 {
		t.Errorf("forwarded HopIndex = %d, want 2", sent.Route.HopIndex)
	}
	if len(sent.Payload) != 128 {
		t.Errorf("forwarded payload length = %d, want 128", len(sent.Payload))
	}

	ev := recvEvent(t, events)
	if ev.Kind != core.EventPacketSent {
		t.Errorf("event kind = %v, want PacketSent", ev.Kind)
	}
	expectNoPacket(t, client)
}

// S2 — mandatory drop: drop_rate = 1 never forwards, always nacks
// Dropped, and emits exactly one PacketDropped.
func TestForward_S2_MandatoryDrop(t *testing.T) {
	client := make(chan *core.Packet, 1)
	droneCh := make(chan *core.Packet, 1)
	d, _, events := newConfiguredDrone(11, map[core.NodeId]chan<- *core.Packet{1: client, 12: droneCh}, 1)

	pkt := fragment([]core.NodeId{1, 11, 12, 21}, 1, 1, repeat(1, 128))
	d.handlePacket(pkt)

	nack := recvPacket(t, client)
	if nack.Kind != core.KindNack {
		t.Fatalf("kind = %v, want Nack", nack.Kind)
	}
	if nack.NackKind != core.Dropped() {
		t.Errorf("NackKind = %v, want Dropped", nack.NackKind)
	}
	if nack.FragmentIndex != 1 {
		t.Errorf("FragmentIndex = %d, want 1", nack.FragmentIndex)
	}
	wantHops := []core.NodeId{11, 1}
	if !equalHops(nack.Route.Hops, wantHops) || nack.Route.HopIndex != 0 {
		t.Errorf("route = %+v, want hops %v hopIndex 0", nack.Route, wantHops)
	}

	ev := recvEvent(t, events)
	if ev.Kind != core.EventPacketDropped {
		t.Errorf("event kind = %v, want PacketDropped", ev.Kind)
	}
	expectNoPacket(t, droneCh)
}

// S4 — unexpected recipient.
func TestForward_S4_UnexpectedRecipient(t *testing.T) {
	hop3 := make(chan *core.Packet, 1)
	d, _, _ := newConfiguredDrone(1, map[core.NodeId]chan<- *core.Packet{3: hop3}, 0)

	pkt := fragment([]core.NodeId{3, 2, 1}, 1, 1, nil)
	d.handlePacket(pkt)

	nack := recvPacket(t, hop3)
	if nack.NackKind != core.UnexpectedRecipient(1) {
		t.Errorf("NackKind = %v, want UnexpectedRecipient(1)", nack.NackKind)
	}
}

// S5 — terminal at drone.
func TestForward_S5_DestinationIsDrone(t *testing.T) {
	hop3 := make(chan *core.Packet, 1)
	d, _, _ := newConfiguredDrone(1, map[core.NodeId]chan<- *core.Packet{3: hop3}, 0)

	pkt := fragment([]core.NodeId{3, 1}, 1, 1, nil)
	d.handlePacket(pkt)

	nack := recvPacket(t, hop3)
	if nack.NackKind != core.DestinationIsDrone() {
		t.Errorf("NackKind = %v, want DestinationIsDrone", nack.NackKind)
	}
}

func TestForward_SendFailure_RemovesNeighborAndNacks(t *testing.T) {
	client := make(chan *core.Packet, 1)
	// unbuffered with no reader: a non-blocking send always fails.
	droneCh := make(chan *core.Packet)
	d, _, _ := newConfiguredDrone(11, map[core.NodeId]chan<- *core.Packet{1: client, 12: droneCh}, 0)

	pkt := fragment([]core.NodeId{1, 11, 12, 21}, 1, 1, nil)
	d.handlePacket(pkt)

	nack := recvPacket(t, client)
	if nack.NackKind != core.ErrorInRouting(12) {
		t.Errorf("NackKind = %v, want ErrorInRouting(12)", nack.NackKind)
	}
	if _, ok := d.neighbors[12]; ok {
		t.Error("neighbor 12 should have been removed after send failure")
	}
}

func TestForward_NonFragment_NoPacketSentEvent(t *testing.T) {
	client := make(chan *core.Packet, 1)
	droneCh := make(chan *core.Packet, 1)
	d, _, events := newConfiguredDrone(11, map[core.NodeId]chan<- *core.Packet{1: client, 12: droneCh}, 0)

	ack := &core.Packet{Kind: core.KindAck, Route: core.RouteHeader{Hops: []core.NodeId{1, 11, 12, 21}, HopIndex: 1}}
	d.handlePacket(ack)

	recvPacket(t, droneCh)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for forwarded Ack: %+v", ev)
	default:
	}
}

func repeat(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

func equalHops(a, b []core.NodeId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
