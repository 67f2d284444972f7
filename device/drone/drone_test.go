package drone

import (
	"testing"
	"time"

	"github.com/dronemesh/flypath/core"
)

// newTestDrone builds a Drone wired to channels the test can drive
// directly, using hand-rolled fakes over the standard library instead
// of a mocking framework.
func newTestDrone(self core.NodeId, neighbors map[core.NodeId]chan<- *core.Packet, dropRate float64) (*Drone, chan core.Command, chan *core.Packet, chan core.ControllerEvent) {
	cmds := make(chan core.Command, 4)
	pkts := make(chan *core.Packet, 4)
	events := make(chan core.ControllerEvent, 8)

	d := New(Config{
		SelfID:    self,
		Events:    events,
		Commands:  cmds,
		Packets:   pkts,
		Neighbors: neighbors,
		DropRate:  dropRate,
	})
	return d, cmds, pkts, events
}

func recvPacket(t *testing.T, ch <-chan *core.Packet) *core.Packet {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for packet")
		return nil
	}
}

func recvEvent(t *testing.T, ch <-chan core.ControllerEvent) core.ControllerEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return core.ControllerEvent{}
	}
}

func expectNoPacket(t *testing.T, ch <-chan *core.Packet) {
	t.Helper()
	select {
	case p := <-ch:
		t.Fatalf("unexpected packet received: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func fragment(hops []core.NodeId, hopIndex int, fragIndex uint64, payload []byte) *core.Packet {
	return &core.Packet{
		Kind:          core.KindFragment,
		Route:         core.RouteHeader{Hops: hops, HopIndex: hopIndex},
		FragmentIndex: fragIndex,
		Payload:       payload,
	}
}
