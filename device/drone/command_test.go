package drone

import (
	"testing"

	"github.com/dronemesh/flypath/core"
)

func TestHandleCommand_AddSender(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	ch := make(chan *core.Packet, 1)

	if crash := d.handleCommand(core.NewAddSender(5, ch)); crash {
		t.Fatal("AddSender reported crash")
	}
	if _, ok := d.neighbors[5]; !ok {
		t.Fatal("neighbor 5 not present after AddSender")
	}
}

func TestHandleCommand_AddSenderSupersedes(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	old := make(chan *core.Packet, 1)
	newCh := make(chan *core.Packet, 1)

	d.handleCommand(core.NewAddSender(5, old))
	d.handleCommand(core.NewAddSender(5, newCh))

	if d.neighbors[5] != chan<- *core.Packet(newCh) {
		t.Fatal("AddSender did not supersede the old channel")
	}
}

func TestHandleCommand_RemoveSender(t *testing.T) {
	ch := make(chan *core.Packet, 1)
	d, _, _, _ := newTestDrone(1, map[core.NodeId]chan<- *core.Packet{5: ch}, 0)

	d.handleCommand(core.NewRemoveSender(5))
	if _, ok := d.neighbors[5]; ok {
		t.Fatal("neighbor 5 still present after RemoveSender")
	}
}

func TestHandleCommand_RemoveSenderUnknown_NoOp(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	if crash := d.handleCommand(core.NewRemoveSender(99)); crash {
		t.Fatal("RemoveSender(unknown) reported crash")
	}
	if len(d.neighbors) != 0 {
		t.Fatal("RemoveSender(unknown) mutated the neighbor table")
	}
}

func TestHandleCommand_SetPacketDropRate(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	d.handleCommand(core.NewSetPacketDropRate(0.75))
	if d.dropRate != 0.75 {
		t.Fatalf("dropRate = %v, want 0.75", d.dropRate)
	}
}

func TestHandleCommand_SetPacketDropRate_OutOfRangeAccepted(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	d.handleCommand(core.NewSetPacketDropRate(1.5))
	if d.dropRate != 1.5 {
		t.Fatalf("dropRate = %v, want 1.5 (unclamped)", d.dropRate)
	}
}

func TestHandleCommand_Crash(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	if crash := d.handleCommand(core.NewCrash()); !crash {
		t.Fatal("Crash did not report crash")
	}
	if d.State() != Crashing {
		t.Fatalf("State() = %v, want Crashing", d.State())
	}
}

func TestHandleCommand_UnknownIgnored(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	before := d.dropRate
	if crash := d.handleCommand(core.Command{Kind: core.CommandKind(99)}); crash {
		t.Fatal("unknown command reported crash")
	}
	if d.dropRate != before || d.State() != Running {
		t.Fatal("unknown command mutated drone state")
	}
}
