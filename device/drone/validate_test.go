package drone

import (
	"testing"

	"github.com/dronemesh/flypath/core"
)

func TestValidate_UnexpectedRecipient(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	pkt := fragment([]core.NodeId{3, 2, 1}, 1, 1, nil) // hops[1]=2, self=1

	res := d.validate(pkt)
	if res.ok {
		t.Fatal("validate() ok = true, want false")
	}
	want := core.UnexpectedRecipient(1)
	if res.kind != want {
		t.Fatalf("kind = %v, want %v", res.kind, want)
	}
}

func TestValidate_DestinationIsDrone(t *testing.T) {
	d, _, _, _ := newTestDrone(1, nil, 0)
	pkt := fragment([]core.NodeId{3, 1}, 1, 1, nil) // self is terminal hop

	res := d.validate(pkt)
	if res.ok {
		t.Fatal("validate() ok = true, want false")
	}
	if res.kind != core.DestinationIsDrone() {
		t.Fatalf("kind = %v, want DestinationIsDrone", res.kind)
	}
}

func TestValidate_ErrorInRouting(t *testing.T) {
	d, _, _, _ := newTestDrone(11, nil, 0) // no neighbors at all
	pkt := fragment([]core.NodeId{1, 11, 12, 21}, 1, 1, nil)

	res := d.validate(pkt)
	if res.ok {
		t.Fatal("validate() ok = true, want false")
	}
	if res.kind != core.ErrorInRouting(12) {
		t.Fatalf("kind = %v, want ErrorInRouting(12)", res.kind)
	}
}

func TestValidate_Valid(t *testing.T) {
	neighbor := make(chan *core.Packet, 1)
	d, _, _, _ := newTestDrone(11, map[core.NodeId]chan<- *core.Packet{12: neighbor}, 0)
	pkt := fragment([]core.NodeId{1, 11, 12, 21}, 1, 1, nil)

	res := d.validate(pkt)
	if !res.ok {
		t.Fatalf("validate() ok = false, kind = %v", res.kind)
	}
}

func TestValidate_IsReadOnly(t *testing.T) {
	neighbor := make(chan *core.Packet, 1)
	d, _, _, _ := newTestDrone(11, map[core.NodeId]chan<- *core.Packet{12: neighbor}, 0)
	pkt := fragment([]core.NodeId{1, 11, 12, 21}, 1, 1, []byte{9})

	before := *pkt
	d.validate(pkt)

	if pkt.Route.HopIndex != before.Route.HopIndex {
		t.Error("validate() mutated HopIndex")
	}
	if len(d.neighbors) != 1 {
		t.Error("validate() mutated neighbor table")
	}
}
