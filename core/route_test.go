package core

import (
	"reflect"
	"testing"
)

func TestRouteHeader_CurrentAndNextHop(t *testing.T) {
	r := RouteHeader{Hops: []NodeId{1, 11, 12, 21}, HopIndex: 1}

	hop, ok := r.CurrentHop()
	if !ok || hop != 11 {
		t.Fatalf("CurrentHop() = (%v, %v), want (11, true)", hop, ok)
	}

	next, ok := r.NextHop()
	if !ok || next != 12 {
		t.Fatalf("NextHop() = (%v, %v), want (12, true)", next, ok)
	}

	if r.AtLastHop() {
		t.Fatal("AtLastHop() = true, want false")
	}
}

func TestRouteHeader_AtLastHop(t *testing.T) {
	r := RouteHeader{Hops: []NodeId{3, 1}, HopIndex: 1}
	if !r.AtLastHop() {
		t.Fatal("AtLastHop() = false, want true")
	}
	if _, ok := r.NextHop(); ok {
		t.Fatal("NextHop() ok = true, want false at the terminal hop")
	}
}

func TestRouteHeader_AdvancedRetreated(t *testing.T) {
	r := RouteHeader{Hops: []NodeId{1, 11, 12, 21}, HopIndex: 1}
	a := r.Advanced()
	if a.HopIndex != 2 || r.HopIndex != 1 {
		t.Fatalf("Advanced() mutated receiver or produced wrong index: got %d, orig %d", a.HopIndex, r.HopIndex)
	}
	back := a.Retreated()
	if back.HopIndex != 1 {
		t.Fatalf("Retreated() HopIndex = %d, want 1", back.HopIndex)
	}
}

func TestReverseThrough(t *testing.T) {
	// route [1, 11, 12, 21], failure observed at hop_index=1 (node 11)
	got := ReverseThrough([]NodeId{1, 11, 12, 21}, 1)
	want := RouteHeader{Hops: []NodeId{11, 1}, HopIndex: 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReverseThrough() = %+v, want %+v", got, want)
	}
}

func TestReverseThrough_AtSecondHop(t *testing.T) {
	// client=1, node 11 forwards to node 12 which drops: k=2 (node 12's own
	// position in the full route [1,11,12,21])
	got := ReverseThrough([]NodeId{1, 11, 12, 21}, 2)
	want := RouteHeader{Hops: []NodeId{12, 11, 1}, HopIndex: 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReverseThrough() = %+v, want %+v", got, want)
	}
}
