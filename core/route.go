package core

// RouteHeader carries the full source route a packet follows and a
// cursor into it. Hops[HopIndex] is always the node currently meant to
// be holding the packet; HopIndex == len(Hops) means the route is
// exhausted.
type RouteHeader struct {
	Hops     []NodeId
	HopIndex int
}

// CurrentHop returns the node id this header currently points at and
// whether the cursor is still within bounds.
func (r RouteHeader) CurrentHop() (NodeId, bool) {
	if r.HopIndex < 0 || r.HopIndex >= len(r.Hops) {
		return 0, false
	}
	return r.Hops[r.HopIndex], true
}

// AtLastHop reports whether HopIndex refers to the final entry of Hops,
// i.e. there is no next hop to forward to.
func (r RouteHeader) AtLastHop() bool {
	return r.HopIndex+1 == len(r.Hops)
}

// NextHop returns the node id one past the current cursor and whether
// it exists.
func (r RouteHeader) NextHop() (NodeId, bool) {
	i := r.HopIndex + 1
	if i < 0 || i >= len(r.Hops) {
		return 0, false
	}
	return r.Hops[i], true
}

// Advanced returns a copy of the header with HopIndex incremented by
// one. It does not mutate the receiver.
func (r RouteHeader) Advanced() RouteHeader {
	r.HopIndex++
	return r
}

// Retreated returns a copy of the header with HopIndex decremented by
// one. Used to roll back a tentative advance when a send fails.
func (r RouteHeader) Retreated() RouteHeader {
	r.HopIndex--
	return r
}

// ReverseThrough builds the reverse route used for Nacks and flood
// responses: it takes Hops[0..=k] inclusive of k, reverses it, and resets
// HopIndex to 0, so the new route's first hop is whoever held the packet
// at index k and its last hop is the original source (Hops[0]).
func ReverseThrough(hops []NodeId, k int) RouteHeader {
	slice := make([]NodeId, k+1)
	copy(slice, hops[:k+1])
	for i, j := 0, len(slice)-1; i < j; i, j = i+1, j-1 {
		slice[i], slice[j] = slice[j], slice[i]
	}
	return RouteHeader{Hops: slice, HopIndex: 0}
}
