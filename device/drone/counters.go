package drone

import "sync/atomic"

// Counters tracks per-drone operational statistics using atomic
// counters. All fields are safe for concurrent access, since a caller
// may poll Counters from outside the drone's own goroutine while Run
// is active.
type Counters struct {
	PacketsReceived     atomic.Uint64
	PacketsSent         atomic.Uint64
	FragmentsForwarded  atomic.Uint64
	FragmentsDropped    atomic.Uint64
	NacksEmitted        atomic.Uint64
	ControllerShortcuts atomic.Uint64
	FloodDuplicates     atomic.Uint64
}

// CountersSnapshot is a plain-value copy of Counters for reading.
type CountersSnapshot struct {
	PacketsReceived     uint64
	PacketsSent         uint64
	FragmentsForwarded  uint64
	FragmentsDropped    uint64
	NacksEmitted        uint64
	ControllerShortcuts uint64
	FloodDuplicates     uint64
}

// Snapshot returns a plain-value copy of all counters. Each counter is
// loaded atomically on its own; the set is not captured as one unit, so
// counters updated concurrently may be read at slightly different moments.
func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		PacketsReceived:     c.PacketsReceived.Load(),
		PacketsSent:         c.PacketsSent.Load(),
		FragmentsForwarded:  c.FragmentsForwarded.Load(),
		FragmentsDropped:    c.FragmentsDropped.Load(),
		NacksEmitted:        c.NacksEmitted.Load(),
		ControllerShortcuts: c.ControllerShortcuts.Load(),
		FloodDuplicates:     c.FloodDuplicates.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.PacketsReceived.Store(0)
	c.PacketsSent.Store(0)
	c.FragmentsForwarded.Store(0)
	c.FragmentsDropped.Store(0)
	c.NacksEmitted.Store(0)
	c.ControllerShortcuts.Store(0)
	c.FloodDuplicates.Store(0)
}
