package drone

import "github.com/dronemesh/flypath/core"

// runCrashDrainer implements §4.7. It is entered once on the Crash
// command and never returns to normal operation. The command channel is
// ignored entirely from here on; the drone blocks on the packet channel
// (rather than polling it) until it reports disconnection, matching the
// base spec's "must not busy-spin" requirement and its explicit
// block-vs-poll Open Question (see DESIGN.md).
func (d *Drone) runCrashDrainer() {
	for pkt := range d.cfg.Packets {
		d.drainPacket(pkt)
	}
	d.log.Info("packet channel drained, terminating")
}

// drainPacket applies the crash drainer's per-kind rules: Fragments are
// intentionally unreachable now and get an ErrorInRouting(self) Nack;
// Ack/Nack/FloodResponse are still precious signals and are forwarded
// normally; FloodRequest is discarded, since starting a fresh discovery
// through a node that is shutting down serves no one.
func (d *Drone) drainPacket(pkt *core.Packet) {
	switch pkt.Kind {
	case core.KindFragment:
		d.handleFailure(pkt, core.ErrorInRouting(d.cfg.SelfID))
	case core.KindAck, core.KindNack, core.KindFloodResponse:
		d.forwardNormally(pkt)
	case core.KindFloodRequest:
		// discarded silently
	}
}
