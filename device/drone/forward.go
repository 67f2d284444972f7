package drone

import "github.com/dronemesh/flypath/core"

// fatalControllerLoss is panicked by emitEvent when the controller event
// channel is closed. The drone has no upstream left to report to and
// must terminate; Run recovers this specific value at the top of the
// loop and returns.
type fatalControllerLoss struct{}

// handlePacket is the packet handler's entry point (§4.4-§4.6 of the
// design). FloodRequests bypass validation entirely, since their route
// is empty by design; everything else goes through the normal
// validate → drop-lottery → forward pipeline.
func (d *Drone) handlePacket(pkt *core.Packet) {
	d.counters.PacketsReceived.Add(1)

	if pkt.Kind == core.KindFloodRequest {
		d.handleFloodRequest(pkt)
		return
	}

	d.forwardNormally(pkt)
}

// forwardNormally is "the normal forwarding path" referenced throughout
// §4.4-§4.5: validate, run the drop lottery for Fragments, then attempt
// to send. Any failure — validation, drop, or a failed send — routes
// through handleFailure, which decides between building a Nack and
// emitting a ControllerShortcut. It is also how a Nack this drone just
// built for a Fragment failure is itself forwarded, which is what makes
// the one-level ControllerShortcut fallback (§4.5) fall out naturally:
// a Nack that fails validation here routes straight to the
// Ack/Nack/FloodResponse branch of handleFailure, never back into the
// Fragment branch that would build yet another Nack.
func (d *Drone) forwardNormally(pkt *core.Packet) {
	res := d.validate(pkt)
	if !res.ok {
		d.handleFailure(pkt, res.kind)
		return
	}

	if pkt.Kind == core.KindFragment {
		if d.rng.Float64() < d.dropRate {
			d.handleFailure(pkt, core.Dropped())
			return
		}
	}

	d.sendForward(pkt)
}

// sendForward increments the route's hop index, sends the packet to the
// resulting next hop, and reports a PacketSent event for Fragments that
// were successfully forwarded. A failed send removes the neighbor from
// the table and reports ErrorInRouting using the route as it stood
// before the increment, so the resulting Nack's reverse route starts
// from this node rather than the unreachable neighbor.
func (d *Drone) sendForward(pkt *core.Packet) {
	nextHop, _ := pkt.Route.NextHop() // guaranteed present: validate() just checked it
	ch := d.neighbors[nextHop]

	forwarded := pkt.Clone()
	forwarded.Route = pkt.Route.Advanced()

	if !trySend(ch, forwarded) {
		delete(d.neighbors, nextHop)
		d.handleFailure(pkt, core.ErrorInRouting(nextHop))
		return
	}

	d.counters.PacketsSent.Add(1)
	if pkt.Kind == core.KindFragment {
		d.emitEvent(core.PacketSent(forwarded))
		d.counters.FragmentsForwarded.Add(1)
	}
}

// trySend attempts a non-blocking send on ch, treating both a full
// channel and a closed one as failure — matching §5's stated preference
// for non-blocking sends that degrade to ErrorInRouting rather than
// stalling the drone's single cooperative loop on backpressure. A send
// on a closed channel panics in Go; recover turns that into the same
// false result a full buffer would produce.
func trySend(ch chan<- *core.Packet, pkt *core.Packet) (sent bool) {
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case ch <- pkt:
		return true
	default:
		return false
	}
}

// emitEvent sends ev to the controller. A closed event channel is fatal
// per §4.5/§7: the drone has no upstream to report to and must
// terminate, which it does by panicking fatalControllerLoss for Run's
// top-level recover to catch.
func (d *Drone) emitEvent(ev core.ControllerEvent) {
	func() {
		defer func() {
			if recover() != nil {
				panic(fatalControllerLoss{})
			}
		}()
		d.cfg.Events <- ev
	}()
}
