package drone

import "github.com/dronemesh/flypath/core"

// handleFailure implements the policy-by-offending-packet-kind table of
// §4.5: a failing Fragment gets a Nack built and forwarded back along
// the reverse route; a failing Ack, Nack, or FloodResponse is hard to
// route further in-band, so the controller is asked to deliver it by
// shortcut instead. kind is the failure just observed — from
// validation, the drop lottery, or a failed send — and is recorded on
// the Fragment's Nack but otherwise only used to decide whether to also
// emit a PacketDropped event.
func (d *Drone) handleFailure(pkt *core.Packet, kind core.NackKind) {
	switch pkt.Kind {
	case core.KindFragment:
		if kind.Reason == core.NackDropped {
			d.emitEvent(core.PacketDropped(pkt))
			d.counters.FragmentsDropped.Add(1)
		}
		nack := d.buildNack(pkt, kind)
		d.counters.NacksEmitted.Add(1)
		d.forwardNormally(nack)

	case core.KindAck, core.KindNack, core.KindFloodResponse:
		d.emitEvent(core.ControllerShortcut(pkt))
		d.counters.ControllerShortcuts.Add(1)

	case core.KindFloodRequest:
		// Unreachable: FloodRequests never enter the validated forwarding
		// path (see flood.go), so they never produce a failure here.
	}
}

// buildNack constructs the Nack reply for a failing Fragment. The
// reverse route runs from this node's current position in the offending
// packet's route back to the original source, per §4.5's construction:
// hops[0..=k] reversed, with hop index reset to 0. Its first hop is
// always this node, even when the offending route named another node at
// position k (UnexpectedRecipient), so the Nack passes this node's own
// validation and reaches the previous hop.
func (d *Drone) buildNack(offending *core.Packet, kind core.NackKind) *core.Packet {
	k := offending.Route.HopIndex
	route := core.ReverseThrough(offending.Route.Hops, k)
	route.Hops[0] = d.cfg.SelfID
	return &core.Packet{
		Kind:          core.KindNack,
		Route:         route,
		SessionID:     offending.SessionID,
		FragmentIndex: offending.FragmentIndex,
		NackKind:      kind,
	}
}
