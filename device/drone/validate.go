package drone

import "github.com/dronemesh/flypath/core"

// validationResult is the outcome of validating an inbound non-FloodRequest
// packet against its source route: either the packet is clear to forward,
// or a NackKind names why it isn't. The zero value (ok=false, zero
// NackKind) never escapes validate — every non-ok path fills in a kind.
type validationResult struct {
	ok   bool
	kind core.NackKind
}

func valid() validationResult { return validationResult{ok: true} }

func invalid(kind core.NackKind) validationResult { return validationResult{ok: false, kind: kind} }

// validate runs the three-step check from the base spec against any
// packet that is not a FloodRequest (FloodRequests have no route and
// bypass validation entirely — see flood.go). It is read-only: it never
// mutates the packet or the drone's state.
func (d *Drone) validate(pkt *core.Packet) validationResult {
	current, ok := pkt.Route.CurrentHop()
	if !ok || current != d.cfg.SelfID {
		return invalid(core.UnexpectedRecipient(d.cfg.SelfID))
	}

	if pkt.Route.AtLastHop() {
		return invalid(core.DestinationIsDrone())
	}

	next, _ := pkt.Route.NextHop()
	if _, reachable := d.neighbors[next]; !reachable {
		return invalid(core.ErrorInRouting(next))
	}

	return valid()
}
