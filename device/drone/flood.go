package drone

import (
	"github.com/dronemesh/flypath/core"
	"github.com/dronemesh/flypath/core/flood"
)

// handleFloodRequest implements §4.6. FloodRequests carry no route —
// they propagate by accumulating a path trace and fanning out to every
// neighbor but the one they arrived from, rather than by source
// routing, so they never go through validate().
func (d *Drone) handleFloodRequest(req *core.Packet) {
	if len(req.PathTrace) == 0 {
		// Ill-formed request: no sender to respond to. Drop silently.
		d.log.Debug("dropping flood request with empty path trace", "flood_id", req.FloodID)
		return
	}

	prior := req.PathTrace[len(req.PathTrace)-1]

	extended := req.Clone()
	extended.PathTrace = append(extended.PathTrace, core.PathTraceEntry{
		Id:   d.cfg.SelfID,
		Kind: core.NodeKindDrone,
	})

	key := flood.Key{FloodID: extended.FloodID, InitiatorID: extended.InitiatorID}

	if !d.floods.Seen(key) && len(d.neighbors) > 1 {
		d.floods.Insert(key)
		d.rebroadcastFlood(extended, prior.Id)
		return
	}

	if d.floods.Seen(key) {
		d.counters.FloodDuplicates.Add(1)
	}
	d.respondToFlood(extended)
}

// rebroadcastFlood sends a fresh FloodRequest carrying the accumulated
// path trace to every neighbor except the one the request arrived from.
// The route and session id of the forwarded request stay zero-value and
// unchanged respectively, matching the original.
func (d *Drone) rebroadcastFlood(req *core.Packet, priorHop core.NodeId) {
	for id, ch := range d.neighbors {
		if id == priorHop {
			continue
		}
		fwd := req.Clone()
		if trySend(ch, fwd) {
			d.counters.PacketsSent.Add(1)
		} else {
			delete(d.neighbors, id)
		}
	}
}

// respondToFlood builds the FloodResponse for a duplicate flood, or for
// a leaf node with at most one neighbor: the response's route is the
// accumulated path trace's node ids, reversed, with hop index 0, so the
// first hop is this drone (the entry it just appended to the trace) and
// the last hop is the trace's first entry.
func (d *Drone) respondToFlood(req *core.Packet) {
	hops := make([]core.NodeId, len(req.PathTrace))
	for i, entry := range req.PathTrace {
		hops[len(req.PathTrace)-1-i] = entry.Id
	}

	resp := &core.Packet{
		Kind:        core.KindFloodResponse,
		Route:       core.RouteHeader{Hops: hops, HopIndex: 0},
		SessionID:   req.SessionID,
		FloodID:     req.FloodID,
		InitiatorID: req.InitiatorID,
		PathTrace:   append([]core.PathTraceEntry(nil), req.PathTrace...),
	}

	d.forwardNormally(resp)
}
