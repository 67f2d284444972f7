package drone

import "github.com/dronemesh/flypath/core"

// handleCommand applies cmd's mutation to the drone's state. It returns
// true if cmd was Crash, signaling Run to transition into the crash
// drainer. Unknown command kinds are ignored silently, for forward
// compatibility.
func (d *Drone) handleCommand(cmd core.Command) (crash bool) {
	switch cmd.Kind {
	case core.CommandAddSender:
		d.addSender(cmd.NeighborId, cmd.Channel)
	case core.CommandRemoveSender:
		d.removeSender(cmd.NeighborId)
	case core.CommandSetPacketDropRate:
		d.setPacketDropRate(cmd.DropRate)
	case core.CommandCrash:
		d.log.Info("received crash command, draining")
		d.state = Crashing
		return true
	default:
		d.log.Debug("ignoring unrecognized command", "kind", cmd.Kind)
	}
	return false
}

// addSender inserts or replaces the neighbor entry for id. Re-adding the
// same id with a new channel silently supersedes the old one; this
// drone never sends on, nor closes, a superseded channel — it simply
// stops holding a reference to it.
func (d *Drone) addSender(id core.NodeId, ch chan<- *core.Packet) {
	d.neighbors[id] = ch
	d.log.Debug("neighbor added", "neighbor", id)
}

// removeSender drops the neighbor entry for id if present. Removing an
// unknown neighbor is a silent no-op, matching the base spec's "no
// error if absent".
func (d *Drone) removeSender(id core.NodeId) {
	if _, ok := d.neighbors[id]; !ok {
		d.log.Debug("remove of unknown neighbor ignored", "neighbor", id)
		return
	}
	delete(d.neighbors, id)
	d.log.Debug("neighbor removed", "neighbor", id)
}

// setPacketDropRate replaces the drop rate unconditionally. Values
// outside [0,1] are accepted without clamping, matching the base spec's
// explicit Open Question decision (see DESIGN.md).
func (d *Drone) setPacketDropRate(rate float64) {
	d.dropRate = rate
	d.log.Debug("drop rate updated", "rate", rate)
}
