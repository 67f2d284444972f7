// Package drone implements the run loop and packet-forwarding state
// machine of an overlay-mesh forwarding node. It owns the node's
// neighbor table, seen-flood registry, drop rate, and lifecycle state
// exclusively; the only thing it shares with the rest of the process is
// channels.
package drone

import (
	"log/slog"
	"math/rand/v2"

	"github.com/dronemesh/flypath/core"
	"github.com/dronemesh/flypath/core/flood"
	"github.com/dronemesh/flypath/identity"
)

// LifecycleState distinguishes a normally-running drone from one that has
// received Crash and is draining.
type LifecycleState uint8

const (
	Running LifecycleState = iota
	Crashing
)

func (s LifecycleState) String() string {
	if s == Crashing {
		return "crashing"
	}
	return "running"
}

// Config configures a Drone, using zero-value defaulting: pass what
// you have, New fills in the rest.
type Config struct {
	// SelfID is this drone's identity.
	SelfID core.NodeId

	// Events is the outbound channel to the controller. Required: a
	// drone with a nil Events channel blocks forever the first time it
	// tries to emit one, since sending on a nil channel never proceeds.
	Events chan<- core.ControllerEvent

	// Commands is the inbound channel of commands from the controller.
	// Mutually exclusive with SignedCommands — set exactly one.
	Commands <-chan core.Command

	// SignedCommands, combined with CommandVerifyKey, is the inbound
	// channel of signed commands from the controller. When
	// CommandVerifyKey is set, every command must arrive on this
	// channel and verify before it is applied; unverified commands are
	// dropped with a warning log and otherwise have no effect.
	SignedCommands <-chan identity.SignedCommand

	// CommandVerifyKey, if set, selects the SignedCommands channel and
	// the controller's public key to verify against. When nil (the
	// default), Commands is used and commands are applied
	// unconditionally, matching the base spec.
	CommandVerifyKey identity.VerifyKey

	// Packets is the inbound channel of packets from neighbors.
	Packets <-chan *core.Packet

	// Neighbors seeds the initial neighbor table. New copies it; the
	// caller's map is never retained or mutated.
	Neighbors map[core.NodeId]chan<- *core.Packet

	// DropRate is the initial probabilistic drop rate for Fragments, in
	// [0,1] by contract. Out-of-range values are accepted without
	// validation, per the base spec's explicit Open Question decision;
	// the drop lottery's strict less-than comparison still degrades
	// safely (never-drop below 0, always-drop above 1).
	DropRate float64

	// Logger receives structured logs for this drone. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Rand seeds the drop-lottery PRNG. Defaults to a fresh
	// math/rand/v2 source, matching the per-node PRNG the base spec
	// calls for (seeding may be time-based; no cryptographic quality
	// required).
	Rand *rand.Rand
}

// Drone is a single forwarding participant in the mesh. All of its state
// is owned exclusively by the goroutine running Run; nothing here needs
// a mutex except Counters, which a caller may legitimately poll from
// another goroutine.
type Drone struct {
	cfg      Config
	log      *slog.Logger
	rng      *rand.Rand
	state    LifecycleState
	commands <-chan core.Command

	neighbors map[core.NodeId]chan<- *core.Packet
	dropRate  float64
	floods    *flood.Registry

	counters Counters
}

// New creates a Drone from cfg, defaulting any unset fields.
func New(cfg Config) *Drone {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	neighbors := make(map[core.NodeId]chan<- *core.Packet, len(cfg.Neighbors))
	for id, ch := range cfg.Neighbors {
		neighbors[id] = ch
	}

	log := logger.With("drone", cfg.SelfID).WithGroup("drone")

	d := &Drone{
		cfg:       cfg,
		log:       log,
		rng:       rng,
		state:     Running,
		neighbors: neighbors,
		dropRate:  cfg.DropRate,
		floods:    flood.New(),
	}

	if cfg.CommandVerifyKey != nil {
		d.commands = verifyingCommandChannel(cfg.SignedCommands, cfg.CommandVerifyKey, log)
	} else {
		d.commands = cfg.Commands
	}

	return d
}

// verifyingCommandChannel adapts a channel of SignedCommand into a
// channel of plain Command, dropping (and logging) any command that
// fails to verify against key. The returned channel closes once in
// closes.
func verifyingCommandChannel(in <-chan identity.SignedCommand, key identity.VerifyKey, log *slog.Logger) <-chan core.Command {
	out := make(chan core.Command)
	go func() {
		defer close(out)
		for sc := range in {
			if err := identity.Verify(sc, key); err != nil {
				log.Warn("rejecting unverified command", "error", err)
				continue
			}
			out <- sc.Command
		}
	}()
	return out
}

// Counters returns a live pointer to this drone's operational counters.
func (d *Drone) Counters() *Counters {
	return &d.counters
}

// State returns the drone's current lifecycle state.
func (d *Drone) State() LifecycleState {
	return d.state
}

// Run is the drone's cooperative run loop. It priority-selects between
// the command channel and the packet channel, dispatching to the
// command handler or the packet handler, until a Crash command
// transitions it into the crash drainer, or the command channel closes.
//
// Go's select statement has no native priority ordering, so command
// priority is simulated: a non-blocking receive on the command channel
// is attempted first on every iteration, before falling back to a
// blocking select over both channels. This is the documented workaround
// for implementations without a priority select primitive.
func (d *Drone) Run() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(fatalControllerLoss); ok {
				d.log.Error("controller event channel lost, terminating")
				return
			}
			panic(r)
		}
	}()

	for {
		select {
		case cmd, ok := <-d.commands:
			if !ok {
				d.log.Info("command channel closed, terminating")
				return
			}
			if d.handleCommand(cmd) {
				d.runCrashDrainer()
				return
			}
			continue
		default:
		}

		select {
		case cmd, ok := <-d.commands:
			if !ok {
				d.log.Info("command channel closed, terminating")
				return
			}
			if d.handleCommand(cmd) {
				d.runCrashDrainer()
				return
			}
		case pkt, ok := <-d.cfg.Packets:
			if !ok {
				d.waitCommandsOnly()
				return
			}
			d.handlePacket(pkt)
		}
	}
}

// waitCommandsOnly is entered once the packet channel has closed while
// the drone is still Running: it keeps honoring commands (including a
// possible Crash, which still needs to transition into the drainer even
// though there is nothing left to drain on this path) until the command
// channel closes too.
func (d *Drone) waitCommandsOnly() {
	for cmd := range d.commands {
		if d.handleCommand(cmd) {
			d.runCrashDrainer()
			return
		}
	}
	d.log.Info("command channel closed, terminating")
}
