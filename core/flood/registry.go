// Package flood tracks which flood-discovery requests a drone has
// already rebroadcast, to suppress re-broadcast storms.
//
// It is a small, owned collaborator queried and mutated by the packet
// handler, with no external state and no persistence across restarts.
package flood

import "github.com/dronemesh/flypath/core"

// Key identifies a flood by its id and the node that initiated it.
// Duplicate detection ignores SessionID entirely.
type Key struct {
	FloodID     uint64
	InitiatorID core.NodeId
}

// Registry is the set of floods this drone has already rebroadcast.
// Membership only ever grows for the life of the drone.
type Registry struct {
	seen map[Key]struct{}
}

// New creates an empty flood registry.
func New() *Registry {
	return &Registry{seen: make(map[Key]struct{})}
}

// Seen reports whether key has already been rebroadcast.
func (r *Registry) Seen(key Key) bool {
	_, ok := r.seen[key]
	return ok
}

// Insert records key as rebroadcast. It is idempotent.
func (r *Registry) Insert(key Key) {
	r.seen[key] = struct{}{}
}

// Len returns the number of distinct floods recorded.
func (r *Registry) Len() int {
	return len(r.seen)
}
