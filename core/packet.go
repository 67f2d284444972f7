package core

import "fmt"

// Kind tags the variant a Packet carries. Classical pattern-match
// dispatch on Kind drives the drone's packet handler; Packet is not
// modeled as a class hierarchy.
type Kind uint8

const (
	KindFragment Kind = iota
	KindAck
	KindNack
	KindFloodRequest
	KindFloodResponse
)

func (k Kind) String() string {
	switch k {
	case KindFragment:
		return "Fragment"
	case KindAck:
		return "Ack"
	case KindNack:
		return "Nack"
	case KindFloodRequest:
		return "FloodRequest"
	case KindFloodResponse:
		return "FloodResponse"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// NodeKind tags a hop recorded in a flood's path trace.
type NodeKind uint8

const (
	NodeKindClient NodeKind = iota
	NodeKindServer
	NodeKindDrone
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindClient:
		return "Client"
	case NodeKindServer:
		return "Server"
	case NodeKindDrone:
		return "Drone"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// PathTraceEntry records one hop a FloodRequest or FloodResponse has
// passed through.
type PathTraceEntry struct {
	Id   NodeId
	Kind NodeKind
}

// NackReason tags which of the four failure causes a Nack reports.
type NackReason uint8

const (
	// NackDropped: the fragment was discarded by the probabilistic drop
	// policy.
	NackDropped NackReason = iota
	// NackDestinationIsDrone: the route terminates at this node, but this
	// node is a forwarding drone, not an endpoint.
	NackDestinationIsDrone
	// NackUnexpectedRecipient: the upstream routed the packet to the
	// wrong node.
	NackUnexpectedRecipient
	// NackErrorInRouting: the named next hop is not reachable from this
	// node.
	NackErrorInRouting
)

func (r NackReason) String() string {
	switch r {
	case NackDropped:
		return "Dropped"
	case NackDestinationIsDrone:
		return "DestinationIsDrone"
	case NackUnexpectedRecipient:
		return "UnexpectedRecipient"
	case NackErrorInRouting:
		return "ErrorInRouting"
	default:
		return fmt.Sprintf("NackReason(%d)", uint8(r))
	}
}

// NackKind identifies the cause of a forwarding failure. UnexpectedRecipient
// and ErrorInRouting carry the NodeId relevant to the failure (the node that
// was wrongly addressed, or the unreachable next hop, respectively);
// Dropped and DestinationIsDrone carry no extra data.
type NackKind struct {
	Reason NackReason
	NodeId NodeId
}

func (k NackKind) String() string {
	switch k.Reason {
	case NackUnexpectedRecipient, NackErrorInRouting:
		return fmt.Sprintf("%s(%s)", k.Reason, k.NodeId)
	default:
		return k.Reason.String()
	}
}

// Dropped builds the Dropped NackKind.
func Dropped() NackKind { return NackKind{Reason: NackDropped} }

// DestinationIsDrone builds the DestinationIsDrone NackKind.
func DestinationIsDrone() NackKind { return NackKind{Reason: NackDestinationIsDrone} }

// UnexpectedRecipient builds the UnexpectedRecipient NackKind for the node
// that was wrongly addressed.
func UnexpectedRecipient(self NodeId) NackKind {
	return NackKind{Reason: NackUnexpectedRecipient, NodeId: self}
}

// ErrorInRouting builds the ErrorInRouting NackKind for the unreachable
// next hop.
func ErrorInRouting(nextHop NodeId) NackKind {
	return NackKind{Reason: NackErrorInRouting, NodeId: nextHop}
}

// Packet is the tagged variant the drone forwards. Its fields are a
// union in spirit: Fragment/Ack/Nack use FragmentIndex and, for Nack,
// NackKind; FloodRequest/FloodResponse use FloodID, InitiatorID, and
// PathTrace, and carry a zero-value Route while in flight as a
// FloodRequest.
type Packet struct {
	Kind      Kind
	Route     RouteHeader
	SessionID uint64

	// Fragment / Ack / Nack fields.
	FragmentIndex uint64
	Payload       []byte // only meaningful for Fragment
	NackKind      NackKind

	// FloodRequest / FloodResponse fields.
	FloodID     uint64
	InitiatorID NodeId
	PathTrace   []PathTraceEntry
}

// Clone returns a deep-enough copy of p suitable for mutating (path
// trace, route, payload) without aliasing the original's backing
// arrays.
func (p *Packet) Clone() *Packet {
	c := *p
	if p.Payload != nil {
		c.Payload = append([]byte(nil), p.Payload...)
	}
	if p.Route.Hops != nil {
		c.Route.Hops = append([]NodeId(nil), p.Route.Hops...)
	}
	if p.PathTrace != nil {
		c.PathTrace = append([]PathTraceEntry(nil), p.PathTrace...)
	}
	return &c
}
