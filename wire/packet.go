// Package wire is the binary packet codec used at bridge boundaries only.
// Every in-process component passes *core.Packet around directly; nothing
// in core or device/drone imports this package. Only bridge/mqtt and
// bridge/serial need a byte representation, to hand packets to a broker
// or a radio.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dronemesh/flypath/core"
)

const (
	// MaxHops bounds the route length we'll decode, guarding against a
	// corrupt length prefix inflating an allocation.
	MaxHops = 64
	// MaxPayload bounds a fragment payload, mirroring a sane MTU for the
	// underlying bridges.
	MaxPayload = 1024
	// MaxPathTrace bounds the number of flood path-trace entries we'll
	// decode for the same reason as MaxHops.
	MaxPathTrace = 64
)

var (
	ErrTooShort        = errors.New("wire: buffer too short")
	ErrUnknownKind     = errors.New("wire: unknown packet kind")
	ErrHopsTooLong     = errors.New("wire: route exceeds maximum hop count")
	ErrPayloadTooLong  = errors.New("wire: payload exceeds maximum size")
	ErrPathTraceTooLong = errors.New("wire: path trace exceeds maximum length")
)

// EncodePacket serializes a packet for transmission over a bridge. The
// format is: [kind:1][fields depending on kind]. It never mutates pkt.
func EncodePacket(pkt *core.Packet) ([]byte, error) {
	var buf []byte
	buf = append(buf, byte(pkt.Kind))

	switch pkt.Kind {
	case core.KindFragment:
		buf = appendRoute(buf, pkt.Route)
		buf = appendUint64(buf, pkt.SessionID)
		buf = appendUint64(buf, pkt.FragmentIndex)
		if len(pkt.Payload) > MaxPayload {
			return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(pkt.Payload))
		}
		buf = appendUint16(buf, uint16(len(pkt.Payload)))
		buf = append(buf, pkt.Payload...)

	case core.KindAck:
		buf = appendRoute(buf, pkt.Route)
		buf = appendUint64(buf, pkt.SessionID)
		buf = appendUint64(buf, pkt.FragmentIndex)

	case core.KindNack:
		buf = appendRoute(buf, pkt.Route)
		buf = appendUint64(buf, pkt.SessionID)
		buf = appendUint64(buf, pkt.FragmentIndex)
		buf = append(buf, byte(pkt.NackKind.Reason))
		buf = appendUint16(buf, uint16(pkt.NackKind.NodeId))

	case core.KindFloodRequest:
		buf = appendUint64(buf, pkt.SessionID)
		buf = appendUint64(buf, pkt.FloodID)
		buf = appendUint16(buf, uint16(pkt.InitiatorID))
		var err error
		buf, err = appendPathTrace(buf, pkt.PathTrace)
		if err != nil {
			return nil, err
		}

	case core.KindFloodResponse:
		buf = appendRoute(buf, pkt.Route)
		buf = appendUint64(buf, pkt.SessionID)
		buf = appendUint64(buf, pkt.FloodID)
		buf = appendUint16(buf, uint16(pkt.InitiatorID))
		var err error
		buf, err = appendPathTrace(buf, pkt.PathTrace)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, pkt.Kind)
	}

	return buf, nil
}

// DecodePacket parses a packet previously produced by EncodePacket.
func DecodePacket(data []byte) (*core.Packet, error) {
	if len(data) < 1 {
		return nil, ErrTooShort
	}
	kind := core.Kind(data[0])
	rest := data[1:]

	pkt := &core.Packet{Kind: kind}

	switch kind {
	case core.KindFragment:
		route, rest2, err := readRoute(rest)
		if err != nil {
			return nil, err
		}
		pkt.Route = route
		sessionID, rest3, err := readUint64(rest2)
		if err != nil {
			return nil, err
		}
		pkt.SessionID = sessionID
		fragIdx, rest4, err := readUint64(rest3)
		if err != nil {
			return nil, err
		}
		pkt.FragmentIndex = fragIdx
		payload, _, err := readPayload(rest4)
		if err != nil {
			return nil, err
		}
		pkt.Payload = payload

	case core.KindAck:
		route, rest2, err := readRoute(rest)
		if err != nil {
			return nil, err
		}
		pkt.Route = route
		sessionID, rest3, err := readUint64(rest2)
		if err != nil {
			return nil, err
		}
		pkt.SessionID = sessionID
		fragIdx, _, err := readUint64(rest3)
		if err != nil {
			return nil, err
		}
		pkt.FragmentIndex = fragIdx

	case core.KindNack:
		route, rest2, err := readRoute(rest)
		if err != nil {
			return nil, err
		}
		pkt.Route = route
		sessionID, rest3, err := readUint64(rest2)
		if err != nil {
			return nil, err
		}
		pkt.SessionID = sessionID
		fragIdx, rest4, err := readUint64(rest3)
		if err != nil {
			return nil, err
		}
		pkt.FragmentIndex = fragIdx
		if len(rest4) < 3 {
			return nil, ErrTooShort
		}
		pkt.NackKind = core.NackKind{
			Reason: core.NackReason(rest4[0]),
			NodeId: core.NodeId(binary.BigEndian.Uint16(rest4[1:3])),
		}

	case core.KindFloodRequest:
		sessionID, rest1, err := readUint64(rest)
		if err != nil {
			return nil, err
		}
		pkt.SessionID = sessionID
		floodID, rest2, err := readUint64(rest1)
		if err != nil {
			return nil, err
		}
		pkt.FloodID = floodID
		if len(rest2) < 2 {
			return nil, ErrTooShort
		}
		pkt.InitiatorID = core.NodeId(binary.BigEndian.Uint16(rest2[:2]))
		trace, _, err := readPathTrace(rest2[2:])
		if err != nil {
			return nil, err
		}
		pkt.PathTrace = trace

	case core.KindFloodResponse:
		route, rest2, err := readRoute(rest)
		if err != nil {
			return nil, err
		}
		pkt.Route = route
		sessionID, rest3, err := readUint64(rest2)
		if err != nil {
			return nil, err
		}
		pkt.SessionID = sessionID
		floodID, rest4, err := readUint64(rest3)
		if err != nil {
			return nil, err
		}
		pkt.FloodID = floodID
		if len(rest4) < 2 {
			return nil, ErrTooShort
		}
		pkt.InitiatorID = core.NodeId(binary.BigEndian.Uint16(rest4[:2]))
		trace, _, err := readPathTrace(rest4[2:])
		if err != nil {
			return nil, err
		}
		pkt.PathTrace = trace

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	return pkt, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendRoute(buf []byte, r core.RouteHeader) []byte {
	buf = append(buf, byte(len(r.Hops)))
	for _, h := range r.Hops {
		buf = appendUint16(buf, uint16(h))
	}
	buf = append(buf, byte(r.HopIndex))
	return buf
}

func appendPathTrace(buf []byte, trace []core.PathTraceEntry) ([]byte, error) {
	if len(trace) > MaxPathTrace {
		return nil, fmt.Errorf("%w: %d entries", ErrPathTraceTooLong, len(trace))
	}
	buf = append(buf, byte(len(trace)))
	for _, entry := range trace {
		buf = appendUint16(buf, uint16(entry.Id))
		buf = append(buf, byte(entry.Kind))
	}
	return buf, nil
}

func readUint64(data []byte) (uint64, []byte, error) {
	if len(data) < 8 {
		return 0, nil, ErrTooShort
	}
	return binary.BigEndian.Uint64(data[:8]), data[8:], nil
}

func readRoute(data []byte) (core.RouteHeader, []byte, error) {
	if len(data) < 1 {
		return core.RouteHeader{}, nil, ErrTooShort
	}
	n := int(data[0])
	if n > MaxHops {
		return core.RouteHeader{}, nil, fmt.Errorf("%w: %d hops", ErrHopsTooLong, n)
	}
	data = data[1:]
	if len(data) < n*2+1 {
		return core.RouteHeader{}, nil, ErrTooShort
	}
	hops := make([]core.NodeId, n)
	for i := 0; i < n; i++ {
		hops[i] = core.NodeId(binary.BigEndian.Uint16(data[i*2 : i*2+2]))
	}
	data = data[n*2:]
	hopIndex := int(data[0])
	return core.RouteHeader{Hops: hops, HopIndex: hopIndex}, data[1:], nil
}

func readPayload(data []byte) ([]byte, []byte, error) {
	if len(data) < 2 {
		return nil, nil, ErrTooShort
	}
	n := int(binary.BigEndian.Uint16(data[:2]))
	if n > MaxPayload {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, n)
	}
	data = data[2:]
	if len(data) < n {
		return nil, nil, ErrTooShort
	}
	payload := make([]byte, n)
	copy(payload, data[:n])
	return payload, data[n:], nil
}

func readPathTrace(data []byte) ([]core.PathTraceEntry, []byte, error) {
	if len(data) < 1 {
		return nil, nil, ErrTooShort
	}
	n := int(data[0])
	if n > MaxPathTrace {
		return nil, nil, fmt.Errorf("%w: %d entries", ErrPathTraceTooLong, n)
	}
	data = data[1:]
	if len(data) < n*3 {
		return nil, nil, ErrTooShort
	}
	trace := make([]core.PathTraceEntry, n)
	for i := 0; i < n; i++ {
		off := i * 3
		trace[i] = core.PathTraceEntry{
			Id:   core.NodeId(binary.BigEndian.Uint16(data[off : off+2])),
			Kind: core.NodeKind(data[off+2]),
		}
	}
	return trace, data[n*3:], nil
}
