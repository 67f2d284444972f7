package identity

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dronemesh/flypath/core"
)

// ErrInvalidSignature is returned by Verify when a SignedCommand's
// signature does not check out against its claimed public key, or the
// claimed public key is not the expected verify key.
var ErrInvalidSignature = errors.New("invalid command signature")

// SignedCommand pairs a Command with the signing node's public key and
// an Ed25519 signature over the command's canonical encoding. The base
// spec's command channel accepts commands unconditionally (§4.2);
// SignedCommand is the opt-in hardening a drone may require via
// Config.CommandVerifyKey, which the base spec leaves room for without
// naming.
type SignedCommand struct {
	Command   core.Command
	PublicKey ed25519.PublicKey
	Signature []byte
}

// Sign builds a SignedCommand for cmd using kp.
func Sign(cmd core.Command, kp *KeyPair) SignedCommand {
	msg := encodeCommand(cmd)
	return SignedCommand{
		Command:   cmd,
		PublicKey: kp.PublicKey,
		Signature: kp.Sign(msg),
	}
}

// Verify checks that sc was signed by want and that the signature
// matches sc.Command's canonical encoding.
func Verify(sc SignedCommand, want VerifyKey) error {
	if err := validatePublicKey(sc.PublicKey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(want) != ed25519.PublicKeySize || !ed25519.PublicKey(sc.PublicKey).Equal(ed25519.PublicKey(want)) {
		return fmt.Errorf("%w: unexpected signer", ErrInvalidSignature)
	}
	msg := encodeCommand(sc.Command)
	if !ed25519.Verify(sc.PublicKey, msg, sc.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// encodeCommand produces a small canonical byte encoding of a Command
// to sign/verify over: a flat dump of Kind, NeighborId, and DropRate.
// It is stable but not injective: DropRate is truncated to steps of
// 1e-9, so rates closer than that encode alike, and an AddSender's
// Channel is not part of the encoding.
func encodeCommand(cmd core.Command) []byte {
	buf := make([]byte, 0, 24)
	buf = append(buf, byte(cmd.Kind))
	var id [2]byte
	binary.BigEndian.PutUint16(id[:], uint16(cmd.NeighborId))
	buf = append(buf, id[:]...)
	var rate [8]byte
	binary.BigEndian.PutUint64(rate[:], uint64(cmd.DropRate*1e9))
	buf = append(buf, rate[:]...)
	return buf
}
