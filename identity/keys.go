// Package identity gives a drone a real cryptographic identity: key
// generation and signing for authenticating controller commands
// (keys.go, command_auth.go), and X25519 key agreement for bridges that
// need to encrypt frames leaving the process (exchange.go). In-process
// neighbor channels never need any of this; it exists for the boundary
// bridge/mqtt and bridge/serial sit on.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

var (
	ErrInvalidPubKeySize  = errors.New("invalid public key size: expected 32 bytes")
	ErrInvalidPrivKeySize = errors.New("invalid private key size: expected 64 bytes")
)

// VerifyKey is the controller's public key, used to check SignedCommand
// signatures. It is an ed25519.PublicKey under the hood.
type VerifyKey = ed25519.PublicKey

// KeyPair holds an Ed25519 key pair backing a drone or controller's
// identity.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateKeyPair generates a new Ed25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// KeyPairFromPrivateKey reconstructs a KeyPair from a 64-byte Ed25519
// private key. The public key is extracted from the last 32 bytes, in
// the standard Go private key layout.
func KeyPairFromPrivateKey(privKey []byte) (*KeyPair, error) {
	if len(privKey) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivKeySize
	}
	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(priv, privKey)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// Hash returns the first byte of the public key. In a deployment that
// uses real Ed25519 identities, this is how a core.NodeId-sized routing
// hash would be derived from the full key.
func (kp *KeyPair) Hash() uint8 {
	return kp.PublicKey[0]
}

// Sign signs msg with the key pair's private key.
func (kp *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.PrivateKey, msg)
}

// validatePublicKey rejects a public key that doesn't decompress to a
// valid point on the curve, before ed25519.Verify is asked to look at
// it, the same defensive check the X25519 conversion in exchange.go
// performs as a side effect of its own point decompression.
func validatePublicKey(pub []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return ErrInvalidPubKeySize
	}
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return fmt.Errorf("invalid Ed25519 public key: %w", err)
	}
	return nil
}
