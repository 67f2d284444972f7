package identity

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"
)

// SharedSecret is a 32-byte X25519 output, used to key bridge frame
// encryption between two nodes that know each other's Ed25519 identity.
type SharedSecret [32]byte

// ed25519PubKeyToX25519 converts an Ed25519 public key to its X25519
// (Montgomery) equivalent, per RFC 8032's birational map.
func ed25519PubKeyToX25519(edPubKey ed25519.PublicKey) ([]byte, error) {
	point, err := new(edwards25519.Point).SetBytes(edPubKey)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 public key: %w", err)
	}
	return point.BytesMontgomery(), nil
}

// ed25519PrivKeyToX25519 converts an Ed25519 private key to its X25519
// equivalent: SHA-512 the seed, then clamp the first 32 bytes.
func ed25519PrivKeyToX25519(edPrivKey ed25519.PrivateKey) ([]byte, error) {
	if len(edPrivKey) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivKeySize
	}
	seed := edPrivKey.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	return h[:32], nil
}

// ComputeSharedSecret derives an X25519 ECDH shared secret from a local
// identity's private key and a remote identity's public key. Both sides
// of a link compute the same value from each other's public key and
// their own private key, without transmitting anything new.
func ComputeSharedSecret(kp *KeyPair, remotePub ed25519.PublicKey) (SharedSecret, error) {
	if len(remotePub) != ed25519.PublicKeySize {
		return SharedSecret{}, ErrInvalidPubKeySize
	}

	xPriv, err := ed25519PrivKeyToX25519(kp.PrivateKey)
	if err != nil {
		return SharedSecret{}, fmt.Errorf("converting private key: %w", err)
	}
	xPub, err := ed25519PubKeyToX25519(remotePub)
	if err != nil {
		return SharedSecret{}, fmt.Errorf("converting public key: %w", err)
	}

	secret, err := curve25519.X25519(xPriv, xPub)
	if err != nil {
		return SharedSecret{}, fmt.Errorf("ECDH: %w", err)
	}

	var out SharedSecret
	copy(out[:], secret)
	return out, nil
}
