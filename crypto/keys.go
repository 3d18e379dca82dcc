package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"swapvault/core/types"
)

// PrivateKey wraps an ed25519 signing key. The 32-byte public key doubles as
// the holder's ledger address.
type PrivateKey struct {
	key ed25519.PrivateKey
}

type PublicKey struct {
	key ed25519.PublicKey
}

// GeneratePrivateKey creates a fresh signing key.
func GeneratePrivateKey() (*PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes restores a key from its raw 64-byte form.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(b))
	}
	return &PrivateKey{key: ed25519.PrivateKey(append([]byte(nil), b...))}, nil
}

// Bytes returns the raw private key material.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{key: k.key.Public().(ed25519.PublicKey)}
}

// Sign produces an ed25519 signature over msg.
func (k *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.key, msg)
}

// Address returns the ledger address backing this key.
func (k *PrivateKey) Address() types.Address {
	return k.PubKey().Address()
}

func (p *PublicKey) Address() types.Address {
	var addr types.Address
	copy(addr[:], p.key)
	return addr
}

// Verify checks sig over msg against the public key.
func (p *PublicKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(p.key, msg, sig)
}
