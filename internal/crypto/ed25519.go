package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"dgit/internal/domain"
)

// ErrKeyMismatch is returned when a private key does not derive the paired public key.
var ErrKeyMismatch = errors.New("public key does not match private key")

// GenerateIdentity returns a new Ed25519 signing identity.
func GenerateIdentity() (domain.Identity, error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.Identity{}, err
	}
	var id domain.Identity
	copy(id.Public[:], pk)
	copy(id.Private[:], sk)
	return id, nil
}

// IdentityFromKeys validates that pub and priv form a keypair and returns it.
// pub is either the raw 32-byte key or its DER SubjectPublicKeyInfo; priv is
// either the 64-byte secret key or the 32-byte seed.
func IdentityFromKeys(pub, priv []byte) (domain.Identity, error) {
	var id domain.Identity
	switch len(pub) {
	case ed25519.PublicKeySize:
		copy(id.Public[:], pub)
	default:
		p, err := ParsePublicKeyDER(pub)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("ed25519 public key: %w", err)
		}
		id.Public = p
	}

	var sk ed25519.PrivateKey
	switch len(priv) {
	case ed25519.PrivateKeySize:
		sk = ed25519.PrivateKey(priv)
	case ed25519.SeedSize:
		sk = ed25519.NewKeyFromSeed(priv)
		defer Wipe(sk)
	default:
		return domain.Identity{}, errors.New("ed25519 private key: bad length")
	}
	derived := sk.Public().(ed25519.PublicKey)
	if subtle.ConstantTimeCompare(derived, id.Public.Slice()) != 1 {
		return domain.Identity{}, ErrKeyMismatch
	}
	copy(id.Private[:], sk)
	return id, nil
}

// Sign signs msg with the identity's private key.
func Sign(id domain.Identity, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(id.Private.Slice()), msg)
}

// Verify verifies sig over msg with pub.
func Verify(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub.Slice()), msg, sig)
}
