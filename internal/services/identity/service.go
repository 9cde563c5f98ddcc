package identity

import (
	"encoding/hex"
	"unicode"

	"dgit/internal/crypto"
	"dgit/internal/domain"
)

// minPassphraseLength is the shortest passphrase not reported as weak.
const minPassphraseLength = 12

// Info describes the local identity.
type Info struct {
	Principal   domain.Principal
	Fingerprint domain.Fingerprint
	PublicKey   string // hex
}

// Service exposes the identity held by a store.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// Whoami loads (or creates) the identity and describes it.
func (s *Service) Whoami() (Info, error) {
	id, err := s.store.GetIdentity()
	if err != nil {
		return Info{}, err
	}
	defer crypto.WipeIdentity(&id)
	return Describe(id.Public), nil
}

// Describe returns the principal and fingerprint of pub.
func Describe(pub domain.Ed25519Public) Info {
	return Info{
		Principal:   crypto.Principal(pub),
		Fingerprint: crypto.Fingerprint(pub),
		PublicKey:   hex.EncodeToString(pub[:]),
	}
}

// WeakPassphrase reports whether passphrase fails the strength policy: at
// least 12 characters mixing upper and lower case, digits and symbols.
func WeakPassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len([]rune(passphrase)) < minPassphraseLength {
		return true
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return !(hasUpper && hasLower && hasDigit && hasSymbol)
}
