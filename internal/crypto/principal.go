package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"strings"

	"dgit/internal/domain"
)

// selfAuthenticatingTag marks a principal derived from a public key.
const selfAuthenticatingTag = 0x02

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// PublicKeyDER encodes pub as a DER SubjectPublicKeyInfo.
func PublicKeyDER(pub domain.Ed25519Public) []byte {
	der, err := x509.MarshalPKIXPublicKey(ed25519.PublicKey(pub.Slice()))
	if err != nil {
		// Ed25519 keys of the right size always marshal.
		panic("crypto: marshal ed25519 public key: " + err.Error())
	}
	return der
}

// ParsePublicKeyDER decodes a DER SubjectPublicKeyInfo holding an Ed25519 key.
func ParsePublicKeyDER(der []byte) (domain.Ed25519Public, error) {
	var out domain.Ed25519Public
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return out, err
	}
	pk, ok := key.(ed25519.PublicKey)
	if !ok {
		return out, errors.New("public key is not ed25519")
	}
	copy(out[:], pk)
	return out, nil
}

// SelfAuthenticating returns the raw principal bytes for pub:
// SHA-224 of the DER encoded key followed by the self-authenticating tag.
func SelfAuthenticating(pub domain.Ed25519Public) []byte {
	sum := sha256.Sum224(PublicKeyDER(pub))
	return append(sum[:], selfAuthenticatingTag)
}

// PrincipalText renders raw principal bytes in the dashed base32 form,
// prefixed with a CRC32 checksum.
func PrincipalText(raw []byte) domain.Principal {
	buf := make([]byte, 4+len(raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(raw))
	copy(buf[4:], raw)
	enc := strings.ToLower(principalEncoding.EncodeToString(buf))

	var b strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := min(i+5, len(enc))
		b.WriteString(enc[i:end])
	}
	return domain.Principal(b.String())
}

// Principal returns the textual principal of pub.
func Principal(pub domain.Ed25519Public) domain.Principal {
	return PrincipalText(SelfAuthenticating(pub))
}
