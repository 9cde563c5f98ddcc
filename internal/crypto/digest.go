package crypto

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// commitDomainKey separates commit digests from any other BLAKE3 use.
var commitDomainKey = [32]byte{
	'd', 'g', 'i', 't', '.', 'c', 'o', 'm', 'm', 'i', 't',
}

// CommitDigest returns the keyed BLAKE3 digest of a (path, content, message)
// triple. Each field is length-prefixed so distinct triples never collide by
// concatenation.
func CommitDigest(path string, content []byte, message string) [32]byte {
	h, err := blake3.NewKeyed(commitDomainKey[:])
	if err != nil {
		panic("crypto: blake3 keyed hasher: " + err.Error())
	}
	writeField(h, []byte(path))
	writeField(h, content)
	writeField(h, []byte(message))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CommitDigestHex is CommitDigest rendered as lowercase hex.
func CommitDigestHex(path string, content []byte, message string) string {
	d := CommitDigest(path, content, message)
	return hex.EncodeToString(d[:])
}

func writeField(h *blake3.Hasher, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}
