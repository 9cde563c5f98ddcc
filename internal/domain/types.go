package domain

import "time"

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// Identity is the long-term signing keypair that identifies a user to the
// repository service.
type Identity struct {
	Public  Ed25519Public
	Private Ed25519Private
}

// Principal is the textual form of an identifier derived from a public key.
type Principal string

// String returns the string form of the principal.
func (p Principal) String() string { return string(p) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// RepositoryID is the opaque handle the remote service returns on creation.
type RepositoryID string

// String returns the string form of the repository id.
func (id RepositoryID) String() string { return string(id) }

// StatusSummary is the remote status rendering. Clients print it verbatim.
type StatusSummary string

// String returns the summary text.
func (s StatusSummary) String() string { return string(s) }

// WorkingFile is a file of the local working tree.
type WorkingFile struct {
	Path    string
	Content []byte
}

// StagedEntry is a commit recorded locally and not yet pushed.
type StagedEntry struct {
	Path     string    `json:"path"`
	Content  []byte    `json:"content"`
	Message  string    `json:"message"`
	Digest   string    `json:"digest"`
	StagedAt time.Time `json:"staged_at"`
}
