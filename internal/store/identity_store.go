package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"dgit/internal/crypto"
	"dgit/internal/domain"
)

// DefaultIdentityFile is the identity file name used when none is configured.
const DefaultIdentityFile = "dgit-identity.json"

// IdentityFileStore persists the local signing identity to disk.
//
// The plain format is the exportable Ed25519 key identity layout, a JSON array
// of the hex public key and the hex 64-byte secret key. Files holding a DER
// public key or a 32-byte seed are read as well. With a passphrase the same
// bytes are sealed with scrypt and ChaCha20-Poly1305.
type IdentityFileStore struct {
	path       string
	passphrase string
	notice     io.Writer
	log        *slog.Logger
	mu         sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore for the file at path.
// First-run notices go to notice; nil notice or log discard their output.
func NewIdentityFileStore(path, passphrase string, notice io.Writer, log *slog.Logger) *IdentityFileStore {
	if notice == nil {
		notice = io.Discard
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &IdentityFileStore{
		path:       path,
		passphrase: passphrase,
		notice:     notice,
		log:        log,
	}
}

// Path returns the identity file location.
func (s *IdentityFileStore) Path() string { return s.path }

// GetIdentity loads the identity, generating and persisting a new one when the
// file does not exist. An existing file is never overwritten.
func (s *IdentityFileStore) GetIdentity() (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(s.path)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: reading identity %s: %w", domain.ErrIO, s.path, err)
	}
	if b != nil {
		return s.decode(b)
	}
	return s.create()
}

func (s *IdentityFileStore) create() (domain.Identity, error) {
	id, err := crypto.GenerateIdentity()
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := s.encode(id)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: creating identity directory: %w", domain.ErrIO, err)
	}

	installed, err := createExclusive(s.path, raw, 0o600)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: writing identity %s: %w", domain.ErrIO, s.path, err)
	}
	if !installed {
		// Lost a first-run race with another process; its key wins.
		crypto.WipeIdentity(&id)
		s.log.Debug("identity created concurrently, loading existing file", "path", s.path)
		b, err := readFile(s.path)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("%w: reading identity %s: %w", domain.ErrIO, s.path, err)
		}
		return s.decode(b)
	}

	s.log.Info("generated identity", "path", s.path, "principal", crypto.Principal(id.Public))
	fmt.Fprintln(s.notice, "New identity generated and saved to", s.path)
	return id, nil
}

func (s *IdentityFileStore) encode(id domain.Identity) ([]byte, error) {
	secret := hex.EncodeToString(id.Private.Slice())
	raw, err := json.Marshal([]string{hex.EncodeToString(id.Public.Slice()), secret})
	if err != nil {
		return nil, err
	}
	if s.passphrase == "" {
		return raw, nil
	}
	defer crypto.Wipe(raw)
	return seal(s.passphrase, raw)
}

func (s *IdentityFileStore) decode(b []byte) (domain.Identity, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		if s.passphrase == "" {
			return domain.Identity{}, s.corrupt(errors.New("identity is sealed; a passphrase is required"))
		}
		raw, err := unseal(s.passphrase, b)
		if err != nil {
			return domain.Identity{}, s.corrupt(err)
		}
		defer crypto.Wipe(raw)
		b = raw
	} else if s.passphrase != "" {
		s.log.Warn("passphrase configured but identity file is not sealed", "path", s.path)
	}

	var pair []string
	if err := json.Unmarshal(b, &pair); err != nil {
		return domain.Identity{}, s.corrupt(err)
	}
	if len(pair) != 2 {
		return domain.Identity{}, s.corrupt(fmt.Errorf("want 2 key components, got %d", len(pair)))
	}
	pub, err := hex.DecodeString(pair[0])
	if err != nil {
		return domain.Identity{}, s.corrupt(fmt.Errorf("public key: %w", err))
	}
	priv, err := hex.DecodeString(pair[1])
	if err != nil {
		return domain.Identity{}, s.corrupt(fmt.Errorf("secret key: %w", err))
	}
	defer crypto.Wipe(priv)

	id, err := crypto.IdentityFromKeys(pub, priv)
	if err != nil {
		return domain.Identity{}, s.corrupt(err)
	}
	return id, nil
}

func (s *IdentityFileStore) corrupt(err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrCorruptIdentity, s.path, err)
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
