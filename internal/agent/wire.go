package agent

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"time"

	"dgit/internal/crypto"
	"dgit/internal/domain"
)

// Request kinds.
const (
	RequestTypeCall  = "call"
	RequestTypeQuery = "query"
)

// Response statuses.
const (
	StatusReplied  = "replied"
	StatusRejected = "rejected"
)

// Canister methods.
const (
	MethodCreateRepo = "createRepo"
	MethodListFiles  = "listFiles"
	MethodGetFile    = "getFile"
	MethodCommitCode = "commitCode"
	MethodGetStatus  = "getStatus"
)

// ContentType is the media type of request and response bodies.
const ContentType = "application/cbor"

var requestDomainSeparator = []byte("\x0Aic-request")

// Envelope verification errors.
var (
	ErrSenderMismatch = errors.New("sender does not match public key")
	ErrBadSignature   = errors.New("invalid request signature")
	ErrExpired        = errors.New("request ingress expiry has passed")
)

// Request is the signed content of an envelope.
type Request struct {
	RequestType   string `cbor:"request_type"`
	CanisterID    string `cbor:"canister_id"`
	MethodName    string `cbor:"method_name"`
	Arg           []byte `cbor:"arg"`
	Sender        []byte `cbor:"sender"`
	Nonce         []byte `cbor:"nonce,omitempty"`
	IngressExpiry uint64 `cbor:"ingress_expiry"`
}

// Envelope is the wire message POSTed to the canister.
type Envelope struct {
	Content      Request `cbor:"content"`
	SenderPubKey []byte  `cbor:"sender_pubkey"`
	SenderSig    []byte  `cbor:"sender_sig"`
}

// Response is the canister's answer to an envelope.
type Response struct {
	Status        string `cbor:"status"`
	Reply         []byte `cbor:"reply,omitempty"`
	RejectCode    uint8  `cbor:"reject_code,omitempty"`
	RejectMessage string `cbor:"reject_message,omitempty"`
	ErrorCode     string `cbor:"error_code,omitempty"`
}

// Method arguments and replies, CBOR-encoded into Request.Arg and Response.Reply.
type (
	CreateRepoArg struct{}

	CreateRepoReply struct {
		RepoID string `cbor:"repo_id"`
	}

	ListFilesArg struct {
		RepoID string `cbor:"repo_id"`
	}

	ListFilesReply struct {
		Paths []string `cbor:"paths"`
	}

	GetFileArg struct {
		RepoID string `cbor:"repo_id"`
		Path   string `cbor:"path"`
	}

	GetFileReply struct {
		Content []byte `cbor:"content"`
	}

	CommitCodeArg struct {
		Path    string `cbor:"path"`
		Content []byte `cbor:"content"`
		Message string `cbor:"message"`
	}

	GetStatusArg struct{}

	GetStatusReply struct {
		Status string `cbor:"status"`
	}
)

// RequestID returns the SHA-256 of the deterministic encoding of r.
func RequestID(r Request) ([32]byte, error) {
	b, err := Marshal(r)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// SignRequest wraps r in an envelope signed by id.
func SignRequest(r Request, id domain.Identity) (Envelope, error) {
	rid, err := RequestID(r)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Content:      r,
		SenderPubKey: crypto.PublicKeyDER(id.Public),
		SenderSig:    crypto.Sign(id, signable(rid)),
	}, nil
}

// VerifyEnvelope checks that env was signed by the key it carries, that the
// sender principal is derived from that key, and that it has not expired.
// It returns the sender's public key.
func VerifyEnvelope(env Envelope, now time.Time) (domain.Ed25519Public, error) {
	pub, err := crypto.ParsePublicKeyDER(env.SenderPubKey)
	if err != nil {
		return pub, err
	}
	if !bytes.Equal(env.Content.Sender, crypto.SelfAuthenticating(pub)) {
		return pub, ErrSenderMismatch
	}
	rid, err := RequestID(env.Content)
	if err != nil {
		return pub, err
	}
	if !crypto.Verify(pub, signable(rid), env.SenderSig) {
		return pub, ErrBadSignature
	}
	if env.Content.IngressExpiry < uint64(now.UnixNano()) {
		return pub, ErrExpired
	}
	return pub, nil
}

func signable(rid [32]byte) []byte {
	out := make([]byte, 0, len(requestDomainSeparator)+len(rid))
	out = append(out, requestDomainSeparator...)
	return append(out, rid[:]...)
}
