package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to classify a failure.
var (
	// ErrCorruptIdentity indicates the identity file is not valid key material.
	ErrCorruptIdentity = errors.New("corrupt identity")

	// ErrConfigMissing indicates a required setting (endpoint, canister id) is absent.
	ErrConfigMissing = errors.New("missing configuration")

	// ErrRemoteUnavailable indicates a transport or transient service failure.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRemoteRejected indicates the service refused the request.
	ErrRemoteRejected = errors.New("remote rejected request")

	// ErrNotFound indicates an unknown repository or untracked path.
	ErrNotFound = errors.New("not found")

	// ErrIO indicates a local filesystem failure.
	ErrIO = errors.New("local i/o error")
)

// RejectCode classifies a rejection returned by the repository service.
type RejectCode uint8

const (
	RejectSysFatal           RejectCode = 1
	RejectSysTransient       RejectCode = 2
	RejectDestinationInvalid RejectCode = 3
	RejectCanisterReject     RejectCode = 4
	RejectCanisterError      RejectCode = 5
)

// Kind maps a reject code onto the sentinel it is reported as.
func (c RejectCode) Kind() error {
	switch c {
	case RejectSysTransient:
		return ErrRemoteUnavailable
	case RejectDestinationInvalid:
		return ErrNotFound
	default:
		return ErrRemoteRejected
	}
}

// RemoteError is a failed RPC against the repository service.
type RemoteError struct {
	Method  string
	Code    RejectCode // zero for transport failures
	Message string
	Kind    error // one of the sentinels above
	Err     error // underlying transport error, if any
}

func (e *RemoteError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("%s: %v (code %d): %s", e.Method, e.Kind, e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Method, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %s", e.Method, e.Kind, e.Message)
	}
}

// Is reports whether target is the sentinel this error is classified as.
func (e *RemoteError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying transport error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}
