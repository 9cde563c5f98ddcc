// Package agent provides the authenticated RPC client for the remote
// repository canister, implementing domain.RepositoryClient.
//
// Every request is a CBOR envelope carrying the request content, the sender's
// DER-encoded Ed25519 public key and a signature over the request id. The
// request id is the SHA-256 of the deterministic CBOR encoding of the content,
// signed with the "\x0Aic-request" domain separator prepended.
//
// Supported operations:
//   - createRepo  (call)   create a repository owned by the sender
//   - listFiles   (query)  list tracked paths of a repository
//   - getFile     (query)  fetch one file's bytes
//   - commitCode  (call)   record a file with a commit message
//   - getStatus   (query)  render the sender's repository status
//
// Calls are POSTed to {host}/api/v2/canister/{canister_id}/{call|query}.
// Transport failures, 5xx and 429 statuses and transient rejections are
// reported as domain.ErrRemoteUnavailable; reject code 3 as domain.ErrNotFound;
// everything else the service refuses as domain.ErrRemoteRejected. There are
// no implicit retries.
package agent
