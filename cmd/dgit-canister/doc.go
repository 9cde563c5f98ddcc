// Package main runs the in-memory repository canister used by dgit during
// development and tests.
//
// HTTP API
//
//	POST /api/v2/canister/{canister_id}/call
//	    Update calls: createRepo, commitCode.
//
//	POST /api/v2/canister/{canister_id}/query
//	    Read-only calls: listFiles, getFile, getStatus.
//
// Bodies are CBOR envelopes (application/cbor) signed with the sender's
// Ed25519 key. Replies carry status "replied" with a CBOR reply, or
// "rejected" with a reject code and message.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Repository ids are allocated as repo-1, repo-2 and so on.
//   - Commits go to the sender's most recently created repository.
//   - Envelopes with a bad signature, a spoofed sender or an expired ingress
//     time are refused with HTTP 403.
//   - An access log records request id, method, path, remote, status, bytes
//     and duration for each request.
//   - The default listen address is :4943.
package main
