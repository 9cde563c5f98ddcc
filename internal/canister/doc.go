// Package canister implements an in-memory repository canister speaking the
// signed CBOR envelope protocol of package agent. It backs the dgit-canister
// development binary and the end-to-end tests of the client.
//
// State is held in memory and lost when the process exits. Every envelope is
// checked before dispatch: the signature must verify against the DER key it
// carries, the sender must be the principal derived from that key and the
// ingress expiry must lie in the future. Envelopes failing those checks are
// answered with HTTP 403; well-formed requests the canister refuses are
// answered with a "rejected" response and a reject code.
package canister
