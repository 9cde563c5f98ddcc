// Package crypto exposes the minimal primitives used by dgit.
//
// Contents
//
//   - Ed25519 identity generation, signing and verification (GenerateIdentity,
//     Sign, Verify)
//   - Self-authenticating principals derived from public keys (Principal,
//     SelfAuthenticating, PrincipalText)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Keyed BLAKE3 digests of commit triples (CommitDigest)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// Keys use the fixed-size array types defined in internal/domain to avoid
// accidental reallocations. Callers should treat private keys as sensitive and
// rely on Wipe when practical to reduce their lifetime in memory.
package crypto
