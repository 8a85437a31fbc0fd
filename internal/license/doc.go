// Package license implements the entitlement core of the point-of-sale
// application: the license key codec and the trial/license state machine.
//
// The state machine owns the lifecycle NONE -> TRIAL_ACTIVE -> TRIAL_EXPIRED
// and NONE/TRIAL -> FULL_ACTIVE. All state lives in the persistent store;
// every Status query recomputes the answer from the stored records, so the
// manager itself is stateless between calls and safe to share.
//
// License keys use the format PF-XXXX-XXXX-XXXX-XXXX and must verify against
// the issuer's Ed25519 public key before activation. Persisted trial and
// license records are wrapped in an HMAC-SHA256 envelope; any record that
// fails the integrity check is treated as absent, never as entitled.
package license
