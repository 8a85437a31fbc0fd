// Package store provides the key-value persistence contract consumed by the
// entitlement and accounts subsystems. Values are opaque strings; callers own
// their own encoding. Implementations must make Update an atomic
// read-modify-write so that check-then-write flows (admin bootstrap, username
// uniqueness) cannot race across sessions.
package store

import (
	"context"
	"errors"
)

// Well-known keys used by the core. Kept here so implementations and tests
// agree on the namespace.
const (
	KeyTrialRecord = "entitlement:trial"
	KeyTrialLedger = "entitlement:trial_ledger"
	KeyFullLicense = "entitlement:license"
	KeyUsers       = "accounts:users"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// ErrAborted is returned by Update when the caller's function rejects the
// current value and the write must not happen.
var ErrAborted = errors.New("store: update aborted")

// Store is the persistence contract. Get returns ErrNotFound for absent keys.
// Update applies fn to the current value (empty string and absent=true when
// the key does not exist) and persists the returned value under the same
// lock that serializes all writers; returning an error from fn aborts the
// write and surfaces that error to the caller.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Update(ctx context.Context, key string, fn func(current string, absent bool) (string, error)) error
}
