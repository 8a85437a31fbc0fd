// Package accounts implements the account bootstrap gate: the one-time
// security gate that allows exactly one administrator to be created through
// the public registration path, and the admin-managed user CRUD used after
// bootstrap. The whole user collection lives under a single store key; every
// check-then-write runs inside one atomic store update so concurrent
// sessions cannot both pass the "no admin exists" check.
package accounts
