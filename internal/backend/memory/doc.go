// Package memory provides an in-process backend.
//
// Accounts, tokens and table rows live in sharded concurrent maps.
// Passwords are stored as Argon2id hashes and access tokens as SHA-256
// hashes, the same way a hosted service would keep them. Changes are fanned
// out to subscribers synchronously, before the write returns.
//
// SetReachable(false) makes every network-facing call fail with
// backend.ErrUnreachable, which lets tests and demos exercise the offline
// queue without a real network.
package memory
