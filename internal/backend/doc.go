// Package backend defines the capability the tracker needs from a hosted
// backend: account authentication, row storage keyed by table, and
// change notifications.
//
// Implementations live in subpackages:
//
//   - rest: HTTP client for a GoTrue/PostgREST style service
//   - realtime: websocket change feed used by rest
//   - memory: in-process backend for tests and offline demos
//
// Transport failures are reported wrapped around ErrUnreachable; every
// other rejection is an *Error carrying the backend's status and code.
package backend
