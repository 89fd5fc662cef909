// Package syncqueue holds write operations that could not reach the
// backend and replays them when connectivity returns.
//
// Queue is a bounded FIFO: when full, the oldest operation is evicted to
// make room. Manager owns one Queue together with the connectivity state
// of the process:
//
//   - SetOnline(true) after SetOnline(false) starts a Flush in the background.
//   - Flush replays operations strictly in order through a Replayer. It is
//     a no-op while offline, while another flush runs, or while the
//     Replayer reports the backend unavailable.
//   - A replay that fails with domain.ErrOffline stops the flush and puts
//     the operation back at the front. Other failures drop the operation,
//     or re-queue it at the tail while it has attempts left.
//
// A Store, when configured, mirrors the queue so pending operations
// survive restarts.
package syncqueue
