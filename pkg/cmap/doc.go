// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards by a murmur3 hash,
// each shard guarded by its own RWMutex. The in-process backend keeps its
// accounts, tokens and table rows in these maps.
//
//	m := cmap.New[string, *Account]()
//	m.Set("ana@example.com", acct)
//	acct, ok := m.Get("ana@example.com")
//
// Range visits shard by shard, so it does not observe a consistent
// snapshot of the whole map.
package cmap
