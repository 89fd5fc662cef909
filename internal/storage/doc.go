// Package storage persists client state in an embedded Badger database.
//
// Two kinds of values are stored:
//
//   - queue/<op-id>: pending sync operations. Operation IDs are ULIDs, so a
//     prefix scan returns them in enqueue order.
//   - auth/session: the signed-in backend session, restored on restart.
//
// Values are JSON, optionally sealed with an adaptive AEAD cipher whose
// additional data is the key itself, so a value cannot be moved to a
// different key without failing to decrypt.
package storage
