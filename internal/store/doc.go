// Package store provides durable whole-table storage for the roster and the
// attendance ledger.
//
// The storage model mirrors a spreadsheet service: a table is addressed by
// name and is only ever read or replaced as a whole. There are no row-level
// updates. To keep concurrent submissions from silently overwriting each
// other, every write is conditional:
//
//   - Read returns the table together with its Revision
//   - Write takes the Revision the caller based its changes on
//   - If the stored Revision differs, Write fails with ErrRevisionMismatch
//     and nothing is written
//
// A Revision is a content fingerprint: SHA-256 over the canonical JSON of the
// header and rows, with domain separation. A table that has never been written
// reads as empty with EmptyRevision.
//
// # Backends
//
//   - Store (this package): SQLite, the default
//   - memstore: in-memory, used by tests and the scenario harness
//   - mongostore: MongoDB, one document per table
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - _txlock=immediate: Writers take the write lock when the transaction
//     begins, so the revision check and the replace are atomic across processes
package store
