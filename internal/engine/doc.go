// Package engine implements attendance reconciliation.
//
// A submission batch carries one leader's decisions for a (year, group,
// date). Submit turns it into two table updates:
//
//   - the ledger gains one record per entry, deduplicated by (date, name)
//     with the newest record winning (Merge)
//   - each entry's member gets the entry's new status (ApplyStatus)
//
// ORDERING:
//
// Validation that needs no data (date, pairing, enums, duplicate names) runs
// before any store call. Membership is checked against a fresh roster read
// before anything is written. The ledger is written before the roster; both
// updates are idempotent, so re-running a batch after a PARTIAL_COMMIT
// completes the roster without duplicating ledger rows.
//
// CONCURRENCY:
//
// The store only offers whole-table replace. Every table update is a bounded
// loop of read snapshot, recompute, and write-if-revision-unchanged
// (store.TableStore). A writer that loses the race re-reads and re-merges,
// so a concurrent submission for another group is never overwritten. When
// attempts run out the submission fails with CONFLICT instead.
package engine
