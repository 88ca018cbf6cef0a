// Package harness runs reconciliation scenarios against the real engine.
//
// A scenario seeds the roster and ledger tables of an in-memory store, runs
// a sequence of submissions through engine.Submit and checks both the
// outcome of every submission and the final tables.
//
// # Scenario Format
//
//	name: two_groups_interleaved
//	description: "Two leaders commit from the same snapshot"
//	roster:
//	  - { year: "2024", group: "1", name: 김민수, role: leader, status: Active }
//	ledger: []
//	steps:
//	  - submit:
//	      year: "2024"
//	      group: "1"
//	      date: "2024-05-04"
//	      entries:
//	        - { name: 김민수, presence: Present, new_status: Active }
//	    expect: ok
//	  - concurrent:
//	      - { year: "2024", group: "1", date: "2024-05-04", entries: [...] }
//	      - { year: "2024", group: "2", date: "2024-05-04", entries: [...] }
//	  - submit: { ... }
//	    fail: { op: write, table: roster }
//	    expect: PARTIAL_COMMIT
//	assertions:
//	  - type: row_exists
//	    table: ledger
//	    where: { date: "2024-05-04", name: 김민수 }
//	    expect: { presence: Present }
//	  - type: write_count
//	    table: ledger
//	    count: 2
//
// Seed rows are stored verbatim, so a scenario can start from legacy
// spreadsheet values (Korean aliases, "2024.0" years) and observe them
// being canonicalized.
//
// # Steps
//
// A submit step runs one batch. A concurrent step runs its batches in
// parallel and holds their first ledger writes until every one of them has
// read the ledger, which forces all but one through the retry path. A fail
// step makes reads or writes of one table return an error while it runs.
//
// # Assertion Types
//
//   - row_exists: a row matches where and carries the expect values
//   - row_absent: no row matches where
//   - row_count: exactly count rows match where
//   - write_count: the table saw exactly count write attempts
//
// # Deterministic Testing
//
// Session ids are fixed ("session-1", "session-2", ...) and retries back off
// by a millisecond. Snapshots (see RunWithGolden) leave out session ids and
// revisions and sort ledger rows, so they compare equal across runs.
package harness
