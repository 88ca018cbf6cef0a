// Package attendance defines the rollcall domain types and the strict schema
// used at the store boundary.
//
// Two tables are modelled:
//   - Roster: one row per member, identified by (year, group, name)
//   - Ledger: one attendance record per (date, name)
//
// Stores only know about header and string cells. Everything above the store
// works with typed values, so every cell passes through this package on the way
// in (DecodeRoster, DecodeLedger) and on the way out (EncodeRoster,
// EncodeLedger).
//
// # Ingestion Rules
//
//   - Cells are trimmed and NFC normalized
//   - A trailing ".0" on an integer-looking cell is dropped (spreadsheet float coercion)
//   - "nan" / "None" cells are treated as empty
//   - Columns are matched by header name; Korean headers from the original
//     spreadsheets are accepted as aliases
//   - Enum cells accept the canonical English value or the Korean alias and
//     are always written back in canonical form
//
// Ledger rows are decoded strictly: an unparseable date or enum, or a presence
// and reason pairing that breaks the Present/"-" rule, is ErrMalformedRow.
// Roster status values outside the enum are preserved verbatim so the sort
// module can rank them last.
package attendance
