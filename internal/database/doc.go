// Package database provides the SQLite run history for greenbutton.
//
// Every download run is stored as one row: summary columns for listing
// plus the full run record as JSON. Credentials are never part of a run
// record, so nothing secret reaches the database file.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// binary cross-compiles without a C toolchain.
package database
