// Package database provides SQLite-backed storage for screening
// history.
//
// Every completed screening is stored as a row carrying the full report
// as JSON plus denormalized verdict columns (safe, risk score, finding
// counts) so history listings never deserialize full reports.
//
// Design decision: We use modernc.org/sqlite (pure Go) rather than
// mattn/go-sqlite3 to keep the build cgo-free, which matters for
// cross-compiled release binaries.
package database
