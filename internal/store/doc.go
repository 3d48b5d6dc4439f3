// Package store provides SQLite-based storage for studysight.
//
// The Store keeps two things:
//   - the user settings (enabled switch and extra keywords) as a single row
//     with a revision counter that increases on every save
//   - the history of reconciliation passes, one row per pass, with the full
//     report as JSON
//
// Running watch sessions poll the revision after file system events on the
// store directory, so only real settings changes reach them.
//
// The database is a single file opened through modernc.org/sqlite, which
// needs no cgo.
package store
