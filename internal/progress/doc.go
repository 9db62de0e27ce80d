// Package progress persists the cursor: how many questions earlier runs
// have already sent.
//
// Drivers:
//   - "file": plain-text file holding one decimal integer (default)
//   - "sqlite": one row per cursor key in a SQLite database
//
// Runs are assumed not to overlap, so neither driver locks across processes.
package progress
