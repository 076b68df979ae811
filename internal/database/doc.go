// Package database provides SQLite-based run history for sitemirror.
//
// Every mirror run is recorded in a single HistoryDB file under the XDG
// data directory:
//   - runs holds one row per invocation with its final counters
//   - resources holds the terminal outcome of each URL in a run
//
// The history is written during a crawl and read only by the history
// command. It never seeds a frontier, so every run starts from scratch.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, with
// a single open connection and WAL journaling.
package database
