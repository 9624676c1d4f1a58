// Package history records build runs in a local SQLite database.
//
// Each run stores the requested target tokens, the output root and one row
// per target outcome. Runs are keyed by UUIDv7 ids and listed newest first.
//
// # Database Configuration
//
//   - WAL mode: the history command can read while a build writes
//   - synchronous=NORMAL
//   - 5-second busy timeout for lock contention
//   - Foreign keys on, outcomes are deleted with their run
package history
