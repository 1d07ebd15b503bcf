// Package sqlite implements the store interfaces on an embedded SQLite
// database through the pure-Go modernc.org/sqlite driver, for single-user
// installs and tests. Timestamps are stored as Unix nanoseconds.
package sqlite
