// Package sqlite implements catalog.Catalog on an embedded SQLite database
// using the pure-Go modernc.org/sqlite driver. The database runs in WAL mode
// with foreign keys enabled; chunk and tag-link rows are removed through
// cascading deletes.
package sqlite
